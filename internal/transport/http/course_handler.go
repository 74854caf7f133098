package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/middleware"
	"github.com/waste3d/learning-platform/internal/platform/logger"
)

type CourseHandler struct {
	log           *logger.Logger
	courses       *usecase.CourseUseCase
	maxImageBytes int64
}

func NewCourseHandler(log *logger.Logger, courses *usecase.CourseUseCase, maxImageBytes int64) *CourseHandler {
	return &CourseHandler{log: log, courses: courses, maxImageBytes: maxImageBytes}
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var tags []string
	for _, raw := range c.QueryArray("tags") {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	courses, err := h.courses.ListPublished(c.Request.Context(), domain.CourseFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Tags:     tags,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GET /api/courses/my
func (h *CourseHandler) ListMine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	courses, err := h.courses.ListMine(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GET /api/courses/:id
func (h *CourseHandler) GetOne(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	course, err := h.courses.GetByID(c.Request.Context(), middleware.Viewer(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// POST /api/courses
func (h *CourseHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in domain.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	course, err := h.courses.Create(c.Request.Context(), p, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// PUT /api/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch domain.CoursePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	course, err := h.courses.Update(c.Request.Context(), p, id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// POST /api/courses/:id/thumbnail
func (h *CourseHandler) UploadThumbnail(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, closeFn, err := readUpload(c, "thumbnail", h.maxImageBytes, imageTypes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer closeFn()
	if file == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("thumbnail file is required", "validation_error"))
		return
	}
	course, err := h.courses.UploadThumbnail(c.Request.Context(), p, id, *file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// PATCH /api/courses/:id/publish
func (h *CourseHandler) TogglePublish(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	course, err := h.courses.TogglePublish(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// DELETE /api/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.courses.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}
