package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/middleware"
	"github.com/waste3d/learning-platform/internal/platform/logger"
)

type LessonHandler struct {
	log           *logger.Logger
	lessons       *usecase.LessonUseCase
	maxVideoBytes int64
}

func NewLessonHandler(log *logger.Logger, lessons *usecase.LessonUseCase, maxVideoBytes int64) *LessonHandler {
	return &LessonHandler{log: log, lessons: lessons, maxVideoBytes: maxVideoBytes}
}

// GET /api/courses/:id/lessons
func (h *LessonHandler) ListByCourse(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	lessons, err := h.lessons.ListByCourse(c.Request.Context(), middleware.Viewer(c), courseID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lessons)
}

// POST /api/courses/:id/lessons, JSON or multipart with an optional "video".
func (h *LessonHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in domain.LessonInput
	var video *usecase.File
	if isMultipart(c) {
		if err := c.ShouldBind(&in); err != nil {
			badRequest(c, err)
			return
		}
		var closeFn func()
		var err error
		if video, closeFn, err = readUpload(c, "video", h.maxVideoBytes, videoTypes); err != nil {
			respondError(c, h.log, err)
			return
		}
		defer closeFn()
	} else if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	lesson, err := h.lessons.Create(c.Request.Context(), p, courseID, in, video)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

// GET /api/lessons/:id
func (h *LessonHandler) GetOne(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lesson, err := h.lessons.GetByID(c.Request.Context(), middleware.Viewer(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// PUT /api/lessons/:id
func (h *LessonHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var patch domain.LessonPatch
	var video *usecase.File
	if isMultipart(c) {
		var err error
		if patch, err = lessonPatchFromForm(c); err != nil {
			badRequest(c, err)
			return
		}
		var closeFn func()
		if video, closeFn, err = readUpload(c, "video", h.maxVideoBytes, videoTypes); err != nil {
			respondError(c, h.log, err)
			return
		}
		defer closeFn()
	} else if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	lesson, err := h.lessons.Update(c.Request.Context(), p, id, patch, video)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// PATCH /api/lessons/:id/publish
func (h *LessonHandler) TogglePublish(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lesson, err := h.lessons.TogglePublish(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// DELETE /api/lessons/:id
func (h *LessonHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.lessons.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lesson deleted"})
}

// lessonPatchFromForm mirrors the JSON allow-list for multipart requests.
func lessonPatchFromForm(c *gin.Context) (domain.LessonPatch, error) {
	var patch domain.LessonPatch
	if v, ok := c.GetPostForm("title"); ok {
		patch.Title = &v
	}
	if v, ok := c.GetPostForm("content"); ok {
		patch.Content = &v
	}
	if v, ok := c.GetPostForm("videoUrl"); ok {
		patch.VideoURL = &v
	}
	for field, dst := range map[string]**int{"duration": &patch.Duration, "order": &patch.Order} {
		v, ok := c.GetPostForm(field)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return patch, fmt.Errorf("%s must be a number", field)
		}
		*dst = &n
	}
	if v, ok := c.GetPostFormArray("resources"); ok {
		patch.Resources = v
	}
	return patch, nil
}
