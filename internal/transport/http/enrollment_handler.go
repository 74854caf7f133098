package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/platform/logger"
)

type EnrollmentHandler struct {
	log         *logger.Logger
	enrollments *usecase.EnrollmentUseCase
}

func NewEnrollmentHandler(log *logger.Logger, enrollments *usecase.EnrollmentUseCase) *EnrollmentHandler {
	return &EnrollmentHandler{log: log, enrollments: enrollments}
}

// POST /api/courses/:id/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	e, err := h.enrollments.Enroll(c.Request.Context(), p, courseID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GET /api/enrollments/me
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	list, err := h.enrollments.ListMine(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type completeLessonReq struct {
	LessonID uuid.UUID `json:"lessonId" binding:"required"`
}

// POST /api/enrollments/:id/complete-lesson
func (h *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req completeLessonReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	e, err := h.enrollments.CompleteLesson(c.Request.Context(), p, id, req.LessonID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
