package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/platform/logger"
)

type QuizHandler struct {
	log     *logger.Logger
	quizzes *usecase.QuizUseCase
}

func NewQuizHandler(log *logger.Logger, quizzes *usecase.QuizUseCase) *QuizHandler {
	return &QuizHandler{log: log, quizzes: quizzes}
}

// GET /api/courses/:id/quizzes
func (h *QuizHandler) ListByCourse(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	quizzes, err := h.quizzes.ListByCourse(c.Request.Context(), p, courseID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

// POST /api/courses/:id/quizzes
func (h *QuizHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in domain.QuizInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	quiz, err := h.quizzes.Create(c.Request.Context(), p, courseID, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

// GET /api/quizzes/:id
func (h *QuizHandler) GetOne(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.quizzes.GetByID(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// PUT /api/quizzes/:id
func (h *QuizHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch domain.QuizPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	quiz, err := h.quizzes.Update(c.Request.Context(), p, id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// PATCH /api/quizzes/:id/publish
func (h *QuizHandler) TogglePublish(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.quizzes.TogglePublish(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// DELETE /api/quizzes/:id
func (h *QuizHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.quizzes.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted"})
}
