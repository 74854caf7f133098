package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/oauth"
	"github.com/waste3d/learning-platform/internal/infrastructure/storage"
	"github.com/waste3d/learning-platform/internal/middleware"
	"github.com/waste3d/learning-platform/internal/platform/logger"
)

type errorKind struct {
	target error
	status int
	code   string
}

// Порядок важен: EmailNotVerified проверяется раньше общих типов
var errorKinds = []errorKind{
	{domain.ErrEmailNotVerified, http.StatusForbidden, "email_not_verified"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrInvalidState, http.StatusUnprocessableEntity, "invalid_state"},
	{domain.ErrValidation, http.StatusBadRequest, "validation_error"},
	{storage.ErrDisabled, http.StatusServiceUnavailable, "storage_unavailable"},
	{oauth.ErrDisabled, http.StatusServiceUnavailable, "google_unavailable"},
}

// respondError renders {"error":{"message","code"}}. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			c.AbortWithStatusJSON(k.status, errorBody(err.Error(), k.code))
			return
		}
	}
	log.Error("Unhandled error", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("internal server error", "internal_error"))
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody(err.Error(), "validation_error"))
}

func errorBody(message, code string) gin.H {
	return gin.H{"error": gin.H{"message": message, "code": code}}
}

// paramID parses a uuid path parameter; malformed ids are reported as 404.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody(name+" not found", "not_found"))
		return uuid.Nil, false
	}
	return id, true
}

// principal is only called behind AuthMiddleware.
func principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("authentication required", "unauthenticated"))
	}
	return p, ok
}
