package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/learning-platform/internal/domain"
)

const principalKey = "principal"

// Resolver turns a bearer token into a principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.Principal, error)
}

// AuthMiddleware rejects requests without a valid, verified credential.
func AuthMiddleware(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthenticated", "Authorization header is required")
			return
		}

		p, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrEmailNotVerified) {
				abortError(c, http.StatusForbidden, "email_not_verified", "Email is not verified")
				return
			}
			if errors.Is(err, domain.ErrUnauthenticated) {
				abortError(c, http.StatusUnauthorized, "unauthenticated", "Invalid or expired token")
				return
			}
			abortError(c, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}

		setPrincipal(c, p)
		c.Next()
	}
}

// OptionalAuth attaches a principal when a usable token is present and lets
// the request through anonymously otherwise.
func OptionalAuth(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if p, err := resolver.Resolve(c.Request.Context(), token); err == nil {
				setPrincipal(c, p)
			}
		}
		c.Next()
	}
}

// Principal returns the authenticated caller, if any.
func Principal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

// Viewer is Principal as a pointer, nil for anonymous callers.
func Viewer(c *gin.Context) *domain.Principal {
	p, ok := Principal(c)
	if !ok {
		return nil
	}
	return &p
}

func setPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(principalKey, p)
	c.Set("userId", p.ID.String())
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"message": message, "code": code}})
}
