package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
)

type stubResolver map[string]error

var stubID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func (s stubResolver) Resolve(_ context.Context, token string) (domain.Principal, error) {
	if err, ok := s[token]; ok && err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{ID: stubID, Role: domain.RoleStudent, EmailVerified: true}, nil
}

func newTestEngine(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		if p := Viewer(c); p != nil {
			c.String(http.StatusOK, p.ID.String())
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestEngine(AuthMiddleware(stubResolver{
		"bad":        domain.ErrUnauthenticated,
		"unverified": domain.ErrEmailNotVerified,
	}))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token abc", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer unverified", http.StatusForbidden},
		{"Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%q: status %d, want %d", tc.header, w.Code, tc.status)
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	r := newTestEngine(OptionalAuth(stubResolver{"bad": domain.ErrUnauthenticated}))

	for header, want := range map[string]string{
		"":           "anonymous",
		"Bearer bad": "anonymous",
		"Bearer ok":  stubID.String(),
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("%q: got %d %q, want %q", header, w.Code, w.Body.String(), want)
		}
	}
}

func TestRateLimiterWithoutRedisPassesThrough(t *testing.T) {
	r := newTestEngine(NewRateLimiter(nil).Limit("login", 0, 0))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}
