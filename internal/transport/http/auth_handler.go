package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/infrastructure/security"
	"github.com/waste3d/learning-platform/internal/platform/logger"
)

const (
	refreshCookie = "refresh_token"
	oauthState    = "google_oauth_state"
	oauthStateTTL = 10 * 60
)

type AuthHandler struct {
	log          *logger.Logger
	auth         *usecase.AuthUseCase
	cookieTTL    int
	secureCookie bool
}

func NewAuthHandler(log *logger.Logger, auth *usecase.AuthUseCase, refreshTTLSeconds int, secureCookie bool) *AuthHandler {
	return &AuthHandler{log: log, auth: auth, cookieTTL: refreshTTLSeconds, secureCookie: secureCookie}
}

type registerReq struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenReq struct {
	Token string `json:"token" binding:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type emailReq struct {
	Email string `json:"email" binding:"required,email"`
}

type resetReq struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "message": "Check your email to verify the account"})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a new link has been sent"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tokens, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.setRefreshCookie(c, tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"user":         user,
	})
}

// Refresh takes the token from the cookie first, then from the body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := h.refreshToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Refresh token not found", "unauthenticated"))
		return
	}
	tokens, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.setRefreshCookie(c, tokens.RefreshToken)
	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), h.refreshToken(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.SetCookie(refreshCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// GoogleStart redirects to the Google consent screen. The state is kept in a
// short-lived cookie and checked on the callback.
func (h *AuthHandler) GoogleStart(c *gin.Context) {
	state, _, err := security.NewOpaqueToken()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	url, err := h.auth.GoogleAuthURL(state)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthState, state, oauthStateTTL, "/api/auth/google", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, url)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	expected, _ := c.Cookie(oauthState)
	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Invalid OAuth state", "unauthenticated"))
		return
	}
	c.SetCookie(oauthState, "", -1, "/api/auth/google", "", h.secureCookie, true)

	if e := c.Query("error"); e != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Google sign-in cancelled: "+e, "unauthenticated"))
		return
	}
	tokens, user, err := h.auth.GoogleLogin(c.Request.Context(), c.Query("code"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.setRefreshCookie(c, tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"user":         user,
	})
}

func (h *AuthHandler) refreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshCookie); err == nil && token != "" {
		return token
	}
	var req refreshReq
	_ = c.ShouldBindJSON(&req)
	return req.RefreshToken
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, token, h.cookieTTL, "/", "", h.secureCookie, true)
}
