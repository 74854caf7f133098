package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/platform/logger"
)

type UserHandler struct {
	log            *logger.Logger
	users          *usecase.UserUseCase
	maxAvatarBytes int64
}

func NewUserHandler(log *logger.Logger, users *usecase.UserUseCase, maxAvatarBytes int64) *UserHandler {
	return &UserHandler{log: log, users: users, maxAvatarBytes: maxAvatarBytes}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.users.GetMe(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe accepts JSON, or multipart with an optional "avatar" file and the
// profile fields as form values.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var upd domain.ProfileUpdate
	var avatar *usecase.File
	if isMultipart(c) {
		var closeFn func()
		var err error
		avatar, closeFn, err = readUpload(c, "avatar", h.maxAvatarBytes, imageTypes)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		defer closeFn()
		if upd, err = profileFromForm(c); err != nil {
			badRequest(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.UpdateMe(c.Request.Context(), p, upd, avatar)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	profile, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) MakeTeacher(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.MakeTeacher(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Disable(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Disable(c.Request.Context(), p, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User disabled"})
}

func (h *UserHandler) Restore(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Restore(c.Request.Context(), p, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User restored"})
}

type fcmReq struct {
	Token string `json:"token"`
}

func (h *UserHandler) SaveFCMToken(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req fcmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.users.SaveFCMToken(c.Request.Context(), p, req.Token); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token saved"})
}

// profileFromForm reads only the fields present in the form.
func profileFromForm(c *gin.Context) (domain.ProfileUpdate, error) {
	var upd domain.ProfileUpdate
	if v, ok := c.GetPostForm("name"); ok {
		upd.Name = &v
	}
	if v, ok := c.GetPostForm("nickname"); ok {
		upd.Nickname = &v
	}
	if v, ok := c.GetPostForm("location"); ok {
		upd.Location = &v
	}
	if v, ok := c.GetPostForm("gender"); ok {
		upd.Gender = &v
	}
	if v, ok := c.GetPostForm("dateOfBirth"); ok && strings.TrimSpace(v) != "" {
		dob, err := parseDate(v)
		if err != nil {
			return upd, err
		}
		upd.DateOfBirth = &dob
	}
	if v, ok := c.GetPostForm("deleteAvatar"); ok {
		upd.DeleteAvatar = v == "true" || v == "1"
	}
	return upd, nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	var t time.Time
	err := json.Unmarshal([]byte(`"`+v+`"`), &t)
	return t, err
}
