package profile

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/watchtogether/server/internal/auth"
	"github.com/watchtogether/server/internal/logger"
)

// RegisterRoutes mounts profile endpoints on a group that already runs
// the authentication middleware.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/preferences", handler.getPreferences)
	group.PUT("/preferences", handler.updatePreferences)
	group.PUT("/avatar", handler.uploadAvatar)
	group.GET("/avatar", handler.getAvatar)
	group.DELETE("/avatar", handler.deleteAvatar)
	group.GET("/avatar/url", handler.avatarURL)
}

type httpHandler struct {
	service *Service
}

type updatePreferencesRequest struct {
	Theme string `json:"theme" binding:"required"`
}

type preferencesResponse struct {
	Theme     Theme      `json:"theme"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func marshalPreferences(prefs Preferences) preferencesResponse {
	resp := preferencesResponse{Theme: prefs.Theme}
	if !prefs.UpdatedAt.IsZero() {
		updated := prefs.UpdatedAt.UTC()
		resp.UpdatedAt = &updated
	}
	return resp
}

func (h *httpHandler) getPreferences(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	prefs, err := h.service.GetPreferences(c.Request.Context(), user.ID)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("get preferences", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, marshalPreferences(prefs))
}

func (h *httpHandler) updatePreferences(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	prefs, err := h.service.UpdatePreferences(c.Request.Context(), user.ID, req.Theme)
	if err != nil {
		if errors.Is(err, ErrInvalidTheme) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "theme must be one of light, dark, system"})
			return
		}
		logger.FromContext(c.Request.Context()).Error("update preferences", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, marshalPreferences(prefs))
}

func (h *httpHandler) uploadAvatar(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Multipart framing adds a little on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxAvatarSize()+64<<10)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "avatar too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable avatar"})
		return
	}
	defer file.Close()

	avatar, err := h.service.UploadAvatar(c.Request.Context(), user.ID, file, fileHeader.Size)
	if err != nil {
		switch {
		case errors.Is(err, ErrAvatarTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "avatar too large"})
		case errors.Is(err, ErrUnsupportedMediaType):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "avatar must be png, jpeg or webp"})
		default:
			logger.FromContext(c.Request.Context()).Error("upload avatar", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "avatar updated",
		"contentType": avatar.ContentType,
		"size":        avatar.Size,
	})
}

func (h *httpHandler) getAvatar(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	reader, avatar, err := h.service.GetAvatar(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrAvatarNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "avatar not found"})
			return
		}
		logger.FromContext(c.Request.Context()).Error("get avatar", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer reader.Close()

	headers := map[string]string{"Cache-Control": "private, max-age=300"}
	if avatar.ETag != "" {
		headers["ETag"] = strconv.Quote(avatar.ETag)
	}
	c.DataFromReader(http.StatusOK, avatar.Size, avatar.ContentType, reader, headers)
}

func (h *httpHandler) deleteAvatar(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteAvatar(c.Request.Context(), user.ID); err != nil {
		logger.FromContext(c.Request.Context()).Error("delete avatar", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) avatarURL(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	u, expiresAt, err := h.service.AvatarURL(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrAvatarNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "avatar not found"})
			return
		}
		logger.FromContext(c.Request.Context()).Error("presign avatar", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       u,
		"expiresAt": expiresAt.UTC(),
	})
}
