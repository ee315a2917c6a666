package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"atlasacademico/internal/api/middleware"
	"atlasacademico/internal/records"
	"atlasacademico/internal/storage"
)

// AvatarHandler uploads profile pictures. Files are virus-scanned before they
// reach storage, and only common image types are accepted.
type AvatarHandler struct {
	store     *records.Store
	storage   *storage.Client
	logger    *slog.Logger
	clamdAddr string
}

// NewAvatarHandler builds the avatar handler. An empty clamdAddr skips the
// scan, for local development.
func NewAvatarHandler(store *records.Store, storageClient *storage.Client, logger *slog.Logger, clamdAddr string) *AvatarHandler {
	return &AvatarHandler{
		store:     store,
		storage:   storageClient,
		logger:    logger,
		clamdAddr: clamdAddr,
	}
}

const maxAvatarSize = 5 << 20

var avatarExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Upload replaces the caller's avatar, deleting the previous object.
func (h *AvatarHandler) Upload(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size > maxAvatarSize {
		BadRequest(c, "file too large")
		return
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	contentType, ok := avatarExtensions[ext]
	if !ok {
		BadRequest(c, "unsupported image type")
		return
	}

	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	if h.clamdAddr != "" {
		clean, err := h.scanFile(file)
		if err != nil {
			logger.Error("avatar scan failed", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
		if !clean {
			logger.Warn("avatar upload rejected by scanner")
			Forbidden(c, "malicious file detected")
			return
		}
	}

	ctx := c.Request.Context()
	profile, err := h.store.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "profile not found")
			return
		}
		logger.Error("load profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer reader.Close()

	objectKey := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), ext)
	if _, err := h.storage.UploadFile(ctx, objectKey, reader, file.Size, contentType); err != nil {
		logger.Error("avatar upload failed", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	previousKey := profile.AvatarObjectKey
	signedURL, err := h.storage.GeneratePresignedURL(ctx, objectKey, 24*time.Hour)
	if err != nil {
		logger.Error("presign avatar failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	profile.AvatarObjectKey = objectKey
	profile.AvatarURL = signedURL
	if err := h.store.UpdateProfile(ctx, profile); err != nil {
		logger.Error("persist avatar failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if previousKey != "" {
		if err := h.storage.DeleteObject(ctx, previousKey); err != nil {
			logger.Warn("delete previous avatar failed", slog.Any("error", err))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"avatar_url": signedURL})
}

func (h *AvatarHandler) scanFile(file *multipart.FileHeader) (bool, error) {
	reader, err := file.Open()
	if err != nil {
		return false, err
	}
	defer reader.Close()

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	if err != nil {
		return false, err
	}
	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return false, nil
		}
	}
	return true, nil
}
