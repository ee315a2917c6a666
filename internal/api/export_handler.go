package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"atlasacademico/internal/api/middleware"
	"atlasacademico/internal/database"
	"atlasacademico/internal/storage"
	"atlasacademico/internal/tasks"
)

// fallbackStore is the slice of Redis the fallback stream needs: fetch the
// parked document and burn the token.
type fallbackStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ExportHandler owns the curriculum export surface: requesting a generation,
// polling its status and downloading the result through either the primary
// presigned link or the one-shot fallback stream.
type ExportHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     *storage.Client
	redis       fallbackStore
	logger      *slog.Logger
}

// NewExportHandler builds the export handler.
func NewExportHandler(
	db *gorm.DB,
	asynqClient *asynq.Client,
	storageClient *storage.Client,
	redisClient fallbackStore,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
		redis:       redisClient,
		logger:      logger,
	}
}

type exportResponse struct {
	ID        uint      `json:"id"`
	Status    string    `json:"status"`
	FileName  string    `json:"file_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newExportResponse(e *database.CurriculumExport) exportResponse {
	return exportResponse{
		ID:        e.ID,
		Status:    e.Status,
		FileName:  e.FileName,
		CreatedAt: e.CreatedAt,
	}
}

// RequestExport persists a pending export row and enqueues the generation
// task, replying 202 immediately.
func (h *ExportHandler) RequestExport(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	correlationID := middleware.GetCorrelationID(c)
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	export := database.CurriculumExport{
		UserID:        userID,
		Status:        database.ExportStatusPending,
		CorrelationID: correlationID,
	}
	if err := h.db.WithContext(ctx).Create(&export).Error; err != nil {
		logger.Error("create export row failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	task, err := tasks.NewCurriculumExportTask(export.ID, userID, correlationID)
	if err != nil {
		logger.Error("build export task failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		logger.Error("enqueue export failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("export requested",
		slog.Uint64("export_id", uint64(export.ID)),
		slog.String("task_id", info.ID),
	)
	c.JSON(http.StatusAccepted, gin.H{
		"message":   "curriculum generation request accepted",
		"export_id": export.ID,
		"task_id":   info.ID,
	})
}

// GetLatestExport returns the caller's most recent export, for polling.
func (h *ExportHandler) GetLatestExport(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var export database.CurriculumExport
	err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&export).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "no exports yet")
			return
		}
		middleware.LoggerFromContext(c).Error("query latest export failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, newExportResponse(&export))
}

// GetDownloadLink resolves a completed export to a download URL: a presigned
// object link on the primary path, or the fallback stream when the document
// was parked in Redis.
func (h *ExportHandler) GetDownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	exportID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid export id")
		return
	}

	ctx := c.Request.Context()
	var export database.CurriculumExport
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(exportID), userID).
		First(&export).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "export not found")
			return
		}
		middleware.LoggerFromContext(c).Error("query export failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if export.Status != database.ExportStatusCompleted {
		Conflict(c, "document not ready")
		return
	}

	if export.ObjectKey != "" {
		signedURL, err := h.storage.GenerateDownloadURL(ctx, export.ObjectKey, export.FileName, 5*time.Minute)
		if err != nil {
			middleware.LoggerFromContext(c).Error("presign download failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": signedURL})
		return
	}

	if export.FallbackToken != "" {
		c.JSON(http.StatusOK, gin.H{"url": "/v1/curriculum/fallback/" + export.FallbackToken})
		return
	}

	Conflict(c, "document not ready")
}

// DownloadFallback streams a parked document exactly once. The token itself is
// the capability; the entry is deleted as soon as it is served.
func (h *ExportHandler) DownloadFallback(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		BadRequest(c, "token missing")
		return
	}

	ctx := c.Request.Context()
	key := tasks.FallbackKeyPrefix + token
	pdf, err := h.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			Error(c, http.StatusGone, "download expired")
			return
		}
		middleware.LoggerFromContext(c).Error("fallback lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	fileName := "Curriculo_Oficial.pdf"
	var export database.CurriculumExport
	if err := h.db.WithContext(ctx).
		Where("fallback_token = ?", token).
		First(&export).Error; err == nil && export.FileName != "" {
		fileName = export.FileName
	}

	if err := h.redis.Del(ctx, key).Err(); err != nil {
		middleware.LoggerFromContext(c).Warn("fallback delete failed", slog.Any("error", err))
	}

	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
