package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"atlasacademico/internal/curriculum"
	"atlasacademico/internal/database"
	"atlasacademico/internal/errcode"
	"atlasacademico/internal/storage"
	"atlasacademico/internal/tasks"
)

// exportBlobStore is the slice of the storage client the export sink needs.
type exportBlobStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
}

var _ exportBlobStore = (*storage.Client)(nil)

// exportRedis covers the two Redis operations of the sink: parking the
// document bytes for fallback delivery and publishing the user notification.
type exportRedis interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ExportTaskHandler consumes curriculum export tasks: it aggregates the
// profile data, renders the document and saves it through the primary storage
// path, falling back to a one-shot Redis token when the upload fails.
type ExportTaskHandler struct {
	db          *gorm.DB
	storage     exportBlobStore
	redisClient exportRedis
	aggregator  *curriculum.Aggregator
	fallbackTTL time.Duration
	logger      *slog.Logger
}

// NewExportTaskHandler builds the export task handler.
func NewExportTaskHandler(
	db *gorm.DB,
	storageClient exportBlobStore,
	redisClient exportRedis,
	aggregator *curriculum.Aggregator,
	fallbackTTL time.Duration,
	logger *slog.Logger,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		aggregator:  aggregator,
		fallbackTTL: fallbackTTL,
		logger:      logger,
	}
}

// ProcessTask implements asynq.Handler.
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.CurriculumExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("export_id", uint64(payload.ExportID)),
		slog.Uint64("user_id", uint64(payload.UserID)),
	)
	log.Info("starting curriculum export task")

	var export database.CurriculumExport
	if err := h.db.WithContext(ctx).First(&export, payload.ExportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("export row not found, skipping task")
			return nil
		}
		log.Error("query export failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		h.markFailed(ctx, &export, log)
		notify := ExportNotifyMessage{
			Status:        "error",
			ExportID:      export.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, export.UserID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	data, err := h.aggregator.Aggregate(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, curriculum.ErrProfileMissing) {
			// No profile means no document; retrying cannot fix it.
			log.Warn("profile missing, export aborted")
			h.markFailed(ctx, &export, log)
			notify := ExportNotifyMessage{
				Status:        "error",
				ExportID:      export.ID,
				CorrelationID: payload.CorrelationID,
				ErrorCode:     errcode.ProfileMissing,
				ErrorMessage:  "Perfil não encontrado",
			}
			if err := h.publishNotify(ctx, export.UserID, notify); err != nil {
				log.Error("publish profile missing notification failed", slog.Any("error", err))
			}
			return nil
		}
		log.Error("aggregate curriculum data failed", slog.Any("error", err))
		return err
	}

	pdfBytes, err := curriculum.Generate(data, time.Now())
	if err != nil {
		log.Error("render curriculum document failed", slog.Any("error", err))
		return err
	}

	fileName := curriculum.FileName(data.Profile.Nome)
	update := map[string]any{
		"status":    database.ExportStatusCompleted,
		"file_name": fileName,
	}
	notify := ExportNotifyMessage{
		Status:        "completed",
		ExportID:      export.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}

	objectKey := fmt.Sprintf("curricula/%d/%s.pdf", payload.UserID, uuid.NewString())
	reader := bytes.NewReader(pdfBytes)
	if _, err := h.storage.UploadFile(ctx, objectKey, reader, int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Warn("primary upload failed, parking document for fallback delivery", slog.Any("error", err))

		token := uuid.NewString()
		key := tasks.FallbackKeyPrefix + token
		if err := h.redisClient.Set(ctx, key, pdfBytes, h.fallbackTTL).Err(); err != nil {
			log.Error("fallback save failed", slog.Any("error", err))
			return fmt.Errorf("save document: %w", err)
		}
		update["fallback_token"] = token
		update["object_key"] = ""
		notify.FallbackURL = "/v1/curriculum/fallback/" + token
	} else {
		update["object_key"] = objectKey
		update["fallback_token"] = ""
	}

	if err := h.db.WithContext(ctx).Model(&export).Updates(update).Error; err != nil {
		log.Error("update export row failed", slog.Any("error", err))
		return err
	}

	if degraded := data.Degraded(); len(degraded) > 0 {
		notify.ErrorCode = errcode.DataDegraded
		notify.ErrorMessage = "Algumas seções estão vazias no documento gerado"
		notify.MissingSections = degraded
		log.Warn("document generated with empty sections",
			slog.Int("empty_count", len(degraded)),
			slog.Any("sections", degraded),
		)
	}
	if err := h.publishNotify(ctx, export.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("curriculum export task completed", slog.String("file_name", fileName))
	return nil
}

func (h *ExportTaskHandler) markFailed(ctx context.Context, export *database.CurriculumExport, log *slog.Logger) {
	if err := h.db.WithContext(ctx).Model(export).
		Update("status", database.ExportStatusFailed).Error; err != nil {
		log.Error("mark export failed errored", slog.Any("error", err))
	}
}

func (h *ExportTaskHandler) publishNotify(ctx context.Context, userID uint, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
