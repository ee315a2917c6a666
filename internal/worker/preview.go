package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"atlasacademico/internal/database"
	"atlasacademico/internal/storage"
	"atlasacademico/internal/tasks"
)

// PreviewTaskHandler refreshes the card image shown in search results by
// screenshotting the public profile page with headless Chromium. The whole
// task is best effort; it never blocks a profile update.
type PreviewTaskHandler struct {
	db              *gorm.DB
	storage         *storage.Client
	logger          *slog.Logger
	frontendBaseURL string
}

// NewPreviewTaskHandler builds the preview task handler.
func NewPreviewTaskHandler(db *gorm.DB, storageClient *storage.Client, logger *slog.Logger, frontendBaseURL string) *PreviewTaskHandler {
	return &PreviewTaskHandler{
		db:              db,
		storage:         storageClient,
		logger:          logger,
		frontendBaseURL: strings.TrimRight(strings.TrimSpace(frontendBaseURL), "/"),
	}
}

// ProcessTask implements asynq.Handler.
func (h *PreviewTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ProfilePreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal preview payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(slog.Uint64("profile_id", uint64(payload.ProfileID)))

	var profile database.Profile
	if err := h.db.WithContext(ctx).First(&profile, payload.ProfileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("profile not found, skipping preview")
			return nil
		}
		return err
	}

	if h.frontendBaseURL == "" {
		log.Warn("frontend base url not configured, skipping preview")
		return nil
	}

	targetURL := fmt.Sprintf("%s/perfil/%d", h.frontendBaseURL, profile.ID)
	previewBytes, err := capturePagePreview(log, targetURL)
	if err != nil {
		// Preview failures are logged, not retried.
		log.Warn("capture profile preview failed", slog.Any("error", err))
		return nil
	}

	objectKey := fmt.Sprintf("thumbnails/profile/%d/preview.jpg", profile.ID)
	reader := bytes.NewReader(previewBytes)
	if _, err := h.storage.UploadFile(ctx, objectKey, reader, int64(len(previewBytes)), "image/jpeg"); err != nil {
		log.Warn("upload profile preview failed", slog.Any("error", err))
		return nil
	}

	presignedURL, err := h.storage.GeneratePresignedURL(ctx, objectKey, 7*24*time.Hour)
	if err != nil {
		log.Warn("presign profile preview failed", slog.Any("error", err))
		return nil
	}

	if err := h.db.WithContext(ctx).Model(&profile).Updates(map[string]any{
		"preview_image_url":  presignedURL,
		"preview_object_key": objectKey,
	}).Error; err != nil {
		log.Warn("persist profile preview failed", slog.Any("error", err))
		return nil
	}

	log.Info("profile preview refreshed")
	return nil
}

const previewQuality = 80

func capturePagePreview(logger *slog.Logger, targetURL string) (_ []byte, err error) {
	logger.Info("navigating to public profile page", slog.String("url", targetURL))

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer func() {
		if err != nil {
			launch.Cleanup()
		}
	}()

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Timeout(60 * time.Second)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
		launch.Cleanup()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: targetURL})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait page load: %w", err)
	}
	if err := page.WaitIdle(10 * time.Second); err != nil {
		return nil, fmt.Errorf("wait page idle: %w", err)
	}

	quality := previewQuality
	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}
