package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"atlasacademico/internal/mailer"
	"atlasacademico/internal/tasks"
)

// MailTaskHandler consumes transactional email tasks.
type MailTaskHandler struct {
	mailer *mailer.Client
	logger *slog.Logger
}

// NewMailTaskHandler builds the mail task handler.
func NewMailTaskHandler(mailerClient *mailer.Client, logger *slog.Logger) *MailTaskHandler {
	return &MailTaskHandler{mailer: mailerClient, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *MailTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal welcome email payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.Uint64("user_id", uint64(payload.UserID)),
		slog.String("email", payload.Email),
	)
	if err := h.mailer.SendWelcome(ctx, payload.Email, payload.Nome); err != nil {
		log.Error("send welcome email failed", slog.Any("error", err))
		return err
	}

	log.Info("welcome email sent")
	return nil
}
