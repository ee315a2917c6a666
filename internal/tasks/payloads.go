package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names, shared by the queue producer and the worker mux.
const (
	TypeCurriculumExport = "curriculum:export"
	TypeWelcomeEmail     = "email:welcome"
	TypeProfilePreview   = "profile:preview"
)

// FallbackKeyPrefix is the Redis key prefix under which the worker parks a
// generated document when the primary upload path fails. The API streams and
// deletes the entry on first download.
const FallbackKeyPrefix = "export:fallback:"

// CurriculumExportPayload carries the minimum needed to generate one export.
type CurriculumExportPayload struct {
	ExportID      uint   `json:"export_id"`
	UserID        uint   `json:"user_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewCurriculumExportTask builds the export task for an already persisted
// CurriculumExport row.
func NewCurriculumExportTask(exportID, userID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CurriculumExportPayload{
		ExportID:      exportID,
		UserID:        userID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCurriculumExport, payload), nil
}

// WelcomeEmailPayload identifies the freshly registered account to greet.
type WelcomeEmailPayload struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Nome   string `json:"nome"`
}

// NewWelcomeEmailTask builds the post-registration welcome email task.
func NewWelcomeEmailTask(userID uint, email, nome string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		UserID: userID,
		Email:  email,
		Nome:   nome,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWelcomeEmail, payload), nil
}

// ProfilePreviewPayload identifies the profile whose public page should be
// re-rendered into a preview image.
type ProfilePreviewPayload struct {
	ProfileID uint `json:"profile_id"`
}

// NewProfilePreviewTask builds the best-effort preview refresh task.
func NewProfilePreviewTask(profileID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ProfilePreviewPayload{ProfileID: profileID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeProfilePreview, payload), nil
}
