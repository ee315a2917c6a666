package worker

// ExportNotifyMessage is the websocket message protocol, forwarded to the
// client through Redis pub/sub. Field names must stay in sync with the
// frontend parser.
type ExportNotifyMessage struct {
	Status          string   `json:"status"`
	ExportID        uint     `json:"export_id"`
	CorrelationID   string   `json:"correlation_id"`
	ErrorCode       int      `json:"error_code"`
	ErrorMessage    string   `json:"error_message"`
	MissingSections []string `json:"missing_sections,omitempty"`
	FallbackURL     string   `json:"fallback_url,omitempty"`
}
