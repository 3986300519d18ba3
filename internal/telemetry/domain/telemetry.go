package domain

import "time"

// Event types emitted by the service.
const (
	EventSessionCreated    = "session_created"
	EventAnalysisCompleted = "analysis_completed"
	EventAnalysisFailed    = "analysis_failed"
	EventHTTPRequest       = "http_request"
)

// Event is a telemetry event (org-scoped, optional user/device/session).
// Events are best-effort operational signals, never part of request semantics.
type Event struct {
	OrgID     string            `json:"org_id"`
	UserID    string            `json:"user_id,omitempty"`
	DeviceID  string            `json:"device_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	EventType string            `json:"event_type"`
	Source    string            `json:"source"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
