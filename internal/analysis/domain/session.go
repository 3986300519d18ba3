package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Status is the lifecycle state of an analysis session. Transitions only move
// forward: pending → processing → {completed | failed}. Completed and failed
// are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the state machine permits moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Session is one analysis attempt against a device's spectral sample.
type Session struct {
	ID          string
	DeviceID    string
	UserID      string // empty for device-key initiated sessions
	MaterialID  string
	Name        string
	SampleType  string
	Status      Status
	StartedAt   time.Time
	CompletedAt *time.Time
	Metadata    Metadata
}

// SpectrumEcho is the raw-spectrum annotation recorded on ingest.
type SpectrumEcho struct {
	Points       int     `json:"points"`
	WavelengthLo float64 `json:"wavelength_lo"`
	WavelengthHi float64 `json:"wavelength_hi"`
}

// InferenceSnapshot is the inference-outcome annotation recorded on completion.
type InferenceSnapshot struct {
	ModelVersion     string  `json:"model_version"`
	ProcessingTimeMS float64 `json:"processing_time_ms"`
}

// Metadata is the closed set of session annotations. It is persisted as JSONB;
// absent annotations are omitted.
type Metadata struct {
	RawSpectrum   *SpectrumEcho      `json:"raw_spectrum,omitempty"`
	Inference     *InferenceSnapshot `json:"inference,omitempty"`
	FailureReason string             `json:"failure_reason,omitempty"`
}

// MarshalValue serializes the metadata for storage. Empty metadata becomes "{}".
func (m Metadata) MarshalValue() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalValue parses stored metadata. nil or empty input yields zero Metadata.
func (m *Metadata) UnmarshalValue(b []byte) error {
	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(b, m)
}

// Validate validates the session for persistence.
func (s *Session) Validate() error {
	if s.DeviceID == "" {
		return errors.New("device_id is required")
	}
	switch s.Status {
	case "":
		s.Status = StatusPending
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
	default:
		return errors.New("invalid status")
	}
	return nil
}
