package domain

import (
	"errors"
	"time"
)

// Result is the purity outcome of a completed session. A result exists if and
// only if its session completed; when more than one row exists for a session,
// the latest by creation time is authoritative.
type Result struct {
	ID               string
	SessionID        string
	PurityPercentage float64 // [0, 100]
	ConfidenceScore  float64 // [0, 1]
	ModelVersion     string
	Contaminants     []string
	CreatedAt        time.Time
}

// Validate validates the result for persistence.
func (r *Result) Validate() error {
	if r.SessionID == "" {
		return errors.New("session_id is required")
	}
	if r.PurityPercentage < 0 || r.PurityPercentage > 100 {
		return errors.New("purity_percentage must be in [0, 100]")
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return errors.New("confidence_score must be in [0, 1]")
	}
	if r.ModelVersion == "" {
		return errors.New("model_version is required")
	}
	return nil
}
