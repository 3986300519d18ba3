package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"purityscan/backend/internal/analysis/domain"
	analysisrepo "purityscan/backend/internal/analysis/repository"
	"purityscan/backend/internal/audit"
	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/inference"
	"purityscan/backend/internal/platform/apperr"
	"purityscan/backend/internal/telemetry"
	telemetrydomain "purityscan/backend/internal/telemetry/domain"
)

// SpectrumValidator checks a canonical spectrum before any state is touched.
type SpectrumValidator interface {
	Validate(wavelengths, intensities []float64) error
}

// IngestRequest carries one ingestion call. Exactly one of DeviceID and
// SessionID selects the target; device-key callers may leave both empty and
// ingest on their own device. Rerun opts into a fresh cycle when SessionID
// names a failed session.
type IngestRequest struct {
	DeviceID    string
	SessionID   string
	Wavelengths []float64
	Intensities []float64
	Rerun       bool
}

// IngestOutcome is the final session and its result.
type IngestOutcome struct {
	Session *domain.Session
	Result  *domain.Result
}

// Coordinator drives a session through pending → processing → terminal around
// one bounded inference call. The conditional status update in the repository
// is the only lock: it is never held across the inference call, and a late
// inference outcome can only apply while the session is still processing.
type Coordinator struct {
	sessions  analysisrepo.Repository
	devices   DeviceRepo
	analyzer  inference.Analyzer
	validator SpectrumValidator
	auditor   audit.AuditLogger
	emitter   telemetry.EventEmitter
}

// NewCoordinator returns a Coordinator with the given dependencies. auditor
// and emitter may be nil.
func NewCoordinator(sessions analysisrepo.Repository, devices DeviceRepo, analyzer inference.Analyzer, validator SpectrumValidator, auditor audit.AuditLogger, emitter telemetry.EventEmitter) *Coordinator {
	return &Coordinator{
		sessions:  sessions,
		devices:   devices,
		analyzer:  analyzer,
		validator: validator,
		auditor:   auditor,
		emitter:   emitter,
	}
}

// Ingest validates the sample, acquires the session's processing state, runs
// inference, and persists the outcome. Validation, authorization, and conflict
// failures mutate nothing; an inference failure marks the session failed with
// a recorded reason before the error is propagated.
func (c *Coordinator) Ingest(ctx context.Context, ident *identitydomain.Identity, req IngestRequest) (*IngestOutcome, error) {
	if err := c.validator.Validate(req.Wavelengths, req.Intensities); err != nil {
		return nil, err
	}
	sess, err := c.resolveSession(ctx, ident, req)
	if err != nil {
		return nil, err
	}

	meta := sess.Metadata
	meta.RawSpectrum = &domain.SpectrumEcho{
		Points:       len(req.Wavelengths),
		WavelengthLo: req.Wavelengths[0],
		WavelengthHi: req.Wavelengths[len(req.Wavelengths)-1],
	}
	won, err := c.sessions.TransitionStatus(ctx, sess.ID, domain.StatusPending, domain.StatusProcessing, nil, &meta)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "session transition failed", err)
	}
	if !won {
		return nil, apperr.New(apperr.CodeConflict, "session is not pending")
	}
	sess.Status = domain.StatusProcessing
	sess.Metadata = meta
	if c.auditor != nil {
		c.auditor.LogEvent(ctx, ident.OrgID, ident.UserID, audit.ActionAnalysisStarted, audit.ResourceSession, sess.ID)
	}

	infRes, err := c.analyzer.Analyze(ctx, req.Wavelengths, req.Intensities)
	if err != nil {
		return nil, c.failSession(ctx, ident, sess, err)
	}
	return c.completeSession(ctx, ident, sess, infRes)
}

// resolveSession finds or creates the pending session this call targets.
// Nothing is mutated on any rejection path.
func (c *Coordinator) resolveSession(ctx context.Context, ident *identitydomain.Identity, req IngestRequest) (*domain.Session, error) {
	if req.SessionID != "" {
		sess, err := c.sessions.GetByIDForOrg(ctx, ident.OrgID, req.SessionID)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "session lookup failed", err)
		}
		if sess == nil {
			return nil, apperr.New(apperr.CodeNotFound, "session not found")
		}
		switch sess.Status {
		case domain.StatusPending:
			return sess, nil
		case domain.StatusFailed:
			if req.Rerun {
				// Terminal states are never re-entered: a re-run is a fresh
				// session on the same device.
				return c.createSession(ctx, ident, sess.DeviceID, sess.Name, sess.SampleType)
			}
			return nil, apperr.New(apperr.CodeConflict, "session already failed; re-issue with rerun to start a fresh cycle")
		case domain.StatusProcessing:
			return nil, apperr.New(apperr.CodeConflict, "session is already processing")
		default:
			return nil, apperr.New(apperr.CodeConflict, "session already completed")
		}
	}

	deviceID := req.DeviceID
	if deviceID == "" && ident.IsDevice() {
		deviceID = ident.DeviceID
	}
	if deviceID == "" {
		return nil, apperr.New(apperr.CodeValidation, "device_id or session_id is required")
	}
	return c.createSession(ctx, ident, deviceID, "", "")
}

func (c *Coordinator) createSession(ctx context.Context, ident *identitydomain.Identity, deviceID, name, sampleType string) (*domain.Session, error) {
	dev, err := c.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "device lookup failed", err)
	}
	if dev == nil {
		return nil, apperr.New(apperr.CodeNotFound, "device not found")
	}
	if dev.OrgID != ident.OrgID {
		return nil, apperr.New(apperr.CodeUnauthorized, "device belongs to another organization")
	}
	sess := &domain.Session{
		ID:         uuid.New().String(),
		DeviceID:   dev.ID,
		UserID:     ident.UserID,
		Name:       name,
		SampleType: sampleType,
		Status:     domain.StatusPending,
		StartedAt:  time.Now().UTC(),
	}
	if err := c.sessions.Create(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "session create failed", err)
	}
	return sess, nil
}

// failSession marks the session failed with the reason and returns the
// original classified error. Losing the terminal transition means another
// writer already finished the session; the loss is logged, not surfaced.
func (c *Coordinator) failSession(ctx context.Context, ident *identitydomain.Identity, sess *domain.Session, cause error) error {
	now := time.Now().UTC()
	meta := sess.Metadata
	meta.FailureReason = cause.Error()
	won, err := c.sessions.TransitionStatus(ctx, sess.ID, domain.StatusProcessing, domain.StatusFailed, &now, &meta)
	if err != nil {
		log.Printf("analysis: marking session %s failed: %v", sess.ID, err)
	} else if !won {
		log.Printf("analysis: session %s no longer processing; failure not recorded", sess.ID)
	}
	if c.auditor != nil {
		c.auditor.LogEvent(ctx, ident.OrgID, ident.UserID, audit.ActionAnalysisFailed, audit.ResourceSession, sess.ID)
	}
	telemetry.EmitAsync(c.emitter, ctx, &telemetrydomain.Event{
		OrgID:     ident.OrgID,
		UserID:    ident.UserID,
		DeviceID:  sess.DeviceID,
		SessionID: sess.ID,
		EventType: telemetrydomain.EventAnalysisFailed,
		Source:    "api",
		Metadata:  map[string]string{"reason": meta.FailureReason},
		CreatedAt: now,
	})
	if apperr.CodeOf(cause) == apperr.CodeInternal {
		return apperr.Wrap(apperr.CodeUnavailable, "inference failed", cause)
	}
	return cause
}

func (c *Coordinator) completeSession(ctx context.Context, ident *identitydomain.Identity, sess *domain.Session, infRes *inference.Result) (*IngestOutcome, error) {
	now := time.Now().UTC()
	result := &domain.Result{
		ID:               uuid.New().String(),
		SessionID:        sess.ID,
		PurityPercentage: infRes.PurityPercentage,
		ConfidenceScore:  infRes.ConfidenceScore,
		ModelVersion:     infRes.ModelVersion,
		Contaminants:     infRes.Contaminants,
		CreatedAt:        now,
	}
	if err := result.Validate(); err != nil {
		return nil, c.failSession(ctx, ident, sess, apperr.Wrap(apperr.CodeUnavailable, "inference returned an invalid result", err))
	}
	meta := sess.Metadata
	meta.Inference = &domain.InferenceSnapshot{
		ModelVersion:     infRes.ModelVersion,
		ProcessingTimeMS: float64(infRes.ProcessingTime) / float64(time.Millisecond),
	}
	won, err := c.sessions.CompleteWithResult(ctx, sess.ID, now, meta, result)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "persisting analysis outcome failed", err)
	}
	if !won {
		return nil, apperr.New(apperr.CodeConflict, "session no longer processing; result discarded")
	}
	sess.Status = domain.StatusCompleted
	sess.CompletedAt = &now
	sess.Metadata = meta
	if c.auditor != nil {
		c.auditor.LogEvent(ctx, ident.OrgID, ident.UserID, audit.ActionAnalysisCompleted, audit.ResourceSession, sess.ID)
	}
	telemetry.EmitAsync(c.emitter, ctx, &telemetrydomain.Event{
		OrgID:     ident.OrgID,
		UserID:    ident.UserID,
		DeviceID:  sess.DeviceID,
		SessionID: sess.ID,
		EventType: telemetrydomain.EventAnalysisCompleted,
		Source:    "api",
		Metadata: map[string]string{
			"model_version": result.ModelVersion,
			"purity":        fmt.Sprintf("%.2f", result.PurityPercentage),
		},
		CreatedAt: now,
	})
	return &IngestOutcome{Session: sess, Result: result}, nil
}
