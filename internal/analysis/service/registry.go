// Package service holds the session registry and the ingestion coordinator,
// the two org-scoped entry points of the analysis pipeline.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"purityscan/backend/internal/analysis/domain"
	analysisrepo "purityscan/backend/internal/analysis/repository"
	"purityscan/backend/internal/audit"
	devicedomain "purityscan/backend/internal/device/domain"
	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	"purityscan/backend/internal/telemetry"
	telemetrydomain "purityscan/backend/internal/telemetry/domain"
)

// List limits for session reads.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// DeviceRepo is the minimal device repository needed by the analysis services.
type DeviceRepo interface {
	GetByID(ctx context.Context, id string) (*devicedomain.Device, error)
}

// Registry creates and reads analysis sessions scoped to one organization.
type Registry struct {
	sessions analysisrepo.Repository
	devices  DeviceRepo
	auditor  audit.AuditLogger
	emitter  telemetry.EventEmitter
}

// NewRegistry returns a Registry with the given dependencies. auditor and
// emitter may be nil; then those side channels are skipped.
func NewRegistry(sessions analysisrepo.Repository, devices DeviceRepo, auditor audit.AuditLogger, emitter telemetry.EventEmitter) *Registry {
	return &Registry{sessions: sessions, devices: devices, auditor: auditor, emitter: emitter}
}

// ListSessions returns sessions of the org's devices, newest first, capped at
// limit. An org that owns no devices gets an empty slice, not an error.
func (r *Registry) ListSessions(ctx context.Context, orgID string, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	sessions, err := r.sessions.ListByOrg(ctx, orgID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "session list failed", err)
	}
	return sessions, nil
}

// CreateSession inserts a pending session on the given device. An unknown
// device is NotFound; a device of another org is Unauthorized, because the
// caller named a concrete device it may not use.
func (r *Registry) CreateSession(ctx context.Context, ident *identitydomain.Identity, deviceID, name, sampleType string) (*domain.Session, error) {
	dev, err := r.resolveDevice(ctx, ident.OrgID, deviceID)
	if err != nil {
		return nil, err
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
	if err := sess.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err.Error(), err)
	}
	if err := r.sessions.Create(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "session create failed", err)
	}
	if r.auditor != nil {
		r.auditor.LogEvent(ctx, ident.OrgID, ident.UserID, audit.ActionSessionCreated, audit.ResourceSession, sess.ID)
	}
	telemetry.EmitAsync(r.emitter, ctx, &telemetrydomain.Event{
		OrgID:     ident.OrgID,
		UserID:    ident.UserID,
		DeviceID:  dev.ID,
		SessionID: sess.ID,
		EventType: telemetrydomain.EventSessionCreated,
		Source:    "api",
		CreatedAt: sess.StartedAt,
	})
	return sess, nil
}

// GetSession returns the session and its latest result. Cross-org sessions are
// indistinguishable from missing ones.
func (r *Registry) GetSession(ctx context.Context, orgID, sessionID string) (*domain.Session, *domain.Result, error) {
	sess, err := r.sessions.GetByIDForOrg(ctx, orgID, sessionID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeInternal, "session lookup failed", err)
	}
	if sess == nil {
		return nil, nil, apperr.New(apperr.CodeNotFound, "session not found")
	}
	result, err := r.sessions.LatestResultBySession(ctx, sess.ID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeInternal, "result lookup failed", err)
	}
	return sess, result, nil
}

// resolveDevice checks that deviceID names a device the org owns.
func (r *Registry) resolveDevice(ctx context.Context, orgID, deviceID string) (*devicedomain.Device, error) {
	if deviceID == "" {
		return nil, apperr.New(apperr.CodeValidation, "device_id is required")
	}
	dev, err := r.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "device lookup failed", err)
	}
	if dev == nil {
		return nil, apperr.New(apperr.CodeNotFound, "device not found")
	}
	if dev.OrgID != orgID {
		return nil, apperr.New(apperr.CodeUnauthorized, "device belongs to another organization")
	}
	return dev, nil
}
