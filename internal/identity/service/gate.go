// Package service implements the access control gate: it turns raw request
// credentials into a resolved Identity or a classified error.
package service

import (
	"context"
	"strings"
	"time"

	devicedomain "purityscan/backend/internal/device/domain"
	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	"purityscan/backend/internal/security"
	userdomain "purityscan/backend/internal/user/domain"
)

// UserRepo is the minimal user repository needed by the gate.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// DeviceRepo is the minimal device repository needed by the gate.
type DeviceRepo interface {
	GetByID(ctx context.Context, id string) (*devicedomain.Device, error)
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// Gate authenticates request credentials. It accepts bearer access tokens
// issued by the identity collaborator and device API keys of the form
// "<device_id>.<secret>".
type Gate struct {
	tokens  *security.TokenProvider
	users   UserRepo
	devices DeviceRepo
	hasher  *security.Hasher
}

// NewGate returns a Gate with the given dependencies.
func NewGate(tokens *security.TokenProvider, users UserRepo, devices DeviceRepo, hasher *security.Hasher) *Gate {
	return &Gate{tokens: tokens, users: users, devices: devices, hasher: hasher}
}

// AuthenticateBearer validates an access token and resolves the user row.
// A valid token for a user with no org assignment is Unauthorized: the caller
// is known but may not touch any org-scoped resource. Disabled users are
// rejected as Unauthenticated.
func (g *Gate) AuthenticateBearer(ctx context.Context, token string) (*identitydomain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "missing credentials")
	}
	userID, tokenOrgID, err := g.tokens.ValidateAccess(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "invalid access token", err)
	}
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "user lookup failed", err)
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		return nil, apperr.New(apperr.CodeUnauthenticated, "invalid access token")
	}
	if user.OrgID == "" {
		return nil, apperr.New(apperr.CodeUnauthorized, "user has no organization assignment")
	}
	// The user row is authoritative; a stale org claim does not widen access.
	if tokenOrgID != "" && tokenOrgID != user.OrgID {
		return nil, apperr.New(apperr.CodeUnauthorized, "token organization does not match user assignment")
	}
	return &identitydomain.Identity{
		UserID: user.ID,
		OrgID:  user.OrgID,
		Role:   user.Role,
	}, nil
}

// AuthenticateDeviceKey validates a device key of the form "<device_id>.<secret>"
// and resolves the device's organization. The device's last_seen_at is bumped
// best-effort on success.
func (g *Gate) AuthenticateDeviceKey(ctx context.Context, key string) (*identitydomain.Identity, error) {
	key = strings.TrimSpace(key)
	deviceID, secret, ok := strings.Cut(key, ".")
	if !ok || deviceID == "" || secret == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "malformed device key")
	}
	dev, err := g.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "device lookup failed", err)
	}
	if dev == nil || dev.APIKeyHash == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "invalid device key")
	}
	if err := g.hasher.Compare(dev.APIKeyHash, []byte(secret)); err != nil {
		return nil, apperr.New(apperr.CodeUnauthenticated, "invalid device key")
	}
	_ = g.devices.UpdateLastSeen(ctx, dev.ID, time.Now().UTC())
	return &identitydomain.Identity{
		DeviceID: dev.ID,
		OrgID:    dev.OrgID,
		Role:     userdomain.RoleDevice,
	}, nil
}
