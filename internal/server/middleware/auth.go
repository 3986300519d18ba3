// Package middleware holds the HTTP request plumbing: authentication, caller
// context, client IP extraction, and per-request telemetry.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"purityscan/backend/internal/audit"
	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	"purityscan/backend/internal/platform/httpx"
)

const (
	bearerPrefix    = "bearer "
	deviceKeyHeader = "X-Device-Key"
)

// Authenticator resolves raw credentials to an identity. Implemented by the
// identity gate.
type Authenticator interface {
	AuthenticateBearer(ctx context.Context, token string) (*identitydomain.Identity, error)
	AuthenticateDeviceKey(ctx context.Context, key string) (*identitydomain.Identity, error)
}

// Authenticate returns middleware that requires a Bearer token or a device
// key on every request and injects the resolved identity into the context.
// Rejections are audited best-effort as auth failures.
func Authenticate(gate Authenticator, auditor audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := authenticate(gate, r)
			if err != nil {
				if auditor != nil {
					auditor.LogEvent(r.Context(), "", "", audit.ActionAuthFailure, audit.ResourceAuth, r.URL.Path)
				}
				httpx.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

func authenticate(gate Authenticator, r *http.Request) (*identitydomain.Identity, error) {
	if key := strings.TrimSpace(r.Header.Get(deviceKeyHeader)); key != "" {
		return gate.AuthenticateDeviceKey(r.Context(), key)
	}
	if token := extractBearer(r); token != "" {
		return gate.AuthenticateBearer(r.Context(), token)
	}
	return nil, apperr.New(apperr.CodeUnauthenticated, "missing credentials")
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
