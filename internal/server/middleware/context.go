package middleware

import (
	"context"

	identitydomain "purityscan/backend/internal/identity/domain"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the authenticated caller.
// Handlers and services read it via GetIdentity.
func WithIdentity(ctx context.Context, ident *identitydomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// GetIdentity returns the caller identity from context and true if set.
func GetIdentity(ctx context.Context) (*identitydomain.Identity, bool) {
	v, ok := ctx.Value(identityKey).(*identitydomain.Identity)
	return v, ok && v != nil
}

var clientIPKey = contextKey{"client_ip"}

// WithClientIP returns a context carrying the client IP for consumers that
// only see a context (e.g. the audit logger).
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext returns the stored client IP, or "unknown".
func ClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}
