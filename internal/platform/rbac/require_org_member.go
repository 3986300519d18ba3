// Package rbac holds the role checks handlers run after authentication.
// Roles ride on the resolved identity; there is no separate membership lookup.
package rbac

import (
	"context"

	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	"purityscan/backend/internal/server/middleware"
)

// RequireOrgMember ensures the caller is authenticated into an org (any role,
// device keys included). Returns the identity on success.
func RequireOrgMember(ctx context.Context) (*identitydomain.Identity, error) {
	ident, ok := middleware.GetIdentity(ctx)
	if !ok || ident.OrgID == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "org and caller context required")
	}
	return ident, nil
}
