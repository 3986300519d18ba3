package rbac

import (
	"context"

	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	userdomain "purityscan/backend/internal/user/domain"
)

// RequireOrgAdmin ensures the caller is an owner or admin of its org.
// Device-key callers never pass.
func RequireOrgAdmin(ctx context.Context) (*identitydomain.Identity, error) {
	ident, err := RequireOrgMember(ctx)
	if err != nil {
		return nil, err
	}
	if ident.Role != userdomain.RoleOwner && ident.Role != userdomain.RoleAdmin {
		return nil, apperr.New(apperr.CodeUnauthorized, "organization admin or owner required")
	}
	return ident, nil
}
