package domain

import userdomain "purityscan/backend/internal/user/domain"

// Identity is the resolved caller of a request: either an operator
// authenticated by a bearer access token, or a device authenticated by its
// API key. Every protected operation is scoped to OrgID.
type Identity struct {
	UserID   string // empty for device callers
	DeviceID string // empty for user callers
	OrgID    string
	Role     userdomain.Role
}

// IsDevice reports whether the caller authenticated with a device key.
func (i Identity) IsDevice() bool {
	return i.Role == userdomain.RoleDevice
}
