package domain

import (
	"errors"
	"time"
)

// User is the core user entity. A user belongs to at most one organization;
// OrgID is empty until an operator assigns one.
type User struct {
	ID        string
	Email     string
	Name      string
	OrgID     string
	Role      Role
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Role is the caller's role within its organization.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	// RoleDevice identifies device-key callers (no user row).
	RoleDevice Role = "device"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
