package domain

import (
	"errors"
	"time"
)

// Device is a physical or virtual measurement source bound to one organization.
// Devices own analysis sessions; the org scoping of every session read and
// write goes through the device row.
type Device struct {
	ID         string
	OrgID      string
	Name       string
	APIKeyHash string // bcrypt hash of the device key secret; empty when the device cannot ingest directly
	LastSeenAt *time.Time
	CreatedAt  time.Time
}

// Validate validates the device for persistence.
func (d *Device) Validate() error {
	if d.OrgID == "" {
		return errors.New("org_id is required")
	}
	if d.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
