package models

import (
	"time"

	"github.com/google/uuid"
)

// LicenseStatus enumerates the lifecycle states of a license.
type LicenseStatus string

const (
	// LicenseAvailable means the license is unbound and can be claimed
	// by a device registration.
	LicenseAvailable LicenseStatus = "available"
	// LicenseActive means the license is bound to a registered device.
	LicenseActive LicenseStatus = "active"
	// LicenseInactive means the owning company has been deactivated.
	// The device binding, if any, is preserved so it can be restored.
	LicenseInactive LicenseStatus = "inactive"
)

// License is a consumable grant permitting exactly one device to be
// active for a company. Licenses are created in batches, never deleted,
// and never move between companies. Status and DeviceID are always
// updated together inside the same transaction.
type License struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Key         string        `gorm:"size:64;uniqueIndex;not null"`
	Status      LicenseStatus `gorm:"size:16;not null;index:idx_licenses_company_status,priority:2"`
	CompanyID   uuid.UUID     `gorm:"type:uuid;not null;index:idx_licenses_company_status,priority:1"`
	DeviceID    *uuid.UUID    `gorm:"type:uuid;uniqueIndex"`
	ActivatedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (License) TableName() string { return "licenses" }

// PoolSummary aggregates license counts for one company.
type PoolSummary struct {
	CompanyID   uuid.UUID `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Total       int64     `json:"total"`
	Available   int64     `json:"available"`
	Active      int64     `json:"active"`
	Inactive    int64     `json:"inactive"`
}
