package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform enumerates the device platforms accepted at registration.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
	PlatformOther   Platform = "other"
)

// ValidPlatform reports whether p is one of the accepted platforms.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformAndroid, PlatformIOS, PlatformWeb, PlatformOther:
		return true
	}
	return false
}

// Device is an agent-facing endpoint. UniqueID is the hardware
// identifier reported by the client; it is unique within a company,
// not globally. Once registered a device always holds exactly one
// active license. AgentID carries a unique index so an agent can
// never hold two devices, whichever path writes the binding.
type Device struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name      string     `gorm:"size:120;not null"`
	UniqueID  string     `gorm:"size:120;not null;uniqueIndex:idx_devices_company_unique,priority:2"`
	Platform  Platform   `gorm:"size:16;not null"`
	Model     string     `gorm:"size:120"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_devices_company_unique,priority:1"`
	AgentID   *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Device) TableName() string { return "devices" }

// DeviceListing is a device row joined with the assigned agent's email
// for the management console.
type DeviceListing struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	UniqueID   string     `json:"unique_id"`
	Platform   Platform   `json:"platform"`
	AgentID    *uuid.UUID `json:"agent_id,omitempty"`
	AgentEmail *string    `json:"agent_email,omitempty"`
}
