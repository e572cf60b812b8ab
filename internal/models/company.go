// Package models contains the domain models for the application,
// configured to work using GORM as the ORM.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Company represents a tenant organization. It owns users, devices,
// licenses and incident types; deactivating a company cascades to its
// users and licenses.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:120;uniqueIndex;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Company) TableName() string { return "companies" }
