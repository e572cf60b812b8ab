package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentType is a company-scoped category for incidents. Name is
// unique per company.
type IncidentType struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:120;not null;uniqueIndex:idx_incident_types_company_name,priority:2"`
	Active    bool      `gorm:"not null;default:true"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_incident_types_company_name,priority:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (IncidentType) TableName() string { return "incident_types" }

// MediaKind distinguishes the stored media references of an incident.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaFile is a reference to an uploaded attachment. Only the path
// and kind are recorded; byte storage is outside this service.
type MediaFile struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Path       string    `gorm:"size:512;not null"`
	Kind       MediaKind `gorm:"size:10;not null"`
	IncidentID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time
}

func (MediaFile) TableName() string { return "media_files" }

// Incident is a field report. Immutable after creation.
type Incident struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Title       string      `gorm:"size:200;not null"`
	Description string      `gorm:"size:4000"`
	TypeID      uuid.UUID   `gorm:"type:uuid;not null;index"`
	DeviceID    uuid.UUID   `gorm:"type:uuid;not null;index"`
	ReporterID  uuid.UUID   `gorm:"type:uuid;not null;index"`
	CompanyID   uuid.UUID   `gorm:"type:uuid;not null;index"`
	Media       []MediaFile `gorm:"foreignKey:IncidentID"`
	CreatedAt   time.Time   `gorm:"index"`
	UpdatedAt   time.Time
}

func (Incident) TableName() string { return "incidents" }

// IncidentFilter narrows incident listings. Zero values are ignored.
type IncidentFilter struct {
	From     *time.Time
	To       *time.Time
	TypeID   *uuid.UUID
	DeviceID *uuid.UUID
	Page     int
	PageSize int
}
