package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/incidia/backend/internal/models"
)

// Response DTOs. Domain models are never serialized directly; the
// user's password hash in particular must not travel.

type companyResp struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

func toCompanyResp(c *models.Company) companyResp {
	return companyResp{ID: c.ID, Name: c.Name, Active: c.Active}
}

type userResp struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Active    bool        `json:"active"`
	CompanyID *uuid.UUID  `json:"company_id,omitempty"`
}

func toUserResp(u *models.User) userResp {
	return userResp{ID: u.ID, Email: u.Email, Role: u.Role, Active: u.Active, CompanyID: u.CompanyID}
}

type licenseResp struct {
	ID          uuid.UUID            `json:"id"`
	Key         string               `json:"key"`
	Status      models.LicenseStatus `json:"status"`
	DeviceID    *uuid.UUID           `json:"device_id,omitempty"`
	ActivatedAt *time.Time           `json:"activated_at,omitempty"`
}

func toLicenseResp(l *models.License) licenseResp {
	return licenseResp{ID: l.ID, Key: l.Key, Status: l.Status, DeviceID: l.DeviceID, ActivatedAt: l.ActivatedAt}
}

type deviceResp struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	UniqueID string          `json:"unique_id"`
	Platform models.Platform `json:"platform"`
	Model    string          `json:"model,omitempty"`
	AgentID  *uuid.UUID      `json:"agent_id,omitempty"`
}

func toDeviceResp(d *models.Device) deviceResp {
	return deviceResp{ID: d.ID, Name: d.Name, UniqueID: d.UniqueID, Platform: d.Platform, Model: d.Model, AgentID: d.AgentID}
}

type incidentTypeResp struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

func toIncidentTypeResp(it *models.IncidentType) incidentTypeResp {
	return incidentTypeResp{ID: it.ID, Name: it.Name, Active: it.Active}
}

type mediaResp struct {
	ID   uuid.UUID        `json:"id"`
	Path string           `json:"path"`
	Kind models.MediaKind `json:"kind"`
}

type incidentResp struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	TypeID      uuid.UUID   `json:"type_id"`
	DeviceID    uuid.UUID   `json:"device_id"`
	ReporterID  uuid.UUID   `json:"reporter_id"`
	CreatedAt   time.Time   `json:"created_at"`
	Media       []mediaResp `json:"media,omitempty"`
}

func toIncidentResp(i *models.Incident) incidentResp {
	resp := incidentResp{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		TypeID:      i.TypeID,
		DeviceID:    i.DeviceID,
		ReporterID:  i.ReporterID,
		CreatedAt:   i.CreatedAt,
	}
	for _, m := range i.Media {
		resp.Media = append(resp.Media, mediaResp{ID: m.ID, Path: m.Path, Kind: m.Kind})
	}
	return resp
}

type pageResp struct {
	TotalItems int64       `json:"total_items"`
	Page       int         `json:"page"`
	Items      interface{} `json:"items"`
}
