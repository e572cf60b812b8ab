package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

func (r *Repository) CreateIncidentType(ctx context.Context, it *models.IncidentType) error {
	result := r.db.WithContext(ctx).Create(it)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateName
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetIncidentType(ctx context.Context, id, companyID uuid.UUID) (*models.IncidentType, error) {
	var it models.IncidentType
	result := r.db.WithContext(ctx).First(&it, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &it, nil
}

func (r *Repository) ListIncidentTypes(ctx context.Context, companyID uuid.UUID) ([]models.IncidentType, error) {
	var types []models.IncidentType
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("name asc").
		Find(&types)
	return types, result.Error
}

// UpdateIncidentType renames and/or toggles a type.
func (r *Repository) UpdateIncidentType(ctx context.Context, it *models.IncidentType) error {
	result := r.db.WithContext(ctx).Model(&models.IncidentType{}).
		Where("id = ? AND company_id = ?", it.ID, it.CompanyID).
		Updates(map[string]interface{}{"name": it.Name, "active": it.Active})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateName
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// CreateIncident inserts the incident together with its media rows.
// Callers wrap this in WithTransaction alongside ownership checks.
func (r *Repository) CreateIncident(ctx context.Context, incident *models.Incident) error {
	return r.db.WithContext(ctx).Create(incident).Error
}

// ListIncidents pages through a company's incidents, newest first,
// honoring the optional filter fields.
func (r *Repository) ListIncidents(ctx context.Context, companyID uuid.UUID, filter models.IncidentFilter) ([]models.Incident, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Incident{}).Where("company_id = ?", companyID)
	if filter.From != nil {
		base = base.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		base = base.Where("created_at <= ?", *filter.To)
	}
	if filter.TypeID != nil {
		base = base.Where("type_id = ?", *filter.TypeID)
	}
	if filter.DeviceID != nil {
		base = base.Where("device_id = ?", *filter.DeviceID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 15
	}
	var incidents []models.Incident
	err := base.Preload("Media").
		Order("created_at desc").
		Offset((page - 1) * size).
		Limit(size).
		Find(&incidents).Error
	return incidents, total, err
}
