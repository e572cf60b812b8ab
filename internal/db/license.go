package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

// CreateLicenses bulk-inserts a batch. A key collision surfaces as
// ErrKeyConflict so the caller can regenerate the batch.
func (r *Repository) CreateLicenses(ctx context.Context, licenses []models.License) error {
	result := r.db.WithContext(ctx).Create(&licenses)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrKeyConflict
		}
		return result.Error
	}
	return nil
}

// ClaimAvailableLicense selects one available license of the company
// under a row write lock and returns it still unmodified. Two
// concurrent registrations therefore serialize on the same row instead
// of both claiming it. Oldest license first keeps selection
// deterministic. Must run inside WithTransaction.
func (r *Repository) ClaimAvailableLicense(ctx context.Context, companyID uuid.UUID) (*models.License, error) {
	var lic models.License
	tx := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, models.LicenseAvailable).
		Order("created_at asc")
	result := r.forUpdate(tx).First(&lic)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNoLicense
		}
		return nil, translate(result.Error)
	}
	return &lic, nil
}

// BindLicense activates a claimed license and binds it to the device.
// Status and binding always change together.
func (r *Repository) BindLicense(ctx context.Context, licenseID, deviceID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.License{}).
		Where("id = ?", licenseID).
		Updates(map[string]interface{}{
			"status":       models.LicenseActive,
			"device_id":    deviceID,
			"activated_at": at,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeactivateCompanyLicenses moves every license of the company to
// inactive. Device bindings are kept so reactivation can restore them.
func (r *Repository) DeactivateCompanyLicenses(ctx context.Context, companyID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.License{}).
		Where("company_id = ?", companyID).
		Update("status", models.LicenseInactive).Error
}

// ReactivateCompanyLicenses restores the pool after a company is
// reactivated: unbound inactive licenses become available again, bound
// ones return to active so registered devices keep their grant.
func (r *Repository) ReactivateCompanyLicenses(ctx context.Context, companyID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.License{}).
		Where("company_id = ? AND status = ? AND device_id IS NULL", companyID, models.LicenseInactive).
		Update("status", models.LicenseAvailable).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.License{}).
		Where("company_id = ? AND status = ? AND device_id IS NOT NULL", companyID, models.LicenseInactive).
		Update("status", models.LicenseActive).Error
}

// GetLicenseByDevice returns the license bound to the device.
func (r *Repository) GetLicenseByDevice(ctx context.Context, deviceID uuid.UUID) (*models.License, error) {
	var lic models.License
	result := r.db.WithContext(ctx).First(&lic, "device_id = ?", deviceID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &lic, nil
}

// LicenseSummary aggregates the pool counts of one company.
func (r *Repository) LicenseSummary(ctx context.Context, companyID uuid.UUID) (*models.PoolSummary, error) {
	company, err := r.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	summary := models.PoolSummary{CompanyID: company.ID, CompanyName: company.Name}

	rows, err := r.db.WithContext(ctx).Model(&models.License{}).
		Select("status, count(*) as n").
		Where("company_id = ?", companyID).
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status models.LicenseStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		summary.Total += n
		switch status {
		case models.LicenseAvailable:
			summary.Available = n
		case models.LicenseActive:
			summary.Active = n
		case models.LicenseInactive:
			summary.Inactive = n
		}
	}
	return &summary, rows.Err()
}
