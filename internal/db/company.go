package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateName
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

func (r *Repository) CompanyExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("name = ?", name).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	result := r.db.WithContext(ctx).Order("name asc").Find(&companies)
	return companies, result.Error
}

// SetCompanyActive flips the active flag of one company row.
func (r *Repository) SetCompanyActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// SetCompanyUsersActive cascades the company's active flag to all of
// its member users. Global admins carry no company and are untouched.
func (r *Repository) SetCompanyUsersActive(ctx context.Context, companyID uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("company_id = ?", companyID).
		Update("active", active).Error
}
