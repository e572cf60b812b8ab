package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrEmailExists
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	result := r.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetCompanyMember returns a user only when they belong to the given
// company.
func (r *Repository) GetCompanyMember(ctx context.Context, id, companyID uuid.UUID) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// ListCompanyUsers pages through the company's members ordered by
// email and returns the total count alongside.
func (r *Repository) ListCompanyUsers(ctx context.Context, companyID uuid.UUID, page, pageSize int) ([]models.User, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&models.User{}).Where("company_id = ?", companyID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := base.Order("email asc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	return users, total, err
}

// UpdateUser applies a partial update to a company member.
func (r *Repository) UpdateUser(ctx context.Context, companyID uuid.UUID, update *models.UserUpdate) error {
	fields := map[string]interface{}{}
	if update.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*update.Email))
	}
	if update.Role != nil {
		fields["role"] = *update.Role
	}
	if update.Active != nil {
		fields["active"] = *update.Active
	}
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND company_id = ?", update.ID, companyID).
		Updates(fields)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrEmailExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
