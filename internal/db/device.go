package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

func (r *Repository) CreateDevice(ctx context.Context, device *models.Device) error {
	result := r.db.WithContext(ctx).Create(device)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDeviceExists
		}
		return translate(result.Error)
	}
	return nil
}

// GetCompanyDevice returns a device only when it belongs to the given
// company; anything else is ErrNotFound.
func (r *Repository) GetCompanyDevice(ctx context.Context, id, companyID uuid.UUID) (*models.Device, error) {
	var device models.Device
	result := r.db.WithContext(ctx).First(&device, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &device, nil
}

// GetDeviceByUniqueID resolves the client-supplied hardware identifier
// within one company.
func (r *Repository) GetDeviceByUniqueID(ctx context.Context, uniqueID string, companyID uuid.UUID) (*models.Device, error) {
	var device models.Device
	result := r.db.WithContext(ctx).First(&device, "unique_id = ? AND company_id = ?", uniqueID, companyID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &device, nil
}

// LockDeviceByUniqueID is GetDeviceByUniqueID under a row write lock,
// so concurrent first-login auto-binds serialize on the device row.
func (r *Repository) LockDeviceByUniqueID(ctx context.Context, uniqueID string, companyID uuid.UUID) (*models.Device, error) {
	var device models.Device
	tx := r.db.WithContext(ctx).Where("unique_id = ? AND company_id = ?", uniqueID, companyID)
	result := r.forUpdate(tx).First(&device)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, translate(result.Error)
	}
	return &device, nil
}

// LockCompanyDevice is GetCompanyDevice under a row write lock, for
// the assignment transaction.
func (r *Repository) LockCompanyDevice(ctx context.Context, id, companyID uuid.UUID) (*models.Device, error) {
	var device models.Device
	tx := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID)
	result := r.forUpdate(tx).First(&device)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, translate(result.Error)
	}
	return &device, nil
}

// SetDeviceAgent writes the agent binding, nil clearing it. The
// unique index on agent_id rejects a second binding for the same
// agent.
func (r *Repository) SetDeviceAgent(ctx context.Context, deviceID uuid.UUID, agentID *uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", deviceID).
		Update("agent_id", agentID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrAgentAssigned
		}
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// FindDeviceByAgent returns the device the agent is currently bound
// to, excluding excludeID when non-nil.
func (r *Repository) FindDeviceByAgent(ctx context.Context, agentID uuid.UUID, excludeID *uuid.UUID) (*models.Device, error) {
	var device models.Device
	tx := r.db.WithContext(ctx).Where("agent_id = ?", agentID)
	if excludeID != nil {
		tx = tx.Where("id <> ?", *excludeID)
	}
	result := tx.First(&device)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &device, nil
}

// ListDevices returns the company's devices with the assigned agent's
// email joined in, ordered by name.
func (r *Repository) ListDevices(ctx context.Context, companyID uuid.UUID) ([]models.DeviceListing, error) {
	var listings []models.DeviceListing
	result := r.db.WithContext(ctx).Model(&models.Device{}).
		Select("devices.id, devices.name, devices.unique_id, devices.platform, devices.agent_id, users.email as agent_email").
		Joins("left join users on users.id = devices.agent_id").
		Where("devices.company_id = ?", companyID).
		Order("devices.name asc").
		Scan(&listings)
	return listings, result.Error
}
