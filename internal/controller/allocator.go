package controller

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/incidia/backend/internal/db"
	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/events"
	"github.com/incidia/backend/internal/models"
)

// maxBatchSize caps one license batch request.
const maxBatchSize = 1000

// AllocatorRepository is the storage surface the allocator needs.
type AllocatorRepository interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	CreateLicenses(ctx context.Context, licenses []models.License) error
	LicenseSummary(ctx context.Context, companyID uuid.UUID) (*models.PoolSummary, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// AllocatorService grants licenses to registering devices and keeps
// the pool consistent across company status changes.
type AllocatorService struct {
	repo     AllocatorRepository
	producer EventProducer
	logger   *zap.Logger
}

func NewAllocatorService(repo AllocatorRepository, producer EventProducer, logger *zap.Logger) *AllocatorService {
	return &AllocatorService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("allocator"),
	}
}

// RegisterDevice creates the device and claims one available license
// for it in a single transaction. Either both rows change or neither:
// a duplicate identifier or an empty pool rolls everything back.
func (s *AllocatorService) RegisterDevice(ctx context.Context, companyID uuid.UUID, name, uniqueID string, platform models.Platform, model string) (*models.Device, *models.License, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(uniqueID) == "" {
		return nil, nil, fmt.Errorf("%w: name and unique id required", e.ErrInvalidInput)
	}
	if !models.ValidPlatform(platform) {
		return nil, nil, fmt.Errorf("%w: unknown platform %q", e.ErrInvalidInput, platform)
	}
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return nil, nil, err
	}

	var (
		device  *models.Device
		license *models.License
	)
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		lic, err := tx.ClaimAvailableLicense(ctx, companyID)
		if err != nil {
			return err
		}
		d := &models.Device{
			ID:        uuid.New(),
			Name:      strings.TrimSpace(name),
			UniqueID:  strings.TrimSpace(uniqueID),
			Platform:  platform,
			Model:     strings.TrimSpace(model),
			CompanyID: companyID,
		}
		if err := tx.CreateDevice(ctx, d); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.BindLicense(ctx, lic.ID, d.ID, now); err != nil {
			return err
		}
		lic.Status = models.LicenseActive
		lic.DeviceID = &d.ID
		lic.ActivatedAt = &now
		device, license = d, lic
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("device registered",
		zap.String("device_id", device.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("license_key", license.Key),
	)
	go func() {
		s.producer.Produce(events.DeviceRegistered, device.ID.String(), device)
	}()
	return device, license, nil
}

// GenerateLicenseBatch bulk-creates count available licenses for the
// company. A key collision fails the whole batch with ErrKeyConflict;
// the caller regenerates.
func (s *AllocatorService) GenerateLicenseBatch(ctx context.Context, companyID uuid.UUID, count int) ([]models.License, error) {
	if count <= 0 || count > maxBatchSize {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", e.ErrInvalidInput, maxBatchSize)
	}
	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	licenses := make([]models.License, count)
	for i := range licenses {
		key, err := licenseKey(company.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to generate license key: %w", err)
		}
		licenses[i] = models.License{
			ID:        uuid.New(),
			Key:       key,
			Status:    models.LicenseAvailable,
			CompanyID: company.ID,
		}
	}
	if err := s.repo.CreateLicenses(ctx, licenses); err != nil {
		return nil, err
	}

	s.logger.Info("license batch created",
		zap.String("company_id", companyID.String()),
		zap.Int("count", count),
	)
	go func() {
		s.producer.Produce(events.LicenseBatchCreated, companyID.String(), map[string]interface{}{"count": count})
	}()
	return licenses, nil
}

// CascadeCompanyStatus aligns the company's license pool with its
// active flag. Runs against the caller's transaction so the company,
// its users and its licenses move together. Deactivation marks every
// license inactive but keeps device bindings; reactivation restores
// unbound licenses to available and bound ones to active so registered
// devices never end up licenseless.
func (s *AllocatorService) CascadeCompanyStatus(ctx context.Context, tx *db.Repository, companyID uuid.UUID, active bool) error {
	if !active {
		return tx.DeactivateCompanyLicenses(ctx, companyID)
	}
	return tx.ReactivateCompanyLicenses(ctx, companyID)
}

// PoolSummary reports the license counts of one company.
func (s *AllocatorService) PoolSummary(ctx context.Context, companyID uuid.UUID) (*models.PoolSummary, error) {
	return s.repo.LicenseSummary(ctx, companyID)
}

// licenseKey builds a human-readable key: a prefix derived from the
// company name plus a random suffix, e.g. LIC-ACME-9F3A01BC.
func licenseKey(companyName string) (string, error) {
	prefix := make([]rune, 0, 4)
	for _, r := range strings.ToUpper(companyName) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			prefix = append(prefix, r)
			if len(prefix) == 4 {
				break
			}
		}
	}
	if len(prefix) == 0 {
		prefix = []rune("XXXX")
	}
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("LIC-%s-%s", string(prefix), strings.ToUpper(hex.EncodeToString(buf))), nil
}
