package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/incidia/backend/internal/auth"
	"github.com/incidia/backend/internal/db"
	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/events"
	"github.com/incidia/backend/internal/models"
)

// TenantRepository is the storage surface of the tenant lifecycle.
type TenantRepository interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// TenantService manages companies and keeps their users and licenses
// consistent with the company's active flag.
type TenantService struct {
	repo       TenantRepository
	allocator  *AllocatorService
	producer   EventProducer
	bcryptCost int
	logger     *zap.Logger
}

func NewTenantService(repo TenantRepository, allocator *AllocatorService, producer EventProducer, bcryptCost int, logger *zap.Logger) *TenantService {
	return &TenantService{
		repo:       repo,
		allocator:  allocator,
		producer:   producer,
		bcryptCost: bcryptCost,
		logger:     logger.Named("tenant"),
	}
}

// RegisterCompany creates a company together with its first
// company_admin user in one transaction.
func (s *TenantService) RegisterCompany(ctx context.Context, name, adminEmail, password string) (*models.Company, *models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 120 {
		return nil, nil, fmt.Errorf("%w: invalid company name", e.ErrInvalidInput)
	}
	if strings.TrimSpace(adminEmail) == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password required", e.ErrInvalidInput)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var (
		company *models.Company
		admin   *models.User
	)
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		exists, err := tx.CompanyExistsByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check name existence: %w", err)
		}
		if exists {
			return e.ErrDuplicateName
		}
		c := &models.Company{ID: uuid.New(), Name: name, Active: true}
		if err := tx.CreateCompany(ctx, c); err != nil {
			return err
		}
		u := &models.User{
			ID:           uuid.New(),
			Email:        adminEmail,
			PasswordHash: hash,
			Role:         models.RoleCompanyAdmin,
			Active:       true,
			CompanyID:    &c.ID,
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		company, admin = c, u
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("company registered",
		zap.String("company_id", company.ID.String()),
		zap.String("name", company.Name),
	)
	go func() {
		s.producer.Produce(events.CompanyRegistered, company.ID.String(), company)
	}()
	return company, admin, nil
}

func (s *TenantService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return s.repo.ListCompanies(ctx)
}

func (s *TenantService) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return s.repo.GetCompany(ctx, id)
}

// ToggleActive flips the company's active flag and cascades it to the
// company's users and licenses. All three updates commit or roll back
// together.
func (s *TenantService) ToggleActive(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	var company *models.Company
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		c, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}
		c.Active = !c.Active
		if err := tx.SetCompanyActive(ctx, c.ID, c.Active); err != nil {
			return err
		}
		if err := tx.SetCompanyUsersActive(ctx, c.ID, c.Active); err != nil {
			return err
		}
		if err := s.allocator.CascadeCompanyStatus(ctx, tx, c.ID, c.Active); err != nil {
			return err
		}
		company = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("company status toggled",
		zap.String("company_id", company.ID.String()),
		zap.Bool("active", company.Active),
	)
	go func() {
		s.producer.Produce(events.CompanyStatusChanged, company.ID.String(), company)
	}()
	return company, nil
}
