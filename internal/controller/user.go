package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/incidia/backend/internal/auth"
	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

// UserRepository is the storage surface of member management.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetCompanyMember(ctx context.Context, id, companyID uuid.UUID) (*models.User, error)
	ListCompanyUsers(ctx context.Context, companyID uuid.UUID, page, pageSize int) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, companyID uuid.UUID, update *models.UserUpdate) error
}

// UserService handles company-scoped member accounts. Company admins
// can only grant member roles; global_admin is never assignable here.
type UserService struct {
	repo       UserRepository
	bcryptCost int
	logger     *zap.Logger
}

func NewUserService(repo UserRepository, bcryptCost int, logger *zap.Logger) *UserService {
	return &UserService{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger.Named("user_service"),
	}
}

// CreateUser adds a member account to the company. The password is
// hashed here, explicitly, before anything is persisted.
func (s *UserService) CreateUser(ctx context.Context, companyID uuid.UUID, email, password string, role models.Role) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", e.ErrInvalidInput)
	}
	if !models.ValidMemberRole(role) {
		return nil, fmt.Errorf("%w: role %q not assignable", e.ErrInvalidInput, role)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CompanyID:    &companyID,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
	)
	return user, nil
}

// ListUsers pages through the company's members.
func (s *UserService) ListUsers(ctx context.Context, companyID uuid.UUID, page, pageSize int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.repo.ListCompanyUsers(ctx, companyID, page, pageSize)
}

// UpdateUser applies a partial update to a member of the company.
func (s *UserService) UpdateUser(ctx context.Context, companyID uuid.UUID, update *models.UserUpdate) (*models.User, error) {
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid user ID", e.ErrInvalidInput)
	}
	if update.Role != nil && !models.ValidMemberRole(*update.Role) {
		return nil, fmt.Errorf("%w: role %q not assignable", e.ErrInvalidInput, *update.Role)
	}
	if err := s.repo.UpdateUser(ctx, companyID, update); err != nil {
		return nil, err
	}
	return s.repo.GetCompanyMember(ctx, update.ID, companyID)
}

// ToggleActive flips a member's active flag.
func (s *UserService) ToggleActive(ctx context.Context, companyID, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetCompanyMember(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	active := !user.Active
	update := &models.UserUpdate{ID: userID, Active: &active}
	if err := s.repo.UpdateUser(ctx, companyID, update); err != nil {
		return nil, err
	}
	user.Active = active
	return user, nil
}
