package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/incidia/backend/internal/auth"
	"github.com/incidia/backend/internal/db"
	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

// AuthRepository is the storage surface of the login flow.
type AuthRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// LoginResult is what a successful login returns to the transport
// layer. DeviceID is set only for agents.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	UserID    uuid.UUID
	Role      models.Role
	CompanyID *uuid.UUID
	DeviceID  *uuid.UUID
}

// AuthService authenticates users and, for agents, resolves the
// device the login is bound to before issuing a session token.
type AuthService struct {
	repo   AuthRepository
	secret string
	logger *zap.Logger
}

func NewAuthService(repo AuthRepository, secret string, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		secret: secret,
		logger: logger.Named("auth"),
	}
}

// Login runs the credential check, the role branch and, for agents,
// the device resolution chain. A user that cannot be found and a
// password mismatch produce the same error so emails cannot be
// enumerated. On an agent's first login from an unassigned device the
// binding is written as a side effect, inside a transaction holding
// the device row lock.
func (s *AuthService) Login(ctx context.Context, email, password, uniqueID string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, e.ErrAccountInactive
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, e.ErrInvalidCredentials
	}

	var deviceID *uuid.UUID
	if user.Role == models.RoleAgent {
		if uniqueID == "" {
			return nil, e.ErrDeviceIDRequired
		}
		if user.CompanyID == nil {
			return nil, fmt.Errorf("agent %s has no company", user.ID)
		}
		err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
			device, err := tx.LockDeviceByUniqueID(ctx, uniqueID, *user.CompanyID)
			if err != nil {
				if errors.Is(err, e.ErrNotFound) {
					return e.ErrDeviceNotFound
				}
				return err
			}
			license, err := tx.GetLicenseByDevice(ctx, device.ID)
			if err != nil {
				if errors.Is(err, e.ErrNotFound) {
					return e.ErrDeviceNotLicensed
				}
				return err
			}
			if license.Status != models.LicenseActive {
				return e.ErrDeviceNotLicensed
			}
			switch {
			case device.AgentID == nil:
				// First login from this device: bind it, unless the
				// agent is already holding another device.
				other, err := tx.FindDeviceByAgent(ctx, user.ID, &device.ID)
				if err == nil {
					return fmt.Errorf("%w: bound to %q", e.ErrAgentAssigned, other.Name)
				}
				if !errors.Is(err, e.ErrNotFound) {
					return err
				}
				if err := tx.SetDeviceAgent(ctx, device.ID, &user.ID); err != nil {
					return err
				}
			case *device.AgentID != user.ID:
				return e.ErrDeviceOwnedByOther
			}
			deviceID = &device.ID
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	token, exp, err := auth.IssueToken(s.secret, user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("login",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		UserID:    user.ID,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		DeviceID:  deviceID,
	}, nil
}
