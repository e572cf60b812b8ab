package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/incidia/backend/internal/db"
	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/events"
	"github.com/incidia/backend/internal/models"
)

// BinderRepository is the storage surface of the device-agent binder.
type BinderRepository interface {
	ListDevices(ctx context.Context, companyID uuid.UUID) ([]models.DeviceListing, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// BinderService enforces the one-agent-per-device and
// one-device-per-agent pairing.
type BinderService struct {
	repo     BinderRepository
	producer EventProducer
	logger   *zap.Logger
}

func NewBinderService(repo BinderRepository, producer EventProducer, logger *zap.Logger) *BinderService {
	return &BinderService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("binder"),
	}
}

// AssignAgent binds agentID to the device, or clears the binding when
// agentID is nil. The check-then-set sequence runs in one transaction
// under a device row lock; competing assignments of the same agent to
// two different devices lock different rows, so the unique index on
// agent_id is what rejects the loser. An agent already bound to a
// different device is rejected; callers must unassign explicitly
// first.
func (s *BinderService) AssignAgent(ctx context.Context, companyID, deviceID uuid.UUID, agentID *uuid.UUID) (*models.Device, error) {
	var device *models.Device
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		d, err := tx.LockCompanyDevice(ctx, deviceID, companyID)
		if err != nil {
			return err
		}

		if agentID == nil {
			if err := tx.SetDeviceAgent(ctx, d.ID, nil); err != nil {
				return err
			}
			d.AgentID = nil
			device = d
			return nil
		}

		agent, err := tx.GetCompanyMember(ctx, *agentID, companyID)
		if err != nil {
			return err
		}
		if agent.Role != models.RoleAgent {
			return fmt.Errorf("%w: %s has role %s", e.ErrAgentIneligible, agent.Email, agent.Role)
		}

		other, err := tx.FindDeviceByAgent(ctx, agent.ID, &d.ID)
		if err == nil {
			return fmt.Errorf("%w: bound to %q", e.ErrAgentAssigned, other.Name)
		}
		if !errors.Is(err, e.ErrNotFound) {
			return err
		}

		if err := tx.SetDeviceAgent(ctx, d.ID, agentID); err != nil {
			return err
		}
		d.AgentID = agentID
		device = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := events.AgentUnassigned
	if agentID != nil {
		eventType = events.AgentAssigned
	}
	s.logger.Info("device agent binding changed",
		zap.String("device_id", deviceID.String()),
		zap.Bool("assigned", agentID != nil),
	)
	go func() {
		s.producer.Produce(eventType, deviceID.String(), device)
	}()
	return device, nil
}

// ListDevices returns the company's devices with agent emails for the
// management console.
func (s *BinderService) ListDevices(ctx context.Context, companyID uuid.UUID) ([]models.DeviceListing, error) {
	return s.repo.ListDevices(ctx, companyID)
}
