package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/incidia/backend/internal/db"
	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/events"
	"github.com/incidia/backend/internal/models"
)

// IncidentRepository is the storage surface of incident reporting.
type IncidentRepository interface {
	CreateIncidentType(ctx context.Context, it *models.IncidentType) error
	GetIncidentType(ctx context.Context, id, companyID uuid.UUID) (*models.IncidentType, error)
	ListIncidentTypes(ctx context.Context, companyID uuid.UUID) ([]models.IncidentType, error)
	UpdateIncidentType(ctx context.Context, it *models.IncidentType) error
	ListIncidents(ctx context.Context, companyID uuid.UUID, filter models.IncidentFilter) ([]models.Incident, int64, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// MediaInput is one attachment reference supplied with a report.
type MediaInput struct {
	Path string
	Kind models.MediaKind
}

// IncidentService records field reports and manages the per-company
// incident type catalog.
type IncidentService struct {
	repo     IncidentRepository
	producer EventProducer
	logger   *zap.Logger
}

func NewIncidentService(repo IncidentRepository, producer EventProducer, logger *zap.Logger) *IncidentService {
	return &IncidentService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("incident"),
	}
}

// CreateIncident validates that the device and the incident type
// belong to the reporter's company, then writes the incident and its
// media references in one transaction.
func (s *IncidentService) CreateIncident(ctx context.Context, companyID, reporterID uuid.UUID, title, description string, typeID, deviceID uuid.UUID, media []MediaInput) (*models.Incident, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title required", e.ErrInvalidInput)
	}

	var incident *models.Incident
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if _, err := tx.GetCompanyDevice(ctx, deviceID, companyID); err != nil {
			return err
		}
		it, err := tx.GetIncidentType(ctx, typeID, companyID)
		if err != nil {
			return err
		}
		if !it.Active {
			return fmt.Errorf("%w: incident type %q is inactive", e.ErrInvalidInput, it.Name)
		}

		inc := &models.Incident{
			ID:          uuid.New(),
			Title:       strings.TrimSpace(title),
			Description: strings.TrimSpace(description),
			TypeID:      typeID,
			DeviceID:    deviceID,
			ReporterID:  reporterID,
			CompanyID:   companyID,
		}
		for _, m := range media {
			inc.Media = append(inc.Media, models.MediaFile{
				ID:   uuid.New(),
				Path: m.Path,
				Kind: m.Kind,
			})
		}
		if err := tx.CreateIncident(ctx, inc); err != nil {
			return err
		}
		incident = inc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("incident reported",
		zap.String("incident_id", incident.ID.String()),
		zap.String("company_id", companyID.String()),
	)
	go func() {
		s.producer.Produce(events.IncidentReported, incident.ID.String(), incident)
	}()
	return incident, nil
}

// ListIncidents pages through the company's incidents.
func (s *IncidentService) ListIncidents(ctx context.Context, companyID uuid.UUID, filter models.IncidentFilter) ([]models.Incident, int64, error) {
	return s.repo.ListIncidents(ctx, companyID, filter)
}

// CreateIncidentType adds a category; names are unique per company.
func (s *IncidentService) CreateIncidentType(ctx context.Context, companyID uuid.UUID, name string) (*models.IncidentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", e.ErrInvalidInput)
	}
	it := &models.IncidentType{
		ID:        uuid.New(),
		Name:      name,
		Active:    true,
		CompanyID: companyID,
	}
	if err := s.repo.CreateIncidentType(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *IncidentService) ListIncidentTypes(ctx context.Context, companyID uuid.UUID) ([]models.IncidentType, error) {
	return s.repo.ListIncidentTypes(ctx, companyID)
}

// UpdateIncidentType renames and/or toggles a category.
func (s *IncidentService) UpdateIncidentType(ctx context.Context, companyID, typeID uuid.UUID, name string, active bool) (*models.IncidentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", e.ErrInvalidInput)
	}
	it := &models.IncidentType{ID: typeID, CompanyID: companyID, Name: name, Active: active}
	if err := s.repo.UpdateIncidentType(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}
