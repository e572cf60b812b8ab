package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

// seedIncidentType inserts one type row.
func seedIncidentType(t *testing.T, repo *Repository, companyID uuid.UUID, name string) *models.IncidentType {
	t.Helper()
	it := &models.IncidentType{ID: uuid.New(), Name: name, Active: true, CompanyID: companyID}
	require.NoError(t, repo.CreateIncidentType(context.Background(), it), "seeding incident type should succeed")
	return it
}

// TestIncidentTypeUniquePerCompany verifies names collide within a
// company but not across companies.
func TestIncidentTypeUniquePerCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Types Co")
	other := seedCompany(t, repo, "Elsewhere Co")
	seedIncidentType(t, repo, company.ID, "Theft")

	err := repo.CreateIncidentType(ctx, &models.IncidentType{
		ID: uuid.New(), Name: "Theft", Active: true, CompanyID: company.ID,
	})
	assert.ErrorIs(t, err, e.ErrDuplicateName, "same name in one company should return ErrDuplicateName")

	err = repo.CreateIncidentType(ctx, &models.IncidentType{
		ID: uuid.New(), Name: "Theft", Active: true, CompanyID: other.ID,
	})
	assert.NoError(t, err, "same name in another company should be accepted")
}

// TestUpdateIncidentType renames and toggles within the company scope.
func TestUpdateIncidentType(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Rename Co")
	it := seedIncidentType(t, repo, company.ID, "Vandalism")

	err := repo.UpdateIncidentType(ctx, &models.IncidentType{
		ID: it.ID, CompanyID: company.ID, Name: "Property Damage", Active: false,
	})
	require.NoError(t, err)

	got, err := repo.GetIncidentType(ctx, it.ID, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "Property Damage", got.Name)
	assert.False(t, got.Active)

	err = repo.UpdateIncidentType(ctx, &models.IncidentType{
		ID: uuid.New(), CompanyID: company.ID, Name: "Ghost", Active: true,
	})
	assert.ErrorIs(t, err, e.ErrNotFound)
}

// TestCreateIncidentWithMedia persists the report and its media rows
// together and preloads them on listing.
func TestCreateIncidentWithMedia(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Report Co")
	device := seedDevice(t, repo, company.ID, "Tablet", "HW-700")
	agent := seedAgent(t, repo, company.ID, "agent@report.test")
	it := seedIncidentType(t, repo, company.ID, "Accident")

	incident := &models.Incident{
		ID:         uuid.New(),
		Title:      "Broken window",
		TypeID:     it.ID,
		DeviceID:   device.ID,
		ReporterID: agent.ID,
		CompanyID:  company.ID,
		Media: []models.MediaFile{
			{ID: uuid.New(), Path: "uploads/1.jpg", Kind: models.MediaImage},
			{ID: uuid.New(), Path: "uploads/1.mp4", Kind: models.MediaVideo},
		},
	}
	require.NoError(t, repo.CreateIncident(ctx, incident), "CreateIncident should succeed")

	incidents, total, err := repo.ListIncidents(ctx, company.ID, models.IncidentFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, incidents, 1)
	assert.Len(t, incidents[0].Media, 2, "Media rows should be preloaded")
}

// TestListIncidentsFilters narrows by type, device and time window.
func TestListIncidentsFilters(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Filter Co")
	device := seedDevice(t, repo, company.ID, "Tablet", "HW-701")
	otherDevice := seedDevice(t, repo, company.ID, "Phone", "HW-702")
	agent := seedAgent(t, repo, company.ID, "agent@filter.test")
	theft := seedIncidentType(t, repo, company.ID, "Theft")
	fire := seedIncidentType(t, repo, company.ID, "Fire")

	mk := func(title string, typeID, deviceID uuid.UUID) {
		require.NoError(t, repo.CreateIncident(ctx, &models.Incident{
			ID: uuid.New(), Title: title, TypeID: typeID, DeviceID: deviceID,
			ReporterID: agent.ID, CompanyID: company.ID,
		}))
	}
	mk("stolen tablet", theft.ID, device.ID)
	mk("small fire", fire.ID, device.ID)
	mk("stolen phone", theft.ID, otherDevice.ID)

	incidents, total, err := repo.ListIncidents(ctx, company.ID, models.IncidentFilter{TypeID: &theft.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, incidents, 2)

	incidents, total, err = repo.ListIncidents(ctx, company.ID, models.IncidentFilter{
		TypeID:   &theft.ID,
		DeviceID: &otherDevice.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, incidents, 1)
	assert.Equal(t, "stolen phone", incidents[0].Title)

	future := time.Now().Add(time.Hour)
	_, total, err = repo.ListIncidents(ctx, company.ID, models.IncidentFilter{From: &future})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "Nothing should match a future window")
}
