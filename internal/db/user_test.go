package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

func strPtr(s string) *string { return &s }

// TestCreateUserNormalizesEmail verifies emails are stored lowercased
// and trimmed so lookups are case-insensitive.
func TestCreateUserNormalizesEmail(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Email Co")
	user := &models.User{
		ID: uuid.New(), Email: "  Admin@Email.Test  ", PasswordHash: "x",
		Role: models.RoleCompanyAdmin, Active: true, CompanyID: &company.ID,
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	got, err := repo.GetUserByEmail(ctx, "ADMIN@email.test")
	require.NoError(t, err, "Lookup should be case-insensitive")
	assert.Equal(t, "admin@email.test", got.Email)
}

// TestCreateUserDuplicateEmail verifies the system-wide email
// uniqueness constraint, even across companies.
func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	a := seedCompany(t, repo, "First Co")
	b := seedCompany(t, repo, "Second Co")
	require.NoError(t, repo.CreateUser(ctx, &models.User{
		ID: uuid.New(), Email: "shared@dup.test", PasswordHash: "x",
		Role: models.RoleAgent, Active: true, CompanyID: &a.ID,
	}))

	err := repo.CreateUser(ctx, &models.User{
		ID: uuid.New(), Email: "Shared@dup.test", PasswordHash: "x",
		Role: models.RoleAgent, Active: true, CompanyID: &b.ID,
	})
	assert.ErrorIs(t, err, e.ErrEmailExists, "duplicate email should return ErrEmailExists")
}

// TestGetCompanyMember scopes lookups to the company.
func TestGetCompanyMember(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Member Co")
	other := seedCompany(t, repo, "Stranger Co")
	agent := seedAgent(t, repo, company.ID, "agent@member.test")

	got, err := repo.GetCompanyMember(ctx, agent.ID, company.ID)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, got.ID)

	_, err = repo.GetCompanyMember(ctx, agent.ID, other.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "Another company must not see the member")
}

// TestListCompanyUsers pages by email order and reports the total.
func TestListCompanyUsers(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Paging Co")
	seedAgent(t, repo, company.ID, "c@paging.test")
	seedAgent(t, repo, company.ID, "a@paging.test")
	seedAgent(t, repo, company.ID, "b@paging.test")

	users, total, err := repo.ListCompanyUsers(ctx, company.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 2)
	assert.Equal(t, "a@paging.test", users[0].Email, "First page should start at the lowest email")

	users, _, err = repo.ListCompanyUsers(ctx, company.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "c@paging.test", users[0].Email)
}

// TestUpdateUser applies partial updates and surfaces conflicts.
func TestUpdateUser(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Update Co")
	agent := seedAgent(t, repo, company.ID, "old@update.test")
	seedAgent(t, repo, company.ID, "taken@update.test")

	err := repo.UpdateUser(ctx, company.ID, &models.UserUpdate{
		ID:    agent.ID,
		Email: strPtr("New@Update.Test"),
	})
	require.NoError(t, err, "UpdateUser should succeed")

	got, err := repo.GetUser(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@update.test", got.Email, "Updated email should be normalized")
	assert.Equal(t, models.RoleAgent, got.Role, "Unset fields should be untouched")

	err = repo.UpdateUser(ctx, company.ID, &models.UserUpdate{
		ID:    agent.ID,
		Email: strPtr("taken@update.test"),
	})
	assert.ErrorIs(t, err, e.ErrEmailExists, "Email conflict should return ErrEmailExists")

	err = repo.UpdateUser(ctx, company.ID, &models.UserUpdate{
		ID:    uuid.New(),
		Email: strPtr("nobody@update.test"),
	})
	assert.ErrorIs(t, err, e.ErrNotFound, "Updating a missing user should return ErrNotFound")
}
