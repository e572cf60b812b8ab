package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/incidia/backend/internal/auth"
	"github.com/incidia/backend/internal/cache"
	"github.com/incidia/backend/internal/controller"
	"github.com/incidia/backend/internal/db"
	"github.com/incidia/backend/internal/events"
	"github.com/incidia/backend/internal/models"
)

const testSecret = "test-secret"

// testApp is the whole service wired against an in-memory database,
// exercised through the real router.
type testApp struct {
	server *Server
	repo   *db.Repository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")
	repo := db.NewWithDB(gdb)

	logger := zaptest.NewLogger(t)
	producer := events.NopProducer{}
	summaries := cache.NewSummaryCache(nil, time.Minute, logger)

	allocator := controller.NewAllocatorService(repo, producer, logger)
	binder := controller.NewBinderService(repo, producer, logger)
	authSvc := controller.NewAuthService(repo, testSecret, logger)
	tenant := controller.NewTenantService(repo, allocator, producer, 4, logger)
	users := controller.NewUserService(repo, 4, logger)
	incidents := controller.NewIncidentService(repo, producer, logger)

	server := NewServer(0, logger)
	server.RegisterRoutes(
		testSecret,
		NewAuthHandler(authSvc, tenant),
		NewCompanyHandler(tenant),
		NewLicenseHandler(allocator, summaries),
		NewDeviceHandler(allocator, binder, summaries),
		NewUserHandler(users),
		NewIncidentHandler(incidents),
	)
	return &testApp{server: server, repo: repo}
}

// do sends a JSON request through the router and decodes the response
// into out when non-nil.
func (a *testApp) do(t *testing.T, method, path, token, body string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echoContentType, echoJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.server.Echo().ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "response should decode")
	}
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSON        = "application/json"
)

// globalAdminToken seeds a global admin and returns a token for it.
func (a *testApp) globalAdminToken(t *testing.T) string {
	t.Helper()
	user := &models.User{
		ID: uuid.New(), Email: fmt.Sprintf("root-%s@global.test", uuid.NewString()[:8]),
		PasswordHash: "x", Role: models.RoleGlobalAdmin, Active: true,
	}
	require.NoError(t, a.repo.CreateUser(context.Background(), user))
	token, _, err := auth.IssueToken(testSecret, user)
	require.NoError(t, err)
	return token
}

// registerCompany drives the public registration endpoint and logs the
// admin in, returning the company ID and the admin's token.
func (a *testApp) registerCompany(t *testing.T, name, email string) (uuid.UUID, string) {
	t.Helper()
	var created struct {
		Company companyResp `json:"company"`
	}
	rec := a.do(t, http.MethodPost, "/v1/auth/register", "",
		fmt.Sprintf(`{"company_name":%q,"email":%q,"password":"pw"}`, name, email), &created)
	require.Equal(t, http.StatusCreated, rec.Code, "registration should succeed: %s", rec.Body.String())

	var login loginResp
	rec = a.do(t, http.MethodPost, "/v1/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"pw"}`, email), &login)
	require.Equal(t, http.StatusOK, rec.Code, "admin login should succeed")
	return created.Company.ID, login.Token
}

// TestHealthz stays public.
func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestRegisterAndLoginFlow covers the public pair plus the conflict
// and credential error mappings.
func TestRegisterAndLoginFlow(t *testing.T) {
	app := newTestApp(t)

	_, token := app.registerCompany(t, "Flow Co", "admin@flow.test")
	assert.NotEmpty(t, token)

	rec := app.do(t, http.MethodPost, "/v1/auth/register", "",
		`{"company_name":"Flow Co","email":"other@flow.test","password":"pw"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "duplicate company name should map to 409")

	rec = app.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"email":"admin@flow.test","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "bad password should map to 401")

	rec = app.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"admin@flow.test"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing password should map to 400")
}

// TestLicenseAndDeviceFlow walks the main admin path: the global admin
// issues licenses, the company admin registers devices against the
// pool, and exhaustion surfaces as a 400.
func TestLicenseAndDeviceFlow(t *testing.T) {
	app := newTestApp(t)
	companyID, adminToken := app.registerCompany(t, "Device Co", "admin@device.test")
	rootToken := app.globalAdminToken(t)

	var licenses []licenseResp
	rec := app.do(t, http.MethodPost, "/v1/licenses/batch", rootToken,
		fmt.Sprintf(`{"company_id":%q,"count":2}`, companyID), &licenses)
	require.Equal(t, http.StatusCreated, rec.Code, "batch creation should succeed: %s", rec.Body.String())
	require.Len(t, licenses, 2)

	// Company admins cannot mint licenses.
	rec = app.do(t, http.MethodPost, "/v1/licenses/batch", adminToken,
		fmt.Sprintf(`{"company_id":%q,"count":1}`, companyID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "license batch is a global admin route")

	var registered struct {
		Device  deviceResp  `json:"device"`
		License licenseResp `json:"license"`
	}
	rec = app.do(t, http.MethodPost, "/v1/devices", adminToken,
		`{"name":"Tablet","unique_id":"HW-001","platform":"android"}`, &registered)
	require.Equal(t, http.StatusCreated, rec.Code, "device registration should succeed: %s", rec.Body.String())
	assert.Equal(t, models.LicenseActive, registered.License.Status)

	rec = app.do(t, http.MethodPost, "/v1/devices", adminToken,
		`{"name":"Copy","unique_id":"HW-001","platform":"android"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "duplicate uniqueID should map to 409")

	rec = app.do(t, http.MethodPost, "/v1/devices", adminToken,
		`{"name":"Second","unique_id":"HW-002","platform":"ios"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/devices", adminToken,
		`{"name":"Third","unique_id":"HW-003","platform":"ios"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty pool should map to 400")

	var summary models.PoolSummary
	rec = app.do(t, http.MethodGet, "/v1/licenses/summary?company_id="+companyID.String(), rootToken, "", &summary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), summary.Active)
	assert.Equal(t, int64(0), summary.Available)
}

// TestAgentAssignmentAndLogin drives assignment over HTTP and then the
// agent login including the device binding rules.
func TestAgentAssignmentAndLogin(t *testing.T) {
	app := newTestApp(t)
	companyID, adminToken := app.registerCompany(t, "Agent Co", "admin@agent.test")
	rootToken := app.globalAdminToken(t)

	rec := app.do(t, http.MethodPost, "/v1/licenses/batch", rootToken,
		fmt.Sprintf(`{"company_id":%q,"count":1}`, companyID), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered struct {
		Device deviceResp `json:"device"`
	}
	rec = app.do(t, http.MethodPost, "/v1/devices", adminToken,
		`{"name":"Tablet","unique_id":"HW-001","platform":"android"}`, &registered)
	require.Equal(t, http.StatusCreated, rec.Code)

	var agent userResp
	rec = app.do(t, http.MethodPost, "/v1/users", adminToken,
		`{"email":"field@agent.test","password":"pw","role":"agent"}`, &agent)
	require.Equal(t, http.StatusCreated, rec.Code, "agent creation should succeed: %s", rec.Body.String())

	// Agent login without a device identifier.
	rec = app.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"email":"field@agent.test","password":"pw"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "agent login without unique_id should map to 400")

	// First login auto-binds the device.
	var login loginResp
	rec = app.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"email":"field@agent.test","password":"pw","unique_id":"HW-001"}`, &login)
	require.Equal(t, http.StatusOK, rec.Code, "agent login should succeed: %s", rec.Body.String())
	require.NotNil(t, login.DeviceID)
	assert.Equal(t, registered.Device.ID.String(), *login.DeviceID)

	// A second agent is locked out of the bound device.
	rec = app.do(t, http.MethodPost, "/v1/users", adminToken,
		`{"email":"late@agent.test","password":"pw","role":"agent"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = app.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"email":"late@agent.test","password":"pw","unique_id":"HW-001"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "a foreign device should map to 403")

	// Explicit unassign over HTTP frees the device.
	rec = app.do(t, http.MethodPut, "/v1/devices/"+registered.Device.ID.String()+"/agent", adminToken,
		`{"agent_id":null}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, "unassign should succeed: %s", rec.Body.String())

	rec = app.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"email":"late@agent.test","password":"pw","unique_id":"HW-001"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "freed device should accept the other agent")
}

// TestIncidentFlow reports an incident as an agent and checks the
// role gating around the incident routes.
func TestIncidentFlow(t *testing.T) {
	app := newTestApp(t)
	companyID, adminToken := app.registerCompany(t, "Incident Co", "admin@incident.test")
	rootToken := app.globalAdminToken(t)

	rec := app.do(t, http.MethodPost, "/v1/licenses/batch", rootToken,
		fmt.Sprintf(`{"company_id":%q,"count":1}`, companyID), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered struct {
		Device deviceResp `json:"device"`
	}
	rec = app.do(t, http.MethodPost, "/v1/devices", adminToken,
		`{"name":"Tablet","unique_id":"HW-001","platform":"android"}`, &registered)
	require.Equal(t, http.StatusCreated, rec.Code)

	var itype incidentTypeResp
	rec = app.do(t, http.MethodPost, "/v1/incident-types", adminToken, `{"name":"Theft"}`, &itype)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/users", adminToken,
		`{"email":"field@incident.test","password":"pw","role":"agent"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var login loginResp
	rec = app.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"email":"field@incident.test","password":"pw","unique_id":"HW-001"}`, &login)
	require.Equal(t, http.StatusOK, rec.Code)

	// Admins cannot file incidents; that route is agent-only.
	body := fmt.Sprintf(`{"title":"Stolen tablet","type_id":%q,"device_id":%q,"media":[{"path":"uploads/p.jpg","kind":"image"}]}`,
		itype.ID, registered.Device.ID)
	rec = app.do(t, http.MethodPost, "/v1/incidents", adminToken, body, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var incident incidentResp
	rec = app.do(t, http.MethodPost, "/v1/incidents", login.Token, body, &incident)
	require.Equal(t, http.StatusCreated, rec.Code, "incident creation should succeed: %s", rec.Body.String())
	require.Len(t, incident.Media, 1)

	var page pageResp
	rec = app.do(t, http.MethodGet, "/v1/incidents?type_id="+itype.ID.String(), login.Token, "", &page)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), page.TotalItems)

	rec = app.do(t, http.MethodPost, "/v1/incidents", login.Token,
		fmt.Sprintf(`{"title":"Bad","type_id":%q,"device_id":%q,"media":[{"path":"x","kind":"gif"}]}`, itype.ID, registered.Device.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown media kind should map to 400")
}

// TestCompanyToggleOverHTTP flips a tenant and observes the cascade
// reflected in the admin's next login.
func TestCompanyToggleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	companyID, _ := app.registerCompany(t, "Toggle Co", "admin@toggle.test")
	rootToken := app.globalAdminToken(t)

	var toggled companyResp
	rec := app.do(t, http.MethodPost, "/v1/companies/"+companyID.String()+"/toggle", rootToken, "", &toggled)
	require.Equal(t, http.StatusOK, rec.Code, "toggle should succeed: %s", rec.Body.String())
	assert.False(t, toggled.Active)

	rec = app.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"email":"admin@toggle.test","password":"pw"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "a deactivated admin should map to 403")

	var companies []companyResp
	rec = app.do(t, http.MethodGet, "/v1/companies", rootToken, "", &companies)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, companies, 1)
	assert.False(t, companies[0].Active)
}

// TestGetCompanyOverHTTP fetches one tenant by id from the
// global-admin console.
func TestGetCompanyOverHTTP(t *testing.T) {
	app := newTestApp(t)
	companyID, adminToken := app.registerCompany(t, "Lookup Co", "admin@lookup.test")
	rootToken := app.globalAdminToken(t)

	var company companyResp
	rec := app.do(t, http.MethodGet, "/v1/companies/"+companyID.String(), rootToken, "", &company)
	require.Equal(t, http.StatusOK, rec.Code, "lookup should succeed: %s", rec.Body.String())
	assert.Equal(t, companyID, company.ID)
	assert.Equal(t, "Lookup Co", company.Name)
	assert.True(t, company.Active)

	rec = app.do(t, http.MethodGet, "/v1/companies/"+uuid.NewString(), rootToken, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "an unknown id should map to 404")

	rec = app.do(t, http.MethodGet, "/v1/companies/"+companyID.String(), adminToken, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "company admins have no tenant console access")
}

// TestProtectedRoutesRequireToken rejects anonymous access.
func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/devices", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/companies", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
