package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"labtrack/internal/clock"
	"labtrack/internal/config"
	"labtrack/internal/middleware"
	"labtrack/internal/models"
	"labtrack/internal/testutil"
)

const (
	testSecret = "e2e-secret"
	adminID    = "0190a000-0000-7000-8000-00000000ad01"
	tenantHdr  = "X-Lab-Id"
	metricsKey = "scrape-key"
	bearer     = "Bearer "
)

var e2eTime = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	router *gin.Engine
	db     *gorm.DB
	binder *testutil.RecordingBinder
	tokens *middleware.Tokens
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := testutil.SetupTestDB(t)
	binder := &testutil.RecordingBinder{}

	router, err := New(Options{
		Config: &config.Config{
			Env:                 "test",
			JWTSecret:           testSecret,
			JWTExpirationDur:    time.Hour,
			SystemAdminID:       adminID,
			TenantHeader:        tenantHdr,
			AuditMaxFieldLength: 50,
			RateLimitRPS:        1000,
			RateLimitBurst:      1000,
			MetricsAPIKey:       metricsKey,
		},
		DB:     db,
		Binder: binder,
		Clock:  clock.NewFixed(e2eTime),
	})
	require.NoError(t, err)

	return &app{
		router: router,
		db:     db,
		binder: binder,
		tokens: middleware.NewTokens(testSecret, time.Hour),
	}
}

type call struct {
	method string
	path   string
	body   string
	as     string
	lab    string
	header map[string]string
}

func (a *app) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	req.Header.Set("Content-Type", "application/json")
	if c.as != "" {
		token, err := a.tokens.GenerateAccessToken(c.as)
		require.NoError(t, err)
		req.Header.Set("Authorization", bearer+token)
	}
	if c.lab != "" {
		req.Header.Set(tenantHdr, c.lab)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Code
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, call{method: "GET", path: "/api/health"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, call{method: "GET", path: "/metrics"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, call{method: "GET", path: "/metrics", header: map[string]string{"X-API-Key": metricsKey}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "labtrack_http_requests_total")
}

func TestLoginAndProfile(t *testing.T) {
	a := newApp(t)
	user := testutil.CreateTestUserWithEmail(t, a.db, "ada@example.com")

	rec := a.do(t, call{method: "POST", path: "/api/v1/auth/login", body: `{"email":"ADA@example.com","password":"password123"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", bearer+login.Token)
	me := httptest.NewRecorder()
	a.router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	assert.Contains(t, me.Body.String(), user.ID)

	rec = a.do(t, call{method: "POST", path: "/api/v1/auth/login", body: `{"email":"ada@example.com","password":"wrong"}`})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}

func TestTenantResolution(t *testing.T) {
	a := newApp(t)
	labA := testutil.CreateTestLab(t, a.db)
	labB := testutil.CreateTestLab(t, a.db)
	user := testutil.CreateTestUser(t, a.db)
	testutil.CreateTestMembership(t, a.db, user.ID, labA.ID, models.RoleAdmin)

	tests := []struct {
		name   string
		call   call
		status int
		code   string
	}{
		{"no token", call{method: "GET", path: "/api/v1/samples", lab: labA.ID}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"no lab selected", call{method: "GET", path: "/api/v1/samples", as: user.ID}, http.StatusForbidden, "MISSING_TENANT_CONTEXT"},
		{"lab without membership", call{method: "GET", path: "/api/v1/samples", as: user.ID, lab: labB.ID}, http.StatusForbidden, "TENANT_ACCESS_DENIED"},
		{"malformed lab", call{method: "GET", path: "/api/v1/samples", as: user.ID, lab: "lab-a"}, http.StatusForbidden, "TENANT_ACCESS_DENIED"},
		{"system-only operation", call{method: "POST", path: "/api/v1/labs", as: user.ID, lab: labA.ID, body: `{"name":"X"}`}, http.StatusForbidden, "ROLE_INSUFFICIENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.call)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestCrossTenantReadIsNotFound(t *testing.T) {
	a := newApp(t)
	labA := testutil.CreateTestLab(t, a.db)
	labB := testutil.CreateTestLab(t, a.db)
	user := testutil.CreateTestUser(t, a.db)
	testutil.CreateTestMembership(t, a.db, user.ID, labA.ID, models.RoleViewer)
	foreign := testutil.CreateTestSample(t, a.db, labB.ID)

	rec := a.do(t, call{method: "GET", path: "/api/v1/samples/" + foreign.ID, as: user.ID, lab: labA.ID})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SAMPLE_NOT_FOUND", errorCode(t, rec))
}

func TestDeleteWithViewerRoleInSelectedLab(t *testing.T) {
	a := newApp(t)
	labA := testutil.CreateTestLab(t, a.db)
	labB := testutil.CreateTestLab(t, a.db)
	user := testutil.CreateTestUser(t, a.db)
	testutil.CreateTestMembership(t, a.db, user.ID, labA.ID, models.RoleAdmin)
	testutil.CreateTestMembership(t, a.db, user.ID, labB.ID, models.RoleViewer)
	inB := testutil.CreateTestSample(t, a.db, labB.ID)
	inA := testutil.CreateTestSample(t, a.db, labA.ID)

	rec := a.do(t, call{method: "DELETE", path: "/api/v1/samples/" + inB.ID, as: user.ID, lab: labB.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ROLE_INSUFFICIENT", errorCode(t, rec))

	var stored models.Sample
	require.NoError(t, a.db.First(&stored, "id = ?", inB.ID).Error)
	assert.False(t, stored.IsDeleted)
	assert.Nil(t, stored.DeletedAt)

	var audits int64
	require.NoError(t, a.db.Model(&models.AuditLog{}).Where("entity_id = ?", inB.ID).Count(&audits).Error)
	assert.Zero(t, audits)

	rec = a.do(t, call{method: "DELETE", path: "/api/v1/samples/" + inA.ID, as: user.ID, lab: labA.ID})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	var deleted models.Sample
	require.NoError(t, a.db.First(&deleted, "id = ?", inA.ID).Error)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedAt)
	assert.True(t, deleted.DeletedAt.Equal(e2eTime))
}

func TestResultCorrectionAuditsChangedFieldOnly(t *testing.T) {
	a := newApp(t)
	lab := testutil.CreateTestLab(t, a.db)
	user := testutil.CreateTestUser(t, a.db)
	testutil.CreateTestMembership(t, a.db, user.ID, lab.ID, models.RoleTechnician)
	sample := testutil.CreateTestSample(t, a.db, lab.ID)
	param := testutil.CreateTestParameter(t, a.db, lab.ID)
	result := testutil.CreateTestResult(t, a.db, sample, param, 7.1)

	rec := a.do(t, call{method: "PATCH", path: "/api/v1/results/" + result.ID, as: user.ID, lab: lab.ID, body: `{"value":7.6}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var row models.AuditLog
	require.NoError(t, a.db.Where("entity_id = ?", result.ID).First(&row).Error)
	assert.Equal(t, models.AuditActionUpdate, row.Action)
	assert.JSONEq(t, `{"Value":7.1}`, string(row.OldValue))
	assert.JSONEq(t, `{"Value":7.6}`, string(row.NewValue))
	assert.False(t, row.Truncated)
	assert.Equal(t, user.ID, row.UserID)
	require.NotNil(t, row.LabID)
	assert.Equal(t, lab.ID, *row.LabID)
	require.NotNil(t, row.IPAddress)
	assert.Equal(t, "192.0.2.1", *row.IPAddress)
}

func TestSystemAdminWithoutSelectedLab(t *testing.T) {
	a := newApp(t)
	labB := testutil.CreateTestLab(t, a.db)
	sample := testutil.CreateTestSample(t, a.db, labB.ID)

	rec := a.do(t, call{method: "GET", path: "/api/v1/samples/" + sample.ID, as: adminID})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, testutil.Binding{LabID: "", SystemAdmin: "true"}, a.binder.Last(t))
}

func TestSessionRebindAcrossLabs(t *testing.T) {
	a := newApp(t)
	labB := testutil.CreateTestLab(t, a.db)
	labC := testutil.CreateTestLab(t, a.db)
	user := testutil.CreateTestUser(t, a.db)
	testutil.CreateTestMembership(t, a.db, user.ID, labB.ID, models.RoleViewer)
	testutil.CreateTestMembership(t, a.db, user.ID, labC.ID, models.RoleViewer)

	rec := a.do(t, call{method: "GET", path: "/api/v1/samples", as: user.ID, lab: labB.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	first := len(a.binder.Bindings())
	require.NotZero(t, first)

	rec = a.do(t, call{method: "GET", path: "/api/v1/samples", as: user.ID, lab: labC.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	second := a.binder.Bindings()[first:]
	require.NotEmpty(t, second)
	for _, b := range second {
		assert.Equal(t, testutil.Binding{LabID: labC.ID, SystemAdmin: "false"}, b)
	}
}

func TestSystemAdminProvisionsLabAndMember(t *testing.T) {
	a := newApp(t)
	user := testutil.CreateTestUser(t, a.db)

	rec := a.do(t, call{method: "POST", path: "/api/v1/labs", as: adminID, body: `{"name":"Coastal Lab"}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Lab models.Lab `json:"lab"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = a.do(t, call{method: "PUT", path: "/api/v1/members", as: adminID, lab: created.Lab.ID,
		body: `{"user_id":"` + user.ID + `","role":"technician"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, call{method: "POST", path: "/api/v1/samples", as: user.ID, lab: created.Lab.ID,
		body: `{"code":"C-001","name":"Tide pool","aliquots":[{"label":"A","volume_ml":2}]}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, a.db.Model(&models.SampleAliquot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
