package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/app"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/auth"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/handler"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	env    *testEnv
	router *gin.Engine
	jwt    *auth.JWTService
}

func newAPIFixture(t *testing.T, runCache redis.RunCacheInterface) *apiFixture {
	t.Helper()

	jwtService, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	env := newTestEnv()
	router := app.NewRouter(app.RouterDeps{
		ReconciliationHandler: handler.NewReconciliationHandler(env.reconciler(2), runCache),
		JWTService:            jwtService,
		Logger:                zerolog.Nop(),
	})

	return &apiFixture{env: env, router: router, jwt: jwtService}
}

func (f *apiFixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) adminToken(t *testing.T) string {
	t.Helper()
	token, err := f.jwt.GenerateToken("ops-1", auth.RoleAdmin, false)
	require.NoError(t, err)
	return token
}

func TestAPI_Health(t *testing.T) {
	f := newAPIFixture(t, nil)

	w := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RequiresAdmin(t *testing.T) {
	f := newAPIFixture(t, nil)

	riderToken, err := f.jwt.GenerateToken("rider-1", "passageiro", false)
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"non-admin", riderToken, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, "/v1/admin/drivers/d1/reconciliation", "", tc.token)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestAPI_GetDriverReconciliation(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.env.addDriver("d1", 0, 0)
	f.env.rides.AddRides(finalizedRide("r1", "d1", "100.00", "cash", 1))

	w := f.do(t, http.MethodGet, "/v1/admin/drivers/d1/reconciliation", "", f.adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "d1", resp.DriverID)
	assert.Equal(t, 20.0, resp.ComputedDebt)
	assert.True(t, resp.Mismatched)
	assert.False(t, resp.Applied)
	assert.Zero(t, f.env.drivers.Updates())
}

func TestAPI_GetDriverReconciliation_NotFound(t *testing.T) {
	f := newAPIFixture(t, nil)

	w := f.do(t, http.MethodGet, "/v1/admin/drivers/ghost/reconciliation", "", f.adminToken(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ReconcileDriver_Apply(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.env.addDriver("d1", 0, 0)
	f.env.rides.AddRides(finalizedRide("r1", "d1", 50, "digital", 1))

	w := f.do(t, http.MethodPost, "/v1/admin/drivers/d1/reconciliation", `{"apply":true}`, f.adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Applied)
	assert.Equal(t, 40.0, f.env.drivers.GetDriver("d1").Money.Balance)
}

func TestAPI_ReconcileDriver_Locked(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.env.addDriver("d1", 0, 0)
	f.env.locks.Hold("d1", time.Minute)

	w := f.do(t, http.MethodPost, "/v1/admin/drivers/d1/reconciliation", `{"apply":true}`, f.adminToken(t))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_Run(t *testing.T) {
	f := newAPIFixture(t, nil)
	seedRun(f.env)

	w := f.do(t, http.MethodPost, "/v1/admin/reconciliations", "", f.adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dry-run", resp.Mode)
	assert.Equal(t, 4, resp.Drivers)
	assert.Equal(t, 1, resp.Mismatched)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "d3", resp.Failures[0].DriverID)
}

func TestAPI_Run_RejectsBadInput(t *testing.T) {
	f := newAPIFixture(t, nil)

	w := f.do(t, http.MethodPost, "/v1/admin/reconciliations", `{"limit":-1}`, f.adminToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/v1/admin/reconciliations", `{"apply":`, f.adminToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_Run_DiscoveryFailure(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.env.drivers.ListByRoleError = assert.AnError

	w := f.do(t, http.MethodPost, "/v1/admin/reconciliations", "", f.adminToken(t))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPI_GetLastRun(t *testing.T) {
	t.Run("history disabled", func(t *testing.T) {
		f := newAPIFixture(t, nil)

		w := f.do(t, http.MethodGet, "/v1/admin/reconciliations/last", "", f.adminToken(t))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no run yet", func(t *testing.T) {
		f := newAPIFixture(t, NewMockRunCache())

		w := f.do(t, http.MethodGet, "/v1/admin/reconciliations/last", "", f.adminToken(t))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("after a run", func(t *testing.T) {
		cache := NewMockRunCache()
		require.NoError(t, cache.SetLastRun(t.Context(), &redis.CachedRunSummary{RunID: "run-1", Drivers: 3}))
		f := newAPIFixture(t, cache)

		w := f.do(t, http.MethodGet, "/v1/admin/reconciliations/last", "", f.adminToken(t))
		require.Equal(t, http.StatusOK, w.Code)

		var summary redis.CachedRunSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
		assert.Equal(t, "run-1", summary.RunID)
		assert.Equal(t, 3, summary.Drivers)
	})
}
