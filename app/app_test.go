// ABOUTME: Tests for the application container on the local backend
// ABOUTME: Covers wiring, bootstrap across restarts and the metrics endpoint
package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/harperreed/ancora/config"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Backend:   config.BackendLocal,
		DBPath:    filepath.Join(dir, "ancora.db"),
		KVPath:    filepath.Join(dir, "kv"),
		LogLevel:  "error",
		LogFormat: "console",
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = "carrier-pigeon"

	_, err := New(cfg, WithLogger(zap.NewNop()))
	assert.Error(t, err)
}

func TestSessionSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := New(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	assert.False(t, a.Session.Snapshot().Initialized)
	a.Bootstrap(ctx, session.HydrationTimeout)
	assert.Nil(t, a.Session.Snapshot().User)
	assert.Equal(t, session.RouteLogin, a.Guard.Resolve(session.RouteDashboard))

	outcome, err := a.Session.SignUp(ctx, "ann@example.com", "password123", "Ann Lee")
	require.NoError(t, err)
	require.Equal(t, session.SignUpComplete, outcome)

	require.NoError(t, a.Records.AddCompany(ctx, models.CompanyInput{Name: models.Ptr("Acme")}))
	require.NoError(t, a.Close())

	b, err := New(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	assert.True(t, b.Bootstrap(ctx, session.HydrationTimeout))
	st := b.Session.Snapshot()
	require.NotNil(t, st.User)
	assert.Equal(t, "Ann Lee", st.User.DisplayName())
	assert.Equal(t, session.RouteDashboard, b.Guard.Resolve(session.RouteLogin))

	b.Records.FetchCompanies(ctx)
	companies := b.Records.Snapshot().Companies
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
}

func TestSignOutNavigatesToLogin(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	var routes []session.Route
	a, err := New(cfg, WithLogger(zap.NewNop()), WithNavigator(session.NavigatorFunc(func(r session.Route) {
		routes = append(routes, r)
	})))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	a.Bootstrap(ctx, session.HydrationTimeout)
	_, err = a.Session.SignUp(ctx, "ann@example.com", "password123", "Ann Lee")
	require.NoError(t, err)

	a.Session.SignOut(ctx)
	assert.Equal(t, []session.Route{session.RouteLogin}, routes)
	assert.Nil(t, a.Session.Snapshot().User)
}

func TestMetricsHandlerExposesGatewayCounters(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	a.Records.FetchContacts(context.Background())

	rec := httptest.NewRecorder()
	a.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `ancora_gateway_requests_total{op="select",outcome="unauthorized",table="contacts"} 1`)
}

func TestSyncStateCountsPersistedKeys(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	a, err := New(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	a.Bootstrap(ctx, session.HydrationTimeout)

	n, err := a.SyncState()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = a.Session.SignUp(ctx, "ann@example.com", "password123", "Ann Lee")
	require.NoError(t, err)

	n, err = a.SyncState()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLocalBackendExposedOnlyForLocal(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	assert.NotNil(t, a.Local)

	rest := testConfig(t)
	rest.Backend = config.BackendREST
	rest.SupabaseURL = "http://127.0.0.1:1"
	rest.SupabaseAnonKey = "anon"
	b, err := New(rest, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	assert.Nil(t, b.Local)
}
