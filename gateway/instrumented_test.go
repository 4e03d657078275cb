// ABOUTME: Tests for the Prometheus gateway decorator
// ABOUTME: Checks counters by outcome using an isolated registry
package gateway

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentedCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	local := NewTestLocal(t)
	g := NewInstrumented(local, metrics)
	ctx := context.Background()

	var companies []models.Company
	assert.ErrorIs(t, g.Select(ctx, From(models.TableCompanies), &companies), ErrNoSession)

	_, err := g.SignUp(ctx, "ann@example.com", TestPassword, nil)
	require.NoError(t, err)

	require.NoError(t, g.Insert(ctx, models.TableCompanies, models.CompanyInput{Name: models.Ptr("Acme")}))
	require.NoError(t, g.Select(ctx, From(models.TableCompanies), &companies))
	assert.ErrorIs(t, g.Delete(ctx, models.TableCompanies, uuid.New()), ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("select", "companies", "unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("select", "companies", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("insert", "companies", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("delete", "companies", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("sign_up", "auth", "ok")))

	count, err := testutil.GatherAndCount(reg, "ancora_gateway_request_duration_seconds")
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestInstrumentedPassesAuthEvents(t *testing.T) {
	local := NewTestLocal(t)
	g := NewInstrumented(local, NewMetrics(prometheus.NewRegistry()))

	var events []AuthEvent
	unsubscribe := g.OnAuthStateChange(func(event AuthEvent, _ *Session) { events = append(events, event) })
	defer unsubscribe()

	SignUpTestUser(t, local, "ann@example.com")
	require.NoError(t, g.SignOut(context.Background()))

	assert.Equal(t, []AuthEvent{EventSignedIn, EventSignedOut}, events)
}
