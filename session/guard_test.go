// ABOUTME: Tests for the navigation guard
// ABOUTME: Covers route resolution, the initialization timer race and auth event handling
package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/ancora/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	mu     sync.Mutex
	routes []Route
}

func (n *recordingNavigator) Navigate(route Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) Routes() []Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Route(nil), n.routes...)
}

func TestResolve(t *testing.T) {
	g := gateway.NewTestLocal(t)
	store := NewStore(g, g, nil, nil)
	guard := NewGuard(store, g, nil, nil)

	assert.Equal(t, RouteLoading, guard.Resolve(RouteDashboard))
	assert.Equal(t, RouteLoading, guard.Resolve(RouteLogin))

	store.FetchUser(context.Background())
	assert.Equal(t, RouteLogin, guard.Resolve(RouteDashboard))
	assert.Equal(t, RouteLogin, guard.Resolve(Route("/deals")))
	assert.Equal(t, RouteLogin, guard.Resolve(RouteLogin))
	assert.Equal(t, RouteRegister, guard.Resolve(RouteRegister))

	seedUser(t, g, "ann@example.com", "Ann")
	store.FetchUser(context.Background())
	assert.Equal(t, RouteDashboard, guard.Resolve(RouteLogin))
	assert.Equal(t, RouteDashboard, guard.Resolve(RouteRegister))
	assert.Equal(t, Route("/deals"), guard.Resolve(Route("/deals")))
}

func TestInitializeCompletesBeforeTimer(t *testing.T) {
	g := gateway.NewTestLocal(t)
	seedUser(t, g, "ann@example.com", "Ann")

	store := NewStore(g, g, nil, nil)
	guard := NewGuard(store, g, nil, nil)

	assert.True(t, guard.Initialize(context.Background(), GuardTimeout))

	st := store.Snapshot()
	assert.True(t, st.Initialized)
	assert.False(t, st.Loading)
	require.NotNil(t, st.User)
	assert.Equal(t, RouteDashboard, guard.Resolve(RouteLogin))
}

func TestInitializeTimesOutAndFailsOpen(t *testing.T) {
	g := gateway.NewTestLocal(t)
	seedUser(t, g, "ann@example.com", "Ann")

	auth := &stubAuth{Auth: g, gate: make(chan struct{})}
	store := NewStore(auth, g, nil, nil)
	guard := NewGuard(store, auth, nil, nil)

	assert.False(t, guard.Initialize(context.Background(), 20*time.Millisecond))

	st := store.Snapshot()
	assert.True(t, st.Initialized)
	assert.False(t, st.Loading)
	assert.Nil(t, st.User)
	assert.Equal(t, RouteLogin, guard.Resolve(RouteDashboard))

	// The hung call finishes later and its result still lands.
	close(auth.gate)
	assert.Eventually(t, func() bool {
		return store.Snapshot().User != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, RouteDashboard, guard.Resolve(RouteLogin))
}

func TestStartReactsToAuthEvents(t *testing.T) {
	g := gateway.NewTestLocal(t)
	ctx := context.Background()

	nav := &recordingNavigator{}
	store := NewStore(g, g, nil, nil)
	guard := NewGuard(store, g, nav, nil)
	guard.Start(ctx)
	guard.Start(ctx)
	defer guard.Stop()

	seedUser(t, g, "ann@example.com", "Ann")
	require.NoError(t, g.SignOut(ctx))
	assert.Equal(t, []Route{RouteLogin}, nav.Routes())

	// Signing in directly at the gateway loads the user through the guard.
	_, err := g.SignInWithPassword(ctx, "ann@example.com", gateway.TestPassword)
	require.NoError(t, err)
	st := store.Snapshot()
	require.NotNil(t, st.User)
	assert.Equal(t, "ann@example.com", st.User.Email)

	guard.Stop()
	require.NoError(t, g.SignOut(ctx))
	assert.Len(t, nav.Routes(), 1)
}

func TestNavigatorFunc(t *testing.T) {
	var got Route
	NavigatorFunc(func(r Route) { got = r }).Navigate(RouteDashboard)
	assert.Equal(t, RouteDashboard, got)
	assert.True(t, RouteLogin.IsAuthRoute())
	assert.False(t, RouteDashboard.IsAuthRoute())
}
