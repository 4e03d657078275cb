// ABOUTME: Navigation guard deciding which route to show for the session state
// ABOUTME: Races initialization against a timer and reacts to auth state changes
package session

import (
	"context"
	"sync"
	"time"

	"github.com/harperreed/ancora/gateway"
	"go.uber.org/zap"
)

const (
	// GuardTimeout bounds initialization in the top-level guard.
	GuardTimeout = 5 * time.Second
	// HydrationTimeout bounds initialization during startup hydration.
	HydrationTimeout = 3 * time.Second
)

// Route names a view.
type Route string

const (
	RouteLoading   Route = "loading"
	RouteLogin     Route = "/login"
	RouteRegister  Route = "/register"
	RouteDashboard Route = "/"
)

// IsAuthRoute reports whether r is the login or register view.
func (r Route) IsAuthRoute() bool {
	return r == RouteLogin || r == RouteRegister
}

// Navigator moves the UI to a route.
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(route Route) { f(route) }

// Guard connects the session store to navigation.
type Guard struct {
	store  *Store
	auth   gateway.Auth
	nav    Navigator
	logger *zap.Logger

	startOnce   sync.Once
	mu          sync.Mutex
	unsubscribe func()
}

func NewGuard(store *Store, auth gateway.Auth, nav Navigator, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if nav == nil {
		nav = NavigatorFunc(func(Route) {})
	}
	return &Guard{store: store, auth: auth, nav: nav, logger: logger}
}

// Initialize fetches the user, giving up waiting after timeout. A fetch
// that outlives the timer keeps running and its result still lands in the
// store; meanwhile the store is forced ready with whatever user it holds,
// so an unreachable backend reads as signed out. It reports whether the
// fetch finished in time.
func (g *Guard) Initialize(ctx context.Context, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.store.FetchUser(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		g.store.SetInitialized(true)
		return true
	case <-timer.C:
		g.logger.Warn("session initialization timed out, forcing ready", zap.Duration("timeout", timeout))
		g.store.ForceReady()
		return false
	case <-ctx.Done():
		g.store.ForceReady()
		return false
	}
}

// Start subscribes to auth state changes. Calling it again is a no-op.
func (g *Guard) Start(ctx context.Context) {
	g.startOnce.Do(func() {
		unsubscribe := g.auth.OnAuthStateChange(func(event gateway.AuthEvent, s *gateway.Session) {
			switch event {
			case gateway.EventSignedIn:
				if s != nil {
					g.store.FetchUser(ctx)
				}
			case gateway.EventSignedOut:
				g.nav.Navigate(RouteLogin)
			}
		})

		g.mu.Lock()
		g.unsubscribe = unsubscribe
		g.mu.Unlock()
	})
}

// Stop removes the auth subscription.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
}

// Resolve returns the route to show when requested is asked for.
func (g *Guard) Resolve(requested Route) Route {
	st := g.store.Snapshot()

	switch {
	case !st.Initialized || st.Loading:
		return RouteLoading
	case st.User == nil && !requested.IsAuthRoute():
		return RouteLogin
	case st.User != nil && requested.IsAuthRoute():
		return RouteDashboard
	default:
		return requested
	}
}
