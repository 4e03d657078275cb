// ABOUTME: Session store holding the signed-in user's profile and readiness flags
// ABOUTME: Wraps gateway auth calls, loads the profile row and persists only the user
package session

import (
	"context"
	"sync"

	"github.com/harperreed/ancora/gateway"
	"github.com/harperreed/ancora/models"
	"go.uber.org/zap"
)

// State is a snapshot of the session store.
type State struct {
	User        *models.Profile
	Loading     bool
	Initialized bool
}

// Authenticated reports whether a user profile is loaded.
func (s State) Authenticated() bool {
	return s.User != nil
}

// SignUpOutcome says what a successful sign-up led to.
type SignUpOutcome int

const (
	SignUpFailed SignUpOutcome = iota
	// SignUpComplete means the user is signed in and has a profile row.
	SignUpComplete
	// SignUpPendingConfirmation means the backend is waiting for the user
	// to confirm their email. No profile row exists yet.
	SignUpPendingConfirmation
)

// Persister stores the user profile between runs.
type Persister interface {
	Load() (*models.Profile, error)
	Save(user *models.Profile) error
	Clear() error
}

// Store is the observable session state.
type Store struct {
	auth    gateway.Auth
	tables  gateway.Tables
	persist Persister
	logger  *zap.Logger

	mu    sync.RWMutex
	state State

	subsMu sync.Mutex
	nextID int
	subs   map[int]func(State)
}

// NewStore creates a store in the Loading, not Initialized state. persist
// may be nil.
func NewStore(auth gateway.Auth, tables gateway.Tables, persist Persister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		auth:    auth,
		tables:  tables,
		persist: persist,
		logger:  logger,
		state:   State{Loading: true},
		subs:    make(map[int]func(State)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.state)
}

// Subscribe calls fn after every state change until the returned function
// is called.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// Hydrate restores the persisted user. It is never called implicitly.
func (s *Store) Hydrate() {
	if s.persist == nil {
		return
	}

	user, err := s.persist.Load()
	if err != nil {
		s.logger.Warn("discarding persisted session user", zap.Error(err))
		return
	}
	if user == nil {
		return
	}

	s.update(func(st *State) { st.User = user })
}

// SetInitialized sets the initialized flag.
func (s *Store) SetInitialized(initialized bool) {
	s.update(func(st *State) { st.Initialized = initialized })
}

// ForceReady marks the store initialized and not loading, leaving the
// user as is. Used when initialization outlives its timer.
func (s *Store) ForceReady() {
	s.update(func(st *State) {
		st.Initialized = true
		st.Loading = false
	})
}

// SignIn authenticates and then loads the profile. The gateway error, if
// any, is returned and the state is left unchanged.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	if _, err := s.auth.SignInWithPassword(ctx, email, password); err != nil {
		return err
	}
	s.FetchUser(ctx)
	return nil
}

// SignUp registers a user with fullName as metadata. When the backend
// signs the user straight in, the profile row is created and loaded.
func (s *Store) SignUp(ctx context.Context, email, password, fullName string) (SignUpOutcome, error) {
	result, err := s.auth.SignUp(ctx, email, password, map[string]any{"full_name": fullName})
	if err != nil {
		return SignUpFailed, err
	}
	if result.Session == nil {
		return SignUpPendingConfirmation, nil
	}

	profile := map[string]any{
		"id":        result.User.ID,
		"email":     email,
		"full_name": fullName,
	}
	if err := s.tables.Insert(ctx, models.TableProfiles, profile); err != nil {
		return SignUpFailed, err
	}

	s.FetchUser(ctx)
	return SignUpComplete, nil
}

// SignOut ends the gateway session and clears the user. A gateway failure
// is logged; the local user is cleared regardless.
func (s *Store) SignOut(ctx context.Context) {
	if err := s.auth.SignOut(ctx); err != nil {
		s.logger.Warn("sign out failed at gateway", zap.Error(err))
	}
	s.update(func(st *State) { st.User = nil })
}

// FetchUser loads the profile of the current session's user. Failures
// keep the previous user. Loading ends and the store is initialized
// whatever happens.
func (s *Store) FetchUser(ctx context.Context) {
	s.update(func(st *State) { st.Loading = true })

	var user *models.Profile
	session, err := s.auth.GetSession(ctx)
	switch {
	case err != nil:
		s.logger.Warn("failed to get session", zap.Error(err))
	case session != nil:
		var profile models.Profile
		q := gateway.From(models.TableProfiles).Eq("id", session.User.ID).Single()
		if err := s.tables.Select(ctx, q, &profile); err != nil {
			s.logger.Warn("failed to load profile",
				zap.String("user_id", session.User.ID.String()),
				zap.Error(err))
		} else {
			user = &profile
		}
	}

	s.update(func(st *State) {
		if user != nil {
			st.User = user
		}
		st.Loading = false
		st.Initialized = true
	})
}

// update applies fn under the lock, persists a changed user and then
// notifies subscribers.
func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	before := s.state.User
	fn(&s.state)
	after := s.state.User
	snapshot := copyState(s.state)
	s.mu.Unlock()

	if before != after {
		s.persistUser(after)
	}

	s.subsMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) persistUser(user *models.Profile) {
	if s.persist == nil {
		return
	}

	var err error
	if user == nil {
		err = s.persist.Clear()
	} else {
		err = s.persist.Save(user)
	}
	if err != nil {
		s.logger.Warn("failed to persist session user", zap.Error(err))
	}
}

func copyState(st State) State {
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}
