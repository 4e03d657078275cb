// ABOUTME: Domain record cache holding the fetched CRM collections
// ABOUTME: Observable state with local lookups; fetches and mutations live alongside
package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/gateway"
	"github.com/harperreed/ancora/models"
	"go.uber.org/zap"
)

// State is a copy of every cached collection. Loading is only raised
// while contacts are being fetched.
type State struct {
	Contacts     []models.Contact
	Companies    []models.Company
	Deals        []models.Deal
	Projects     []models.Project
	Activities   []models.Activity
	ProjectTasks []models.ProjectTask
	Loading      bool
}

// Store caches the collections last returned by the gateway. Every
// mutation is followed by a re-fetch; nothing is patched locally.
type Store struct {
	tables gateway.Tables
	logger *zap.Logger

	mu    sync.RWMutex
	state State

	subsMu sync.Mutex
	nextID int
	subs   map[int]func(State)
}

func New(tables gateway.Tables, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		tables: tables,
		logger: logger,
		subs:   make(map[int]func(State)),
	}
}

// Snapshot returns a copy of all collections.
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

func (s *Store) GetContact(id uuid.UUID) (models.Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.state.Contacts, id, func(c models.Contact) uuid.UUID { return c.ID })
}

func (s *Store) GetCompany(id uuid.UUID) (models.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.state.Companies, id, func(c models.Company) uuid.UUID { return c.ID })
}

func (s *Store) GetDeal(id uuid.UUID) (models.Deal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.state.Deals, id, func(d models.Deal) uuid.UUID { return d.ID })
}

func (s *Store) GetProject(id uuid.UUID) (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.state.Projects, id, func(p models.Project) uuid.UUID { return p.ID })
}

func (s *Store) GetActivity(id uuid.UUID) (models.Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.state.Activities, id, func(a models.Activity) uuid.UUID { return a.ID })
}

func (s *Store) GetProjectTask(id uuid.UUID) (models.ProjectTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.state.ProjectTasks, id, func(t models.ProjectTask) uuid.UUID { return t.ID })
}

func find[T any](items []T, id uuid.UUID, idOf func(T) uuid.UUID) (T, bool) {
	for _, item := range items {
		if idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// update applies fn under the lock and then notifies subscribers.
func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := copyState(s.state)
	s.mu.Unlock()

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

func copyState(st State) State {
	return State{
		Contacts:     append([]models.Contact(nil), st.Contacts...),
		Companies:    append([]models.Company(nil), st.Companies...),
		Deals:        append([]models.Deal(nil), st.Deals...),
		Projects:     append([]models.Project(nil), st.Projects...),
		Activities:   append([]models.Activity(nil), st.Activities...),
		ProjectTasks: append([]models.ProjectTask(nil), st.ProjectTasks...),
		Loading:      st.Loading,
	}
}
