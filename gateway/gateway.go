// ABOUTME: Remote data gateway boundary shared by the hosted and local backends
// ABOUTME: Defines the Auth and Tables interfaces, sessions, auth events and gateway errors
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoSession          = errors.New("no active session")
	ErrNotFound           = errors.New("row not found")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUserExists         = errors.New("user already registered")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrUnknownTable       = errors.New("unknown table")
)

// AuthEvent is broadcast to OnAuthStateChange listeners.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthUser is the identity attached to a session.
type AuthUser struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is an authenticated gateway session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         AuthUser  `json:"user"`
}

// Expired reports whether the access token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SignUpResult carries the created user. Session is nil when the backend
// requires email confirmation before the first sign-in.
type SignUpResult struct {
	User    AuthUser
	Session *Session
}

// AuthListener receives auth state changes. session is nil on sign-out.
type AuthListener func(event AuthEvent, session *Session)

// Auth is the authentication half of the gateway.
type Auth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error)
	SignOut(ctx context.Context) error
	// GetSession returns nil, nil when nobody is signed in.
	GetSession(ctx context.Context) (*Session, error)
	OnAuthStateChange(listener AuthListener) (unsubscribe func())
}

// Tables is the row access half of the gateway.
type Tables interface {
	// Select decodes matching rows into dest, a pointer to a slice, or to a
	// struct when the query is Single.
	Select(ctx context.Context, q *Query, dest any) error
	Insert(ctx context.Context, table string, row any) error
	Update(ctx context.Context, table string, id uuid.UUID, patch any) error
	Delete(ctx context.Context, table string, id uuid.UUID) error
}

// Gateway is the full backend surface.
type Gateway interface {
	Auth
	Tables
}

// SessionCache persists the gateway session between process runs.
type SessionCache interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// APIError is a failure reported by the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway error %d: %s", e.Status, e.Message)
}

// listeners fans auth events out to subscribers.
type listeners struct {
	mu   sync.Mutex
	next int
	subs map[int]AuthListener
}

func (l *listeners) subscribe(fn AuthListener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		l.subs = make(map[int]AuthListener)
	}
	id := l.next
	l.next++
	l.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners) emit(event AuthEvent, session *Session) {
	l.mu.Lock()
	fns := make([]AuthListener, 0, len(l.subs))
	for i := 0; i < l.next; i++ {
		if fn, ok := l.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}
