// ABOUTME: Test utilities for creating isolated local gateways
// ABOUTME: Uses an in-memory SQLite database and the cheapest bcrypt cost
package gateway

import (
	"context"
	"sync"
	"testing"

	"github.com/harperreed/ancora/db"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password used by SignUpTestUser.
const TestPassword = "correct-horse"

// NewTestLocal creates a Local gateway on a private in-memory database that
// is closed when the test ends.
func NewTestLocal(t testing.TB, opts ...LocalOption) *Local {
	t.Helper()

	sqlDB, err := db.OpenDatabase(db.MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	opts = append([]LocalOption{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewLocal(sqlDB, nil, opts...)
}

// SignUpTestUser registers email with TestPassword and returns the new
// session. The gateway is left signed in as that user.
func SignUpTestUser(t testing.TB, g *Local, email string) *Session {
	t.Helper()

	result, err := g.SignUp(context.Background(), email, TestPassword, map[string]any{"full_name": "Test User"})
	if err != nil {
		t.Fatalf("Failed to sign up %s: %v", email, err)
	}
	if result.Session == nil {
		t.Fatalf("Sign-up of %s is pending confirmation", email)
	}
	return result.Session
}

// MemorySessionCache keeps a session in memory.
type MemorySessionCache struct {
	mu      sync.Mutex
	session *Session
}

func (c *MemorySessionCache) Load() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	s := *c.session
	return &s, nil
}

func (c *MemorySessionCache) Save(session *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := *session
	c.session = &s
	return nil
}

func (c *MemorySessionCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	return nil
}
