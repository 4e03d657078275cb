// ABOUTME: Test utilities for creating isolated kv clients
// ABOUTME: Uses a badger database in a per-test temporary directory
package kvstore

import (
	"testing"
)

// NewTestClient opens a local client in a temp dir, closed when the test ends.
func NewTestClient(t testing.TB) *Client {
	t.Helper()

	c, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open test kv: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test kv: %v", err)
		}
	})
	return c
}
