// ABOUTME: Tests for opening the local backend database
// ABOUTME: Covers file and in-memory databases, WAL mode and unusable paths
package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := OpenDatabase(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file was not created")

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenDatabaseInMemory(t *testing.T) {
	db, err := OpenDatabase(MemoryPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='records'").Scan(&name))
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	// A regular file sits where a directory is needed.
	_, err := OpenDatabase(filepath.Join(blocker, "sub", "test.db"))
	assert.Error(t, err)
}
