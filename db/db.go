// ABOUTME: Database connection management and initialization
// ABOUTME: Opens the local backend's SQLite file in WAL mode, or an in-memory database
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

func OpenDatabase(path string) (*sql.DB, error) {
	dsn := MemoryPath + "?_foreign_keys=on"
	if path != MemoryPath {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		dsn = path + "?_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: avoids database locked errors and keeps an
	// in-memory database alive for the life of the handle.
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
