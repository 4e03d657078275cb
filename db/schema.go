// ABOUTME: Database schema definitions for the local backend
// ABOUTME: Rows of every remote table live as JSON documents in one records table
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	tbl TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (tbl, id)
);

CREATE INDEX IF NOT EXISTS idx_records_tbl ON records(tbl);

CREATE TABLE IF NOT EXISTS auth_users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	confirmed INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_sessions (
	access_token TEXT PRIMARY KEY,
	refresh_token TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	expires_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES auth_users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_auth_sessions_user ON auth_sessions(user_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
