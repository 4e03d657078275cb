// ABOUTME: Repository for local backend users and their sessions
// ABOUTME: Stores bcrypt password hashes and opaque access/refresh tokens
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrDuplicateEmail  = errors.New("email already registered")
)

type UserRow struct {
	ID           string
	Email        string
	PasswordHash string
	Metadata     map[string]any
	Confirmed    bool
	CreatedAt    time.Time
}

type SessionRow struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
}

// AuthRepository provides user and session persistence.
type AuthRepository struct {
	db *sql.DB
}

func NewAuthRepository(db *sql.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) CreateUser(ctx context.Context, u *UserRow) error {
	metadata, err := json.Marshal(u.Metadata)
	if err != nil {
		return err
	}
	if u.Metadata == nil {
		metadata = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO auth_users (id, email, password_hash, metadata, confirmed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, string(metadata), u.Confirmed, u.CreatedAt,
	)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrDuplicateEmail
	}
	return err
}

func (r *AuthRepository) GetUserByEmail(ctx context.Context, email string) (*UserRow, error) {
	return r.getUser(ctx, `WHERE email = ?`, email)
}

func (r *AuthRepository) GetUserByID(ctx context.Context, id string) (*UserRow, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

func (r *AuthRepository) getUser(ctx context.Context, where string, arg any) (*UserRow, error) {
	var u UserRow
	var metadata string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, metadata, confirmed, created_at FROM auth_users `+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &metadata, &u.Confirmed, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metadata), &u.Metadata); err != nil {
		return nil, err
	}
	return &u, nil
}

// ConfirmUser marks a user's email as confirmed.
func (r *AuthRepository) ConfirmUser(ctx context.Context, email string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE auth_users SET confirmed = 1 WHERE email = ?`, email)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *AuthRepository) CreateSession(ctx context.Context, s *SessionRow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (access_token, refresh_token, user_id, expires_at) VALUES (?, ?, ?, ?)`,
		s.AccessToken, s.RefreshToken, s.UserID, s.ExpiresAt,
	)
	return err
}

func (r *AuthRepository) GetSession(ctx context.Context, accessToken string) (*SessionRow, error) {
	return r.getSession(ctx, `WHERE access_token = ?`, accessToken)
}

func (r *AuthRepository) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*SessionRow, error) {
	return r.getSession(ctx, `WHERE refresh_token = ?`, refreshToken)
}

func (r *AuthRepository) getSession(ctx context.Context, where string, arg any) (*SessionRow, error) {
	var s SessionRow
	err := r.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, user_id, expires_at FROM auth_sessions `+where,
		arg,
	).Scan(&s.AccessToken, &s.RefreshToken, &s.UserID, &s.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RotateSession replaces the session identified by refreshToken with next.
func (r *AuthRepository) RotateSession(ctx context.Context, refreshToken string, next *SessionRow) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE auth_sessions SET access_token = ?, refresh_token = ?, expires_at = ? WHERE refresh_token = ?`,
		next.AccessToken, next.RefreshToken, next.ExpiresAt, refreshToken,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *AuthRepository) DeleteSession(ctx context.Context, accessToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE access_token = ?`, accessToken)
	return err
}
