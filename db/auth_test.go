// ABOUTME: Tests for the local user and session repository
// ABOUTME: Covers duplicate emails, confirmation and token rotation
package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuth(t *testing.T) *AuthRepository {
	t.Helper()
	db, err := OpenDatabase(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthRepository(db)
}

func TestAuthUsers(t *testing.T) {
	repo := setupAuth(t)
	ctx := context.Background()

	user := &UserRow{
		ID:           "u1",
		Email:        "ann@example.com",
		PasswordHash: "hash",
		Metadata:     map[string]any{"full_name": "Ann"},
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	got, err := repo.GetUserByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "Ann", got.Metadata["full_name"])
	assert.False(t, got.Confirmed)

	dup := *user
	dup.ID = "u2"
	assert.ErrorIs(t, repo.CreateUser(ctx, &dup), ErrDuplicateEmail)

	require.NoError(t, repo.ConfirmUser(ctx, "ann@example.com"))
	got, err = repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.Confirmed)

	_, err = repo.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, repo.ConfirmUser(ctx, "nobody@example.com"), ErrUserNotFound)
}

func TestAuthSessions(t *testing.T) {
	repo := setupAuth(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &UserRow{ID: "u1", Email: "a@b.c", PasswordHash: "h", Confirmed: true, CreatedAt: time.Now()}))

	s := &SessionRow{AccessToken: "at1", RefreshToken: "rt1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.GetSession(ctx, "at1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	next := &SessionRow{AccessToken: "at2", RefreshToken: "rt2", ExpiresAt: time.Now().Add(2 * time.Hour)}
	require.NoError(t, repo.RotateSession(ctx, "rt1", next))

	_, err = repo.GetSession(ctx, "at1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err = repo.GetSessionByRefreshToken(ctx, "rt2")
	require.NoError(t, err)
	assert.Equal(t, "at2", got.AccessToken)

	assert.ErrorIs(t, repo.RotateSession(ctx, "rt1", next), ErrSessionNotFound)

	require.NoError(t, repo.DeleteSession(ctx, "at2"))
	_, err = repo.GetSession(ctx, "at2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
