// ABOUTME: Password auth for the local backend with bcrypt hashes and ULID tokens
// ABOUTME: Supports optional email confirmation and rotates tokens when a session expires
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/db"
	"github.com/harperreed/ancora/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength matches the hosted backend's default policy.
const minPasswordLength = 6

// SignInWithPassword implements Auth.
func (g *Local) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	user, err := g.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	session, err := g.issueSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	g.establish(session)
	g.events.emit(EventSignedIn, session)
	return session, nil
}

// SignUp implements Auth.
func (g *Local) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &APIError{Status: http.StatusBadRequest, Code: "validation_failed", Message: "a valid email is required"}
	}
	if len(password) < minPasswordLength {
		return nil, &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "weak_password",
			Message: fmt.Sprintf("password should be at least %d characters", minPasswordLength),
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	user := &db.UserRow{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Metadata:     metadata,
		Confirmed:    !g.confirmEmail,
		CreatedAt:    g.now().UTC(),
	}
	if err := g.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	authUser := toAuthUser(user)
	if !user.Confirmed {
		g.logger.Info("sign-up awaiting email confirmation", zap.String("email", email))
		return &SignUpResult{User: authUser}, nil
	}

	session, err := g.issueSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	g.establish(session)
	g.events.emit(EventSignedIn, session)
	return &SignUpResult{User: authUser, Session: session}, nil
}

// ConfirmEmail marks a pending sign-up as confirmed so it can sign in,
// and creates its profile from the sign-up metadata the way the hosted
// backend does on confirmation.
func (g *Local) ConfirmEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	err := g.users.ConfirmUser(ctx, email)
	if errors.Is(err, db.ErrUserNotFound) {
		return fmt.Errorf("confirm %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("confirm %s: %w", email, err)
	}

	user, err := g.users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", email, err)
	}
	return g.ensureProfile(ctx, user)
}

// ensureProfile inserts the profiles row for user unless one exists.
func (g *Local) ensureProfile(ctx context.Context, user *db.UserRow) error {
	_, err := g.records.Get(ctx, models.TableProfiles, user.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrRecordNotFound) {
		return fmt.Errorf("load profile: %w", err)
	}

	doc := db.Document{
		"id":         user.ID,
		"email":      user.Email,
		"role":       models.RoleMember,
		"created_at": g.timestamp(),
	}
	if name, ok := user.Metadata["full_name"].(string); ok && name != "" {
		doc["full_name"] = name
	}
	if err := g.records.Insert(ctx, models.TableProfiles, doc); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	g.logger.Info("profile created on confirmation", zap.String("email", user.Email))
	return nil
}

// SignOut implements Auth. The local session is cleared even when the
// token cannot be revoked.
func (g *Local) SignOut(ctx context.Context) error {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()

	var revokeErr error
	if session != nil {
		if err := g.users.DeleteSession(ctx, session.AccessToken); err != nil {
			revokeErr = fmt.Errorf("sign out: %w", err)
		}
	}

	g.clearSession()
	g.events.emit(EventSignedOut, nil)
	return revokeErr
}

// GetSession implements Auth. An expired session is rotated; a session
// that can no longer be rotated signs the user out.
func (g *Local) GetSession(ctx context.Context) (*Session, error) {
	g.mu.RLock()
	current := g.session
	g.mu.RUnlock()

	if current == nil {
		return nil, nil
	}
	if !current.Expired(g.now()) {
		s := *current
		return &s, nil
	}

	session, event, err := g.rotateExpired(ctx)
	if event != "" {
		g.events.emit(event, session)
	}
	if err != nil || session == nil {
		return nil, err
	}
	s := *session
	return &s, nil
}

// rotateExpired refreshes the current session once, even when called
// concurrently. It returns the event to broadcast, if any.
func (g *Local) rotateExpired(ctx context.Context) (*Session, AuthEvent, error) {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	// Another caller may have rotated the session while we waited.
	g.mu.RLock()
	current := g.session
	g.mu.RUnlock()
	if current == nil {
		return nil, "", nil
	}
	if !current.Expired(g.now()) {
		return current, "", nil
	}

	refreshed, err := g.refresh(ctx, current)
	if errors.Is(err, db.ErrSessionNotFound) || errors.Is(err, db.ErrUserNotFound) {
		g.logger.Warn("session revoked, signing out", zap.String("user_id", current.User.ID.String()))
		g.clearSession()
		return nil, EventSignedOut, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to refresh session: %w", err)
	}

	g.establish(refreshed)
	return refreshed, EventTokenRefreshed, nil
}

// OnAuthStateChange implements Auth.
func (g *Local) OnAuthStateChange(listener AuthListener) func() {
	return g.events.subscribe(listener)
}

func (g *Local) requireSession(ctx context.Context) (*Session, error) {
	session, err := g.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoSession
	}
	return session, nil
}

func (g *Local) issueSession(ctx context.Context, user *db.UserRow) (*Session, error) {
	row := &db.SessionRow{
		AccessToken:  ulid.Make().String(),
		RefreshToken: ulid.Make().String(),
		UserID:       user.ID,
		ExpiresAt:    g.now().Add(g.sessionTTL).UTC(),
	}
	if err := g.users.CreateSession(ctx, row); err != nil {
		return nil, err
	}
	return toSession(row, user), nil
}

func (g *Local) refresh(ctx context.Context, current *Session) (*Session, error) {
	user, err := g.users.GetUserByID(ctx, current.User.ID.String())
	if err != nil {
		return nil, err
	}

	next := &db.SessionRow{
		AccessToken:  ulid.Make().String(),
		RefreshToken: ulid.Make().String(),
		UserID:       user.ID,
		ExpiresAt:    g.now().Add(g.sessionTTL).UTC(),
	}
	if err := g.users.RotateSession(ctx, current.RefreshToken, next); err != nil {
		return nil, err
	}
	return toSession(next, user), nil
}

// restoreSession adopts a cached session if the database still knows it.
func (g *Local) restoreSession() {
	if g.cache == nil {
		return
	}

	cached, err := g.cache.Load()
	if err != nil {
		g.logger.Warn("discarding cached session", zap.Error(err))
		return
	}
	if cached == nil {
		return
	}

	if _, err := g.users.GetSessionByRefreshToken(context.Background(), cached.RefreshToken); err != nil {
		g.logger.Debug("cached session no longer valid", zap.Error(err))
		if err := g.cache.Clear(); err != nil {
			g.logger.Warn("failed to clear cached session", zap.Error(err))
		}
		return
	}

	g.mu.Lock()
	g.session = cached
	g.mu.Unlock()
}

func (g *Local) establish(session *Session) {
	g.mu.Lock()
	g.session = session
	g.mu.Unlock()

	if g.cache != nil {
		if err := g.cache.Save(session); err != nil {
			g.logger.Warn("failed to cache session", zap.Error(err))
		}
	}
}

func (g *Local) clearSession() {
	g.mu.Lock()
	g.session = nil
	g.mu.Unlock()

	if g.cache != nil {
		if err := g.cache.Clear(); err != nil {
			g.logger.Warn("failed to clear cached session", zap.Error(err))
		}
	}
}

func toAuthUser(u *db.UserRow) AuthUser {
	id, _ := uuid.Parse(u.ID)
	return AuthUser{ID: id, Email: u.Email, UserMetadata: u.Metadata}
}

func toSession(row *db.SessionRow, user *db.UserRow) *Session {
	return &Session{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    row.ExpiresAt,
		User:         toAuthUser(user),
	}
}
