// ABOUTME: Password auth, sign-up, sign-out and session refresh for the hosted backend
// ABOUTME: Sessions are held in memory, mirrored to an optional cache, and refreshed through oauth2
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

func (t *tokenResponse) session(now time.Time) *Session {
	s := &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		User:         t.User,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return s
}

type signUpResponse struct {
	tokenResponse
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// SignInWithPassword implements Auth.
func (g *REST) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var out tokenResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetAuthToken(g.anonKey).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/auth/v1/token")
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if resp.IsError() {
		apiErr := decodeAPIError(resp)
		switch {
		case apiErr.Code == "email_not_confirmed":
			return nil, fmt.Errorf("%w: %w", ErrEmailNotConfirmed, apiErr)
		case apiErr.Status == http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, apiErr)
		}
		return nil, fmt.Errorf("sign in: %w", apiErr)
	}

	session := out.session(g.now())
	g.establish(session)
	g.events.emit(EventSignedIn, session)
	return session, nil
}

// SignUp implements Auth.
func (g *REST) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var out signUpResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetAuthToken(g.anonKey).
		SetBody(body).
		SetResult(&out).
		Post("/auth/v1/signup")
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if resp.IsError() {
		apiErr := decodeAPIError(resp)
		if apiErr.Code == "user_already_exists" || apiErr.Status == http.StatusUnprocessableEntity {
			return nil, fmt.Errorf("%w: %w", ErrUserExists, apiErr)
		}
		return nil, fmt.Errorf("sign up: %w", apiErr)
	}

	if out.AccessToken == "" {
		// Confirmation pending: the body is the bare user.
		return &SignUpResult{User: AuthUser{ID: out.ID, Email: out.Email, UserMetadata: out.UserMetadata}}, nil
	}

	session := out.tokenResponse.session(g.now())
	g.establish(session)
	g.events.emit(EventSignedIn, session)
	return &SignUpResult{User: session.User, Session: session}, nil
}

// SignOut implements Auth. The local session is cleared even when the
// backend call fails.
func (g *REST) SignOut(ctx context.Context) error {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()

	var callErr error
	if session != nil {
		resp, err := g.http.R().
			SetContext(ctx).
			SetAuthToken(session.AccessToken).
			Post("/auth/v1/logout")
		switch {
		case err != nil:
			callErr = fmt.Errorf("sign out: %w", err)
		case resp.IsError() && resp.StatusCode() != http.StatusUnauthorized:
			callErr = fmt.Errorf("sign out: %w", decodeAPIError(resp))
		}
	}

	g.setSession(nil)
	if g.cache != nil {
		if err := g.cache.Clear(); err != nil {
			g.logger.Warn("failed to clear cached session", zap.Error(err))
		}
	}
	g.events.emit(EventSignedOut, nil)
	return callErr
}

// GetSession implements Auth. An expired access token is refreshed first.
func (g *REST) GetSession(ctx context.Context) (*Session, error) {
	g.mu.RLock()
	tokens := g.tokens
	g.mu.RUnlock()

	if tokens == nil {
		return nil, nil
	}
	_, err := tokens.Token()
	g.announceRefresh()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return nil, nil
	}
	s := *g.session
	return &s, nil
}

// OnAuthStateChange implements Auth.
func (g *REST) OnAuthStateChange(listener AuthListener) func() {
	return g.events.subscribe(listener)
}

// establish installs a new session and mirrors it to the cache.
func (g *REST) establish(session *Session) {
	g.setSession(session)
	if g.cache != nil {
		if err := g.cache.Save(session); err != nil {
			g.logger.Warn("failed to cache session", zap.Error(err))
		}
	}
}

func (g *REST) setSession(session *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.session = session
	if session == nil {
		g.tokens = nil
		return
	}
	g.tokens = oauth2.ReuseTokenSource(oauthToken(session), &refresher{g: g})
}

func oauthToken(s *Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}
}

// refresher exchanges the current refresh token for a new session.
type refresher struct {
	g *REST
}

func (r *refresher) Token() (*oauth2.Token, error) {
	g := r.g

	g.mu.RLock()
	var refreshToken string
	if g.session != nil {
		refreshToken = g.session.RefreshToken
	}
	g.mu.RUnlock()

	if refreshToken == "" {
		return nil, ErrNoSession
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRESTTimeout)
	defer cancel()

	var out tokenResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetAuthToken(g.anonKey).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&out).
		Post("/auth/v1/token")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	if out.AccessToken == "" {
		return nil, errors.New("refresh returned no access token")
	}

	session := out.session(g.now())

	g.mu.Lock()
	g.session = session
	g.refreshed = session
	g.mu.Unlock()

	if g.cache != nil {
		if err := g.cache.Save(session); err != nil {
			g.logger.Warn("failed to cache refreshed session", zap.Error(err))
		}
	}

	return oauthToken(session), nil
}

// announceRefresh broadcasts a refresh that happened inside the token
// source, outside of its lock.
func (g *REST) announceRefresh() {
	g.mu.Lock()
	session := g.refreshed
	g.refreshed = nil
	g.mu.Unlock()

	if session != nil {
		g.events.emit(EventTokenRefreshed, session)
	}
}
