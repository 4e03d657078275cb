// ABOUTME: Tests for the hosted backend gateway against an httptest server
// ABOUTME: Verifies routes, headers, query encoding, error decoding and token refresh
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnonKey = "anon-key"

var testUserID = uuid.MustParse("2b1f3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d")

// fakeBackend records requests and serves canned responses.
type fakeBackend struct {
	t  *testing.T
	mu sync.Mutex

	tokenExpiresAt int64
	refreshCount   int
	lastAuth       string
	lastQuery      map[string][]string
	lastBody       map[string]any
	lastPrefer     string
	lastMethod     string
	lastPath       string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeBackend) tokens(access, refresh string) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"expires_at":    f.tokenExpiresAt,
		"user":          map[string]any{"id": testUserID.String(), "email": "ann@example.com"},
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	assert.Equal(f.t, testAnonKey, r.Header.Get("apikey"))

	f.lastAuth = r.Header.Get("Authorization")
	f.lastQuery = r.URL.Query()
	f.lastPrefer = r.Header.Get("Prefer")
	f.lastMethod = r.Method
	f.lastPath = r.URL.Path
	f.lastBody = nil
	if body, _ := io.ReadAll(r.Body); len(body) > 0 {
		_ = json.Unmarshal(body, &f.lastBody)
	}

	switch {
	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
		if f.lastBody["password"] != "secret123" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			return
		}
		writeJSON(w, http.StatusOK, f.tokens("at-1", "rt-1"))

	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
		f.refreshCount++
		f.tokenExpiresAt = time.Now().Add(time.Hour).Unix()
		writeJSON(w, http.StatusOK, f.tokens("at-2", "rt-2"))

	case r.URL.Path == "/auth/v1/signup":
		if f.lastBody["email"] == "pending@example.com" {
			writeJSON(w, http.StatusOK, map[string]any{"id": testUserID.String(), "email": "pending@example.com"})
			return
		}
		if f.lastBody["email"] == "taken@example.com" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"code": 422, "error_code": "user_already_exists", "msg": "User already registered"})
			return
		}
		writeJSON(w, http.StatusOK, f.tokens("at-1", "rt-1"))

	case r.URL.Path == "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)

	case r.URL.Path == "/rest/v1/contacts" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, []map[string]any{{
			"id":         uuid.New().String(),
			"first_name": "Jane",
			"last_name":  "Doe",
			"status":     "lead",
			"owner_id":   testUserID.String(),
			"created_at": "2024-05-01T10:00:00.000000+00:00",
			"updated_at": "2024-05-01T10:00:00.000000+00:00",
			"company":    map[string]any{"id": uuid.New().String(), "name": "Acme", "owner_id": testUserID.String(), "created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"},
		}})

	case r.URL.Path == "/rest/v1/deals" && r.Method == http.MethodDelete:
		writeJSON(w, http.StatusConflict, map[string]any{"code": "23503", "message": "violates foreign key constraint"})

	case r.URL.Path == "/rest/v1/deals":
		w.WriteHeader(http.StatusNoContent)

	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no route"})
	}
}

func newTestREST(t *testing.T, opts ...RESTOption) (*REST, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{t: t, tokenExpiresAt: time.Now().Add(time.Hour).Unix()}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return NewREST(srv.URL+"/", testAnonKey, nil, opts...), backend
}

func TestRESTSignInAndSelect(t *testing.T) {
	g, backend := newTestREST(t)
	ctx := context.Background()

	var contacts []models.Contact
	require.NoError(t, g.Select(ctx, From(models.TableContacts), &contacts))
	assert.Equal(t, "Bearer "+testAnonKey, backend.lastAuth)

	session, err := g.SignInWithPassword(ctx, "ann@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "at-1", session.AccessToken)
	assert.Equal(t, testUserID, session.User.ID)

	q := From(models.TableContacts).Embed("company", models.TableCompanies, "organization_id").Order("created_at", false)
	require.NoError(t, g.Select(ctx, q, &contacts))

	assert.Equal(t, "Bearer at-1", backend.lastAuth)
	assert.Equal(t, "*,company:companies!organization_id(*)", backend.lastQuery["select"][0])
	assert.Equal(t, "created_at.desc", backend.lastQuery["order"][0])

	require.Len(t, contacts, 1)
	require.NotNil(t, contacts[0].Company)
	assert.Equal(t, "Acme", contacts[0].Company.Name)
	assert.Equal(t, "Jane Doe", contacts[0].FullName())
}

func TestRESTSignInInvalidCredentials(t *testing.T) {
	g, _ := newTestREST(t)

	_, err := g.SignInWithPassword(context.Background(), "ann@example.com", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Equal(t, "Invalid login credentials", apiErr.Message)
}

func TestRESTWrites(t *testing.T) {
	g, backend := newTestREST(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, g.Insert(ctx, models.TableDeals, models.DealInput{Title: models.Ptr("Big")}.WithStage(models.StageProposal)))
	assert.Equal(t, http.MethodPost, backend.lastMethod)
	assert.Equal(t, "return=minimal", backend.lastPrefer)
	assert.Equal(t, map[string]any{"title": "Big", "stage": "proposal", "probability": float64(50)}, backend.lastBody)

	require.NoError(t, g.Update(ctx, models.TableDeals, id, models.DealInput{Title: models.Ptr("Bigger")}))
	assert.Equal(t, http.MethodPatch, backend.lastMethod)
	assert.Equal(t, "eq."+id.String(), backend.lastQuery["id"][0])
	assert.Equal(t, map[string]any{"title": "Bigger"}, backend.lastBody)

	err := g.Delete(ctx, models.TableDeals, id)
	require.Error(t, err)
	assert.True(t, IsAPIStatus(err, http.StatusConflict))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "23503", apiErr.Code)
}

func TestRESTUnknownRouteError(t *testing.T) {
	g, _ := newTestREST(t)

	var rows []map[string]any
	err := g.Select(context.Background(), From("invoices"), &rows)
	assert.True(t, IsAPIStatus(err, http.StatusNotFound))
}

func TestRESTSignUp(t *testing.T) {
	g, backend := newTestREST(t)
	ctx := context.Background()

	pending, err := g.SignUp(ctx, "pending@example.com", "secret123", map[string]any{"full_name": "Pat"})
	require.NoError(t, err)
	assert.Nil(t, pending.Session)
	assert.Equal(t, "pending@example.com", pending.User.Email)
	assert.Equal(t, map[string]any{"full_name": "Pat"}, backend.lastBody["data"])

	session, err := g.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = g.SignUp(ctx, "taken@example.com", "secret123", nil)
	assert.ErrorIs(t, err, ErrUserExists)

	done, err := g.SignUp(ctx, "ann@example.com", "secret123", nil)
	require.NoError(t, err)
	require.NotNil(t, done.Session)
	assert.Equal(t, "at-1", done.Session.AccessToken)
}

func TestRESTRefreshesExpiredToken(t *testing.T) {
	cache := &MemorySessionCache{}
	g, backend := newTestREST(t, WithSessionCache(cache))
	ctx := context.Background()

	backend.tokenExpiresAt = time.Now().Add(-time.Minute).Unix()
	_, err := g.SignInWithPassword(ctx, "ann@example.com", "secret123")
	require.NoError(t, err)

	var events []AuthEvent
	g.OnAuthStateChange(func(event AuthEvent, _ *Session) { events = append(events, event) })

	var contacts []models.Contact
	require.NoError(t, g.Select(ctx, From(models.TableContacts), &contacts))
	assert.Equal(t, "Bearer at-2", backend.lastAuth)
	assert.Equal(t, 1, backend.refreshCount)
	assert.Equal(t, []AuthEvent{EventTokenRefreshed}, events)

	require.NoError(t, g.Select(ctx, From(models.TableContacts), &contacts))
	assert.Equal(t, 1, backend.refreshCount)

	cached, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "at-2", cached.AccessToken)

	session, err := g.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rt-2", session.RefreshToken)
}

func TestRESTSignOutAndCacheRestore(t *testing.T) {
	cache := &MemorySessionCache{}
	g, backend := newTestREST(t, WithSessionCache(cache))
	ctx := context.Background()

	_, err := g.SignInWithPassword(ctx, "ann@example.com", "secret123")
	require.NoError(t, err)

	restored := NewREST("http://unused", testAnonKey, nil, WithSessionCache(cache))
	session, err := restored.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "at-1", session.AccessToken)

	var events []AuthEvent
	g.OnAuthStateChange(func(event AuthEvent, s *Session) {
		events = append(events, event)
		assert.Nil(t, s)
	})

	require.NoError(t, g.SignOut(ctx))
	assert.Equal(t, "/auth/v1/logout", backend.lastPath)
	assert.Equal(t, "Bearer at-1", backend.lastAuth)
	assert.Equal(t, []AuthEvent{EventSignedOut}, events)

	session, err = g.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	cached, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, cached)
}
