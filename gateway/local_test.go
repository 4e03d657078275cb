// ABOUTME: Tests for the SQLite-backed local gateway
// ABOUTME: Covers auth flows, server-assigned fields, embeds, delete actions and session refresh
package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/db"
	"github.com/harperreed/ancora/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func insertCompany(t *testing.T, g *Local, name string) models.Company {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, g.Insert(ctx, models.TableCompanies, models.CompanyInput{Name: models.Ptr(name)}))

	var companies []models.Company
	require.NoError(t, g.Select(ctx, From(models.TableCompanies).Eq("name", name), &companies))
	require.Len(t, companies, 1)
	return companies[0]
}

func TestLocalRequiresSession(t *testing.T) {
	g := NewTestLocal(t)
	ctx := context.Background()

	var rows []models.Company
	assert.ErrorIs(t, g.Select(ctx, From(models.TableCompanies), &rows), ErrNoSession)
	assert.ErrorIs(t, g.Insert(ctx, models.TableCompanies, map[string]any{"name": "x"}), ErrNoSession)
	assert.ErrorIs(t, g.Update(ctx, models.TableCompanies, uuid.New(), map[string]any{}), ErrNoSession)
	assert.ErrorIs(t, g.Delete(ctx, models.TableCompanies, uuid.New()), ErrNoSession)
}

func TestLocalUnknownTable(t *testing.T) {
	g := NewTestLocal(t)
	SignUpTestUser(t, g, "ann@example.com")

	var rows []map[string]any
	err := g.Select(context.Background(), From("invoices"), &rows)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestLocalInsertAssignsServerFields(t *testing.T) {
	g := NewTestLocal(t)
	session := SignUpTestUser(t, g, "ann@example.com")
	ctx := context.Background()

	err := g.Insert(ctx, models.TableDeals, models.DealInput{Title: models.Ptr("Big deal")})
	require.NoError(t, err)

	var deals []models.Deal
	require.NoError(t, g.Select(ctx, From(models.TableDeals), &deals))
	require.Len(t, deals, 1)

	d := deals[0]
	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Equal(t, session.User.ID, d.OwnerID)
	assert.Equal(t, models.StageProspecting, d.Stage)
	assert.Equal(t, 10, d.Probability)
	assert.Equal(t, 0.0, d.Value)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)
}

func TestLocalInsertRejectsBadID(t *testing.T) {
	g := NewTestLocal(t)
	SignUpTestUser(t, g, "ann@example.com")

	err := g.Insert(context.Background(), models.TableCompanies, map[string]any{"id": "not-a-uuid", "name": "x"})
	assert.Error(t, err)
}

func TestLocalSelectEmbedsAndOrders(t *testing.T) {
	g := NewTestLocal(t)
	SignUpTestUser(t, g, "ann@example.com")
	ctx := context.Background()

	acme := insertCompany(t, g, "acme")
	insertCompany(t, g, "Beta")

	require.NoError(t, g.Insert(ctx, models.TableContacts, models.ContactInput{
		FirstName:      models.Ptr("Jane"),
		LastName:       models.Ptr("Doe"),
		OrganizationID: &acme.ID,
	}))
	require.NoError(t, g.Insert(ctx, models.TableContacts, models.ContactInput{
		FirstName: models.Ptr("Solo"),
		LastName:  models.Ptr("Person"),
	}))

	var contacts []models.Contact
	q := From(models.TableContacts).
		Embed("company", models.TableCompanies, "organization_id").
		Order("created_at", false)
	require.NoError(t, g.Select(ctx, q, &contacts))
	require.Len(t, contacts, 2)

	assert.Equal(t, "Solo", contacts[0].FirstName)
	assert.Nil(t, contacts[0].Company)
	assert.Equal(t, models.ContactLead, contacts[0].Status)

	require.NotNil(t, contacts[1].Company)
	assert.Equal(t, "acme", contacts[1].Company.Name)

	var companies []models.Company
	require.NoError(t, g.Select(ctx, From(models.TableCompanies).Order("name", true), &companies))
	require.Len(t, companies, 2)
	assert.Equal(t, "acme", companies[0].Name)
	assert.Equal(t, "Beta", companies[1].Name)
}

func TestLocalSelectColumns(t *testing.T) {
	g := NewTestLocal(t)
	SignUpTestUser(t, g, "ann@example.com")
	insertCompany(t, g, "Acme")

	var rows []map[string]any
	require.NoError(t, g.Select(context.Background(), From(models.TableCompanies).Columns("name"), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]any{"name": "Acme"}, rows[0])
}

func TestLocalSelectSingle(t *testing.T) {
	g := NewTestLocal(t)
	session := SignUpTestUser(t, g, "ann@example.com")
	ctx := context.Background()

	var profile models.Profile
	err := g.Select(ctx, From(models.TableProfiles).Eq("id", session.User.ID).Single(), &profile)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, g.Insert(ctx, models.TableProfiles, map[string]any{
		"id":        session.User.ID,
		"email":     session.User.Email,
		"full_name": "Ann",
	}))

	require.NoError(t, g.Select(ctx, From(models.TableProfiles).Eq("id", session.User.ID).Single(), &profile))
	assert.Equal(t, session.User.ID, profile.ID)
	assert.Equal(t, models.RoleMember, profile.Role)
	assert.Equal(t, "Ann", profile.DisplayName())
}

func TestLocalUpdate(t *testing.T) {
	g := NewTestLocal(t)
	SignUpTestUser(t, g, "ann@example.com")
	ctx := context.Background()

	acme := insertCompany(t, g, "Acme")

	err := g.Update(ctx, models.TableCompanies, acme.ID, models.CompanyInput{Industry: models.Ptr("Tech")})
	require.NoError(t, err)

	err = g.Update(ctx, models.TableCompanies, acme.ID, map[string]any{"website": nil, "id": uuid.New().String()})
	require.NoError(t, err)

	var companies []models.Company
	require.NoError(t, g.Select(ctx, From(models.TableCompanies), &companies))
	require.Len(t, companies, 1)
	assert.Equal(t, acme.ID, companies[0].ID)
	assert.Equal(t, "Acme", companies[0].Name)
	assert.Equal(t, "Tech", models.StringValue(companies[0].Industry))
	assert.Equal(t, acme.CreatedAt, companies[0].CreatedAt)

	err = g.Update(ctx, models.TableCompanies, uuid.New(), models.CompanyInput{Name: models.Ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalDeleteCompanyClearsReferences(t *testing.T) {
	g := NewTestLocal(t)
	SignUpTestUser(t, g, "ann@example.com")
	ctx := context.Background()

	acme := insertCompany(t, g, "Acme")
	require.NoError(t, g.Insert(ctx, models.TableContacts, models.ContactInput{
		FirstName: models.Ptr("Jane"), LastName: models.Ptr("Doe"), OrganizationID: &acme.ID,
	}))
	require.NoError(t, g.Insert(ctx, models.TableDeals, models.DealInput{Title: models.Ptr("D"), CompanyID: &acme.ID}))

	require.NoError(t, g.Delete(ctx, models.TableCompanies, acme.ID))

	var contacts []models.Contact
	require.NoError(t, g.Select(ctx, From(models.TableContacts), &contacts))
	require.Len(t, contacts, 1)
	assert.Nil(t, contacts[0].OrganizationID)

	var deals []models.Deal
	require.NoError(t, g.Select(ctx, From(models.TableDeals), &deals))
	require.Len(t, deals, 1)
	assert.Nil(t, deals[0].CompanyID)

	assert.ErrorIs(t, g.Delete(ctx, models.TableCompanies, acme.ID), ErrNotFound)
}

func TestLocalDeleteProjectCascadesTasks(t *testing.T) {
	g := NewTestLocal(t)
	SignUpTestUser(t, g, "ann@example.com")
	ctx := context.Background()

	require.NoError(t, g.Insert(ctx, models.TableProjects, models.ProjectInput{Name: models.Ptr("Site")}))
	var projects []models.Project
	require.NoError(t, g.Select(ctx, From(models.TableProjects), &projects))
	require.Len(t, projects, 1)
	pid := projects[0].ID

	for _, title := range []string{"a", "b"} {
		require.NoError(t, g.Insert(ctx, models.TableProjectTasks, models.ProjectTaskInput{ProjectID: &pid, Title: models.Ptr(title)}))
	}
	require.NoError(t, g.Insert(ctx, models.TableActivities, models.ActivityInput{Subject: models.Ptr("Kickoff"), ProjectID: &pid}))

	require.NoError(t, g.Delete(ctx, models.TableProjects, pid))

	var tasks []models.ProjectTask
	require.NoError(t, g.Select(ctx, From(models.TableProjectTasks), &tasks))
	assert.Empty(t, tasks)

	var activities []models.Activity
	require.NoError(t, g.Select(ctx, From(models.TableActivities), &activities))
	require.Len(t, activities, 1)
	assert.Nil(t, activities[0].ProjectID)
	assert.Equal(t, models.ActivityNote, activities[0].Type)
}

func TestLocalSignInFlows(t *testing.T) {
	g := NewTestLocal(t)
	ctx := context.Background()
	SignUpTestUser(t, g, "ann@example.com")
	require.NoError(t, g.SignOut(ctx))

	_, err := g.SignInWithPassword(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = g.SignInWithPassword(ctx, "nobody@example.com", TestPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := g.SignInWithPassword(ctx, "ANN@example.com", TestPassword)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", session.User.Email)
	assert.Equal(t, "Test User", session.User.UserMetadata["full_name"])

	current, err := g.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, session.AccessToken, current.AccessToken)
}

func TestLocalSignUpErrors(t *testing.T) {
	g := NewTestLocal(t)
	ctx := context.Background()
	SignUpTestUser(t, g, "ann@example.com")

	_, err := g.SignUp(ctx, "ann@example.com", TestPassword, nil)
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = g.SignUp(ctx, "bob@example.com", "123", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)

	_, err = g.SignUp(ctx, "not-an-email", TestPassword, nil)
	assert.True(t, IsAPIStatus(err, http.StatusBadRequest))
}

func TestLocalEmailConfirmation(t *testing.T) {
	g := NewTestLocal(t, WithEmailConfirmation(true))
	ctx := context.Background()

	result, err := g.SignUp(ctx, "ann@example.com", TestPassword, map[string]any{"full_name": "Ann Lee"})
	require.NoError(t, err)
	assert.Nil(t, result.Session)
	assert.Equal(t, "ann@example.com", result.User.Email)

	session, err := g.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = g.SignInWithPassword(ctx, "ann@example.com", TestPassword)
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	assert.ErrorIs(t, g.ConfirmEmail(ctx, "bob@example.com"), ErrNotFound)
	require.NoError(t, g.ConfirmEmail(ctx, "ann@example.com"))

	session, err = g.SignInWithPassword(ctx, "ann@example.com", TestPassword)
	require.NoError(t, err)

	var profile models.Profile
	require.NoError(t, g.Select(ctx, From(models.TableProfiles).Eq("id", session.User.ID).Single(), &profile))
	assert.Equal(t, "ann@example.com", profile.Email)
	assert.Equal(t, "Ann Lee", profile.DisplayName())
	assert.Equal(t, models.RoleMember, profile.Role)

	// Confirming again leaves the one profile in place.
	require.NoError(t, g.ConfirmEmail(ctx, "ann@example.com"))
	var profiles []models.Profile
	require.NoError(t, g.Select(ctx, From(models.TableProfiles), &profiles))
	assert.Len(t, profiles, 1)
}

func TestLocalAuthEvents(t *testing.T) {
	g := NewTestLocal(t)
	ctx := context.Background()

	var events []AuthEvent
	var sessions []*Session
	unsubscribe := g.OnAuthStateChange(func(event AuthEvent, s *Session) {
		events = append(events, event)
		sessions = append(sessions, s)
	})

	SignUpTestUser(t, g, "ann@example.com")
	require.NoError(t, g.SignOut(ctx))

	unsubscribe()
	unsubscribe()
	_, err := g.SignInWithPassword(ctx, "ann@example.com", TestPassword)
	require.NoError(t, err)

	assert.Equal(t, []AuthEvent{EventSignedIn, EventSignedOut}, events)
	assert.NotNil(t, sessions[0])
	assert.Nil(t, sessions[1])
}

func TestLocalSessionRefresh(t *testing.T) {
	now := time.Now()
	g := NewTestLocal(t, WithClock(func() time.Time { return now }), WithSessionTTL(time.Minute))
	ctx := context.Background()

	original := SignUpTestUser(t, g, "ann@example.com")

	var events []AuthEvent
	g.OnAuthStateChange(func(event AuthEvent, _ *Session) { events = append(events, event) })

	now = now.Add(2 * time.Minute)

	refreshed, err := g.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.NotEqual(t, original.AccessToken, refreshed.AccessToken)
	assert.NotEqual(t, original.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, original.User.ID, refreshed.User.ID)
	assert.Equal(t, []AuthEvent{EventTokenRefreshed}, events)

	var rows []models.Company
	assert.NoError(t, g.Select(ctx, From(models.TableCompanies), &rows))
}

func TestLocalSessionCacheRestore(t *testing.T) {
	sqlDB, err := db.OpenDatabase(db.MemoryPath)
	require.NoError(t, err)
	defer sqlDB.Close()

	cache := &MemorySessionCache{}
	ctx := context.Background()

	first := NewLocal(sqlDB, nil, WithBcryptCost(bcrypt.MinCost), WithLocalSessionCache(cache))
	session := SignUpTestUser(t, first, "ann@example.com")

	second := NewLocal(sqlDB, nil, WithLocalSessionCache(cache))
	restored, err := second.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, session.User.ID, restored.User.ID)

	require.NoError(t, second.SignOut(ctx))
	cached, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, cached)

	// A cached session the database no longer knows is dropped.
	require.NoError(t, cache.Save(session))
	third := NewLocal(sqlDB, nil, WithLocalSessionCache(cache))
	current, err := third.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	cached, err = cache.Load()
	require.NoError(t, err)
	assert.Nil(t, cached)
}
