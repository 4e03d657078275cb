// ABOUTME: Tests for relation lookups, including scenarios through the record cache
// ABOUTME: Loads rows through the local gateway and counts linked rows
package views

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/gateway"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	g := gateway.NewTestLocal(t)
	gateway.SignUpTestUser(t, g, "owner@example.com")
	return store.New(g, nil)
}

func TestCompanyContactCountScenario(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddCompany(ctx, models.CompanyInput{Name: models.Ptr("Acme")}))
	acme := s.Snapshot().Companies[0]
	require.NoError(t, s.AddContact(ctx, models.ContactInput{
		FirstName:      models.Ptr("Jane"),
		LastName:       models.Ptr("Doe"),
		OrganizationID: &acme.ID,
	}))

	contacts := s.Snapshot().Contacts
	assert.Equal(t, 1, CompanyContactCount(contacts, acme.ID))
	assert.Equal(t, 0, CompanyContactCount(contacts, uuid.New()))
}

func TestPipelineScenario(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	inputs := []struct {
		value float64
		stage string
	}{
		{100, models.StageProspecting},
		{200, models.StageProposal},
		{300, models.StageNegotiation},
	}
	for i, in := range inputs {
		require.NoError(t, s.AddDeal(ctx, models.DealInput{
			Title: models.Ptr(string(rune('A' + i))),
			Value: models.Ptr(in.value),
			Stage: models.Ptr(in.stage),
		}))
	}

	deals := s.Snapshot().Deals
	require.Len(t, deals, 3)
	assert.Equal(t, 600.0, TotalValue(deals))
	assert.InDelta(t, 335.0, WeightedPipeline(deals), 1e-9)
}

func TestRelationHelpers(t *testing.T) {
	company, contact := uuid.New(), uuid.New()
	other := uuid.New()

	deals := []models.Deal{
		{Title: "a", CompanyID: &company},
		{Title: "b", ContactID: &contact},
		{Title: "c", CompanyID: &other, ContactID: &contact},
	}
	assert.Len(t, DealsForCompany(deals, company), 1)
	assert.Len(t, DealsForContact(deals, contact), 2)

	projects := []models.Project{
		{Name: "p", CompanyID: &company, ContactID: &contact},
		{Name: "q"},
	}
	assert.Len(t, ProjectsForCompany(projects, company), 1)
	assert.Len(t, ProjectsForContact(projects, contact), 1)

	deal := uuid.New()
	project := uuid.New()
	activities := []models.Activity{
		{Subject: "call", ContactID: &contact, DealID: &deal},
		{Subject: "note", CompanyID: &company},
		{Subject: "kickoff", ProjectID: &project},
	}
	assert.Len(t, ActivitiesForContact(activities, contact), 1)
	assert.Len(t, ActivitiesForCompany(activities, company), 1)
	assert.Len(t, ActivitiesForDeal(activities, deal), 1)
	assert.Len(t, ActivitiesForProject(activities, project), 1)
	assert.Empty(t, ActivitiesForDeal(activities, other))

	contacts := []models.Contact{{FirstName: "a", OrganizationID: &company}, {FirstName: "b"}}
	assert.Len(t, ContactsForCompany(contacts, company), 1)
}
