// ABOUTME: Related-record MCP tool handler
// ABOUTME: Implements find_related, listing what hangs off a contact or company
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type RelatedHandlers struct {
	records *store.Store
}

func NewRelatedHandlers(records *store.Store) *RelatedHandlers {
	return &RelatedHandlers{records: records}
}

type FindRelatedInput struct {
	EntityType string `json:"entity_type" jsonschema:"contact or company"`
	ID         string `json:"id" jsonschema:"Entity ID (required)"`
}

type FindRelatedOutput struct {
	Contacts   []ContactOutput  `json:"contacts,omitempty"`
	Deals      []DealOutput     `json:"deals"`
	Projects   []ProjectOutput  `json:"projects"`
	Activities []ActivityOutput `json:"activities"`
}

func (h *RelatedHandlers) FindRelated(ctx context.Context, _ *mcp.CallToolRequest, input FindRelatedInput) (*mcp.CallToolResult, FindRelatedOutput, error) {
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, FindRelatedOutput{}, err
	}

	h.records.FetchAll(ctx)
	st := h.records.Snapshot()

	var (
		deals      []models.Deal
		projects   []models.Project
		activities []models.Activity
		out        FindRelatedOutput
	)
	switch input.EntityType {
	case "contact":
		deals = views.DealsForContact(st.Deals, id)
		projects = views.ProjectsForContact(st.Projects, id)
		activities = views.ActivitiesForContact(st.Activities, id)
	case "company":
		for _, c := range views.ContactsForCompany(st.Contacts, id) {
			out.Contacts = append(out.Contacts, contactToOutput(c))
		}
		deals = views.DealsForCompany(st.Deals, id)
		projects = views.ProjectsForCompany(st.Projects, id)
		activities = views.ActivitiesForCompany(st.Activities, id)
	default:
		return nil, FindRelatedOutput{}, fmt.Errorf("invalid entity_type: %s (valid: contact, company)", input.EntityType)
	}

	out.Deals = []DealOutput{}
	for _, d := range deals {
		out.Deals = append(out.Deals, dealToOutput(d))
	}
	out.Projects = []ProjectOutput{}
	for _, p := range projects {
		out.Projects = append(out.Projects, projectToOutput(p, nil))
	}
	out.Activities = activitiesToOutput(activities).Activities
	return nil, out, nil
}
