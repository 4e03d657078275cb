// ABOUTME: Universal query tool handler
// ABOUTME: Implements filtering across contacts, companies, deals and projects
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueryHandlers struct {
	records *store.Store
}

func NewQueryHandlers(records *store.Store) *QueryHandlers {
	return &QueryHandlers{records: records}
}

type QueryCRMInput struct {
	EntityType string            `json:"entity_type" jsonschema:"Type of entity to query (contact, company, deal, project)"`
	Query      string            `json:"query,omitempty" jsonschema:"Search text (name, email or title)"`
	Filters    map[string]string `json:"filters,omitempty" jsonschema:"Filters: status, industry, stage, company_id"`
	Limit      int               `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryCRMOutput struct {
	EntityType string `json:"entity_type"`
	Results    []any  `json:"results"`
	Count      int    `json:"count"`
}

func (h *QueryHandlers) QueryCRM(ctx context.Context, _ *mcp.CallToolRequest, input QueryCRMInput) (*mcp.CallToolResult, QueryCRMOutput, error) {
	if input.Limit == 0 {
		input.Limit = 10
	}

	var companyID *uuid.UUID
	if cid := input.Filters["company_id"]; cid != "" {
		id, err := uuid.Parse(cid)
		if err != nil {
			return nil, QueryCRMOutput{}, fmt.Errorf("invalid company_id: %w", err)
		}
		companyID = &id
	}

	var results []any
	switch input.EntityType {
	case "contact":
		h.records.FetchContacts(ctx)
		contacts := h.records.Snapshot().Contacts
		if companyID != nil {
			contacts = views.ContactsForCompany(contacts, *companyID)
		}
		for _, c := range views.FilterContacts(contacts, input.Query, filterValue(input.Filters, "status")) {
			results = append(results, contactToOutput(c))
		}
	case "company":
		h.records.FetchCompanies(ctx)
		for _, c := range views.FilterCompanies(h.records.Snapshot().Companies, input.Query, filterValue(input.Filters, "industry")) {
			results = append(results, companyToOutput(c, 0))
		}
	case "deal":
		h.records.FetchDeals(ctx)
		deals := h.records.Snapshot().Deals
		if companyID != nil {
			deals = views.DealsForCompany(deals, *companyID)
		}
		for _, d := range views.FilterDeals(deals, input.Query, filterValue(input.Filters, "stage")) {
			results = append(results, dealToOutput(d))
		}
	case "project":
		h.records.FetchProjects(ctx)
		projects := h.records.Snapshot().Projects
		if companyID != nil {
			projects = views.ProjectsForCompany(projects, *companyID)
		}
		for _, p := range views.FilterProjects(projects, input.Query, filterValue(input.Filters, "status")) {
			results = append(results, projectToOutput(p, nil))
		}
	default:
		return nil, QueryCRMOutput{}, fmt.Errorf("invalid entity_type: %s (valid: contact, company, deal, project)", input.EntityType)
	}

	if len(results) > input.Limit {
		results = results[:input.Limit]
	}
	if results == nil {
		results = []any{}
	}
	return nil, QueryCRMOutput{EntityType: input.EntityType, Results: results, Count: len(results)}, nil
}

func filterValue(filters map[string]string, key string) string {
	if v := filters[key]; v != "" {
		return v
	}
	return views.All
}
