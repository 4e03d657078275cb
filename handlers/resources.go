// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to contacts, companies, deals, projects and the pipeline via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/harperreed/ancora/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "crm://"

type ResourceHandlers struct {
	records *store.Store
}

func NewResourceHandlers(records *store.Store) *ResourceHandlers {
	return &ResourceHandlers{records: records}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	var id *uuid.UUID
	if len(parts) > 1 && parts[1] != "" {
		parsed, err := uuid.Parse(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid %s ID: %w", parts[0], err)
		}
		id = &parsed
	}

	switch parts[0] {
	case "contacts":
		h.records.FetchContacts(ctx)
		if id == nil {
			return jsonResource(uri, h.records.Snapshot().Contacts)
		}
		return h.readOne(ctx, uri, "contact", func() (any, bool) { return h.records.GetContact(*id) })

	case "companies":
		h.records.FetchCompanies(ctx)
		if id == nil {
			return jsonResource(uri, h.records.Snapshot().Companies)
		}
		h.records.FetchContacts(ctx)
		company, ok := h.records.GetCompany(*id)
		if !ok {
			return nil, fmt.Errorf("company %s not found", *id)
		}
		return jsonResource(uri, struct {
			models.Company
			Contacts []models.Contact `json:"contacts"`
		}{
			Company:  company,
			Contacts: views.ContactsForCompany(h.records.Snapshot().Contacts, *id),
		})

	case "deals":
		h.records.FetchDeals(ctx)
		if id == nil {
			return jsonResource(uri, h.records.Snapshot().Deals)
		}
		return h.readOne(ctx, uri, "deal", func() (any, bool) { return h.records.GetDeal(*id) })

	case "projects":
		h.records.FetchProjects(ctx)
		if id == nil {
			return jsonResource(uri, h.records.Snapshot().Projects)
		}
		h.records.FetchProjectTasks(ctx, *id)
		project, ok := h.records.GetProject(*id)
		if !ok {
			return nil, fmt.Errorf("project %s not found", *id)
		}
		tasks := h.records.Snapshot().ProjectTasks
		return jsonResource(uri, struct {
			models.Project
			Tasks      []models.ProjectTask `json:"tasks"`
			Completion int                  `json:"completion_percent"`
		}{
			Project:    project,
			Tasks:      tasks,
			Completion: views.ProjectCompletion(tasks),
		})

	case "pipeline":
		h.records.FetchDeals(ctx)
		return jsonResource(uri, views.PipelineBoard(h.records.Snapshot().Deals))

	case "dashboard":
		h.records.FetchAll(ctx)
		text := viz.RenderDashboard(viz.GenerateDashboardStats(h.records.Snapshot()))
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "text/plain", Text: text},
		}}, nil

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readOne(_ context.Context, uri, what string, get func() (any, bool)) (*mcp.ReadResourceResult, error) {
	row, ok := get()
	if !ok {
		return nil, fmt.Errorf("%s not found: %s", what, uri)
	}
	return jsonResource(uri, row)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{URI: uri, MIMEType: "application/json", Text: string(data)},
	}}, nil
}
