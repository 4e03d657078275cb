// ABOUTME: Activity MCP tool handlers
// ABOUTME: Implements log_activity and list_activities tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ActivityHandlers struct {
	records *store.Store
}

func NewActivityHandlers(records *store.Store) *ActivityHandlers {
	return &ActivityHandlers{records: records}
}

type LogActivityInput struct {
	Type        string `json:"type,omitempty" jsonschema:"call, email, meeting, task or note (default note)"`
	Subject     string `json:"subject" jsonschema:"Subject (required)"`
	Description string `json:"description,omitempty" jsonschema:"Details"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"Due date (YYYY-MM-DD)"`
	ContactID   string `json:"contact_id,omitempty" jsonschema:"Linked contact ID"`
	CompanyID   string `json:"company_id,omitempty" jsonschema:"Linked company ID"`
	DealID      string `json:"deal_id,omitempty" jsonschema:"Linked deal ID"`
	ProjectID   string `json:"project_id,omitempty" jsonschema:"Linked project ID"`
}

type ActivityOutput struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Subject   string  `json:"subject"`
	DueDate   string  `json:"due_date,omitempty"`
	Completed bool    `json:"completed"`
	ContactID *string `json:"contact_id,omitempty"`
	CompanyID *string `json:"company_id,omitempty"`
	DealID    *string `json:"deal_id,omitempty"`
	ProjectID *string `json:"project_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type ActivitiesOutput struct {
	Activities []ActivityOutput `json:"activities"`
}

func (in LogActivityInput) filter() (store.ActivityFilter, error) {
	var f store.ActivityFilter
	var err error
	if f.ContactID, err = optionalID("contact_id", in.ContactID); err != nil {
		return f, err
	}
	if f.CompanyID, err = optionalID("company_id", in.CompanyID); err != nil {
		return f, err
	}
	if f.DealID, err = optionalID("deal_id", in.DealID); err != nil {
		return f, err
	}
	f.ProjectID, err = optionalID("project_id", in.ProjectID)
	return f, err
}

// LogActivity records an activity and returns the activities sharing its links.
func (h *ActivityHandlers) LogActivity(ctx context.Context, _ *mcp.CallToolRequest, input LogActivityInput) (*mcp.CallToolResult, ActivitiesOutput, error) {
	links, err := input.filter()
	if err != nil {
		return nil, ActivitiesOutput{}, err
	}

	typ := input.Type
	if typ == "" {
		typ = models.ActivityNote
	}
	in := models.ActivityInput{
		Type:        &typ,
		Subject:     &input.Subject,
		Description: models.OptionalString(input.Description),
		DueDate:     models.OptionalString(input.DueDate),
		ContactID:   links.ContactID,
		CompanyID:   links.CompanyID,
		DealID:      links.DealID,
		ProjectID:   links.ProjectID,
	}
	if err := in.Validate(); err != nil {
		return nil, ActivitiesOutput{}, err
	}

	if err := h.records.AddActivity(ctx, in); err != nil {
		return nil, ActivitiesOutput{}, fmt.Errorf("failed to log activity: %w", err)
	}
	return nil, activitiesToOutput(h.records.Snapshot().Activities), nil
}

type ListActivitiesInput struct {
	ContactID string `json:"contact_id,omitempty" jsonschema:"Filter by contact ID"`
	CompanyID string `json:"company_id,omitempty" jsonschema:"Filter by company ID"`
	DealID    string `json:"deal_id,omitempty" jsonschema:"Filter by deal ID"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"Filter by project ID"`
}

func (h *ActivityHandlers) ListActivities(ctx context.Context, _ *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ActivitiesOutput, error) {
	filter, err := LogActivityInput{
		ContactID: input.ContactID,
		CompanyID: input.CompanyID,
		DealID:    input.DealID,
		ProjectID: input.ProjectID,
	}.filter()
	if err != nil {
		return nil, ActivitiesOutput{}, err
	}

	h.records.FetchActivities(ctx, filter)
	return nil, activitiesToOutput(h.records.Snapshot().Activities), nil
}

func activitiesToOutput(activities []models.Activity) ActivitiesOutput {
	out := ActivitiesOutput{Activities: []ActivityOutput{}}
	for _, a := range activities {
		out.Activities = append(out.Activities, ActivityOutput{
			ID:        a.ID.String(),
			Type:      a.Type,
			Subject:   a.Subject,
			DueDate:   models.StringValue(a.DueDate),
			Completed: a.CompletedAt != nil,
			ContactID: idString(a.ContactID),
			CompanyID: idString(a.CompanyID),
			DealID:    idString(a.DealID),
			ProjectID: idString(a.ProjectID),
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
