// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add_contact, find_contacts and update_contact tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	records *store.Store
}

func NewContactHandlers(records *store.Store) *ContactHandlers {
	return &ContactHandlers{records: records}
}

type AddContactInput struct {
	FirstName   string `json:"first_name" jsonschema:"First name (required)"`
	LastName    string `json:"last_name" jsonschema:"Last name (required)"`
	Email       string `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone       string `json:"phone,omitempty" jsonschema:"Contact phone number"`
	JobTitle    string `json:"job_title,omitempty" jsonschema:"Job title"`
	CompanyName string `json:"company_name,omitempty" jsonschema:"Company name (will be looked up or created)"`
	Status      string `json:"status,omitempty" jsonschema:"lead, prospect, customer or inactive (default lead)"`
	LeadSource  string `json:"lead_source,omitempty" jsonschema:"Where the lead came from"`
	Notes       string `json:"notes,omitempty" jsonschema:"Additional notes about the contact"`
}

type ContactOutput struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	JobTitle    string  `json:"job_title,omitempty"`
	Status      string  `json:"status"`
	CompanyID   *string `json:"company_id,omitempty"`
	CompanyName string  `json:"company_name,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, _ *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	in := models.ContactInput{
		FirstName:  &input.FirstName,
		LastName:   &input.LastName,
		Email:      models.OptionalString(input.Email),
		Phone:      models.OptionalString(input.Phone),
		JobTitle:   models.OptionalString(input.JobTitle),
		Status:     models.OptionalString(input.Status),
		LeadSource: models.OptionalString(input.LeadSource),
		Notes:      models.OptionalString(input.Notes),
	}
	if err := in.Validate(); err != nil {
		return nil, ContactOutput{}, err
	}

	companyID, err := h.records.EnsureCompany(ctx, input.CompanyName)
	if err != nil {
		return nil, ContactOutput{}, err
	}
	in.OrganizationID = companyID

	if err := h.records.AddContact(ctx, in); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}

	// Contacts are cached newest first.
	for _, c := range h.records.Snapshot().Contacts {
		if c.FirstName == input.FirstName && c.LastName == input.LastName {
			return nil, contactToOutput(c), nil
		}
	}
	return nil, ContactOutput{}, fmt.Errorf("contact %s %s not found after creation", input.FirstName, input.LastName)
}

type FindContactsInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Search query (searches name and email)"`
	Status    string `json:"status,omitempty" jsonschema:"Filter by status"`
	CompanyID string `json:"company_id,omitempty" jsonschema:"Filter by company ID"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
	Total    int             `json:"total"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	h.records.FetchContacts(ctx)
	contacts := h.records.Snapshot().Contacts

	if input.CompanyID != "" {
		companyID, err := uuid.Parse(input.CompanyID)
		if err != nil {
			return nil, FindContactsOutput{}, fmt.Errorf("invalid company_id: %w", err)
		}
		contacts = views.ContactsForCompany(contacts, companyID)
	}

	status := input.Status
	if status == "" {
		status = views.All
	}
	contacts = views.FilterContacts(contacts, input.Query, status)

	out := FindContactsOutput{Contacts: []ContactOutput{}, Total: len(contacts)}
	for i, c := range contacts {
		if i == limit {
			break
		}
		out.Contacts = append(out.Contacts, contactToOutput(c))
	}
	return nil, out, nil
}

type UpdateContactInput struct {
	ID       string `json:"id" jsonschema:"Contact ID (required)"`
	Email    string `json:"email,omitempty" jsonschema:"Updated email address"`
	Phone    string `json:"phone,omitempty" jsonschema:"Updated phone number"`
	JobTitle string `json:"job_title,omitempty" jsonschema:"Updated job title"`
	Status   string `json:"status,omitempty" jsonschema:"Updated status"`
	Notes    string `json:"notes,omitempty" jsonschema:"Updated notes"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, ContactOutput{}, err
	}

	in := models.ContactInput{
		Email:    models.OptionalString(input.Email),
		Phone:    models.OptionalString(input.Phone),
		JobTitle: models.OptionalString(input.JobTitle),
		Status:   models.OptionalString(input.Status),
		Notes:    models.OptionalString(input.Notes),
	}
	if in.Status != nil && !models.HasOption(models.ContactStatuses, *in.Status) {
		return nil, ContactOutput{}, fmt.Errorf("invalid status %q", *in.Status)
	}

	if err := h.records.UpdateContact(ctx, id, in); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}

	contact, ok := h.records.GetContact(id)
	if !ok {
		return nil, ContactOutput{}, fmt.Errorf("contact %s not found", id)
	}
	return nil, contactToOutput(contact), nil
}

func parseID(field, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("%s is required", field)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return id, nil
}

func optionalID(field, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := parseID(field, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func contactToOutput(c models.Contact) ContactOutput {
	out := ContactOutput{
		ID:        c.ID.String(),
		Name:      c.FullName(),
		Email:     models.StringValue(c.Email),
		Phone:     models.StringValue(c.Phone),
		JobTitle:  models.StringValue(c.JobTitle),
		Status:    c.Status,
		CompanyID: idString(c.OrganizationID),
		Notes:     models.StringValue(c.Notes),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if c.Company != nil {
		out.CompanyName = c.Company.Name
	}
	return out
}
