// ABOUTME: Company MCP tool handlers
// ABOUTME: Implements add_company and find_companies tools
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CompanyHandlers struct {
	records *store.Store
}

func NewCompanyHandlers(records *store.Store) *CompanyHandlers {
	return &CompanyHandlers{records: records}
}

type AddCompanyInput struct {
	Name     string `json:"name" jsonschema:"Company name (required)"`
	Industry string `json:"industry,omitempty" jsonschema:"Industry sector"`
	Size     string `json:"size,omitempty" jsonschema:"Company size"`
	Website  string `json:"website,omitempty" jsonschema:"Website URL"`
	Phone    string `json:"phone,omitempty" jsonschema:"Phone number"`
	Address  string `json:"address,omitempty" jsonschema:"Postal address"`
	Notes    string `json:"notes,omitempty" jsonschema:"Additional notes"`
}

type CompanyOutput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Industry     string `json:"industry,omitempty"`
	Size         string `json:"size,omitempty"`
	Website      string `json:"website,omitempty"`
	ContactCount int    `json:"contact_count"`
	CreatedAt    string `json:"created_at"`
}

func (h *CompanyHandlers) AddCompany(ctx context.Context, _ *mcp.CallToolRequest, input AddCompanyInput) (*mcp.CallToolResult, CompanyOutput, error) {
	in := models.CompanyInput{
		Name:     &input.Name,
		Industry: models.OptionalString(input.Industry),
		Size:     models.OptionalString(input.Size),
		Website:  models.OptionalString(input.Website),
		Phone:    models.OptionalString(input.Phone),
		Address:  models.OptionalString(input.Address),
		Notes:    models.OptionalString(input.Notes),
	}
	if err := in.Validate(); err != nil {
		return nil, CompanyOutput{}, err
	}

	if err := h.records.AddCompany(ctx, in); err != nil {
		return nil, CompanyOutput{}, fmt.Errorf("failed to create company: %w", err)
	}

	for _, c := range h.records.Snapshot().Companies {
		if strings.EqualFold(c.Name, input.Name) {
			return nil, companyToOutput(c, 0), nil
		}
	}
	return nil, CompanyOutput{}, fmt.Errorf("company %q not found after creation", input.Name)
}

type FindCompaniesInput struct {
	Query    string `json:"query,omitempty" jsonschema:"Search query (searches company name)"`
	Industry string `json:"industry,omitempty" jsonschema:"Filter by industry"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindCompaniesOutput struct {
	Companies  []CompanyOutput `json:"companies"`
	Industries []string        `json:"industries"`
}

func (h *CompanyHandlers) FindCompanies(ctx context.Context, _ *mcp.CallToolRequest, input FindCompaniesInput) (*mcp.CallToolResult, FindCompaniesOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	h.records.FetchCompanies(ctx)
	h.records.FetchContacts(ctx)
	st := h.records.Snapshot()

	industry := input.Industry
	if industry == "" {
		industry = views.All
	}

	out := FindCompaniesOutput{Companies: []CompanyOutput{}, Industries: views.Industries(st.Companies)}
	for i, c := range views.FilterCompanies(st.Companies, input.Query, industry) {
		if i == limit {
			break
		}
		out.Companies = append(out.Companies, companyToOutput(c, views.CompanyContactCount(st.Contacts, c.ID)))
	}
	return nil, out, nil
}

func companyToOutput(c models.Company, contacts int) CompanyOutput {
	return CompanyOutput{
		ID:           c.ID.String(),
		Name:         c.Name,
		Industry:     models.StringValue(c.Industry),
		Size:         models.StringValue(c.Size),
		Website:      models.StringValue(c.Website),
		ContactCount: contacts,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}
