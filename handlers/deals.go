// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements create_deal, update_deal_stage and pipeline_summary tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DealHandlers struct {
	records *store.Store
}

func NewDealHandlers(records *store.Store) *DealHandlers {
	return &DealHandlers{records: records}
}

type CreateDealInput struct {
	Title             string  `json:"title" jsonschema:"Deal title (required)"`
	Value             float64 `json:"value,omitempty" jsonschema:"Deal value"`
	Stage             string  `json:"stage,omitempty" jsonschema:"Pipeline stage (default prospecting)"`
	CompanyName       string  `json:"company_name,omitempty" jsonschema:"Company name (will be looked up or created)"`
	ContactID         string  `json:"contact_id,omitempty" jsonschema:"Primary contact ID"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty" jsonschema:"Expected close date (YYYY-MM-DD)"`
	Notes             string  `json:"notes,omitempty" jsonschema:"Notes"`
}

type DealOutput struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Value             float64 `json:"value"`
	Stage             string  `json:"stage"`
	Probability       int     `json:"probability"`
	WeightedValue     float64 `json:"weighted_value"`
	CompanyID         *string `json:"company_id,omitempty"`
	ContactID         *string `json:"contact_id,omitempty"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	stage := input.Stage
	if stage == "" {
		stage = models.StageProspecting
	}

	contactID, err := optionalID("contact_id", input.ContactID)
	if err != nil {
		return nil, DealOutput{}, err
	}

	in := models.DealInput{
		Title:             &input.Title,
		Value:             &input.Value,
		ContactID:         contactID,
		ExpectedCloseDate: models.OptionalString(input.ExpectedCloseDate),
		Notes:             models.OptionalString(input.Notes),
	}.WithStage(stage)
	if err := in.Validate(); err != nil {
		return nil, DealOutput{}, err
	}

	if in.CompanyID, err = h.records.EnsureCompany(ctx, input.CompanyName); err != nil {
		return nil, DealOutput{}, err
	}

	if err := h.records.AddDeal(ctx, in); err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}

	// Deals are cached newest first.
	for _, d := range h.records.Snapshot().Deals {
		if d.Title == input.Title {
			return nil, dealToOutput(d), nil
		}
	}
	return nil, DealOutput{}, fmt.Errorf("deal %q not found after creation", input.Title)
}

type UpdateDealStageInput struct {
	ID    string `json:"id" jsonschema:"Deal ID (required)"`
	Stage string `json:"stage" jsonschema:"New stage: prospecting, qualification, proposal, negotiation, closed_won or closed_lost"`
}

func (h *DealHandlers) UpdateDealStage(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDealStageInput) (*mcp.CallToolResult, DealOutput, error) {
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, DealOutput{}, err
	}
	if !models.IsValidStage(input.Stage) {
		return nil, DealOutput{}, fmt.Errorf("invalid stage %q", input.Stage)
	}

	if err := h.records.MoveDeal(ctx, id, input.Stage); err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to move deal: %w", err)
	}

	deal, ok := h.records.GetDeal(id)
	if !ok {
		return nil, DealOutput{}, fmt.Errorf("deal %s not found", id)
	}
	return nil, dealToOutput(deal), nil
}

type PipelineSummaryInput struct{}

type StageSummary struct {
	Stage       string  `json:"stage"`
	Label       string  `json:"label"`
	Probability int     `json:"probability"`
	Count       int     `json:"count"`
	Value       float64 `json:"value"`
}

type PipelineSummaryOutput struct {
	Stages           []StageSummary `json:"stages"`
	TotalValue       float64        `json:"total_value"`
	WeightedPipeline float64        `json:"weighted_pipeline"`
	ActiveDeals      int            `json:"active_deals"`
	AverageDealValue float64        `json:"average_deal_value"`
}

func (h *DealHandlers) PipelineSummary(ctx context.Context, _ *mcp.CallToolRequest, _ PipelineSummaryInput) (*mcp.CallToolResult, PipelineSummaryOutput, error) {
	h.records.FetchDeals(ctx)
	deals := h.records.Snapshot().Deals

	out := PipelineSummaryOutput{
		Stages:           []StageSummary{},
		TotalValue:       views.TotalValue(deals),
		WeightedPipeline: views.WeightedPipeline(deals),
		ActiveDeals:      len(views.ActiveDeals(deals)),
	}
	out.AverageDealValue, _ = views.AverageDealValue(deals)

	for _, col := range views.PipelineBoard(deals) {
		out.Stages = append(out.Stages, StageSummary{
			Stage:       col.Stage.ID,
			Label:       col.Stage.Label,
			Probability: col.Stage.Probability,
			Count:       col.Count,
			Value:       col.Value,
		})
	}
	return nil, out, nil
}

func dealToOutput(d models.Deal) DealOutput {
	return DealOutput{
		ID:                d.ID.String(),
		Title:             d.Title,
		Value:             d.Value,
		Stage:             d.Stage,
		Probability:       d.Probability,
		WeightedValue:     views.WeightedValue(d),
		CompanyID:         idString(d.CompanyID),
		ContactID:         idString(d.ContactID),
		ExpectedCloseDate: models.StringValue(d.ExpectedCloseDate),
		CreatedAt:         d.CreatedAt.Format(time.RFC3339),
	}
}
