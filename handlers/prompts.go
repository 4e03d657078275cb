// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Provides contact summary, pipeline review, company overview and project status prompts
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/harperreed/ancora/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	records *store.Store
}

func NewPromptHandlers(records *store.Store) *PromptHandlers {
	return &PromptHandlers{records: records}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "contact-summary":
		return h.contactSummary(ctx, args)
	case "pipeline-review":
		return h.pipelineReview(ctx)
	case "company-overview":
		return h.companyOverview(ctx, args)
	case "project-status":
		return h.projectStatus(ctx, args)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func promptID(args map[string]string, key string) (uuid.UUID, error) {
	s, ok := args[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func (h *PromptHandlers) contactSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, err := promptID(args, "contact_id")
	if err != nil {
		return nil, err
	}

	h.records.FetchAll(ctx)
	contact, ok := h.records.GetContact(id)
	if !ok {
		return nil, fmt.Errorf("contact %s not found", id)
	}
	st := h.records.Snapshot()

	var b strings.Builder
	b.WriteString("Please provide a comprehensive summary of this contact:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", contact.FullName())
	fmt.Fprintf(&b, "Status: %s\n", models.OptionLabel(models.ContactStatuses, contact.Status))
	if contact.Email != nil {
		fmt.Fprintf(&b, "Email: %s\n", *contact.Email)
	}
	if contact.JobTitle != nil {
		fmt.Fprintf(&b, "Title: %s\n", *contact.JobTitle)
	}
	if contact.Company != nil {
		fmt.Fprintf(&b, "Company: %s\n", contact.Company.Name)
	}

	deals := views.DealsForContact(st.Deals, id)
	if len(deals) > 0 {
		fmt.Fprintf(&b, "\nDeals (%d):\n", len(deals))
		for _, d := range deals {
			fmt.Fprintf(&b, "- %s: %s, %s\n", d.Title, viz.FormatMoney(d.Value), models.StageLabel(d.Stage))
		}
	}
	activities := views.ActivitiesForContact(st.Activities, id)
	if len(activities) > 0 {
		fmt.Fprintf(&b, "\nRecent activities (%d):\n", len(activities))
		for _, a := range activities {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", a.Type, a.Subject, a.CreatedAt.Format("2006-01-02"))
		}
	}
	if contact.Notes != nil {
		fmt.Fprintf(&b, "\nNotes: %s\n", *contact.Notes)
	}

	b.WriteString("\nPlease analyze this contact and provide:")
	b.WriteString("\n1. A brief summary of their role and relationship with us")
	b.WriteString("\n2. Recommendations for next steps or follow-up actions")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", contact.FullName()), b.String()), nil
}

func (h *PromptHandlers) pipelineReview(ctx context.Context) (*mcp.GetPromptResult, error) {
	h.records.FetchDeals(ctx)
	deals := h.records.Snapshot().Deals

	var b strings.Builder
	b.WriteString("Please review this sales pipeline:\n\n")
	for _, col := range views.PipelineBoard(deals) {
		fmt.Fprintf(&b, "%s (%d%%): %d deals, %s\n", col.Stage.Label, col.Stage.Probability, col.Count, viz.FormatMoney(col.Value))
	}
	fmt.Fprintf(&b, "\nTotal value: %s\n", viz.FormatMoney(views.TotalValue(deals)))
	fmt.Fprintf(&b, "Weighted pipeline: %s\n", viz.FormatMoney(views.WeightedPipeline(deals)))
	if avg, ok := views.AverageDealValue(deals); ok {
		fmt.Fprintf(&b, "Average deal: %s\n", viz.FormatMoney(avg))
	}

	b.WriteString("\nPlease identify stalled stages, the deals most worth attention, and a forecast for the quarter.")
	return userPrompt("Sales pipeline review", b.String()), nil
}

func (h *PromptHandlers) companyOverview(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, err := promptID(args, "company_id")
	if err != nil {
		return nil, err
	}

	h.records.FetchAll(ctx)
	company, ok := h.records.GetCompany(id)
	if !ok {
		return nil, fmt.Errorf("company %s not found", id)
	}
	st := h.records.Snapshot()

	var b strings.Builder
	b.WriteString("Please provide an overview of this company:\n\n")
	fmt.Fprintf(&b, "Company: %s\n", company.Name)
	if company.Industry != nil {
		fmt.Fprintf(&b, "Industry: %s\n", *company.Industry)
	}
	if company.Website != nil {
		fmt.Fprintf(&b, "Website: %s\n", *company.Website)
	}

	contacts := views.ContactsForCompany(st.Contacts, id)
	fmt.Fprintf(&b, "\nContacts (%d):\n", len(contacts))
	for _, c := range contacts {
		fmt.Fprintf(&b, "- %s (%s)\n", c.FullName(), models.StringValue(c.JobTitle))
	}

	deals := views.DealsForCompany(st.Deals, id)
	fmt.Fprintf(&b, "\nDeals (%d), %s total:\n", len(deals), viz.FormatMoney(views.TotalValue(deals)))
	for _, d := range deals {
		fmt.Fprintf(&b, "- %s: %s, %s\n", d.Title, viz.FormatMoney(d.Value), models.StageLabel(d.Stage))
	}

	projects := views.ProjectsForCompany(st.Projects, id)
	fmt.Fprintf(&b, "\nProjects (%d):\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, models.OptionLabel(models.ProjectStatuses, p.Status))
	}

	b.WriteString("\nPlease summarise the account health and suggest how to grow it.")
	return userPrompt(fmt.Sprintf("Overview for company: %s", company.Name), b.String()), nil
}

func (h *PromptHandlers) projectStatus(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, err := promptID(args, "project_id")
	if err != nil {
		return nil, err
	}

	h.records.FetchProjects(ctx)
	h.records.FetchProjectTasks(ctx, id)
	project, ok := h.records.GetProject(id)
	if !ok {
		return nil, fmt.Errorf("project %s not found", id)
	}
	tasks := h.records.Snapshot().ProjectTasks

	var b strings.Builder
	b.WriteString("Please write a status update for this project:\n\n")
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Status: %s\n", models.OptionLabel(models.ProjectStatuses, project.Status))
	fmt.Fprintf(&b, "Completion: %d%% (%d of %d tasks)\n", views.ProjectCompletion(tasks), views.CompletedTaskCount(tasks), len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", models.OptionLabel(models.TaskStatuses, t.Status), t.Title, t.Priority)
	}

	b.WriteString("\nPlease highlight risks, blocked work and what should happen next.")
	return userPrompt(fmt.Sprintf("Status for project: %s", project.Name), b.String()), nil
}
