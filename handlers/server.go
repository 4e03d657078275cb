// ABOUTME: MCP server assembly
// ABOUTME: Registers every CRM tool, resource and prompt against the record cache
package handlers

import (
	"github.com/harperreed/ancora/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server whose tools read and write through records.
func NewServer(records *store.Store, version string) *mcp.Server {
	contacts := NewContactHandlers(records)
	companies := NewCompanyHandlers(records)
	deals := NewDealHandlers(records)
	projects := NewProjectHandlers(records)
	activities := NewActivityHandlers(records)
	related := NewRelatedHandlers(records)
	query := NewQueryHandlers(records)
	graphs := NewVizHandlers(records)
	resources := NewResourceHandlers(records)
	prompts := NewPromptHandlers(records)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ancora",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact to the CRM",
	}, contacts.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search for contacts by name or email, optionally by status or company",
	}, contacts.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update an existing contact's information",
	}, contacts.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_company",
		Description: "Add a new company to the CRM",
	}, companies.AddCompany)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_companies",
		Description: "Search for companies by name, optionally by industry",
	}, companies.FindCompanies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a new deal; the win probability follows the stage",
	}, deals.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal_stage",
		Description: "Move a deal to another pipeline stage",
	}, deals.UpdateDealStage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_summary",
		Description: "Summarise open deals per stage with total and weighted value",
	}, deals.PipelineSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_project",
		Description: "Create a new project",
	}, projects.CreateProject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "project_progress",
		Description: "Show a project's tasks and completion percentage",
	}, projects.ProjectProgress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_project_task",
		Description: "Add a task to a project",
	}, projects.AddProjectTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_project_task",
		Description: "Mark a project task done, or reopen a done task",
	}, projects.ToggleProjectTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_activity",
		Description: "Log a call, email, meeting, task or note against CRM records",
	}, activities.LogActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_activities",
		Description: "List activities, optionally for one contact, company, deal or project",
	}, activities.ListActivities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_related",
		Description: "List the deals, projects and activities linked to a contact or company",
	}, related.FindRelated)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_crm",
		Description: "Universal query tool for filtering contacts, companies, deals and projects",
	}, query.QueryCRM)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the pipeline, all records, a contact or a company",
	}, graphs.GenerateGraph)

	for _, name := range []string{"contacts", "companies", "deals", "projects"} {
		server.AddResource(&mcp.Resource{
			URI:      resourceScheme + name,
			Name:     name,
			MIMEType: "application/json",
		}, resources.ReadResource)
		server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: resourceScheme + name + "/{id}",
			Name:        name + "-by-id",
			MIMEType:    "application/json",
		}, resources.ReadResource)
	}
	server.AddResource(&mcp.Resource{
		URI:         resourceScheme + "pipeline",
		Name:        "pipeline",
		Description: "Open deals grouped by stage",
		MIMEType:    "application/json",
	}, resources.ReadResource)
	server.AddResource(&mcp.Resource{
		URI:         resourceScheme + "dashboard",
		Name:        "dashboard",
		Description: "Text dashboard of the CRM",
		MIMEType:    "text/plain",
	}, resources.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-summary",
		Description: "Summarise a contact with their deals and activities",
		Arguments:   []*mcp.PromptArgument{{Name: "contact_id", Required: true}},
	}, prompts.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review the open sales pipeline",
	}, prompts.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "company-overview",
		Description: "Summarise an account with its contacts, deals and projects",
		Arguments:   []*mcp.PromptArgument{{Name: "company_id", Required: true}},
	}, prompts.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "project-status",
		Description: "Draft a status update for a project",
		Arguments:   []*mcp.PromptArgument{{Name: "project_id", Required: true}},
	}, prompts.GetPrompt)

	return server
}
