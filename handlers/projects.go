// ABOUTME: Project MCP tool handlers
// ABOUTME: Implements create_project, project_progress, add_project_task and toggle_project_task tools
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ProjectHandlers struct {
	records *store.Store
}

func NewProjectHandlers(records *store.Store) *ProjectHandlers {
	return &ProjectHandlers{records: records}
}

type CreateProjectInput struct {
	Name        string  `json:"name" jsonschema:"Project name (required)"`
	Description string  `json:"description,omitempty" jsonschema:"Description"`
	Status      string  `json:"status,omitempty" jsonschema:"planning, in_progress, on_hold, completed or cancelled (default planning)"`
	Budget      float64 `json:"budget,omitempty" jsonschema:"Budget"`
	CompanyName string  `json:"company_name,omitempty" jsonschema:"Company name (will be looked up or created)"`
	ContactID   string  `json:"contact_id,omitempty" jsonschema:"Contact ID"`
	StartDate   string  `json:"start_date,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	EndDate     string  `json:"end_date,omitempty" jsonschema:"End date (YYYY-MM-DD)"`
}

type ProjectOutput struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Budget     float64 `json:"budget,omitempty"`
	CompanyID  *string `json:"company_id,omitempty"`
	ContactID  *string `json:"contact_id,omitempty"`
	StartDate  string  `json:"start_date,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
	Tasks      int     `json:"tasks"`
	Completed  int     `json:"completed"`
	Completion int     `json:"completion_percent"`
}

func (h *ProjectHandlers) CreateProject(ctx context.Context, _ *mcp.CallToolRequest, input CreateProjectInput) (*mcp.CallToolResult, ProjectOutput, error) {
	contactID, err := optionalID("contact_id", input.ContactID)
	if err != nil {
		return nil, ProjectOutput{}, err
	}

	in := models.ProjectInput{
		Name:        &input.Name,
		Description: models.OptionalString(input.Description),
		Status:      models.OptionalString(input.Status),
		StartDate:   models.OptionalString(input.StartDate),
		EndDate:     models.OptionalString(input.EndDate),
		ContactID:   contactID,
	}
	if input.Budget != 0 {
		in.Budget = &input.Budget
	}
	if err := in.Validate(); err != nil {
		return nil, ProjectOutput{}, err
	}

	if in.CompanyID, err = h.records.EnsureCompany(ctx, input.CompanyName); err != nil {
		return nil, ProjectOutput{}, err
	}

	if err := h.records.AddProject(ctx, in); err != nil {
		return nil, ProjectOutput{}, fmt.Errorf("failed to create project: %w", err)
	}

	for _, p := range h.records.Snapshot().Projects {
		if p.Name == input.Name {
			return nil, projectToOutput(p, nil), nil
		}
	}
	return nil, ProjectOutput{}, fmt.Errorf("project %q not found after creation", input.Name)
}

type ProjectProgressInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID (required)"`
}

type TaskOutput struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date,omitempty"`
}

type ProjectProgressOutput struct {
	Project ProjectOutput `json:"project"`
	Tasks   []TaskOutput  `json:"tasks"`
}

func (h *ProjectHandlers) ProjectProgress(ctx context.Context, _ *mcp.CallToolRequest, input ProjectProgressInput) (*mcp.CallToolResult, ProjectProgressOutput, error) {
	id, err := parseID("project_id", input.ProjectID)
	if err != nil {
		return nil, ProjectProgressOutput{}, err
	}

	h.records.FetchProjects(ctx)
	h.records.FetchProjectTasks(ctx, id)

	project, ok := h.records.GetProject(id)
	if !ok {
		return nil, ProjectProgressOutput{}, fmt.Errorf("project %s not found", id)
	}

	tasks := h.records.Snapshot().ProjectTasks
	out := ProjectProgressOutput{Project: projectToOutput(project, tasks), Tasks: []TaskOutput{}}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, taskToOutput(t))
	}
	return nil, out, nil
}

type AddProjectTaskInput struct {
	ProjectID      string  `json:"project_id" jsonschema:"Project ID (required)"`
	Title          string  `json:"title" jsonschema:"Task title (required)"`
	Description    string  `json:"description,omitempty" jsonschema:"Description"`
	Priority       string  `json:"priority,omitempty" jsonschema:"low, medium, high or urgent (default medium)"`
	DueDate        string  `json:"due_date,omitempty" jsonschema:"Due date (YYYY-MM-DD)"`
	EstimatedHours float64 `json:"estimated_hours,omitempty" jsonschema:"Estimated hours"`
}

func (h *ProjectHandlers) AddProjectTask(ctx context.Context, _ *mcp.CallToolRequest, input AddProjectTaskInput) (*mcp.CallToolResult, ProjectProgressOutput, error) {
	projectID, err := parseID("project_id", input.ProjectID)
	if err != nil {
		return nil, ProjectProgressOutput{}, err
	}

	in := models.ProjectTaskInput{
		ProjectID:   &projectID,
		Title:       &input.Title,
		Description: models.OptionalString(input.Description),
		Priority:    models.OptionalString(input.Priority),
		DueDate:     models.OptionalString(input.DueDate),
	}
	if input.EstimatedHours != 0 {
		in.EstimatedHours = &input.EstimatedHours
	}
	if err := in.Validate(); err != nil {
		return nil, ProjectProgressOutput{}, err
	}

	if err := h.records.AddProjectTask(ctx, in); err != nil {
		return nil, ProjectProgressOutput{}, fmt.Errorf("failed to create task: %w", err)
	}

	return h.ProjectProgress(ctx, nil, ProjectProgressInput{ProjectID: input.ProjectID})
}

type ToggleProjectTaskInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID (required)"`
	TaskID    string `json:"task_id" jsonschema:"Task ID (required)"`
}

// ToggleProjectTask flips a task between done and todo.
func (h *ProjectHandlers) ToggleProjectTask(ctx context.Context, _ *mcp.CallToolRequest, input ToggleProjectTaskInput) (*mcp.CallToolResult, ProjectProgressOutput, error) {
	projectID, err := parseID("project_id", input.ProjectID)
	if err != nil {
		return nil, ProjectProgressOutput{}, err
	}
	taskID, err := parseID("task_id", input.TaskID)
	if err != nil {
		return nil, ProjectProgressOutput{}, err
	}

	h.records.FetchProjectTasks(ctx, projectID)
	task, ok := h.records.GetProjectTask(taskID)
	if !ok {
		return nil, ProjectProgressOutput{}, fmt.Errorf("task %s not found in project %s", taskID, projectID)
	}

	if err := h.records.SetTaskStatus(ctx, taskID, views.NextTaskStatus(task.Status)); err != nil {
		return nil, ProjectProgressOutput{}, fmt.Errorf("failed to update task: %w", err)
	}

	return h.ProjectProgress(ctx, nil, ProjectProgressInput{ProjectID: input.ProjectID})
}

func projectToOutput(p models.Project, tasks []models.ProjectTask) ProjectOutput {
	out := ProjectOutput{
		ID:         p.ID.String(),
		Name:       p.Name,
		Status:     p.Status,
		CompanyID:  idString(p.CompanyID),
		ContactID:  idString(p.ContactID),
		StartDate:  models.StringValue(p.StartDate),
		EndDate:    models.StringValue(p.EndDate),
		Tasks:      len(tasks),
		Completed:  views.CompletedTaskCount(tasks),
		Completion: views.ProjectCompletion(tasks),
	}
	if p.Budget != nil {
		out.Budget = *p.Budget
	}
	return out
}

func taskToOutput(t models.ProjectTask) TaskOutput {
	return TaskOutput{
		ID:       t.ID.String(),
		Title:    t.Title,
		Status:   t.Status,
		Priority: t.Priority,
		DueDate:  models.StringValue(t.DueDate),
	}
}
