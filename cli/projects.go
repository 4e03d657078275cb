// ABOUTME: Project and task CLI commands
// ABOUTME: Projects with status summaries, task lists and completion tracking
package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/views"
)

// AddProjectCommand adds a new project.
func AddProjectCommand(a *app.App, args []string) error {
	fs := newFlagSet("add-project")
	name := fs.String("name", "", "Project name (required)")
	description := fs.String("description", "", "Description")
	status := fs.String("status", models.ProjectPlanning, "Status")
	start := fs.String("start", "", "Start date (YYYY-MM-DD)")
	end := fs.String("end", "", "End date (YYYY-MM-DD)")
	budget := fs.Float64("budget", 0, "Budget")
	company := fs.String("company", "", "Company name")
	contact := fs.String("contact", "", "Contact ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	contactID, err := optionalID(*contact, "contact")
	if err != nil {
		return err
	}

	in := models.ProjectInput{
		Name:        name,
		Description: models.OptionalString(*description),
		Status:      status,
		StartDate:   models.OptionalString(*start),
		EndDate:     models.OptionalString(*end),
		ContactID:   contactID,
	}
	if setFlags(fs)["budget"] {
		in.Budget = budget
	}
	if err := in.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	if in.CompanyID, err = resolveCompany(ctx, a, *company); err != nil {
		return err
	}

	if err := a.Records.AddProject(ctx, in); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	printf("✓ Project created: %s\n", *name)
	return nil
}

// ListProjectsCommand lists projects with the status summary.
func ListProjectsCommand(a *app.App, args []string) error {
	fs := newFlagSet("list-projects")
	query := fs.String("query", "", "Search by name")
	status := fs.String("status", views.All, "Filter by status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	a.Records.FetchProjects(context.Background())
	all := a.Records.Snapshot().Projects
	stats := views.ProjectStats(all)
	printf("%d projects · %d in progress · %d planning · %s budget\n\n",
		stats.Total, stats.InProgress, stats.Planning, formatMoney(stats.TotalBudget))

	projects := views.FilterProjects(all, *query, *status)
	if len(projects) == 0 {
		printf("No projects found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tBUDGET\tCOMPANY\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t------\t-------\t--")
	for _, p := range projects {
		budget := "-"
		if p.Budget != nil {
			budget = formatMoney(*p.Budget)
		}
		companyName := "-"
		if p.Company != nil {
			companyName = p.Company.Name
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.Name, models.OptionLabel(models.ProjectStatuses, p.Status), budget, companyName, p.ID)
	}
	_ = w.Flush()
	return nil
}

// ShowProjectCommand prints a project, its completion and its tasks.
func ShowProjectCommand(a *app.App, args []string) error {
	fs := newFlagSet("show-project")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "project")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	ctx := context.Background()
	a.Records.FetchProjects(ctx)
	a.Records.FetchProjectTasks(ctx, id)
	a.Records.FetchActivities(ctx, storeFilter(nil, nil, nil, &id))

	project, ok := a.Records.GetProject(id)
	if !ok {
		printf("Project not found\n")
		return nil
	}

	st := a.Records.Snapshot()
	printf("%s\n", project.Name)
	printf("  Status:   %s\n", models.OptionLabel(models.ProjectStatuses, project.Status))
	printf("  Progress: %d%% (%d/%d tasks completed)\n",
		views.ProjectCompletion(st.ProjectTasks), views.CompletedTaskCount(st.ProjectTasks), len(st.ProjectTasks))
	if project.Company != nil {
		printf("  Company:  %s\n", project.Company.Name)
	}
	if project.Contact != nil {
		printf("  Contact:  %s\n", project.Contact.FullName())
	}

	printf("\nTasks\n")
	if len(st.ProjectTasks) == 0 {
		printf("  No tasks yet\n")
	}
	for _, t := range st.ProjectTasks {
		box := "[ ]"
		if t.Status == models.TaskDone {
			box = "[x]"
		}
		printf("  %s %s  %s · %s  %s\n", box, t.Title,
			models.OptionLabel(models.TaskStatuses, t.Status),
			models.OptionLabel(models.TaskPriorities, t.Priority), short(t.ID))
	}

	printActivities(views.ActivitiesForProject(st.Activities, id))
	return nil
}

// UpdateProjectCommand updates the fields given as flags.
func UpdateProjectCommand(a *app.App, args []string) error {
	fs := newFlagSet("update-project")
	name := fs.String("name", "", "Project name")
	description := fs.String("description", "", "Description")
	status := fs.String("status", "", "Status")
	budget := fs.Float64("budget", 0, "Budget")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "project")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	set := setFlags(fs)
	in := models.ProjectInput{
		Name:        stringIfSet(set, "name", name),
		Description: stringIfSet(set, "description", description),
		Status:      stringIfSet(set, "status", status),
	}
	if set["budget"] {
		in.Budget = budget
	}
	if in.Status != nil && !models.HasOption(models.ProjectStatuses, *in.Status) {
		return fmt.Errorf("invalid status %q", *in.Status)
	}

	if err := a.Records.UpdateProject(context.Background(), id, in); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	printf("✓ Project updated: %s\n", id)
	return nil
}

// DeleteProjectCommand deletes a project and its tasks.
func DeleteProjectCommand(a *app.App, args []string) error {
	fs := newFlagSet("delete-project")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "project")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	if err := a.Records.DeleteProject(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	printf("✓ Project deleted: %s\n", id)
	return nil
}

// AddTaskCommand adds a task to a project.
func AddTaskCommand(a *app.App, args []string) error {
	fs := newFlagSet("add-task")
	project := fs.String("project", "", "Project ID (required)")
	title := fs.String("title", "", "Task title (required)")
	description := fs.String("description", "", "Description")
	priority := fs.String("priority", models.PriorityMedium, "Priority (low, medium, high, urgent)")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	hours := fs.Float64("hours", 0, "Estimated hours")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	projectID, err := optionalID(*project, "project")
	if err != nil {
		return err
	}

	in := models.ProjectTaskInput{
		ProjectID:   projectID,
		Title:       title,
		Description: models.OptionalString(*description),
		Priority:    priority,
		DueDate:     models.OptionalString(*due),
	}
	if setFlags(fs)["hours"] {
		in.EstimatedHours = hours
	}
	if err := in.Validate(); err != nil {
		return err
	}

	if err := a.Records.AddProjectTask(context.Background(), in); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	printf("✓ Task added: %s\n", *title)
	return nil
}

// loadTask caches the project's tasks and returns one of them.
func loadTask(ctx context.Context, a *app.App, project string, taskID uuid.UUID) (models.ProjectTask, error) {
	projectID, err := uuid.Parse(project)
	if err != nil {
		return models.ProjectTask{}, fmt.Errorf("invalid project ID: %w", err)
	}
	a.Records.FetchProjectTasks(ctx, projectID)
	task, ok := a.Records.GetProjectTask(taskID)
	if !ok {
		return models.ProjectTask{}, fmt.Errorf("task %s not found in project %s", taskID, projectID)
	}
	return task, nil
}

// ToggleTaskCommand flips a task between done and todo.
func ToggleTaskCommand(a *app.App, args []string) error {
	fs := newFlagSet("toggle-task")
	project := fs.String("project", "", "Project ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "task")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	ctx := context.Background()
	task, err := loadTask(ctx, a, *project, id)
	if err != nil {
		return err
	}

	next := views.NextTaskStatus(task.Status)
	if err := a.Records.SetTaskStatus(ctx, id, next); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	tasks := a.Records.Snapshot().ProjectTasks
	printf("✓ %s → %s (project %d%% complete)\n", task.Title,
		models.OptionLabel(models.TaskStatuses, next), views.ProjectCompletion(tasks))
	return nil
}

// DeleteTaskCommand deletes a task from a project.
func DeleteTaskCommand(a *app.App, args []string) error {
	fs := newFlagSet("delete-task")
	project := fs.String("project", "", "Project ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "task")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := loadTask(ctx, a, *project, id); err != nil {
		return err
	}
	if err := a.Records.DeleteProjectTask(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	printf("✓ Task deleted: %s\n", id)
	return nil
}
