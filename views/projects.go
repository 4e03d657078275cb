// ABOUTME: Project aggregates over loaded projects and tasks
// ABOUTME: Completion percentage, completed counts and the projects page summary
package views

import (
	"math"

	"github.com/harperreed/ancora/models"
)

// CompletedTaskCount counts tasks in the done status.
func CompletedTaskCount(tasks []models.ProjectTask) int {
	n := 0
	for _, t := range tasks {
		if t.Status == models.TaskDone {
			n++
		}
	}
	return n
}

// ProjectCompletion is round(100 × done / total), or 0 with no tasks.
func ProjectCompletion(tasks []models.ProjectTask) int {
	if len(tasks) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(CompletedTaskCount(tasks)) / float64(len(tasks))))
}

// NextTaskStatus toggles a task between done and todo.
func NextTaskStatus(status string) string {
	if status == models.TaskDone {
		return models.TaskTodo
	}
	return models.TaskDone
}

// Stats summarizes a project list.
type Stats struct {
	Total       int
	InProgress  int
	Planning    int
	TotalBudget float64
}

// ProjectStats counts projects by status and sums budgets. A missing
// budget counts as zero.
func ProjectStats(projects []models.Project) Stats {
	var s Stats
	for _, p := range projects {
		s.Total++
		switch p.Status {
		case models.ProjectInProgress:
			s.InProgress++
		case models.ProjectPlanning:
			s.Planning++
		}
		if p.Budget != nil {
			s.TotalBudget += *p.Budget
		}
	}
	return s
}

// ActiveProjects keeps projects that are in progress.
func ActiveProjects(projects []models.Project) []models.Project {
	var out []models.Project
	for _, p := range projects {
		if p.Status == models.ProjectInProgress {
			out = append(out, p)
		}
	}
	return out
}
