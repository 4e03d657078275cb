// ABOUTME: Detail view for the TUI
// ABOUTME: Shows one record with its related deals, projects, activities and project tasks
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/harperreed/ancora/viz"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

// loadDetail fetches what the detail view of the selected record needs.
func (m Model) loadDetail() tea.Cmd {
	id := m.selectedID
	kind := m.entityType
	return func() tea.Msg {
		var filter store.ActivityFilter
		switch kind {
		case EntityContacts:
			filter.ContactID = &id
		case EntityCompanies:
			filter.CompanyID = &id
			m.records.FetchContacts(m.ctx)
		case EntityDeals, EntityPipeline:
			filter.DealID = &id
		case EntityProjects:
			filter.ProjectID = &id
			m.records.FetchProjectTasks(m.ctx, id)
		}
		m.records.FetchActivities(m.ctx, filter)
		return stateMsg{}
	}
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DETAIL VIEW"))
	s.WriteString("\n\n")

	st := m.records.Snapshot()
	switch m.entityType {
	case EntityContacts:
		s.WriteString(m.renderContactDetail(st))
	case EntityCompanies:
		s.WriteString(m.renderCompanyDetail(st))
	case EntityDeals, EntityPipeline:
		s.WriteString(m.renderDealDetail(st))
	case EntityProjects:
		s.WriteString(m.renderProjectDetail(st))
	}

	s.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		s.WriteString(status + "\n")
	}
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func renderActivities(activities []models.Activity) string {
	var s strings.Builder
	s.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("ACTIVITIES (%d)", len(activities))) + "\n")
	for _, a := range activities {
		s.WriteString(fmt.Sprintf("  • [%s] %s  %s\n",
			models.OptionLabel(models.ActivityTypes, a.Type), a.Subject, a.CreatedAt.Format("2006-01-02")))
	}
	return s.String()
}

func (m Model) renderContactDetail(st store.State) string {
	contact, ok := m.records.GetContact(m.selectedID)
	if !ok {
		return "Contact not found"
	}

	var s strings.Builder
	s.WriteString(m.renderField("Name", contact.FullName()))
	s.WriteString(m.renderField("Status", models.OptionLabel(models.ContactStatuses, contact.Status)))
	s.WriteString(m.renderField("Email", models.StringValue(contact.Email)))
	s.WriteString(m.renderField("Phone", models.StringValue(contact.Phone)))
	s.WriteString(m.renderField("Title", models.StringValue(contact.JobTitle)))
	if contact.Company != nil {
		s.WriteString(m.renderField("Company", contact.Company.Name))
	}
	s.WriteString(m.renderField("Notes", models.StringValue(contact.Notes)))

	deals := views.DealsForContact(st.Deals, contact.ID)
	s.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("DEALS (%d)", len(deals))) + "\n")
	for _, d := range deals {
		s.WriteString(fmt.Sprintf("  • %s  %s  %s\n", d.Title, viz.FormatMoney(d.Value), models.StageLabel(d.Stage)))
	}

	projects := views.ProjectsForContact(st.Projects, contact.ID)
	s.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("PROJECTS (%d)", len(projects))) + "\n")
	for _, p := range projects {
		s.WriteString(fmt.Sprintf("  • %s  %s\n", p.Name, models.OptionLabel(models.ProjectStatuses, p.Status)))
	}

	s.WriteString(renderActivities(views.ActivitiesForContact(st.Activities, contact.ID)))
	return s.String()
}

func (m Model) renderCompanyDetail(st store.State) string {
	company, ok := m.records.GetCompany(m.selectedID)
	if !ok {
		return "Company not found"
	}

	var s strings.Builder
	s.WriteString(m.renderField("Name", company.Name))
	s.WriteString(m.renderField("Industry", models.StringValue(company.Industry)))
	s.WriteString(m.renderField("Size", models.StringValue(company.Size)))
	s.WriteString(m.renderField("Website", models.StringValue(company.Website)))
	s.WriteString(m.renderField("Phone", models.StringValue(company.Phone)))
	s.WriteString(m.renderField("Address", models.StringValue(company.Address)))

	contacts := views.ContactsForCompany(st.Contacts, company.ID)
	s.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("CONTACTS (%d)", len(contacts))) + "\n")
	for _, c := range contacts {
		s.WriteString(fmt.Sprintf("  • %s  %s\n", c.FullName(), models.StringValue(c.JobTitle)))
	}

	deals := views.DealsForCompany(st.Deals, company.ID)
	s.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("DEALS (%d) · %s", len(deals), viz.FormatMoney(views.TotalValue(deals)))) + "\n")
	for _, d := range deals {
		s.WriteString(fmt.Sprintf("  • %s  %s  %s\n", d.Title, viz.FormatMoney(d.Value), models.StageLabel(d.Stage)))
	}

	projects := views.ProjectsForCompany(st.Projects, company.ID)
	s.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("PROJECTS (%d)", len(projects))) + "\n")
	for _, p := range projects {
		s.WriteString(fmt.Sprintf("  • %s  %s\n", p.Name, models.OptionLabel(models.ProjectStatuses, p.Status)))
	}

	s.WriteString(renderActivities(views.ActivitiesForCompany(st.Activities, company.ID)))
	return s.String()
}

func (m Model) renderDealDetail(st store.State) string {
	deal, ok := m.records.GetDeal(m.selectedID)
	if !ok {
		return "Deal not found"
	}

	var s strings.Builder
	s.WriteString(m.renderField("Title", deal.Title))
	s.WriteString(m.renderField("Value", viz.FormatMoney(deal.Value)))
	s.WriteString(m.renderField("Weighted", fmt.Sprintf("%s (%d%%)", viz.FormatMoney(views.WeightedValue(deal)), deal.Probability)))
	if rank := views.PipelineRank(st.Deals, deal.ID); rank > 0 {
		s.WriteString(m.renderField("Pipeline rank", fmt.Sprintf("#%d", rank)))
	}
	if deal.Contact != nil {
		s.WriteString(m.renderField("Contact", deal.Contact.FullName()))
	}
	if deal.Company != nil {
		s.WriteString(m.renderField("Company", deal.Company.Name))
	}
	s.WriteString(m.renderField("Expected close", models.StringValue(deal.ExpectedCloseDate)))

	s.WriteString("\n" + sectionStyle.Render("STAGE") + "\n")
	for i, step := range views.StageProgress(deal.Stage) {
		marker := "○"
		switch step.State {
		case views.StepCurrent:
			marker = "●"
		case views.StepPassed:
			marker = "✓"
		}
		s.WriteString(fmt.Sprintf("  %d %s %s\n", i+1, marker, step.Stage.Label))
	}
	if deal.Stage == models.StageClosedLost {
		s.WriteString("  ✗ Closed Lost\n")
	}

	s.WriteString(renderActivities(views.ActivitiesForDeal(st.Activities, deal.ID)))
	return s.String()
}

func (m Model) renderProjectDetail(st store.State) string {
	project, ok := m.records.GetProject(m.selectedID)
	if !ok {
		return "Project not found"
	}

	var s strings.Builder
	s.WriteString(m.renderField("Name", project.Name))
	s.WriteString(m.renderField("Status", models.OptionLabel(models.ProjectStatuses, project.Status)))
	s.WriteString(m.renderField("Description", models.StringValue(project.Description)))
	if project.Budget != nil {
		s.WriteString(m.renderField("Budget", viz.FormatMoney(*project.Budget)))
	}
	if project.Company != nil {
		s.WriteString(m.renderField("Company", project.Company.Name))
	}

	tasks := st.ProjectTasks
	s.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("TASKS · %d%% (%d/%d)",
		views.ProjectCompletion(tasks), views.CompletedTaskCount(tasks), len(tasks))) + "\n")
	if len(tasks) == 0 {
		s.WriteString("  No tasks yet\n")
	}
	for i, t := range tasks {
		cursor := "  "
		if i == m.taskRow {
			cursor = "> "
		}
		box := "[ ]"
		if t.Status == models.TaskDone {
			box = "[x]"
		}
		s.WriteString(fmt.Sprintf("%s%s %s  %s\n", cursor, box, t.Title, models.OptionLabel(models.TaskPriorities, t.Priority)))
	}

	s.WriteString(renderActivities(views.ActivitiesForProject(st.Activities, project.ID)))
	return s.String()
}

func (m Model) renderDetailHelp() string {
	help := []string{"Esc: Back"}
	switch m.entityType {
	case EntityContacts, EntityCompanies:
		help = append(help, "g: Graph")
	case EntityDeals, EntityPipeline:
		help = append(help, "1-6: Set stage")
	case EntityProjects:
		help = append(help, "↑/↓: Select task", "Space: Toggle done", "a: Add task", "d: Delete task")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		m.viewMode = ViewList
		return m, nil
	}

	switch m.entityType {
	case EntityContacts, EntityCompanies:
		if key == "g" {
			return m.openGraph()
		}
	case EntityDeals, EntityPipeline:
		if len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(models.DealStages) {
			stage := models.DealStages[key[0]-'1']
			id := m.selectedID
			return m, m.write("Moved to "+stage.Label, func(ctx context.Context) error {
				return m.records.MoveDeal(ctx, id, stage.ID)
			})
		}
	case EntityProjects:
		return m.handleTaskKeys(key)
	}
	return m, nil
}

func (m Model) handleTaskKeys(key string) (tea.Model, tea.Cmd) {
	tasks := m.records.Snapshot().ProjectTasks
	switch key {
	case "up", "k":
		if m.taskRow > 0 {
			m.taskRow--
		}
	case "down", "j":
		if m.taskRow < len(tasks)-1 {
			m.taskRow++
		}
	case "a":
		m.openForm(formTask)
	case " ", "d":
		if m.taskRow >= len(tasks) {
			return m, nil
		}
		task := tasks[m.taskRow]
		if key == "d" {
			if m.taskRow > 0 && m.taskRow == len(tasks)-1 {
				m.taskRow--
			}
			return m, m.write("Task deleted", func(ctx context.Context) error {
				return m.records.DeleteProjectTask(ctx, task.ID)
			})
		}
		next := views.NextTaskStatus(task.Status)
		return m, m.write(task.Title+" → "+models.OptionLabel(models.TaskStatuses, next), func(ctx context.Context) error {
			return m.records.SetTaskStatus(ctx, task.ID, next)
		})
	}
	return m, nil
}
