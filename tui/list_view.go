// ABOUTME: List view for the TUI
// ABOUTME: Tabbed tables with search and enum filters, plus the pipeline board
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
	"github.com/harperreed/ancora/viz"
)

func optionIDs(options []models.Option) []string {
	ids := []string{views.All}
	for _, o := range options {
		ids = append(ids, o.ID)
	}
	return ids
}

// filterOptions lists the enum values the f key cycles through.
func (m Model) filterOptions(st store.State) []string {
	switch m.entityType {
	case EntityContacts:
		return optionIDs(models.ContactStatuses)
	case EntityCompanies:
		return append([]string{views.All}, views.Industries(st.Companies)...)
	case EntityDeals:
		ids := []string{views.All}
		for _, s := range models.DealStages {
			ids = append(ids, s.ID)
		}
		return ids
	case EntityProjects:
		return optionIDs(models.ProjectStatuses)
	}
	return []string{views.All}
}

func (m Model) currentFilter(st store.State) string {
	options := m.filterOptions(st)
	if m.filterIndex >= len(options) {
		return views.All
	}
	return options[m.filterIndex]
}

func (m Model) visibleContacts(st store.State) []models.Contact {
	return views.FilterContacts(st.Contacts, m.search.Value(), m.currentFilter(st))
}

func (m Model) visibleCompanies(st store.State) []models.Company {
	return views.FilterCompanies(st.Companies, m.search.Value(), m.currentFilter(st))
}

func (m Model) visibleDeals(st store.State) []models.Deal {
	return views.FilterDeals(st.Deals, m.search.Value(), m.currentFilter(st))
}

func (m Model) visibleProjects(st store.State) []models.Project {
	return views.FilterProjects(st.Projects, m.search.Value(), m.currentFilter(st))
}

// boardDeals flattens the pipeline board into row order.
func boardDeals(st store.State) []models.Deal {
	var deals []models.Deal
	for _, col := range views.PipelineBoard(st.Deals) {
		deals = append(deals, col.Deals...)
	}
	return deals
}

// rowIDs returns the ids of the rows shown on the current tab.
func (m Model) rowIDs() []uuid.UUID {
	st := m.records.Snapshot()
	var ids []uuid.UUID
	switch m.entityType {
	case EntityContacts:
		for _, c := range m.visibleContacts(st) {
			ids = append(ids, c.ID)
		}
	case EntityCompanies:
		for _, c := range m.visibleCompanies(st) {
			ids = append(ids, c.ID)
		}
	case EntityDeals:
		for _, d := range m.visibleDeals(st) {
			ids = append(ids, d.ID)
		}
	case EntityProjects:
		for _, p := range m.visibleProjects(st) {
			ids = append(ids, p.ID)
		}
	case EntityPipeline:
		for _, d := range boardDeals(st) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func (m Model) getSelectedID() (uuid.UUID, bool) {
	ids := m.rowIDs()
	if m.selectedRow < 0 || m.selectedRow >= len(ids) {
		return uuid.Nil, false
	}
	return ids[m.selectedRow], true
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("ANCORA CRM"))
	if user := m.session.Snapshot().User; user != nil {
		s.WriteString("  " + helpStyle.Render(user.DisplayName()))
	}
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	st := m.records.Snapshot()
	if m.entityType != EntityPipeline {
		s.WriteString(m.renderFilterBar(st))
		s.WriteString("\n")
	}

	if st.Loading {
		s.WriteString("Loading...\n")
	} else {
		s.WriteString(m.renderTable(st))
	}
	s.WriteString("\n")

	if status := m.renderStatus(); status != "" {
		s.WriteString(status + "\n")
	}
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if EntityType(i) == m.entityType {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderFilterBar(st store.State) string {
	filter := m.currentFilter(st)
	label := "All"
	switch m.entityType {
	case EntityContacts:
		label = models.OptionLabel(models.ContactStatuses, filter)
	case EntityDeals:
		label = models.StageLabel(filter)
	case EntityProjects:
		label = models.OptionLabel(models.ProjectStatuses, filter)
	case EntityCompanies:
		label = filter
	}
	if filter == views.All {
		label = "All"
	}

	if m.searching {
		return m.search.View() + "  Filter: " + label
	}
	if q := m.search.Value(); q != "" {
		return fmt.Sprintf("Search: %q  Filter: %s", q, label)
	}
	return "Filter: " + label
}

func (m Model) newTable(columns []table.Column, rows []table.Row) string {
	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderTable(st store.State) string {
	switch m.entityType {
	case EntityContacts:
		return m.renderContactsTable(st)
	case EntityCompanies:
		return m.renderCompaniesTable(st)
	case EntityDeals:
		return m.renderDealsTable(st)
	case EntityProjects:
		return m.renderProjectsTable(st)
	case EntityPipeline:
		return m.renderPipelineBoard(st)
	}
	return ""
}

func (m Model) renderContactsTable(st store.State) string {
	columns := []table.Column{
		{Title: "Name", Width: 25},
		{Title: "Email", Width: 28},
		{Title: "Status", Width: 10},
		{Title: "Company", Width: 20},
	}

	var rows []table.Row
	for _, c := range m.visibleContacts(st) {
		companyName := ""
		if c.Company != nil {
			companyName = c.Company.Name
		}
		rows = append(rows, table.Row{
			c.FullName(),
			models.StringValue(c.Email),
			models.OptionLabel(models.ContactStatuses, c.Status),
			companyName,
		})
	}
	return m.newTable(columns, rows)
}

func (m Model) renderCompaniesTable(st store.State) string {
	columns := []table.Column{
		{Title: "Name", Width: 30},
		{Title: "Industry", Width: 20},
		{Title: "Website", Width: 25},
		{Title: "Contacts", Width: 8},
	}

	var rows []table.Row
	for _, c := range m.visibleCompanies(st) {
		rows = append(rows, table.Row{
			c.Name,
			models.StringValue(c.Industry),
			models.StringValue(c.Website),
			fmt.Sprintf("%d", views.CompanyContactCount(st.Contacts, c.ID)),
		})
	}
	return m.newTable(columns, rows)
}

func (m Model) renderDealsTable(st store.State) string {
	columns := []table.Column{
		{Title: "Title", Width: 28},
		{Title: "Company", Width: 20},
		{Title: "Stage", Width: 14},
		{Title: "Value", Width: 10},
		{Title: "Prob", Width: 5},
	}

	deals := m.visibleDeals(st)
	var rows []table.Row
	for _, d := range deals {
		companyName := ""
		if d.Company != nil {
			companyName = d.Company.Name
		}
		rows = append(rows, table.Row{
			d.Title,
			companyName,
			models.StageLabel(d.Stage),
			viz.FormatMoney(d.Value),
			fmt.Sprintf("%d%%", d.Probability),
		})
	}

	summary := fmt.Sprintf("%d deals · %s total · %s weighted",
		len(deals), viz.FormatMoney(views.TotalValue(deals)), viz.FormatMoney(views.WeightedPipeline(deals)))
	return m.newTable(columns, rows) + "\n" + helpStyle.Render(summary)
}

func (m Model) renderProjectsTable(st store.State) string {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Status", Width: 12},
		{Title: "Budget", Width: 10},
		{Title: "Company", Width: 20},
	}

	var rows []table.Row
	for _, p := range m.visibleProjects(st) {
		budget := ""
		if p.Budget != nil {
			budget = viz.FormatMoney(*p.Budget)
		}
		companyName := ""
		if p.Company != nil {
			companyName = p.Company.Name
		}
		rows = append(rows, table.Row{
			p.Name,
			models.OptionLabel(models.ProjectStatuses, p.Status),
			budget,
			companyName,
		})
	}

	stats := views.ProjectStats(st.Projects)
	summary := fmt.Sprintf("%d projects · %d in progress · %d planning · %s budget",
		stats.Total, stats.InProgress, stats.Planning, viz.FormatMoney(stats.TotalBudget))
	return m.newTable(columns, rows) + "\n" + helpStyle.Render(summary)
}

func (m Model) renderPipelineBoard(st store.State) string {
	var s strings.Builder
	row := 0
	for _, col := range views.PipelineBoard(st.Deals) {
		s.WriteString(lipgloss.NewStyle().Bold(true).Render(
			fmt.Sprintf("%s · %d · %s", col.Stage.Label, col.Count, viz.FormatMoney(col.Value))))
		s.WriteString("\n")
		for _, d := range col.Deals {
			cursor := "  "
			if row == m.selectedRow {
				cursor = "> "
			}
			s.WriteString(fmt.Sprintf("%s%s  %s\n", cursor, d.Title, viz.FormatMoney(d.Value)))
			row++
		}
	}
	s.WriteString(helpStyle.Render(fmt.Sprintf("Weighted pipeline: %s", viz.FormatMoney(views.WeightedPipeline(st.Deals)))))
	return s.String()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
	}
	if m.entityType == EntityPipeline {
		help = append(help, "[/]: Move stage")
	} else {
		help = append(help, "/: Search", "f: Filter", "n: New", "d: Delete")
	}
	help = append(help, "g: Graph", "r: Refresh", "L: Sign out", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.rowIDs())-1 {
			m.selectedRow++
		}
	case "tab":
		m.switchTab((m.entityType + 1) % entityCount)
	case "shift+tab":
		m.switchTab((m.entityType + entityCount - 1) % entityCount)
	case "enter":
		if id, ok := m.getSelectedID(); ok {
			m.viewMode = ViewDetail
			m.selectedID = id
			m.taskRow = 0
			return m, m.loadDetail()
		}
	case "/":
		if m.entityType != EntityPipeline {
			m.searching = true
			return m, m.search.Focus()
		}
	case "f":
		m.filterIndex = (m.filterIndex + 1) % len(m.filterOptions(m.records.Snapshot()))
		m.selectedRow = 0
	case "n":
		if m.entityType != EntityPipeline {
			m.openForm(formForEntity(m.entityType))
		}
	case "d":
		if id, ok := m.getSelectedID(); ok && m.entityType != EntityPipeline {
			m.selectedID = id
			m.viewMode = ViewConfirmDelete
		}
	case "[", "]":
		if id, ok := m.getSelectedID(); ok && m.entityType == EntityPipeline {
			return m, m.shiftStage(id, msg.String() == "]")
		}
	case "g":
		return m.openGraph()
	case "r":
		return m, m.refresh()
	case "L":
		return m, m.signOut()
	}

	return m, nil
}

func (m *Model) switchTab(t EntityType) {
	m.entityType = t
	m.selectedRow = 0
	m.filterIndex = 0
	m.search.SetValue("")
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.selectedRow = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.selectedRow = 0
	return m, cmd
}

// shiftStage moves a deal one open stage forward or back. Deals do not
// leave the board this way; closing happens from the detail view.
func (m Model) shiftStage(id uuid.UUID, forward bool) tea.Cmd {
	deal, ok := m.records.GetDeal(id)
	if !ok {
		return nil
	}

	var open []string
	for _, s := range models.DealStages {
		if !models.IsClosedStage(s.ID) {
			open = append(open, s.ID)
		}
	}
	for i, s := range open {
		if s != deal.Stage {
			continue
		}
		next := i - 1
		if forward {
			next = i + 1
		}
		if next < 0 || next >= len(open) {
			return nil
		}
		stage := open[next]
		return m.write("Moved to "+models.StageLabel(stage), func(ctx context.Context) error {
			return m.records.MoveDeal(ctx, id, stage)
		})
	}
	return nil
}
