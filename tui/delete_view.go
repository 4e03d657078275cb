// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Handles deletion of contacts, companies, deals and projects with a confirmation dialog
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

// deleteTarget names the selected record and returns its delete call.
func (m Model) deleteTarget() (kind, name string, del func(ctx context.Context, id uuid.UUID) error, ok bool) {
	switch m.entityType {
	case EntityContacts:
		c, found := m.records.GetContact(m.selectedID)
		return "contact", c.FullName(), m.records.DeleteContact, found
	case EntityCompanies:
		c, found := m.records.GetCompany(m.selectedID)
		return "company", c.Name, m.records.DeleteCompany, found
	case EntityDeals:
		d, found := m.records.GetDeal(m.selectedID)
		return "deal", d.Title, m.records.DeleteDeal, found
	case EntityProjects:
		p, found := m.records.GetProject(m.selectedID)
		return "project", p.Name, m.records.DeleteProject, found
	}
	return "", "", nil, false
}

func (m Model) renderConfirmDeleteView() string {
	kind, name, _, ok := m.deleteTarget()
	if !ok {
		return "Record not found\n\n" + helpStyle.Render("Esc: Back")
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Are you sure you want to delete this %s?", kind)
	entityInfo := fmt.Sprintf("\n%s: %s\n", strings.ToUpper(kind), name)
	warning := "\nThis action cannot be undone!"
	if kind == "project" {
		warning = "\nIts tasks are deleted too. This action cannot be undone!"
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", message, entityInfo, warning, "", buttons)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, confirmBoxStyle.Render(content))
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		kind, name, del, ok := m.deleteTarget()
		m.viewMode = ViewList
		if !ok {
			return m, nil
		}
		if m.selectedRow > 0 {
			m.selectedRow--
		}
		id := m.selectedID
		return m, m.write(fmt.Sprintf("Deleted %s: %s", kind, name), func(ctx context.Context) error {
			return del(ctx, id)
		})
	case "n", "N", "esc":
		m.viewMode = ViewList
	}

	return m, nil
}
