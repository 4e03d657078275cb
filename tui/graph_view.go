// ABOUTME: Graph view for the TUI
// ABOUTME: Shows Graphviz DOT source for the pipeline, a contact or a company
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/ancora/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("GRAPH VIEW"))
	s.WriteString("\n\n")

	if m.graphDOT == "" {
		s.WriteString("Generating graph...\n")
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")
	if status := m.renderStatus(); status != "" {
		s.WriteString(status + "\n")
	}
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.viewMode = m.graphReturn()
		m.graphDOT = ""
	}
	return m, nil
}

// graphReturn is the view the graph was opened from.
func (m Model) graphReturn() ViewMode {
	if m.selectedID != uuid.Nil && (m.entityType == EntityContacts || m.entityType == EntityCompanies) {
		return ViewDetail
	}
	return ViewList
}

// openGraph draws the graph for the current context: the selected
// contact or company in the detail view, otherwise the whole pipeline.
func (m Model) openGraph() (tea.Model, tea.Cmd) {
	generator := viz.NewGraphGenerator(m.records.Snapshot())

	var dot string
	var err error
	switch {
	case m.viewMode == ViewDetail && m.entityType == EntityContacts:
		dot, err = generator.GenerateContactGraph(m.selectedID)
	case m.viewMode == ViewDetail && m.entityType == EntityCompanies:
		dot, err = generator.GenerateCompanyGraph(m.selectedID)
	default:
		m.selectedID = uuid.Nil
		dot, err = generator.GeneratePipelineGraph()
	}

	if err != nil {
		m.err = err
		return m, nil
	}
	m.graphDOT = dot
	m.viewMode = ViewGraph
	return m, nil
}
