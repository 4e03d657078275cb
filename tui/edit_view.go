// ABOUTME: Create forms for the TUI
// ABOUTME: Builds new contacts, companies, deals, projects and project tasks through the record cache
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/ancora/models"
)

type formKind int

const (
	formContact formKind = iota
	formCompany
	formDeal
	formProject
	formTask
)

type formField struct {
	placeholder string
	limit       int
}

var formFields = map[formKind][]formField{
	formContact: {{"First name", 50}, {"Last name", 50}, {"Email", 100}, {"Phone", 30}, {"Company", 100}},
	formCompany: {{"Name", 100}, {"Industry", 50}, {"Website", 100}},
	formDeal:    {{"Title", 100}, {"Value", 15}, {"Stage (prospecting)", 20}, {"Company", 100}},
	formProject: {{"Name", 100}, {"Description", 200}, {"Budget", 15}, {"Company", 100}},
	formTask:    {{"Title", 100}, {"Priority (medium)", 10}, {"Due date (YYYY-MM-DD)", 10}},
}

var formTitles = map[formKind]string{
	formContact: "CONTACT",
	formCompany: "COMPANY",
	formDeal:    "DEAL",
	formProject: "PROJECT",
	formTask:    "TASK",
}

func formForEntity(t EntityType) formKind {
	switch t {
	case EntityCompanies:
		return formCompany
	case EntityDeals:
		return formDeal
	case EntityProjects:
		return formProject
	}
	return formContact
}

func (m *Model) openForm(kind formKind) {
	fields := formFields[kind]
	m.formKind = kind
	m.formInputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		m.formInputs[i] = textinput.New()
		m.formInputs[i].Placeholder = f.placeholder
		m.formInputs[i].CharLimit = f.limit
	}
	m.focusIndex = 0
	m.updateFormFocus()
	m.err = nil
	m.viewMode = ViewEdit
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m Model) renderEditView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("NEW " + formTitles[m.formKind]))
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		s.WriteString(status + "\n")
	}
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

// closeForm returns to the view the form was opened from.
func (m *Model) closeForm() {
	if m.formKind == formTask {
		m.viewMode = ViewDetail
	} else {
		m.viewMode = ViewList
	}
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		m.err = nil
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		save, err := m.saveEntity()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.closeForm()
		m.err = nil
		return m, m.write("Saved "+strings.ToLower(formTitles[m.formKind]), save)
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) field(i int) string {
	return strings.TrimSpace(m.formInputs[i].Value())
}

func optionalFloat(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}

// saveEntity validates the form and returns the write to run.
func (m Model) saveEntity() (func(ctx context.Context) error, error) {
	switch m.formKind {
	case formContact:
		in := models.ContactInput{
			FirstName: models.OptionalString(m.field(0)),
			LastName:  models.OptionalString(m.field(1)),
			Email:     models.OptionalString(m.field(2)),
			Phone:     models.OptionalString(m.field(3)),
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		company := m.field(4)
		return func(ctx context.Context) error {
			var err error
			if in.OrganizationID, err = m.records.EnsureCompany(ctx, company); err != nil {
				return err
			}
			return m.records.AddContact(ctx, in)
		}, nil

	case formCompany:
		in := models.CompanyInput{
			Name:     models.OptionalString(m.field(0)),
			Industry: models.OptionalString(m.field(1)),
			Website:  models.OptionalString(m.field(2)),
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return m.records.AddCompany(ctx, in) }, nil

	case formDeal:
		value, err := optionalFloat(m.field(1), "value")
		if err != nil {
			return nil, err
		}
		in := models.DealInput{Title: models.OptionalString(m.field(0)), Value: value}
		if stage := m.field(2); stage != "" {
			in = in.WithStage(stage)
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		company := m.field(3)
		return func(ctx context.Context) error {
			var err error
			if in.CompanyID, err = m.records.EnsureCompany(ctx, company); err != nil {
				return err
			}
			return m.records.AddDeal(ctx, in)
		}, nil

	case formProject:
		budget, err := optionalFloat(m.field(2), "budget")
		if err != nil {
			return nil, err
		}
		in := models.ProjectInput{
			Name:        models.OptionalString(m.field(0)),
			Description: models.OptionalString(m.field(1)),
			Budget:      budget,
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		company := m.field(3)
		return func(ctx context.Context) error {
			var err error
			if in.CompanyID, err = m.records.EnsureCompany(ctx, company); err != nil {
				return err
			}
			return m.records.AddProject(ctx, in)
		}, nil

	case formTask:
		projectID := m.selectedID
		in := models.ProjectTaskInput{
			ProjectID: &projectID,
			Title:     models.OptionalString(m.field(0)),
			Priority:  models.OptionalString(m.field(1)),
			DueDate:   models.OptionalString(m.field(2)),
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return m.records.AddProjectTask(ctx, in) }, nil
	}
	return nil, fmt.Errorf("unknown form")
}
