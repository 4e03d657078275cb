// ABOUTME: Sign-in and registration forms for the TUI
// ABOUTME: Submits through the session store; the guard moves on once a user is loaded
package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/session"
)

const (
	authEmail = iota
	authPassword
	authConfirm
	authFullName
)

type authForm struct {
	inputs []textinput.Model
	focus  int
	busy   bool
}

type authDoneMsg struct {
	err     error
	pending bool
}

func newAuthForm(register bool) authForm {
	n := 2
	if register {
		n = 4
	}
	inputs := make([]textinput.Model, n)
	labels := []string{"Email", "Password", "Confirm password", "Full name"}
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = labels[i]
		inputs[i].CharLimit = 100
		if i == authPassword || i == authConfirm {
			inputs[i].EchoMode = textinput.EchoPassword
		}
	}
	inputs[0].Focus()
	return authForm{inputs: inputs}
}

func (f *authForm) value(i int) string {
	if i >= len(f.inputs) {
		return ""
	}
	return f.inputs[i].Value()
}

func (f *authForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (m Model) renderAuthView(register bool) string {
	var s strings.Builder

	if register {
		s.WriteString(titleStyle.Render("ANCORA · CREATE ACCOUNT"))
	} else {
		s.WriteString(titleStyle.Render("ANCORA · SIGN IN"))
	}
	s.WriteString("\n\n")

	for i, input := range m.auth.inputs {
		if i == m.auth.focus {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.auth.busy {
		s.WriteString("Working...\n")
	}
	if status := m.renderStatus(); status != "" {
		s.WriteString(status + "\n")
	}

	help := []string{"Tab: Next field", "Enter: Submit", "Ctrl+R: Register"}
	if register {
		help = append(help[:2], "Esc: Back to sign in")
	}
	help = append(help, "Ctrl+C: Quit")
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleAuthKeys(msg tea.KeyMsg, register bool) (tea.Model, tea.Cmd) {
	if m.auth.busy {
		return m, nil
	}

	switch msg.String() {
	case "ctrl+r":
		return m.switchAuth(session.RouteRegister)
	case "esc":
		return m.switchAuth(session.RouteLogin)
	case "tab", "down":
		m.auth.setFocus(m.auth.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.auth.setFocus(m.auth.focus - 1)
		return m, nil
	case "enter":
		return m.submitAuth(register)
	}

	var cmd tea.Cmd
	m.auth.inputs[m.auth.focus], cmd = m.auth.inputs[m.auth.focus].Update(msg)
	return m, cmd
}

func (m Model) switchAuth(route session.Route) (tea.Model, tea.Cmd) {
	m.route = route
	m.auth = newAuthForm(route == session.RouteRegister)
	m.err = nil
	m.notice = ""
	return m, nil
}

func (m Model) submitAuth(register bool) (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.auth.value(authEmail))
	password := m.auth.value(authPassword)

	if register {
		fullName := strings.TrimSpace(m.auth.value(authFullName))
		if err := models.ValidateRegistration(email, password, m.auth.value(authConfirm), fullName); err != nil {
			m.err = err
			return m, nil
		}
		m.auth.busy = true
		m.err = nil
		return m, func() tea.Msg {
			outcome, err := m.session.SignUp(m.ctx, email, password, fullName)
			return authDoneMsg{err: err, pending: outcome == session.SignUpPendingConfirmation}
		}
	}

	if email == "" || password == "" {
		m.err = errors.New("email and password are required")
		return m, nil
	}
	m.auth.busy = true
	m.err = nil
	return m, func() tea.Msg {
		return authDoneMsg{err: m.session.SignIn(m.ctx, email, password)}
	}
}

func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	m.auth.busy = false
	m.err = msg.err
	if msg.err != nil {
		return m, nil
	}
	if msg.pending {
		m.route = session.RouteLogin
		m.auth = newAuthForm(false)
		m.notice = "Check your email to confirm the account, then sign in."
		return m, nil
	}

	m.route = session.RouteDashboard
	m.auth = newAuthForm(false)
	return m, m.refresh()
}

// signOut clears the session; the guard then resolves to the login form.
func (m Model) signOut() tea.Cmd {
	return func() tea.Msg {
		m.session.SignOut(m.ctx)
		return routeMsg(session.RouteLogin)
	}
}
