// ABOUTME: Tests for the TUI model
// ABOUTME: Drives Update with key messages against a local gateway and checks routing and writes
package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/ancora/gateway"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/session"
	"github.com/harperreed/ancora/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupModel(t *testing.T, signedIn bool) (Model, *gateway.Local, *session.Store, *store.Store) {
	t.Helper()
	ctx := context.Background()

	g := gateway.NewTestLocal(t)
	sess := session.NewStore(g, g, nil, nil)
	guard := session.NewGuard(sess, g, nil, nil)
	require.True(t, guard.Initialize(ctx, session.GuardTimeout))
	if signedIn {
		outcome, err := sess.SignUp(ctx, "owner@example.com", gateway.TestPassword, "Olive Owner")
		require.NoError(t, err)
		require.Equal(t, session.SignUpComplete, outcome)
	}

	records := store.New(g, nil)
	return NewModel(ctx, sess, guard, records), g, sess, records
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

// finish runs a command synchronously and feeds its message back.
func finish(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestViewFollowsSession(t *testing.T) {
	m, _, _, _ := setupModel(t, false)
	assert.Contains(t, m.View(), "SIGN IN")

	m, _, _, _ = setupModel(t, true)
	view := m.View()
	assert.Contains(t, view, "Contacts")
	assert.Contains(t, view, "Pipeline")
}

func TestLoginForm(t *testing.T) {
	ctx := context.Background()
	m, _, sess, _ := setupModel(t, true)
	sess.SignOut(ctx)
	require.Nil(t, sess.Snapshot().User)
	assert.Contains(t, m.View(), "SIGN IN")

	m, _ = press(t, m, "owner@example.com", "tab", gateway.TestPassword)
	m, cmd := press(t, m, "enter")
	assert.True(t, m.auth.busy)

	m = finish(t, m, cmd)
	require.NoError(t, m.err)
	assert.Equal(t, session.RouteDashboard, m.route)
	require.NotNil(t, sess.Snapshot().User)
	assert.Equal(t, session.RouteDashboard, m.currentRoute())
}

func TestLoginRequiresFields(t *testing.T) {
	m, _, _, _ := setupModel(t, false)

	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	require.Error(t, m.err)
	assert.False(t, m.auth.busy)
}

func TestRegisterFormValidates(t *testing.T) {
	m, _, _, _ := setupModel(t, false)

	m, _ = press(t, m, "ctrl+r")
	assert.Equal(t, session.RouteRegister, m.route)
	assert.Len(t, m.auth.inputs, 4)
	assert.Contains(t, m.View(), "CREATE ACCOUNT")

	m, _ = press(t, m, "new@example.com", "tab", "longenough", "tab", "different", "tab", "New User")
	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "do not match")

	m, _ = press(t, m, "esc")
	assert.Equal(t, session.RouteLogin, m.route)
	assert.Len(t, m.auth.inputs, 2)
}

func TestRouteMessageResetsAuthForm(t *testing.T) {
	m, _, _, _ := setupModel(t, true)
	m.viewMode = ViewDetail

	next, _ := m.Update(routeMsg(session.RouteLogin))
	m = next.(Model)
	assert.Equal(t, session.RouteLogin, m.route)
	assert.Equal(t, ViewList, m.viewMode)
	// Still signed in, so the guard keeps the dashboard.
	assert.Equal(t, session.RouteDashboard, m.currentRoute())
}

func TestCreateCompanyFromForm(t *testing.T) {
	m, _, _, records := setupModel(t, true)

	m, _ = press(t, m, "tab", "n")
	assert.Equal(t, EntityCompanies, m.entityType)
	require.Equal(t, ViewEdit, m.viewMode)
	assert.Contains(t, m.View(), "NEW COMPANY")

	m, _ = press(t, m, "Acme", "tab", "Manufacturing")
	m, cmd := press(t, m, "enter")
	assert.Equal(t, ViewList, m.viewMode)

	m = finish(t, m, cmd)
	require.NoError(t, m.err)
	assert.Equal(t, "Saved company", m.notice)

	companies := records.Snapshot().Companies
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
	assert.Equal(t, "Manufacturing", models.StringValue(companies[0].Industry))
}

func TestCreateFormRejectsMissingName(t *testing.T) {
	m, _, _, records := setupModel(t, true)

	m, _ = press(t, m, "n")
	assert.Equal(t, formContact, m.formKind)

	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.err, models.ErrRequired)
	assert.Equal(t, ViewEdit, m.viewMode)
	assert.Empty(t, records.Snapshot().Contacts)

	m, _ = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
}

func TestDeleteWithConfirmation(t *testing.T) {
	ctx := context.Background()
	m, _, _, records := setupModel(t, true)
	require.NoError(t, records.AddCompany(ctx, models.CompanyInput{Name: models.Ptr("Acme")}))

	m, _ = press(t, m, "tab", "d")
	require.Equal(t, ViewConfirmDelete, m.viewMode)

	m, cmd := press(t, m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, ViewList, m.viewMode)
	assert.Len(t, records.Snapshot().Companies, 1)

	m, _ = press(t, m, "d")
	m, cmd = press(t, m, "y")
	m = finish(t, m, cmd)
	require.NoError(t, m.err)
	assert.True(t, strings.HasPrefix(m.notice, "Deleted company"))
	assert.Empty(t, records.Snapshot().Companies)
}

func TestPipelineShiftStage(t *testing.T) {
	ctx := context.Background()
	m, _, _, records := setupModel(t, true)
	require.NoError(t, records.AddDeal(ctx, models.DealInput{Title: models.Ptr("Big"), Value: models.Ptr(1000.0)}))

	m.switchTab(EntityPipeline)
	m, cmd := press(t, m, "]")
	m = finish(t, m, cmd)
	require.NoError(t, m.err)

	deals := records.Snapshot().Deals
	require.Len(t, deals, 1)
	assert.Equal(t, models.StageQualification, deals[0].Stage)
	assert.Equal(t, 25, deals[0].Probability)

	// The first open stage has nowhere to go back to.
	m, cmd = press(t, m, "[")
	m = finish(t, m, cmd)
	_, cmd = press(t, m, "[")
	assert.Nil(t, cmd)
	assert.Equal(t, models.StageProspecting, records.Snapshot().Deals[0].Stage)
}

func TestGraphView(t *testing.T) {
	ctx := context.Background()
	m, _, _, records := setupModel(t, true)
	require.NoError(t, records.AddDeal(ctx, models.DealInput{Title: models.Ptr("Big")}))

	m, _ = press(t, m, "g")
	require.Equal(t, ViewGraph, m.viewMode)
	assert.Contains(t, m.graphDOT, "digraph")

	m, _ = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Empty(t, m.graphDOT)
}

func TestProjectTaskToggle(t *testing.T) {
	ctx := context.Background()
	m, _, _, records := setupModel(t, true)
	require.NoError(t, records.AddProject(ctx, models.ProjectInput{Name: models.Ptr("Site")}))

	m.switchTab(EntityProjects)
	m, cmd := press(t, m, "enter")
	require.Equal(t, ViewDetail, m.viewMode)
	m = finish(t, m, cmd)

	m, _ = press(t, m, "a")
	require.Equal(t, formTask, m.formKind)
	m, _ = press(t, m, "Write docs")
	m, cmd = press(t, m, "enter")
	assert.Equal(t, ViewDetail, m.viewMode)
	m = finish(t, m, cmd)
	require.NoError(t, m.err)

	tasks := records.Snapshot().ProjectTasks
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskTodo, tasks[0].Status)

	m, cmd = press(t, m, " ")
	m = finish(t, m, cmd)
	require.NoError(t, m.err)
	assert.Equal(t, models.TaskDone, records.Snapshot().ProjectTasks[0].Status)
}

func TestNavigatorQueuesUntilAttached(t *testing.T) {
	nav := &Navigator{}
	nav.Navigate(session.RouteLogin)

	nav.mu.Lock()
	defer nav.mu.Unlock()
	assert.Equal(t, []session.Route{session.RouteLogin}, nav.pending)
}
