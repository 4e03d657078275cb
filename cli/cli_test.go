// ABOUTME: Tests for the CLI commands
// ABOUTME: Runs commands against a local-backend app with stdout and stdin swapped for buffers
package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/config"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "password123"

func newTestApp(t *testing.T, signedIn bool) *app.App {
	t.Helper()
	return newTestAppWith(t, signedIn, func(*config.Config) {})
}

func newTestAppWith(t *testing.T, signedIn bool, adjust func(*config.Config)) *app.App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Backend:   config.BackendLocal,
		DBPath:    filepath.Join(dir, "ancora.db"),
		KVPath:    filepath.Join(dir, "kv"),
		LogLevel:  "error",
		LogFormat: "console",
	}
	adjust(cfg)

	a, err := app.New(cfg, app.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	a.Bootstrap(ctx, session.HydrationTimeout)
	if signedIn {
		outcome, err := a.Session.SignUp(ctx, "owner@example.com", testPassword, "Olive Owner")
		require.NoError(t, err)
		require.Equal(t, session.SignUpComplete, outcome)
	}
	return a
}

// capture redirects command output for the rest of the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func feed(t *testing.T, input string) {
	t.Helper()
	prev := stdin
	stdin = strings.NewReader(input)
	t.Cleanup(func() { stdin = prev })
}

func TestCommandsRequireUser(t *testing.T) {
	a := newTestApp(t, false)
	capture(t)

	assert.ErrorIs(t, ListContactsCommand(a, nil), ErrNotSignedIn)
	assert.ErrorIs(t, AddDealCommand(a, []string{"--title", "Big"}), ErrNotSignedIn)
	assert.ErrorIs(t, DashboardCommand(a, nil), ErrNotSignedIn)
}

func TestAuthCommands(t *testing.T) {
	a := newTestApp(t, false)
	out := capture(t)

	feed(t, "longenough\nlongenough\n")
	require.NoError(t, RegisterCommand(a, []string{"--email", "ann@example.com", "--name", "Ann Lee"}))
	assert.Contains(t, out.String(), "Account created and signed in as Ann Lee")

	out.Reset()
	require.NoError(t, WhoamiCommand(a, nil))
	assert.Contains(t, out.String(), "Ann Lee <ann@example.com>")

	out.Reset()
	require.NoError(t, LogoutCommand(a, nil))
	assert.Nil(t, a.Session.Snapshot().User)
	require.NoError(t, WhoamiCommand(a, nil))
	assert.Contains(t, out.String(), "Not signed in")

	out.Reset()
	feed(t, "longenough\n")
	require.NoError(t, LoginCommand(a, []string{"--email", "ann@example.com"}))
	assert.Contains(t, out.String(), "Signed in as Ann Lee")

	feed(t, "wrong-password\n")
	assert.Error(t, LoginCommand(a, []string{"--email", "ann@example.com"}))
	assert.Error(t, LoginCommand(a, nil))
}

func TestConfirmCommandCompletesPendingSignUp(t *testing.T) {
	a := newTestAppWith(t, false, func(cfg *config.Config) { cfg.ConfirmEmail = true })
	out := capture(t)

	feed(t, "longenough\nlongenough\n")
	require.NoError(t, RegisterCommand(a, []string{"--email", "ann@example.com", "--name", "Ann Lee"}))
	assert.Contains(t, out.String(), "Check ann@example.com to confirm it")
	assert.Nil(t, a.Session.Snapshot().User)

	feed(t, "longenough\n")
	assert.Error(t, LoginCommand(a, []string{"--email", "ann@example.com"}))

	out.Reset()
	require.NoError(t, ConfirmCommand(a, []string{"ann@example.com"}))
	assert.Contains(t, out.String(), "Confirmed ann@example.com")

	out.Reset()
	feed(t, "longenough\n")
	require.NoError(t, LoginCommand(a, []string{"--email", "ann@example.com"}))
	assert.Contains(t, out.String(), "Signed in as Ann Lee")
	require.NotNil(t, a.Session.Snapshot().User)
	assert.Equal(t, "ann@example.com", a.Session.Snapshot().User.Email)
}

func TestConfirmCommandErrors(t *testing.T) {
	a := newTestApp(t, false)
	capture(t)

	assert.Error(t, ConfirmCommand(a, nil))
	assert.Error(t, ConfirmCommand(a, []string{"--email", "nobody@example.com"}))

	a.Local = nil
	err := ConfirmCommand(a, []string{"ann@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only available with the local backend")
}

func TestWhoamiSyncReportsLocalKeys(t *testing.T) {
	a := newTestApp(t, true)
	out := capture(t)

	require.NoError(t, WhoamiCommand(a, []string{"--sync"}))
	assert.Contains(t, out.String(), "No charm host configured; 2 keys stored locally")
	assert.Contains(t, out.String(), "Olive Owner <owner@example.com>")
}

func TestRegisterRejectsMismatchedPasswords(t *testing.T) {
	a := newTestApp(t, false)
	capture(t)

	feed(t, "longenough\ndifferent1\n")
	err := RegisterCommand(a, []string{"--email", "ann@example.com", "--name", "Ann Lee"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
	assert.Nil(t, a.Session.Snapshot().User)
}

func TestContactAndCompanyCommands(t *testing.T) {
	a := newTestApp(t, true)
	out := capture(t)

	require.NoError(t, AddContactCommand(a, []string{
		"--first", "Jane", "--last", "Doe", "--email", "jane@acme.com", "--company", "Acme",
	}))
	assert.Contains(t, out.String(), "Created company: Acme")
	assert.Contains(t, out.String(), "✓ Contact created: Jane Doe")

	// A second contact reuses the company regardless of case.
	out.Reset()
	require.NoError(t, AddContactCommand(a, []string{"--first", "Bob", "--last", "Ray", "--company", "acme"}))
	assert.NotContains(t, out.String(), "Created company")
	assert.Len(t, a.Records.Snapshot().Companies, 1)

	out.Reset()
	require.NoError(t, ListContactsCommand(a, []string{"--query", "jane"}))
	assert.Contains(t, out.String(), "Jane Doe")
	assert.NotContains(t, out.String(), "Bob Ray")
	assert.Contains(t, out.String(), "Total: 1 contact(s)")

	out.Reset()
	company := a.Records.Snapshot().Companies[0]
	require.NoError(t, ShowCompanyCommand(a, []string{company.ID.String()}))
	assert.Contains(t, out.String(), "Contacts (2)")

	out.Reset()
	require.NoError(t, UpdateCompanyCommand(a, []string{"--industry", "Manufacturing", company.ID.String()}))
	updated, ok := a.Records.GetCompany(company.ID)
	require.True(t, ok)
	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, "Manufacturing", models.StringValue(updated.Industry))

	out.Reset()
	require.NoError(t, ListCompaniesCommand(a, []string{"--industry", "Manufacturing"}))
	assert.Contains(t, out.String(), "Acme")

	assert.Error(t, AddContactCommand(a, []string{"--first", "Solo"}))
	assert.Error(t, ShowContactCommand(a, []string{"not-a-uuid"}))
}

func TestDealCommands(t *testing.T) {
	a := newTestApp(t, true)
	out := capture(t)

	require.NoError(t, AddDealCommand(a, []string{"--title", "Big", "--value", "1000", "--stage", "proposal", "--company", "Acme"}))
	assert.Contains(t, out.String(), "✓ Deal created: Big")
	assert.Contains(t, out.String(), "Proposal (50%)")

	deals := a.Records.Snapshot().Deals
	require.Len(t, deals, 1)
	deal := deals[0]
	assert.Equal(t, 50, deal.Probability)
	require.NotNil(t, deal.CompanyID)

	out.Reset()
	require.NoError(t, ListDealsCommand(a, nil))
	assert.Contains(t, out.String(), "1 deals · $1.0K total · $500 weighted")

	out.Reset()
	require.NoError(t, MoveDealCommand(a, []string{deal.ID.String(), "negotiation"}))
	assert.Contains(t, out.String(), "Negotiation (75%)")
	moved, ok := a.Records.GetDeal(deal.ID)
	require.True(t, ok)
	assert.Equal(t, models.StageNegotiation, moved.Stage)
	assert.Equal(t, 75, moved.Probability)

	out.Reset()
	require.NoError(t, ListDealsCommand(a, []string{"--board"}))
	assert.Contains(t, out.String(), "Negotiation · 1 deals")
	assert.Contains(t, out.String(), "Prospecting · 0 deals")

	out.Reset()
	require.NoError(t, ShowDealCommand(a, []string{deal.ID.String()}))
	assert.Contains(t, out.String(), "Pipeline progress")
	assert.Contains(t, out.String(), "#1 of 1 open deals")

	assert.Error(t, MoveDealCommand(a, []string{deal.ID.String(), "won"}))
	assert.Error(t, AddDealCommand(a, []string{"--title", "Bad", "--stage", "won"}))

	out.Reset()
	require.NoError(t, DeleteDealCommand(a, []string{deal.ID.String()}))
	assert.Empty(t, a.Records.Snapshot().Deals)
}

func TestProjectAndTaskCommands(t *testing.T) {
	a := newTestApp(t, true)
	out := capture(t)

	require.NoError(t, AddProjectCommand(a, []string{"--name", "Site", "--budget", "5000"}))
	projects := a.Records.Snapshot().Projects
	require.Len(t, projects, 1)
	pid := projects[0].ID.String()

	require.NoError(t, AddTaskCommand(a, []string{"--project", pid, "--title", "Write docs"}))
	tasks := a.Records.Snapshot().ProjectTasks
	require.Len(t, tasks, 1)
	assert.Equal(t, models.PriorityMedium, tasks[0].Priority)

	out.Reset()
	require.NoError(t, ToggleTaskCommand(a, []string{"--project", pid, tasks[0].ID.String()}))
	assert.Contains(t, out.String(), "Write docs → Done (project 100% complete)")

	out.Reset()
	require.NoError(t, ShowProjectCommand(a, []string{pid}))
	assert.Contains(t, out.String(), "Progress: 100% (1/1 tasks completed)")

	out.Reset()
	require.NoError(t, DeleteTaskCommand(a, []string{"--project", pid, tasks[0].ID.String()}))
	require.NoError(t, ShowProjectCommand(a, []string{pid}))
	assert.Contains(t, out.String(), "No tasks yet")

	out.Reset()
	require.NoError(t, ListProjectsCommand(a, nil))
	assert.Contains(t, out.String(), "1 projects · 0 in progress · 1 planning")
}

func TestActivityCommands(t *testing.T) {
	a := newTestApp(t, true)
	out := capture(t)

	require.NoError(t, AddContactCommand(a, []string{"--first", "Jane", "--last", "Doe"}))
	contact := a.Records.Snapshot().Contacts[0]

	out.Reset()
	require.NoError(t, LogActivityCommand(a, []string{"--type", "call", "--subject", "Intro", "--contact", contact.ID.String()}))
	assert.Contains(t, out.String(), "✓ Logged Call: Intro")
	require.NoError(t, LogActivityCommand(a, []string{"--subject", "Unlinked"}))

	out.Reset()
	require.NoError(t, ListActivitiesCommand(a, []string{"--contact", contact.ID.String()}))
	assert.Contains(t, out.String(), "Intro")
	assert.NotContains(t, out.String(), "Unlinked")

	assert.Error(t, LogActivityCommand(a, []string{"--type", "lunch", "--subject", "x"}))
	assert.Error(t, ListActivitiesCommand(a, []string{"--deal", "nope"}))
}

func TestVizAndDashboardCommands(t *testing.T) {
	a := newTestApp(t, true)
	out := capture(t)

	require.NoError(t, AddDealCommand(a, []string{"--title", "Big", "--value", "2000", "--company", "Acme"}))
	company := a.Records.Snapshot().Companies[0]

	path := filepath.Join(t.TempDir(), "pipeline.dot")
	require.NoError(t, VizGraphPipelineCommand(a, []string{"--output", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
	assert.Contains(t, string(data), "Big")

	out.Reset()
	require.NoError(t, VizGraphCompanyCommand(a, []string{company.ID.String()}))
	assert.Contains(t, out.String(), "Acme")

	out.Reset()
	require.NoError(t, DashboardCommand(a, nil))
	assert.NotEmpty(t, out.String())

	assert.Error(t, VizGraphContactCommand(a, nil))
}
