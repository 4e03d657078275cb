// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen CRM client gated by the session guard and fed by the record cache
package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/ancora/session"
	"github.com/harperreed/ancora/store"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
)

// EntityType represents the tab being viewed
type EntityType int

const (
	EntityContacts EntityType = iota
	EntityCompanies
	EntityDeals
	EntityProjects
	EntityPipeline
	entityCount
)

var tabNames = []string{"Contacts", "Companies", "Deals", "Projects", "Pipeline"}

// stateMsg is sent whenever the session or record cache changes.
type stateMsg struct{}

// routeMsg carries a navigation request from the guard.
type routeMsg session.Route

// doneMsg reports the outcome of a background write.
type doneMsg struct {
	err    error
	notice string
}

// Model is the main bubbletea model
type Model struct {
	ctx     context.Context
	session *session.Store
	guard   *session.Guard
	records *store.Store

	route      session.Route
	viewMode   ViewMode
	entityType EntityType

	// List view state
	selectedRow int
	searching   bool
	search      textinput.Model
	filterIndex int

	// Detail view state
	selectedID uuid.UUID
	taskRow    int

	// Edit view state
	formKind   formKind
	formInputs []textinput.Model
	focusIndex int

	// Graph view state
	graphDOT string

	auth authForm

	width  int
	height int
	notice string
	err    error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, sess *session.Store, guard *session.Guard, records *store.Store) Model {
	search := textinput.New()
	search.Placeholder = "Search"
	search.CharLimit = 100

	return Model{
		ctx:        ctx,
		session:    sess,
		guard:      guard,
		records:    records,
		route:      session.RouteDashboard,
		viewMode:   ViewList,
		entityType: EntityContacts,
		search:     search,
		auth:       newAuthForm(false),
		width:      80,
		height:     24,
	}
}

// Navigator forwards guard navigation into a running program. It is
// safe to use before the program is attached.
type Navigator struct {
	mu      sync.Mutex
	program *tea.Program
	pending []session.Route
}

func (n *Navigator) Navigate(route session.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.program == nil {
		n.pending = append(n.pending, route)
		return
	}
	n.program.Send(routeMsg(route))
}

func (n *Navigator) attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
	for _, route := range n.pending {
		go p.Send(routeMsg(route))
	}
	n.pending = nil
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, sess *session.Store, guard *session.Guard, records *store.Store, nav *Navigator) error {
	p := tea.NewProgram(NewModel(ctx, sess, guard, records), tea.WithAltScreen(), tea.WithContext(ctx))
	if nav != nil {
		nav.attach(p)
	}

	unsubSession := sess.Subscribe(func(session.State) { go p.Send(stateMsg{}) })
	defer unsubSession()
	unsubRecords := records.Subscribe(func(store.State) { go p.Send(stateMsg{}) })
	defer unsubRecords()

	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refresh())
}

// refresh re-fetches every collection when signed in.
func (m Model) refresh() tea.Cmd {
	if !m.session.Snapshot().Authenticated() {
		return nil
	}
	return func() tea.Msg {
		m.records.FetchAll(m.ctx)
		return stateMsg{}
	}
}

// write runs fn in the background and reports its outcome.
func (m Model) write(notice string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: fn(m.ctx), notice: notice}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case routeMsg:
		m.route = session.Route(msg)
		if m.route.IsAuthRoute() {
			m.auth = newAuthForm(m.route == session.RouteRegister)
			m.viewMode = ViewList
		}
		return m, nil
	case authDoneMsg:
		return m.handleAuthDone(msg)
	case doneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.notice = msg.notice
		}
		return m, nil
	case stateMsg:
		return m, nil
	}
	return m, nil
}

// currentRoute is the route the guard allows for the requested one.
func (m Model) currentRoute() session.Route {
	return m.guard.Resolve(m.route)
}

func (m Model) View() string {
	switch route := m.currentRoute(); route {
	case session.RouteLoading:
		return titleStyle.Render("ANCORA") + "\n\nLoading session..."
	case session.RouteLogin, session.RouteRegister:
		return m.renderAuthView(route == session.RouteRegister)
	}

	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch route := m.currentRoute(); route {
	case session.RouteLoading:
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	case session.RouteLogin, session.RouteRegister:
		return m.handleAuthKeys(msg, route == session.RouteRegister)
	}

	// Text entry owns every other key.
	if m.viewMode == ViewEdit {
		return m.handleEditKeys(msg)
	}
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	if msg.String() == "q" {
		return m, tea.Quit
	}

	m.err = nil
	m.notice = ""
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	case m.notice != "":
		return noticeStyle.Render(m.notice)
	}
	return ""
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)
