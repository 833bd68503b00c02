package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"crmdesk/internal/api"
	"crmdesk/internal/notify"
	"crmdesk/internal/session"
	"crmdesk/internal/storage"
	"crmdesk/internal/theme"
)

// Program wraps the Bubble Tea program lifecycle.
type Program struct {
	program *tea.Program
}

// Deps carries everything the UI needs.
type Deps struct {
	Session   *session.Manager
	Resources *api.Resources
	Store     *storage.Store
	Listener  *notify.Listener
}

// NewProgram constructs a new interactive dashboard session.
func NewProgram(deps Deps) *Program {
	m := newModel(deps)
	p := tea.NewProgram(m)
	deps.Session.Subscribe(func() {
		p.Send(sessionInvalidMsg{})
	})
	return &Program{program: p}
}

// Start launches the program. The notification feed is owned by the model:
// it dials once a session exists, not before.
func (p *Program) Start() error {
	if p == nil || p.program == nil {
		return fmt.Errorf("nil program")
	}
	return p.program.Start()
}

type viewState int

const (
	stateLogin viewState = iota
	stateMainMenu
	stateDashboard
	stateEntity
	stateSettings
)

// Messages delivered back into the update loop.
type (
	sessionInvalidMsg  struct{}
	notificationMsg    struct{ event notify.Event }
	listenerStoppedMsg struct{}
	loginResultMsg     struct{ err error }
	logoutDoneMsg      struct{}
	dashboardMsg       struct {
		counts map[string]int
		err    error
	}
	// paneResultMsg carries the outcome of an entity load or mutation. The
	// apply closure owns the typed rows so the message itself stays untyped.
	paneResultMsg struct {
		pane   string
		info   string
		err    error
		apply  func()
		reload bool
	}
)

type model struct {
	state      viewState
	prevStates []viewState
	deps       Deps
	theme      theme.Theme
	darkMode   bool
	width      int
	height     int

	infoMessage string
	errMessage  string

	menuInput textinput.Model

	login     loginModel
	panes     map[string]pane
	paneOrder []string
	activeKey string

	dashboard dashboardModel

	// The notification stream runs only while a session exists.
	events       chan notify.Event
	listening    bool
	listenerStop context.CancelFunc

	// screenCancel tears down the context of the screen being left so its
	// in-flight loads are abandoned instead of landing on a gone screen.
	screenCtxVal context.Context
	screenCancel context.CancelFunc
}

func newModel(deps Deps) *model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Choose an option"
	ti.CharLimit = 32
	ti.Focus()

	dark := deps.Store.DarkMode(context.Background())

	m := model{
		state:     stateLogin,
		deps:      deps,
		theme:     theme.ForMode(dark),
		darkMode:  dark,
		menuInput: ti,
		login:     newLoginModel(),
	}
	m.panes, m.paneOrder = buildPanes(deps.Resources)
	if deps.Session.Authenticated() {
		m.state = stateMainMenu
	}
	return &m
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.state != stateLogin {
		cmds = append(cmds, m.startListener())
	}
	return batchCmds(cmds)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case sessionInvalidMsg:
		if m.state != stateLogin {
			m.resetToLogin("Session expired, please sign in again")
		}
		return m, nil
	case logoutDoneMsg:
		m.resetToLogin("Signed out")
		return m, nil
	case notificationMsg:
		m.dashboard.push(msg.event)
		return m, waitForNotification(m.events)
	case listenerStoppedMsg:
		m.listening = false
		return m, nil
	case paneResultMsg:
		// Pane results are routed by key so a response cannot land on the
		// wrong screen after navigation.
		if p, ok := m.panes[msg.pane]; ok {
			return m, p.update(m, msg)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateLogin:
		cmd = m.updateLogin(msg)
	case stateMainMenu:
		cmd = m.updateMainMenu(msg)
	case stateDashboard:
		cmd = m.updateDashboard(msg)
	case stateEntity:
		cmd = m.updateEntity(msg)
	case stateSettings:
		cmd = m.updateSettings(msg)
	default:
		m.state = stateMainMenu
		cmd = m.updateMainMenu(msg)
	}
	return m, cmd
}

func (m *model) View() string {
	switch m.state {
	case stateLogin:
		return m.viewLogin()
	case stateMainMenu:
		return m.viewMainMenu()
	case stateDashboard:
		return m.viewDashboard()
	case stateEntity:
		return m.viewEntity()
	case stateSettings:
		return m.viewSettings()
	default:
		return ""
	}
}

// Navigation helpers
func (m *model) pushState(next viewState) {
	m.prevStates = append(m.prevStates, m.state)
	m.state = next
}

func (m *model) popState() {
	m.cancelScreen()
	if len(m.prevStates) == 0 {
		m.state = stateMainMenu
		return
	}
	idx := len(m.prevStates) - 1
	m.state = m.prevStates[idx]
	m.prevStates = m.prevStates[:idx]
}

func (m *model) resetMessages() {
	m.errMessage = ""
	m.infoMessage = ""
}

func (m *model) resetToLogin(message string) {
	m.cancelScreen()
	m.stopListener()
	m.prevStates = nil
	m.state = stateLogin
	m.login = newLoginModel()
	m.login.info = message
	m.activeKey = ""
}

// startListener dials the notification stream with the session's token. It
// is a no-op without a configured listener or while one is already running.
func (m *model) startListener() tea.Cmd {
	if m.deps.Listener == nil || m.listening {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.listenerStop = cancel
	m.listening = true
	ch := make(chan notify.Event, 16)
	m.events = ch
	go m.deps.Listener.Listen(ctx, ch)
	return waitForNotification(ch)
}

func (m *model) stopListener() {
	if m.listenerStop != nil {
		m.listenerStop()
		m.listenerStop = nil
	}
	m.listening = false
}

// waitForNotification blocks on the event channel as a command, re-armed
// after every delivered notification.
func waitForNotification(ch <-chan notify.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return listenerStoppedMsg{}
		}
		return notificationMsg{event: event}
	}
}

// screenCtx returns a context scoped to the current screen, cancelling the
// previous screen's context first.
func (m *model) screenCtx() context.Context {
	m.cancelScreen()
	m.screenCtxVal, m.screenCancel = context.WithCancel(context.Background())
	return m.screenCtxVal
}

// sameScreenCtx returns the current screen context without rotating it, for
// follow-up requests issued from the screen that created it.
func (m *model) sameScreenCtx() context.Context {
	if m.screenCtxVal == nil {
		m.screenCtxVal, m.screenCancel = context.WithCancel(context.Background())
	}
	return m.screenCtxVal
}

func (m *model) cancelScreen() {
	if m.screenCancel != nil {
		m.screenCancel()
		m.screenCancel = nil
		m.screenCtxVal = nil
	}
}

func (m *model) setMenuInput(placeholder string, limit int) tea.Cmd {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = placeholder
	if limit > 0 {
		input.CharLimit = limit
	}
	cmd := input.Focus()
	m.menuInput = input
	return cmd
}

func batchCmds(cmds []tea.Cmd) tea.Cmd {
	filtered := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return tea.Batch(filtered...)
	}
}

func isExitCommand(value string) bool {
	v := strings.TrimSpace(strings.ToLower(value))
	return v == "exit." || v == "quit"
}

func isBackCommand(value string) bool {
	v := strings.TrimSpace(strings.ToLower(value))
	return v == "/" || v == "back"
}
