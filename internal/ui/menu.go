package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"crmdesk/internal/theme"
)

const (
	menuDashboard = "dashboard"
	menuSettings  = "settings"
	menuQuit      = "quit"
)

// resolveMenuSelection maps typed input onto a menu id: exact number or
// name first, then unique prefix.
func (m *model) resolveMenuSelection(input string) (string, bool) {
	value := strings.TrimSpace(strings.ToLower(input))
	if value == "" {
		return "", false
	}
	ids := m.menuIDs()
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 1 && n <= len(ids) {
			return ids[n-1], true
		}
		return "", false
	}
	for _, id := range ids {
		if value == id {
			return id, true
		}
	}
	var match string
	count := 0
	for _, id := range ids {
		if strings.HasPrefix(id, value) {
			match = id
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return "", false
}

func (m *model) menuIDs() []string {
	ids := []string{menuDashboard}
	ids = append(ids, m.paneOrder...)
	ids = append(ids, menuSettings, menuQuit)
	return ids
}

func (m *model) updateMainMenu(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		choice := m.menuInput.Value()
		m.menuInput.SetValue("")
		action, ok := m.resolveMenuSelection(choice)
		if !ok {
			if strings.TrimSpace(choice) != "" {
				m.errMessage = "Unknown choice"
			}
			return batchCmds(cmds)
		}
		m.resetMessages()
		switch action {
		case menuDashboard:
			m.pushState(stateDashboard)
			cmds = append(cmds, m.loadDashboardCmd())
			if focus := m.setMenuInput("Command (r=refresh, /, exit.)", 48); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuSettings:
			m.pushState(stateSettings)
			if focus := m.setMenuInput("1=Toggle theme  2=Sign out  3=Back", 40); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuQuit:
			cmds = append(cmds, tea.Quit)
		default:
			if p, ok := m.panes[action]; ok {
				m.activeKey = action
				m.pushState(stateEntity)
				cmds = append(cmds, p.open(m))
			}
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewMainMenu() string {
	lines := []string{m.theme.Title.Render("CRM-Desk")}
	if user := m.deps.Session.User(); user != nil {
		lines = append(lines, m.theme.Secondary.Render(fmt.Sprintf("Signed in as %s", user.Name)))
	}
	if m.infoMessage != "" {
		lines = append(lines, m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, m.theme.Danger.Render(m.errMessage))
	}
	lines = append(lines, "")
	for i, id := range m.menuIDs() {
		label := strings.ToUpper(id[:1]) + id[1:]
		if p, ok := m.panes[id]; ok {
			label = p.title()
		}
		lines = append(lines, m.theme.Primary.Render(fmt.Sprintf("%d. %s", i+1, label)))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) updateSettings(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
		m.menuInput.SetValue("")
		switch choice {
		case "1", "theme", "toggle":
			m.darkMode = !m.darkMode
			m.theme = theme.ForMode(m.darkMode)
			if err := m.deps.Store.SetDarkMode(m.sameScreenCtx(), m.darkMode); err != nil {
				m.errMessage = "Could not save preference"
			}
		case "2", "sign out", "signout", "logout":
			mgr := m.deps.Session
			ctx := m.screenCtx()
			cmds = append(cmds, func() tea.Msg {
				mgr.Logout(ctx)
				return logoutDoneMsg{}
			})
		case "3", "back", "/":
			m.popState()
			if m.state == stateMainMenu {
				if focus := m.setMenuInput("Choose an option", 32); focus != nil {
					cmds = append(cmds, focus)
				}
			}
		case "exit.", "exit", "quit":
			m.prevStates = nil
			m.state = stateMainMenu
			if focus := m.setMenuInput("Choose an option", 32); focus != nil {
				cmds = append(cmds, focus)
			}
		default:
			if choice != "" {
				m.errMessage = "Choose 1, 2 or 3"
			}
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewSettings() string {
	mode := "dark"
	if !m.darkMode {
		mode = "light"
	}
	lines := []string{
		m.theme.Title.Render("Settings"),
		m.theme.Secondary.Render(fmt.Sprintf("1. Toggle theme (current: %s)", mode)),
		m.theme.Secondary.Render("2. Sign out"),
		m.theme.Faint.Render("3. Back"),
	}
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	lines = append(lines, "", m.theme.Accent.Render("> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}
