package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"crmdesk/internal/notify"
)

const maxDashboardEvents = 20

type dashboardModel struct {
	counts  map[string]int
	events  []notify.Event
	loading bool
	err     string
}

// push prepends a notification, newest first.
func (d *dashboardModel) push(event notify.Event) {
	d.events = append([]notify.Event{event}, d.events...)
	if len(d.events) > maxDashboardEvents {
		d.events = d.events[:maxDashboardEvents]
	}
}

func (m *model) loadDashboardCmd() tea.Cmd {
	m.dashboard.loading = true
	m.dashboard.err = ""
	ctx := m.screenCtx()
	panes := make([]pane, 0, len(m.paneOrder))
	keys := make([]string, 0, len(m.paneOrder))
	for _, key := range m.paneOrder {
		panes = append(panes, m.panes[key])
		keys = append(keys, key)
	}
	return func() tea.Msg {
		counts := make(map[string]int, len(panes))
		var firstErr error
		for i, p := range panes {
			n, err := p.loadCount(ctx)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			counts[keys[i]] = n
		}
		return dashboardMsg{counts: counts, err: firstErr}
	}
}

func (m *model) updateDashboard(msg tea.Msg) tea.Cmd {
	if result, ok := msg.(dashboardMsg); ok {
		m.dashboard.loading = false
		m.dashboard.counts = result.counts
		if result.err != nil {
			m.dashboard.err = "Some counts failed to load"
		}
		return nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		value := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
		m.menuInput.SetValue("")
		switch {
		case isExitCommand(value):
			m.cancelScreen()
			m.prevStates = nil
			m.state = stateMainMenu
			if focus := m.setMenuInput("Choose an option", 32); focus != nil {
				cmds = append(cmds, focus)
			}
		case isBackCommand(value):
			m.popState()
			if m.state == stateMainMenu {
				if focus := m.setMenuInput("Choose an option", 32); focus != nil {
					cmds = append(cmds, focus)
				}
			}
		case value == "r" || value == "refresh":
			cmds = append(cmds, m.loadDashboardCmd())
		case value != "":
			m.dashboard.err = "Commands: r=refresh, / back, exit."
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewDashboard() string {
	lines := []string{m.theme.Title.Render("Dashboard")}

	lines = append(lines, "", m.theme.Subtitle.Render("Records"))
	if m.dashboard.loading {
		lines = append(lines, m.theme.Faint.Render("Loading..."))
	} else if len(m.dashboard.counts) == 0 {
		lines = append(lines, m.theme.Faint.Render("No data."))
	} else {
		for _, key := range m.paneOrder {
			if n, ok := m.dashboard.counts[key]; ok {
				label := m.panes[key].title()
				lines = append(lines, m.theme.Primary.Render(fmt.Sprintf("%-12s %d", label, n)))
			}
		}
	}

	lines = append(lines, "", m.theme.Subtitle.Render("Notifications"))
	if len(m.dashboard.events) == 0 {
		lines = append(lines, m.theme.Faint.Render("Nothing yet."))
	} else {
		for _, event := range m.dashboard.events {
			stamp := event.CreatedAt.Format("Jan 02 15:04")
			lines = append(lines, m.theme.Secondary.Render(fmt.Sprintf("[%s] %s (%s)", event.Type, event.Message, stamp)))
		}
	}

	if m.dashboard.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.dashboard.err))
	}
	lines = append(lines, "", m.theme.Accent.Render("> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}
