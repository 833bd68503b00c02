package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m *model) updateEntity(msg tea.Msg) tea.Cmd {
	p, ok := m.panes[m.activeKey]
	if !ok {
		m.state = stateMainMenu
		return nil
	}
	return p.update(m, msg)
}

func (m *model) viewEntity() string {
	p, ok := m.panes[m.activeKey]
	if !ok {
		return ""
	}
	return p.view(m)
}
