package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"crmdesk/internal/session"
)

const loginBanner = `   __________  __  ___    ____  ___________ __ __
  / ____/ __ \/  |/  /___/ __ \/ ____/ ___// //_/
 / /   / /_/ / /|_/ /___/ / / / __/  \__ \/ ,<
/ /___/ _, _/ /  / /___/ /_/ / /___ ___/ / /| |
\____/_/ |_/_/  /_/   /_____/_____//____/_/ |_|
`

type loginField int

const (
	loginFieldEmail loginField = iota
	loginFieldPassword
	loginFieldKeep
)

type loginModel struct {
	email        textinput.Model
	password     textinput.Model
	focus        loginField
	keepSignedIn bool
	submitting   bool
	err          string
	info         string
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "Email"
	email.CharLimit = 96
	email.Focus()

	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "Password"
	password.CharLimit = 96
	password.EchoMode = textinput.EchoPassword

	return loginModel{email: email, password: password}
}

func (m *model) updateLogin(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd

	if result, ok := msg.(loginResultMsg); ok {
		m.login.submitting = false
		if result.err != nil {
			if errors.Is(result.err, session.ErrInvalidCredentials) {
				m.login.err = "Invalid email or password"
			} else {
				m.login.err = "Could not sign in, check your connection"
			}
			return nil
		}
		m.resetMessages()
		m.state = stateMainMenu
		return batchCmds([]tea.Cmd{
			m.setMenuInput("Choose an option", 32),
			m.startListener(),
		})
	}

	if m.login.submitting {
		return nil
	}

	var cmd tea.Cmd
	switch m.login.focus {
	case loginFieldEmail:
		m.login.email, cmd = m.login.email.Update(msg)
	case loginFieldPassword:
		m.login.password, cmd = m.login.password.Update(msg)
	}
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyTab, tea.KeyDown:
			cmds = append(cmds, m.loginFocus(m.login.focus+1))
		case tea.KeyShiftTab, tea.KeyUp:
			cmds = append(cmds, m.loginFocus(m.login.focus-1))
		case tea.KeySpace:
			if m.login.focus == loginFieldKeep {
				m.login.keepSignedIn = !m.login.keepSignedIn
			}
		case tea.KeyEnter:
			if m.login.focus != loginFieldKeep {
				cmds = append(cmds, m.loginFocus(m.login.focus+1))
				break
			}
			cmds = append(cmds, m.submitLogin())
		}
	}
	return batchCmds(cmds)
}

func (m *model) loginFocus(next loginField) tea.Cmd {
	if next < loginFieldEmail {
		next = loginFieldKeep
	}
	if next > loginFieldKeep {
		next = loginFieldEmail
	}
	m.login.focus = next
	m.login.email.Blur()
	m.login.password.Blur()
	switch next {
	case loginFieldEmail:
		return m.login.email.Focus()
	case loginFieldPassword:
		return m.login.password.Focus()
	}
	return nil
}

func (m *model) submitLogin() tea.Cmd {
	email := strings.TrimSpace(m.login.email.Value())
	password := m.login.password.Value()
	if email == "" || password == "" {
		m.login.err = "Email and password are required"
		return nil
	}
	m.login.err = ""
	m.login.info = ""
	m.login.submitting = true
	keep := m.login.keepSignedIn
	mgr := m.deps.Session
	ctx := m.screenCtx()
	return func() tea.Msg {
		return loginResultMsg{err: mgr.Login(ctx, email, password, keep)}
	}
}

func (m *model) viewLogin() string {
	check := "[ ]"
	if m.login.keepSignedIn {
		check = "[x]"
	}
	focusMark := func(f loginField) string {
		if m.login.focus == f {
			return m.theme.Accent.Render("> ")
		}
		return "  "
	}
	lines := []string{
		loginBanner,
		m.theme.Title.Render("Sign in"),
		"",
		focusMark(loginFieldEmail) + m.theme.Primary.Render("Email: ") + m.login.email.View(),
		focusMark(loginFieldPassword) + m.theme.Primary.Render("Password: ") + m.login.password.View(),
		focusMark(loginFieldKeep) + m.theme.Secondary.Render(check+" Keep me signed in (space to toggle, enter to submit)"),
	}
	if m.login.submitting {
		lines = append(lines, "", m.theme.Faint.Render("Signing in..."))
	}
	if m.login.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.login.err))
	}
	if m.login.info != "" {
		lines = append(lines, "", m.theme.Warning.Render(m.login.info))
	}
	return strings.Join(lines, "\n") + "\n"
}
