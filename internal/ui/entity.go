package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"crmdesk/internal/api"
	"crmdesk/internal/form"
	"crmdesk/internal/table"
)

// pane is one entity screen. The concrete type is generic over the row
// type; the model only ever sees this interface.
type pane interface {
	title() string
	open(m *model) tea.Cmd
	update(m *model, msg tea.Msg) tea.Cmd
	view(m *model) string
	loadCount(ctx context.Context) (int, error)
}

type paneMode int

const (
	paneBrowsing paneMode = iota
	paneForm
	paneConfirmDelete
)

// entityConfig wires one REST collection into the generic screen.
type entityConfig[T any] struct {
	key      string
	name     string
	resource *api.Resource[T]
	columns  []table.Column[T]
	// fields builds the form field list, prefilled from an existing row
	// when editing.
	fields func(existing *T) []form.Field
	// steps optionally splits the form into a wizard.
	steps []form.Step
	// validate is the per-step hook; nil means the screen does not
	// validate before Next.
	validate form.ValidateFunc
	// fromValues turns committed form values back into a row.
	fromValues func(values map[string][]string, existing *T) (T, error)
	// parseCSV maps one positional CSV record onto a row.
	parseCSV func(record []string) (T, error)
	id       func(T) string
}

type entityPane[T any] struct {
	cfg     entityConfig[T]
	tbl     *table.Model[T]
	filter  textinput.Model
	frm     *form.Form
	mode    paneMode
	editing *T
	pending *T
	loading bool
	info    string
	err     string
}

func newEntityPane[T any](cfg entityConfig[T]) *entityPane[T] {
	filter := textinput.New()
	filter.Prompt = ""
	filter.Placeholder = "Type to search, 'help' for commands"
	filter.CharLimit = 96

	return &entityPane[T]{
		cfg:    cfg,
		tbl:    table.New(cfg.columns),
		filter: filter,
	}
}

func (p *entityPane[T]) title() string { return p.cfg.name }

func (p *entityPane[T]) loadCount(ctx context.Context) (int, error) {
	rows, err := p.cfg.resource.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (p *entityPane[T]) open(m *model) tea.Cmd {
	p.mode = paneBrowsing
	p.info = ""
	p.err = ""
	p.filter.SetValue("")
	p.tbl.SetFilter("")
	p.tbl.SetPage(0)
	focus := p.filter.Focus()
	return batchCmds([]tea.Cmd{focus, p.loadCmd(m.screenCtx())})
}

// loadCmd fetches the collection. A failed list falls back to an empty
// table with a message rather than an error screen.
func (p *entityPane[T]) loadCmd(ctx context.Context) tea.Cmd {
	p.loading = true
	resource := p.cfg.resource
	key := p.cfg.key
	return func() tea.Msg {
		rows, err := resource.List(ctx)
		if err != nil {
			return paneResultMsg{pane: key, err: err, apply: func() { p.tbl.SetRows(nil) }}
		}
		return paneResultMsg{pane: key, apply: func() { p.tbl.SetRows(rows) }}
	}
}

func (p *entityPane[T]) update(m *model, msg tea.Msg) tea.Cmd {
	if result, ok := msg.(paneResultMsg); ok {
		if result.pane != p.cfg.key {
			return nil
		}
		p.loading = false
		if result.err != nil && errors.Is(result.err, context.Canceled) {
			// A cancelled load says nothing; whatever is on screen stays.
			return nil
		}
		if result.apply != nil {
			result.apply()
		}
		if result.err != nil {
			p.err = "Failed to load or save, try again"
		} else {
			p.err = ""
		}
		if result.info != "" {
			p.info = result.info
		}
		if result.reload {
			p.mode = paneBrowsing
			return p.loadCmd(m.sameScreenCtx())
		}
		return nil
	}

	switch p.mode {
	case paneForm:
		return p.updateForm(m, msg)
	case paneConfirmDelete:
		return p.updateConfirm(m, msg)
	default:
		return p.updateBrowsing(m, msg)
	}
}

// BROWSING

func (p *entityPane[T]) updateBrowsing(m *model, msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if !p.filter.Focused() {
		if focus := p.filter.Focus(); focus != nil {
			cmds = append(cmds, focus)
		}
	}
	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			// Only recognized commands consume the input; anything else is a
			// search term and stays in place as the active filter.
			value := strings.TrimSpace(p.filter.Value())
			if p.isCommand(value) {
				p.filter.SetValue("")
				p.tbl.SetFilter("")
				if c := p.runCommand(m, value); c != nil {
					cmds = append(cmds, c)
				}
			}
			return batchCmds(cmds)
		case tea.KeyEsc:
			m.popState()
			if m.state == stateMainMenu {
				if focus := m.setMenuInput("Choose an option", 32); focus != nil {
					cmds = append(cmds, focus)
				}
			}
			return batchCmds(cmds)
		}
	}

	// Filter re-applies on every keystroke; the page is left alone on
	// purpose (resetting it is an explicit command).
	p.tbl.SetFilter(p.filter.Value())
	return batchCmds(cmds)
}

// isCommand reports whether the input names one of the browsing commands.
func (p *entityPane[T]) isCommand(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return false
	}
	if isExitCommand(lower) || isBackCommand(lower) {
		return true
	}
	word, _ := splitCommand(value)
	switch word {
	case "help", "r", "refresh", "add", "edit", "del", "delete",
		"sel", "select", "sort", "next", "n", "prev", "p", "size",
		"export", "import":
		return true
	}
	return false
}

func (p *entityPane[T]) runCommand(m *model, value string) tea.Cmd {
	lower := strings.ToLower(value)
	word, rest := splitCommand(value)

	switch {
	case value == "":
		return nil
	case isExitCommand(lower):
		m.cancelScreen()
		m.prevStates = nil
		m.state = stateMainMenu
		return m.setMenuInput("Choose an option", 32)
	case isBackCommand(lower):
		m.popState()
		if m.state == stateMainMenu {
			return m.setMenuInput("Choose an option", 32)
		}
		return nil
	case lower == "help":
		p.info = "add | edit N | del N | sel N | sel all | sort <col> | next | prev | size N | export <path> | import <path> | r"
		return nil
	case lower == "r" || lower == "refresh":
		return p.loadCmd(m.sameScreenCtx())
	case lower == "add":
		p.startForm(nil)
		return nil
	case word == "edit":
		row, ok := p.rowOnPage(rest)
		if !ok {
			p.err = "No such row on this page"
			return nil
		}
		p.startForm(&row)
		return nil
	case word == "del" || word == "delete":
		row, ok := p.rowOnPage(rest)
		if !ok {
			p.err = "No such row on this page"
			return nil
		}
		p.pending = &row
		p.mode = paneConfirmDelete
		return nil
	case word == "sel" || word == "select":
		if strings.EqualFold(rest, "all") {
			p.tbl.SelectAllFiltered()
			return nil
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			p.err = "Usage: sel <row> or sel all"
			return nil
		}
		p.tbl.ToggleSelect(n - 1)
		return nil
	case word == "sort":
		p.tbl.SortBy(strings.ToLower(rest))
		return nil
	case lower == "next" || lower == "n":
		p.tbl.NextPage()
		return nil
	case lower == "prev" || lower == "p":
		p.tbl.PrevPage()
		return nil
	case word == "size":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			p.err = "Usage: size <rows>"
			return nil
		}
		p.tbl.SetPageSize(n)
		p.tbl.SetPage(0)
		return nil
	case word == "export":
		p.exportCSV(rest)
		return nil
	case word == "import":
		p.importCSV(rest)
		return nil
	default:
		return nil
	}
}

func splitCommand(value string) (word, rest string) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	word = strings.ToLower(parts[0])
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return word, rest
}

// rowOnPage resolves a 1-based visible row number to its row value.
func (p *entityPane[T]) rowOnPage(arg string) (T, bool) {
	var empty T
	n, err := strconv.Atoi(arg)
	if err != nil {
		return empty, false
	}
	rows := p.tbl.PageRows()
	if n < 1 || n > len(rows) {
		return empty, false
	}
	return rows[n-1], true
}

func (p *entityPane[T]) exportCSV(path string) {
	if path == "" {
		p.err = "Usage: export <path>"
		return
	}
	file, err := os.Create(path)
	if err != nil {
		p.err = fmt.Sprintf("export: %v", err)
		return
	}
	defer file.Close()
	if err := p.tbl.ExportCSV(file); err != nil {
		p.err = fmt.Sprintf("export: %v", err)
		return
	}
	p.info = fmt.Sprintf("Exported %d row(s) to %s", len(p.tbl.Rows()), path)
}

func (p *entityPane[T]) importCSV(path string) {
	if path == "" {
		p.err = "Usage: import <path>"
		return
	}
	if p.cfg.parseCSV == nil {
		p.err = "Import is not supported here"
		return
	}
	file, err := os.Open(path)
	if err != nil {
		p.err = fmt.Sprintf("import: %v", err)
		return
	}
	defer file.Close()
	result, err := p.tbl.ImportCSV(file, p.cfg.parseCSV)
	if err != nil {
		p.err = fmt.Sprintf("import: %v", err)
		return
	}
	p.info = fmt.Sprintf("Imported %d row(s)", result.Added)
	if result.Skipped > 0 {
		p.err = fmt.Sprintf("Skipped %d row(s): %s", result.Skipped, strings.Join(result.Errors, "; "))
	}
}

// FORM

func (p *entityPane[T]) startForm(existing *T) {
	p.editing = existing
	title := "Add " + strings.TrimSuffix(p.cfg.name, "s")
	if existing != nil {
		title = "Edit " + strings.TrimSuffix(p.cfg.name, "s")
	}
	p.frm = form.New(title, p.cfg.fields(existing), p.cfg.steps)
	if p.cfg.validate != nil {
		p.frm.SetValidate(p.cfg.validate)
	}
	p.mode = paneForm
	p.err = ""
	p.info = ""
}

func (p *entityPane[T]) updateForm(m *model, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		p.frm.UpdateInput(msg)
		return nil
	}

	field := p.frm.ActiveField()
	switch key.Type {
	case tea.KeyEsc:
		p.mode = paneBrowsing
		p.frm = nil
		p.editing = nil
		return nil
	case tea.KeyUp:
		if field != nil && field.Kind == form.Select {
			p.frm.CycleOption(-1)
			return nil
		}
		p.frm.PrevField()
		return nil
	case tea.KeyDown:
		if field != nil && field.Kind == form.Select {
			p.frm.CycleOption(1)
			return nil
		}
		done, err := p.frm.NextField()
		return p.afterAdvance(m, done, err)
	case tea.KeySpace:
		if field != nil && field.Kind == form.Select {
			p.frm.ToggleOption()
			return nil
		}
	case tea.KeyShiftTab:
		p.frm.PrevField()
		return nil
	case tea.KeyTab:
		done, err := p.frm.NextField()
		return p.afterAdvance(m, done, err)
	case tea.KeyEnter:
		done, err := p.frm.NextField()
		return p.afterAdvance(m, done, err)
	}

	p.frm.UpdateInput(msg)
	return nil
}

func (p *entityPane[T]) afterAdvance(m *model, done bool, err error) tea.Cmd {
	if err != nil {
		p.err = err.Error()
		return nil
	}
	p.err = ""
	if !done {
		return nil
	}
	return p.submitForm(m)
}

func (p *entityPane[T]) submitForm(m *model) tea.Cmd {
	values := p.frm.Values()
	record, err := p.cfg.fromValues(values, p.editing)
	if err != nil {
		p.err = err.Error()
		return nil
	}

	resource := p.cfg.resource
	key := p.cfg.key
	editing := p.editing
	idFn := p.cfg.id
	ctx := m.sameScreenCtx()
	p.loading = true
	return func() tea.Msg {
		var opErr error
		info := "Record created"
		if editing != nil {
			_, opErr = resource.Update(ctx, idFn(*editing), record)
			info = "Record updated"
		} else {
			_, opErr = resource.Create(ctx, record)
		}
		if opErr != nil {
			return paneResultMsg{pane: key, err: opErr}
		}
		return paneResultMsg{pane: key, info: info, reload: true}
	}
}

// DELETE CONFIRMATION

func (p *entityPane[T]) updateConfirm(m *model, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch strings.ToLower(key.String()) {
	case "y":
		row := *p.pending
		p.pending = nil
		p.mode = paneBrowsing
		resource := p.cfg.resource
		paneKey := p.cfg.key
		id := p.cfg.id(row)
		ctx := m.sameScreenCtx()
		p.loading = true
		return func() tea.Msg {
			if err := resource.Delete(ctx, id); err != nil {
				return paneResultMsg{pane: paneKey, err: err}
			}
			return paneResultMsg{pane: paneKey, info: "Record deleted", reload: true}
		}
	case "n", "esc":
		p.pending = nil
		p.mode = paneBrowsing
	}
	return nil
}
