package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"crmdesk/internal/form"
	"crmdesk/internal/table"
)

const maxCellWidth = 28

func (p *entityPane[T]) view(m *model) string {
	switch p.mode {
	case paneForm:
		return p.viewForm(m)
	case paneConfirmDelete:
		return p.viewConfirm(m)
	default:
		return p.viewBrowsing(m)
	}
}

func (p *entityPane[T]) viewBrowsing(m *model) string {
	lines := []string{m.theme.Title.Render(p.cfg.name)}
	lines = append(lines, m.theme.Faint.Render("Type to search. Enter runs commands ('help' lists them). Esc or '/' to go back."))
	lines = append(lines, "")

	if p.loading {
		lines = append(lines, m.theme.Faint.Render("Loading..."))
	}

	rows := p.tbl.PageRows()
	if len(rows) == 0 && !p.loading {
		lines = append(lines, m.theme.Warning.Render("No records found."))
	} else if len(rows) > 0 {
		lines = append(lines, p.renderTable(m, rows)...)
	}

	filtered := p.tbl.FilteredCount()
	selected := len(p.tbl.SelectedRows())
	footer := fmt.Sprintf("Page %d/%d  •  %d row(s)", p.tbl.Page()+1, p.tbl.PageCount(), filtered)
	if selected > 0 {
		footer += fmt.Sprintf("  •  %d selected", selected)
	}
	lines = append(lines, "", m.theme.Secondary.Render(footer))

	if p.info != "" {
		lines = append(lines, m.theme.Success.Render(p.info))
	}
	if p.err != "" {
		lines = append(lines, m.theme.Danger.Render(p.err))
	}
	lines = append(lines, m.theme.Border.Render(strings.Repeat("─", 48)))
	lines = append(lines, m.theme.Accent.Render("find> ")+p.filter.View())
	return strings.Join(lines, "\n") + "\n"
}

func (p *entityPane[T]) renderTable(m *model, rows []T) []string {
	columns := p.tbl.Columns()
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = utf8.RuneCountInString(col.Label) + 2 // room for the sort marker
		for _, row := range rows {
			if l := utf8.RuneCountInString(col.Value(row)); l > widths[i] {
				widths[i] = l
			}
		}
		if widths[i] > maxCellWidth {
			widths[i] = maxCellWidth
		}
	}

	sortID, order := p.tbl.SortState()
	all, indeterminate := p.tbl.SelectionState()
	headerBox := "[ ]"
	if all {
		headerBox = "[x]"
	} else if indeterminate {
		headerBox = "[~]"
	}

	cells := make([]string, 0, len(columns)+2)
	cells = append(cells, "  #", headerBox)
	for i, col := range columns {
		label := col.Label
		if col.ID == sortID {
			if order == table.Ascending {
				label += " ^"
			} else {
				label += " v"
			}
		}
		cells = append(cells, pad(label, widths[i]))
	}
	out := []string{m.theme.Header.Render(strings.Join(cells, "  "))}

	for i, row := range rows {
		box := "[ ]"
		if p.tbl.Selected(i) {
			box = "[x]"
		}
		cells = cells[:0]
		cells = append(cells, fmt.Sprintf("%3d", i+1), box)
		for j, col := range columns {
			cells = append(cells, pad(col.Value(row), widths[j]))
		}
		line := strings.Join(cells, "  ")
		if p.tbl.Selected(i) {
			out = append(out, m.theme.Highlight.Render(line))
		} else {
			out = append(out, m.theme.Primary.Render(line))
		}
	}
	return out
}

// pad fits s to width in runes, truncating with an ellipsis; byte slicing
// would cut multi-byte cell values mid-rune.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		if width <= 1 {
			return string(runes[:width])
		}
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}

func (p *entityPane[T]) viewForm(m *model) string {
	lines := []string{m.theme.Title.Render(p.frm.Title)}
	if p.frm.StepCount() > 1 {
		lines = append(lines, m.theme.Subtitle.Render(fmt.Sprintf("Step %d/%d: %s", p.frm.Step()+1, p.frm.StepCount(), p.frm.StepTitle())))
	}
	lines = append(lines, m.theme.Faint.Render("Enter/Tab next, Shift+Tab back, Esc cancel."))
	lines = append(lines, "")

	fields := p.frm.StepFields()
	for i, field := range fields {
		marker := "  "
		if i == p.frm.ActiveIndex() {
			marker = m.theme.Accent.Render("> ")
		}
		label := field.Label
		if field.Required {
			label += " *"
		}
		switch {
		case field.Kind == form.Select && i == p.frm.ActiveIndex():
			lines = append(lines, marker+m.theme.Primary.Render(label+":"))
			lines = append(lines, p.renderOptions(m, field)...)
		case field.Kind == form.Select:
			lines = append(lines, marker+m.theme.Primary.Render(label+": ")+m.theme.Secondary.Render(strings.Join(field.Value, ", ")))
		case i == p.frm.ActiveIndex():
			lines = append(lines, marker+m.theme.Primary.Render(label+": ")+p.frm.Input().View())
		default:
			value := strings.Join(field.Value, ", ")
			if field.Kind == form.Password && value != "" {
				value = strings.Repeat("*", len(value))
			}
			lines = append(lines, marker+m.theme.Primary.Render(label+": ")+m.theme.Secondary.Render(value))
		}
	}

	if p.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(p.err))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (p *entityPane[T]) renderOptions(m *model, field *form.Field) []string {
	chosen := make(map[string]struct{}, len(field.Value))
	for _, v := range field.Value {
		chosen[v] = struct{}{}
	}
	out := make([]string, 0, len(field.Options))
	for i, option := range field.Options {
		marker := "   "
		if i == p.frm.OptionCursor() {
			marker = "  " + m.theme.Accent.Render(">")
		}
		box := ""
		if field.Multiple {
			if _, ok := chosen[option]; ok {
				box = "[x] "
			} else {
				box = "[ ] "
			}
		} else if _, ok := chosen[option]; ok {
			box = "(•) "
		} else {
			box = "( ) "
		}
		out = append(out, marker+" "+m.theme.Secondary.Render(box+option))
	}
	if field.Multiple {
		out = append(out, m.theme.Faint.Render("    up/down to move, space to toggle"))
	} else {
		out = append(out, m.theme.Faint.Render("    up/down to choose"))
	}
	return out
}

func (p *entityPane[T]) viewConfirm(m *model) string {
	label := "this record"
	if p.pending != nil {
		label = p.cfg.id(*p.pending)
	}
	lines := []string{
		m.theme.Title.Render("Delete " + strings.TrimSuffix(p.cfg.name, "s")),
		"",
		m.theme.Warning.Render(fmt.Sprintf("Delete %s? This cannot be undone. (y/n)", label)),
	}
	return strings.Join(lines, "\n") + "\n"
}
