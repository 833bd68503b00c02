package table_test

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"crmdesk/internal/table"
)

type row struct {
	Name   string
	Email  string
	Amount float64
}

func testColumns() []table.Column[row] {
	return []table.Column[row]{
		{ID: "name", Label: "Name", Sortable: true, Value: func(r row) string { return r.Name }},
		{ID: "email", Label: "Email", Sortable: true, Value: func(r row) string { return r.Email }},
		{
			ID: "amount", Label: "Amount", Numeric: true, Sortable: true,
			Value:   func(r row) string { return strconv.FormatFloat(r.Amount, 'f', 2, 64) },
			SortKey: func(r row) float64 { return r.Amount },
		},
	}
}

func names(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestSortToggling(t *testing.T) {
	m := table.New(testColumns())
	m.SetRows([]row{
		{Name: "Globex", Amount: 30},
		{Name: "Acme", Amount: 10},
		{Name: "Initech", Amount: 20},
	})

	m.SortBy("amount")
	require.Equal(t, []string{"Acme", "Initech", "Globex"}, names(m.Filtered()))

	// Same column toggles to descending.
	m.SortBy("amount")
	require.Equal(t, []string{"Globex", "Initech", "Acme"}, names(m.Filtered()))

	// A different column resets to ascending.
	m.SortBy("name")
	id, order := m.SortState()
	require.Equal(t, "name", id)
	require.Equal(t, table.Ascending, order)
	require.Equal(t, []string{"Acme", "Globex", "Initech"}, names(m.Filtered()))
}

func TestSortIgnoresUnsortableColumn(t *testing.T) {
	cols := testColumns()
	cols[0].Sortable = false
	m := table.New(cols)
	m.SetRows([]row{{Name: "B"}, {Name: "A"}})

	m.SortBy("name")
	id, _ := m.SortState()
	require.Empty(t, id)
	require.Equal(t, []string{"B", "A"}, names(m.Filtered()))
}

func TestFilterMatchesAnyColumnCaseInsensitive(t *testing.T) {
	m := table.New(testColumns())
	m.SetRows([]row{
		{Name: "Acme", Email: "x@y.com"},
		{Name: "Globex", Email: "acme@z.com"},
		{Name: "Initech", Email: "sales@initech.com"},
	})

	m.SetFilter("ACME")
	require.Equal(t, []string{"Acme", "Globex"}, names(m.Filtered()))

	m.SetFilter("")
	require.Len(t, m.Filtered(), 3)
}

func TestPaginationSlice(t *testing.T) {
	m := table.New(testColumns())
	rows := make([]row, 12)
	for i := range rows {
		rows[i] = row{Name: fmt.Sprintf("r%02d", i)}
	}
	m.SetRows(rows)

	require.Equal(t, 3, m.PageCount())

	m.SetPage(2)
	page := m.PageRows()
	require.Len(t, page, 2)
	require.Equal(t, []string{"r10", "r11"}, names(page))
}

func TestPageNotResetByFilterChange(t *testing.T) {
	m := table.New(testColumns())
	rows := make([]row, 12)
	for i := range rows {
		rows[i] = row{Name: fmt.Sprintf("r%02d", i)}
	}
	m.SetRows(rows)
	m.SetPage(2)

	m.SetFilter("r0")
	require.Equal(t, 2, m.Page(), "filter change leaves the page where it was")
	require.Empty(t, m.PageRows(), "an out-of-range page renders empty")
}

func TestPageClamping(t *testing.T) {
	m := table.New(testColumns())
	m.SetRows([]row{{Name: "a"}, {Name: "b"}})

	m.NextPage()
	require.Equal(t, 0, m.Page())
	m.PrevPage()
	require.Equal(t, 0, m.Page())
	m.SetPage(99)
	require.Equal(t, 0, m.Page())
}

func TestSelectionOverFilteredRows(t *testing.T) {
	m := table.New(testColumns())
	m.SetRows([]row{
		{Name: "Acme"},
		{Name: "Acorn"},
		{Name: "Globex"},
	})

	m.SetFilter("ac")
	m.SelectAllFiltered()

	all, indeterminate := m.SelectionState()
	require.True(t, all)
	require.False(t, indeterminate)
	require.Equal(t, []string{"Acme", "Acorn"}, names(m.SelectedRows()))

	// Widening the filter shows a partial selection.
	m.SetFilter("")
	all, indeterminate = m.SelectionState()
	require.False(t, all)
	require.True(t, indeterminate)

	// Toggling all again from the full view selects everything...
	m.SelectAllFiltered()
	all, _ = m.SelectionState()
	require.True(t, all)

	// ...and once more deselects it.
	m.SelectAllFiltered()
	require.Empty(t, m.SelectedRows())
}

func TestToggleSelectByPageRow(t *testing.T) {
	m := table.New(testColumns())
	m.SetRows([]row{{Name: "a"}, {Name: "b"}, {Name: "c"}})

	m.ToggleSelect(1)
	require.True(t, m.Selected(1))
	require.Equal(t, []string{"b"}, names(m.SelectedRows()))

	m.ToggleSelect(1)
	require.False(t, m.Selected(1))

	m.ToggleSelect(99)
	require.Empty(t, m.SelectedRows())
}

func TestExportIgnoresFilterAndSort(t *testing.T) {
	m := table.New(testColumns())
	m.SetRows([]row{
		{Name: "Globex", Email: "g@x.com", Amount: 30},
		{Name: "Acme", Email: "a@x.com", Amount: 10},
	})
	m.SetFilter("acme")
	m.SortBy("name")

	var buf bytes.Buffer
	require.NoError(t, m.ExportCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "Name,Email,Amount", lines[0])
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "Globex"), "backing order preserved")
}

func TestCSVRoundTrip(t *testing.T) {
	m := table.New(testColumns())
	source := []row{
		{Name: "Acme", Email: "a@x.com", Amount: 10.5},
		{Name: "Globex", Email: "g@x.com", Amount: 20},
		{Name: "Initech", Email: "i@x.com", Amount: 30.25},
	}
	m.SetRows(source)

	var buf bytes.Buffer
	require.NoError(t, m.ExportCSV(&buf))

	dest := table.New(testColumns())
	result, err := dest.ImportCSV(&buf, func(record []string) (row, error) {
		if len(record) < 3 {
			return row{}, fmt.Errorf("want 3 fields, got %d", len(record))
		}
		amount, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return row{}, err
		}
		return row{Name: record[0], Email: record[1], Amount: amount}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Added)
	require.Zero(t, result.Skipped)
	require.Equal(t, source, dest.Rows())
}

func TestImportReportsBadRows(t *testing.T) {
	m := table.New(testColumns())
	input := "Name,Email,Amount\nAcme,a@x.com,10\nBroken,b@x.com,not-a-number\n"

	result, err := m.ImportCSV(strings.NewReader(input), func(record []string) (row, error) {
		amount, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return row{}, err
		}
		return row{Name: record[0], Email: record[1], Amount: amount}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Added)
	require.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
}

func TestEmptyTable(t *testing.T) {
	m := table.New(testColumns())

	require.Empty(t, m.PageRows())
	require.Equal(t, 1, m.PageCount())
	all, indeterminate := m.SelectionState()
	require.False(t, all)
	require.False(t, indeterminate)

	var buf bytes.Buffer
	require.NoError(t, m.ExportCSV(&buf))
	require.Equal(t, "Name,Email,Amount", strings.TrimSpace(buf.String()))
}
