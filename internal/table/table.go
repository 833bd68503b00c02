// Package table implements a generic in-memory data table: sort, filter,
// pagination, row selection, and CSV import/export over any row type. It
// performs no I/O beyond the explicit CSV operations and no rendering;
// screens own both.
package table

import (
	"sort"
	"strconv"
	"strings"
)

// SortOrder is the direction of the active sort.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Column describes how one field of T is projected into the table.
type Column[T any] struct {
	// ID identifies the column for sort requests.
	ID string
	// Label is the header text, also used for CSV headers.
	Label string
	// Numeric columns sort by value rather than lexically.
	Numeric bool
	// Sortable gates whether SortBy accepts this column.
	Sortable bool
	// Value projects a row into the cell text.
	Value func(T) string
	// SortKey, when set on a numeric column, supplies the ordering key.
	// Without it the rendered value is parsed as a float.
	SortKey func(T) float64
}

// DefaultPageSize matches the dashboard's default rows-per-page.
const DefaultPageSize = 5

// Model holds the table state over a backing collection. The backing slice
// is the full unfiltered dataset; every view (filter, sort, page) is
// re-derived from it on demand.
type Model[T any] struct {
	columns  []Column[T]
	rows     []T
	query    string
	sortID   string
	order    SortOrder
	page     int
	pageSize int
	selected map[int]struct{}
}

// New builds a table over the given columns with the default page size.
func New[T any](columns []Column[T]) *Model[T] {
	return &Model[T]{
		columns:  columns,
		pageSize: DefaultPageSize,
		selected: make(map[int]struct{}),
	}
}

// Columns returns the configured column descriptors.
func (m *Model[T]) Columns() []Column[T] { return m.columns }

// SetRows replaces the backing collection and clears the selection. Sort,
// filter, and page survive a reload so a refetch keeps the user's view.
func (m *Model[T]) SetRows(rows []T) {
	m.rows = rows
	m.selected = make(map[int]struct{})
}

// Rows returns the full unfiltered backing collection.
func (m *Model[T]) Rows() []T { return m.rows }

// Append adds rows to the backing collection (CSV import path).
func (m *Model[T]) Append(rows ...T) {
	m.rows = append(m.rows, rows...)
}

// SetFilter sets the free-text query. The page is deliberately NOT reset:
// the caller decides when a page reset is appropriate.
func (m *Model[T]) SetFilter(query string) {
	m.query = query
}

// Filter returns the current query.
func (m *Model[T]) Filter() string { return m.query }

// SortBy applies sorting by column id. Requesting the active column toggles
// the order; a different column resets to ascending. Unknown or unsortable
// columns are ignored.
func (m *Model[T]) SortBy(columnID string) {
	col := m.column(columnID)
	if col == nil || !col.Sortable {
		return
	}
	if m.sortID == columnID {
		if m.order == Ascending {
			m.order = Descending
		} else {
			m.order = Ascending
		}
		return
	}
	m.sortID = columnID
	m.order = Ascending
}

// SortState reports the active sort column and order.
func (m *Model[T]) SortState() (string, SortOrder) { return m.sortID, m.order }

func (m *Model[T]) column(id string) *Column[T] {
	for i := range m.columns {
		if m.columns[i].ID == id {
			return &m.columns[i]
		}
	}
	return nil
}

// filteredIndexes returns backing-slice indexes of rows matching the query:
// case-insensitive substring match against every column's rendered value,
// keeping the row if any column matches.
func (m *Model[T]) filteredIndexes() []int {
	query := strings.ToLower(strings.TrimSpace(m.query))
	indexes := make([]int, 0, len(m.rows))
	for i, row := range m.rows {
		if query == "" {
			indexes = append(indexes, i)
			continue
		}
		for _, col := range m.columns {
			if strings.Contains(strings.ToLower(col.Value(row)), query) {
				indexes = append(indexes, i)
				break
			}
		}
	}
	return indexes
}

// viewIndexes returns the filtered indexes in sorted order.
func (m *Model[T]) viewIndexes() []int {
	indexes := m.filteredIndexes()
	col := m.column(m.sortID)
	if col == nil {
		return indexes
	}
	less := func(a, b int) bool {
		if col.Numeric {
			return m.numericKey(col, m.rows[a]) < m.numericKey(col, m.rows[b])
		}
		return strings.ToLower(col.Value(m.rows[a])) < strings.ToLower(col.Value(m.rows[b]))
	}
	sort.SliceStable(indexes, func(i, j int) bool {
		if m.order == Descending {
			return less(indexes[j], indexes[i])
		}
		return less(indexes[i], indexes[j])
	})
	return indexes
}

func (m *Model[T]) numericKey(col *Column[T], row T) float64 {
	if col.SortKey != nil {
		return col.SortKey(row)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(col.Value(row)), 64)
	if err != nil {
		return 0
	}
	return v
}

// Filtered returns the filtered and sorted rows across all pages.
func (m *Model[T]) Filtered() []T {
	indexes := m.viewIndexes()
	rows := make([]T, len(indexes))
	for i, idx := range indexes {
		rows[i] = m.rows[idx]
	}
	return rows
}

// FilteredCount returns how many rows match the current filter.
func (m *Model[T]) FilteredCount() int {
	return len(m.filteredIndexes())
}

// SetPageSize sets rows per page; values below 1 keep the current size.
func (m *Model[T]) SetPageSize(size int) {
	if size >= 1 {
		m.pageSize = size
	}
}

// PageSize returns the rows-per-page setting.
func (m *Model[T]) PageSize() int { return m.pageSize }

// Page returns the current zero-indexed page.
func (m *Model[T]) Page() int { return m.page }

// SetPage moves to the given zero-indexed page, clamped to the valid range
// for the current filtered view.
func (m *Model[T]) SetPage(page int) {
	last := m.lastPage()
	if page < 0 {
		page = 0
	}
	if page > last {
		page = last
	}
	m.page = page
}

// NextPage advances one page if one exists.
func (m *Model[T]) NextPage() { m.SetPage(m.page + 1) }

// PrevPage goes back one page if possible.
func (m *Model[T]) PrevPage() { m.SetPage(m.page - 1) }

func (m *Model[T]) lastPage() int {
	count := m.FilteredCount()
	if count == 0 {
		return 0
	}
	return (count - 1) / m.pageSize
}

// PageCount returns the number of pages in the filtered view, minimum 1.
func (m *Model[T]) PageCount() int { return m.lastPage() + 1 }

// PageRows returns the slice of the filtered+sorted view for the current
// page. A page beyond the data renders empty rather than erroring.
func (m *Model[T]) PageRows() []T {
	indexes := m.viewIndexes()
	start := m.page * m.pageSize
	if start >= len(indexes) {
		return nil
	}
	end := start + m.pageSize
	if end > len(indexes) {
		end = len(indexes)
	}
	rows := make([]T, 0, end-start)
	for _, idx := range indexes[start:end] {
		rows = append(rows, m.rows[idx])
	}
	return rows
}

// pageIndexes mirrors PageRows but yields backing indexes, for selection.
func (m *Model[T]) pageIndexes() []int {
	indexes := m.viewIndexes()
	start := m.page * m.pageSize
	if start >= len(indexes) {
		return nil
	}
	end := start + m.pageSize
	if end > len(indexes) {
		end = len(indexes)
	}
	return indexes[start:end]
}

// ToggleSelect flips selection of the nth visible row on the current page.
func (m *Model[T]) ToggleSelect(rowOnPage int) {
	indexes := m.pageIndexes()
	if rowOnPage < 0 || rowOnPage >= len(indexes) {
		return
	}
	idx := indexes[rowOnPage]
	if _, ok := m.selected[idx]; ok {
		delete(m.selected, idx)
	} else {
		m.selected[idx] = struct{}{}
	}
}

// Selected reports whether the nth visible row on the current page is selected.
func (m *Model[T]) Selected(rowOnPage int) bool {
	indexes := m.pageIndexes()
	if rowOnPage < 0 || rowOnPage >= len(indexes) {
		return false
	}
	_, ok := m.selected[indexes[rowOnPage]]
	return ok
}

// SelectAllFiltered selects every row matching the current filter; when all
// of them are already selected it deselects them instead, mirroring a
// header checkbox.
func (m *Model[T]) SelectAllFiltered() {
	indexes := m.filteredIndexes()
	if m.allFilteredSelected(indexes) {
		for _, idx := range indexes {
			delete(m.selected, idx)
		}
		return
	}
	for _, idx := range indexes {
		m.selected[idx] = struct{}{}
	}
}

func (m *Model[T]) allFilteredSelected(indexes []int) bool {
	if len(indexes) == 0 {
		return false
	}
	for _, idx := range indexes {
		if _, ok := m.selected[idx]; !ok {
			return false
		}
	}
	return true
}

// SelectionState reports the header-checkbox state over the filtered rows:
// all selected, and some-but-not-all selected (indeterminate).
func (m *Model[T]) SelectionState() (all, indeterminate bool) {
	indexes := m.filteredIndexes()
	selected := 0
	for _, idx := range indexes {
		if _, ok := m.selected[idx]; ok {
			selected++
		}
	}
	all = len(indexes) > 0 && selected == len(indexes)
	indeterminate = selected > 0 && selected < len(indexes)
	return all, indeterminate
}

// SelectedRows returns the selected rows in backing order.
func (m *Model[T]) SelectedRows() []T {
	rows := make([]T, 0, len(m.selected))
	for i := range m.rows {
		if _, ok := m.selected[i]; ok {
			rows = append(rows, m.rows[i])
		}
	}
	return rows
}

// ClearSelection empties the selection set.
func (m *Model[T]) ClearSelection() {
	m.selected = make(map[int]struct{})
}
