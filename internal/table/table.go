package table

import (
	"fmt"
	"sort"
	"strings"
)

// Row is an opaque server-shaped record. The browser never validates its
// shape beyond optional-field access.
type Row = map[string]any

// Column describes one rendered column: a display name, a value selector,
// and flags controlling sorting, export, and display.
type Column struct {
	Name string
	// Selector extracts the column's display value from a row. Nil selectors
	// render an empty cell.
	Selector func(Row) any
	// SortValue extracts the value rows are ordered by when this column is
	// sorted. Nil falls back to Selector, which is wrong for columns whose
	// display form does not order naturally (formatted money, day-first
	// dates).
	SortValue func(Row) any
	Width     string
	Sortable  bool
	// Export includes the column in CSV exports when the caller shapes rows
	// explicitly. Raw exports derive headers from row keys instead.
	Export bool
	// Omit hides the column from display while keeping it available for
	// export shaping.
	Omit bool
}

// PageSizes are the selectable page lengths.
var PageSizes = []int{10, 25, 50, 100, 200}

// DefaultPageSize is used until the user picks another length.
const DefaultPageSize = 10

// Browser holds a fetched row snapshot and presents it filtered and
// paginated. It owns only the snapshot and the free-text query; persisted
// records stay with the platform API, and status/date filters stay with the
// owning screen.
type Browser struct {
	Columns []Column

	rows     []Row
	query    string
	page     int
	pageSize int

	sortColumn    string
	sortAscending bool

	expanded *expansion
}

// NewBrowser creates a browser over the given snapshot.
func NewBrowser(columns []Column, rows []Row) *Browser {
	return &Browser{
		Columns:  columns,
		rows:     rows,
		page:     1,
		pageSize: DefaultPageSize,
		expanded: &expansion{},
	}
}

// SetRows replaces the snapshot, resetting to the first page.
func (b *Browser) SetRows(rows []Row) {
	b.rows = rows
	b.page = 1
	b.expanded.collapse()
}

// Rows returns the full unfiltered snapshot.
func (b *Browser) Rows() []Row {
	return b.rows
}

// Search sets the free-text query and resets to the first page.
func (b *Browser) Search(query string) {
	b.query = query
	b.page = 1
}

// SetPageSize selects one of the fixed page lengths; unknown sizes fall back
// to the default. The current page resets to 1.
func (b *Browser) SetPageSize(size int) {
	b.pageSize = DefaultPageSize
	for _, s := range PageSizes {
		if s == size {
			b.pageSize = s
			break
		}
	}
	b.page = 1
}

// SetPage moves to the given 1-based page, clamped to the filtered range.
func (b *Browser) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if last := b.TotalPages(); page > last {
		page = last
	}
	b.page = page
}

// Page returns the current 1-based page number.
func (b *Browser) Page() int { return b.page }

// PageSize returns the current page length.
func (b *Browser) PageSize() int { return b.pageSize }

// SortBy orders the view by the named column, toggling direction when the
// view is already sorted by it. Unknown and non-sortable columns are ignored.
func (b *Browser) SortBy(name string) {
	if b.sortColumn == name {
		b.sortAscending = !b.sortAscending
		return
	}
	b.Sort(name, true)
}

// Sort orders the view by the named column in the given direction. Unknown
// and non-sortable columns are ignored.
func (b *Browser) Sort(name string, ascending bool) {
	col := b.column(name)
	if col == nil || !col.Sortable {
		return
	}
	b.sortColumn = name
	b.sortAscending = ascending
}

// SortColumn returns the name of the active sort column, or "".
func (b *Browser) SortColumn() string { return b.sortColumn }

// SortAscending reports the active sort direction.
func (b *Browser) SortAscending() bool { return b.sortAscending }

func (b *Browser) column(name string) *Column {
	for i := range b.Columns {
		if b.Columns[i].Name == name {
			return &b.Columns[i]
		}
	}
	return nil
}

// Filtered returns the rows matching the free-text query, ordered by the
// active sort column. The query is a case-insensitive substring scan over the
// string form of every field value of every row. Deliberately a full deep
// scan rather than a field-scoped search.
func (b *Browser) Filtered() []Row {
	rows := b.rows
	if strings.TrimSpace(b.query) != "" {
		needle := strings.ToLower(b.query)
		rows = make([]Row, 0, len(b.rows))
		for _, row := range b.rows {
			if rowMatches(row, needle) {
				rows = append(rows, row)
			}
		}
	}
	return b.sorted(rows)
}

// sorted applies the active sort to a copy of rows. The snapshot itself keeps
// the fetch order so clearing the sort is loss-free.
func (b *Browser) sorted(rows []Row) []Row {
	col := b.column(b.sortColumn)
	if col == nil || !col.Sortable {
		return rows
	}
	key := col.SortValue
	if key == nil {
		key = col.Selector
	}
	if key == nil {
		return rows
	}

	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		less := cellLess(key(out[i]), key(out[j]))
		if b.sortAscending {
			return less
		}
		return cellLess(key(out[j]), key(out[i]))
	})
	return out
}

// cellLess orders two cell values, numerically when both are numbers and
// lexically otherwise.
func cellLess(a, c any) bool {
	an, aok := asNumber(a)
	cn, cok := asNumber(c)
	if aok && cok {
		return an < cn
	}
	return strings.ToLower(stringify(a)) < strings.ToLower(stringify(c))
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func rowMatches(row Row, needle string) bool {
	for _, v := range row {
		if strings.Contains(strings.ToLower(stringify(v)), needle) {
			return true
		}
	}
	return false
}

// Visible returns the current page of the filtered set.
func (b *Browser) Visible() []Row {
	filtered := b.Filtered()

	start := (b.page - 1) * b.pageSize
	if start >= len(filtered) {
		return []Row{}
	}
	end := start + b.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// Render projects a row through the column descriptors: one cell per
// non-omitted column, keyed by column name. Browsers without column
// descriptors pass rows through raw.
func (b *Browser) Render(row Row) Row {
	if len(b.Columns) == 0 {
		return row
	}
	out := make(Row, len(b.Columns))
	for _, col := range b.Columns {
		if col.Omit {
			continue
		}
		var v any = ""
		if col.Selector != nil {
			v = col.Selector(row)
		}
		out[col.Name] = v
	}
	return out
}

// RenderVisible renders the current page of the filtered, sorted set.
func (b *Browser) RenderVisible() []Row {
	visible := b.Visible()
	out := make([]Row, len(visible))
	for i, row := range visible {
		out[i] = b.Render(row)
	}
	return out
}

// TotalPages returns the page count over the filtered set, at least 1.
func (b *Browser) TotalPages() int {
	n := len(b.Filtered())
	if n == 0 {
		return 1
	}
	pages := n / b.pageSize
	if n%b.pageSize > 0 {
		pages++
	}
	return pages
}

// stringify renders a field value the way it would appear in a cell.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}
