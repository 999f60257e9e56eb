package table

// expansion tracks the single expandable detail row. At most one row is
// expanded at a time: expanding a second collapses the first.
type expansion struct {
	key string
}

// RowKey returns a row's identity for expansion tracking, preferring the
// "_id" field and falling back to "id".
func RowKey(row Row) string {
	if v, ok := row["_id"]; ok {
		if s := stringify(v); s != "" {
			return s
		}
	}
	if v, ok := row["id"]; ok {
		return stringify(v)
	}
	return ""
}

// ToggleExpand expands the given row, collapsing any other. Toggling the
// already-expanded row collapses it. Rows without an identity are ignored.
func (b *Browser) ToggleExpand(row Row) {
	key := RowKey(row)
	if key == "" {
		return
	}
	if b.expanded.key == key {
		b.expanded.key = ""
		return
	}
	b.expanded.key = key
}

// Expanded returns the key of the expanded row, or "" when every row is
// collapsed.
func (b *Browser) Expanded() string {
	return b.expanded.key
}

// IsExpanded reports whether the given row is the expanded one.
func (b *Browser) IsExpanded(row Row) bool {
	key := RowKey(row)
	return key != "" && b.expanded.key == key
}

func (e *expansion) collapse() {
	e.key = ""
}
