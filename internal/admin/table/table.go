// Package table implements a sortable, column-configurable view model for
// row-oriented admin listings.
package table

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Column describes one displayable attribute of the rows.
type Column struct {
	Label      string
	Expression string
	Visible    bool
}

// RowHandler is invoked when a row is activated.
type RowHandler func(item any)

// Model holds rows, column configuration and sort state. The source row
// slice is never reordered; sorting produces a copy.
type Model struct {
	itemName string
	columns  []Column
	rows     []any

	sortColumn int
	reverse    bool

	onRow    RowHandler
	collator *collate.Collator
}

// Option customises a Model.
type Option func(*Model)

// WithLocale sets the locale used for string comparison. Defaults to
// English collation.
func WithLocale(tag language.Tag) Option {
	return func(m *Model) {
		m.collator = collate.New(tag)
	}
}

// WithRowHandler registers the activation handler for rows.
func WithRowHandler(h RowHandler) Option {
	return func(m *Model) {
		m.onRow = h
	}
}

// New constructs a Model. itemName is the identifier rows are bound to in
// column expressions, e.g. "setting" for the expression "setting.key".
func New(itemName string, opts ...Option) *Model {
	m := &Model{
		itemName:   itemName,
		sortColumn: -1,
		collator:   collate.New(language.English),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetRows replaces the row source. Sort state is kept and applies to the new
// rows.
func (m *Model) SetRows(rows []any) {
	m.rows = rows
}

// AddColumn appends a visible column. Declaration order is display order.
func (m *Model) AddColumn(label, expression string) {
	m.columns = append(m.columns, Column{Label: label, Expression: expression, Visible: true})
}

// Columns returns all declared columns in declaration order.
func (m *Model) Columns() []Column {
	return append([]Column(nil), m.columns...)
}

// VisibleColumns returns the columns to render, in declaration order.
func (m *Model) VisibleColumns() []Column {
	out := make([]Column, 0, len(m.columns))
	for _, col := range m.columns {
		if col.Visible {
			out = append(out, col)
		}
	}
	return out
}

// SetColumnVisibility toggles rendering of the labelled column. Hidden
// columns keep their position and sort behaviour.
func (m *Model) SetColumnVisibility(label string, visible bool) bool {
	for i := range m.columns {
		if m.columns[i].Label == label {
			m.columns[i].Visible = visible
			return true
		}
	}
	return false
}

// SortOnColumn sorts by the labelled column. Selecting the current sort
// column toggles direction; selecting a different one resets to ascending.
func (m *Model) SortOnColumn(label string) bool {
	for i, col := range m.columns {
		if col.Label != label {
			continue
		}
		if m.sortColumn == i {
			m.reverse = !m.reverse
		} else {
			m.sortColumn = i
			m.reverse = false
		}
		return true
	}
	return false
}

// ClearSort restores source order.
func (m *Model) ClearSort() {
	m.sortColumn = -1
	m.reverse = false
}

// SortState returns the active sort column label and direction. The label is
// empty when unsorted.
func (m *Model) SortState() (string, bool) {
	if m.sortColumn < 0 || m.sortColumn >= len(m.columns) {
		return "", false
	}
	return m.columns[m.sortColumn].Label, m.reverse
}

// Items returns the rows to render. Unsorted, it is the source slice as
// provided; sorted, a stably-sorted copy.
func (m *Model) Items() []any {
	if m.sortColumn < 0 || m.sortColumn >= len(m.columns) {
		return m.rows
	}
	expr := m.columns[m.sortColumn].Expression

	sorted := append([]any(nil), m.rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return m.compare(sorted[i], sorted[j], expr) < 0
	})
	return sorted
}

// ClickItem dispatches a row activation to the registered handler and
// reports whether the event was consumed. Callers must stop propagation on
// true.
func (m *Model) ClickItem(item any) bool {
	if m.onRow == nil {
		return false
	}
	m.onRow(item)
	return true
}

// compare orders two rows by the column expression. Rows without a value for
// the expression rank before rows with one, in both directions; among
// defined values, numbers compare numerically and strings by locale
// collation, with descending order negating only this part.
func (m *Model) compare(a, b any, expr string) int {
	av, aok := m.Value(a, expr)
	bv, bok := m.Value(b, expr)

	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	c := 0
	if an, ok := toFloat(av); ok {
		if bn, ok := toFloat(bv); ok {
			switch {
			case an < bn:
				c = -1
			case an > bn:
				c = 1
			}
		}
	} else if as, ok := av.(string); ok {
		if bs, ok := bv.(string); ok {
			c = m.collator.CompareString(as, bs)
		}
	}

	if m.reverse {
		c = -c
	}
	return c
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
