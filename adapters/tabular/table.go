package tabular

import (
	"fmt"
	"strings"
)

// Table holds a parsed tabular file: one header row plus string cells.
type Table struct {
	Headers []string
	Rows    [][]string

	colIndex map[string]int
}

// NewTable builds a table and indexes its headers for column lookup.
func NewTable(headers []string, rows [][]string) *Table {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return &Table{Headers: headers, Rows: rows, colIndex: idx}
}

// Column resolves a column name to its index. Matching is case-insensitive
// and treats spaces and underscores alike, so "No Of Offices" in a raw file
// resolves the same as "no_of_offices" in a processed one.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.colIndex[normalizeHeader(name)]
	return i, ok
}

// RequireColumns resolves every named column or reports all missing ones.
func (t *Table) RequireColumns(names ...string) ([]int, error) {
	indices := make([]int, len(names))
	var missing []string
	for i, name := range names {
		idx, ok := t.Column(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		indices[i] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return indices, nil
}

// Cell returns the cell at (row, col), empty when the row is ragged.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, ".", "_")
	return h
}
