package tabular

import (
	"fmt"
	"strconv"

	"depositscope/domain/cluster"
)

var assignmentColumns = []string{"row_id", "label", "x", "y"}

// WriteAssignmentsCSV writes the winning run's cluster assignments with
// their 2-D projection coordinates.
func WriteAssignmentsCSV(path string, assignments []cluster.Assignment) error {
	rows := make([][]string, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, []string{
			strconv.Itoa(a.RowID),
			strconv.Itoa(a.Label),
			FormatFloat(a.X),
			FormatFloat(a.Y),
		})
	}
	return WriteCSV(path, assignmentColumns, rows)
}

// DecodeAssignments parses a stored cluster assignments table.
func DecodeAssignments(t *Table) ([]cluster.Assignment, error) {
	cols, err := t.RequireColumns(assignmentColumns...)
	if err != nil {
		return nil, err
	}
	out := make([]cluster.Assignment, 0, t.Len())
	for i := range t.Rows {
		rowID, err := strconv.Atoi(t.Cell(i, cols[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid row_id %q", i, t.Cell(i, cols[0]))
		}
		label, err := strconv.Atoi(t.Cell(i, cols[1]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid label %q", i, t.Cell(i, cols[1]))
		}
		x, err := strconv.ParseFloat(t.Cell(i, cols[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid x %q", i, t.Cell(i, cols[2]))
		}
		y, err := strconv.ParseFloat(t.Cell(i, cols[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid y %q", i, t.Cell(i, cols[3]))
		}
		out = append(out, cluster.Assignment{RowID: rowID, Label: label, X: x, Y: y})
	}
	return out, nil
}
