package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"depositscope/domain/banking"
	"depositscope/domain/model"
)

// WriteCSV writes a table to disk atomically: the file is assembled under a
// temporary name and renamed into place, so readers never see a half write.
func WriteCSV(path string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// RecordsToRows formats banking records as CSV cells in the cleaned-data
// column order.
func RecordsToRows(records []banking.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.PopulationGroup,
			r.Region,
			r.StateName,
			r.DistrictName,
			strconv.FormatInt(r.NoOfOffices, 10),
			strconv.FormatInt(r.NoOfAccounts, 10),
			FormatFloat(r.DepositAmount),
		})
	}
	return rows
}

// WriteRecordsCSV writes records in the cleaned-data layout.
func WriteRecordsCSV(path string, records []banking.Record) error {
	return WriteCSV(path, recordColumns, RecordsToRows(records))
}

// WriteComparisonCSV writes the model comparison table in its stored
// column order, rows sorted by R² descending.
func WriteComparisonCSV(path string, c model.Comparison) error {
	headers := []string{"model_name", "category", "test_r2", "test_rmse", "test_mae", "training_time"}
	rows := make([][]string, 0, len(c.Results))
	for _, r := range c.SortedBy(model.MetricR2) {
		rows = append(rows, []string{
			r.ModelName,
			r.Category,
			FormatFloat(r.TestR2),
			FormatFloat(r.TestRMSE),
			FormatFloat(r.TestMAE),
			FormatFloat(r.TrainingTimeSecs),
		})
	}
	return WriteCSV(path, headers, rows)
}

// FormatFloat renders a float with the shortest exact representation.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
