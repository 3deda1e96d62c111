package tabular

import (
	"io"

	"github.com/xuri/excelize/v2"

	"depositscope/domain/banking"
	"depositscope/domain/cluster"
	"depositscope/domain/model"
	"depositscope/internal/errors"
)

// WorkbookData collects the report sections exported to one xlsx file.
// Nil sections are skipped so partial artifact sets still export.
type WorkbookData struct {
	Summary    *model.ProjectSummary
	Records    []banking.Record
	Comparison model.Comparison
	Clustering *cluster.Report
}

// BuildWorkbook renders the full analysis report as a workbook, one
// sheet per section.
func BuildWorkbook(data WorkbookData) (*excelize.File, error) {
	f := excelize.NewFile()

	if data.Summary != nil {
		if err := writeSummarySheet(f, "Summary", data.Summary); err != nil {
			return nil, err
		}
	}
	if len(data.Records) > 0 {
		if err := writeGroupSheet(f, "Population Groups", banking.ByPopulationGroup(data.Records)); err != nil {
			return nil, err
		}
		if err := writeGroupSheet(f, "Regions", banking.ByRegion(data.Records)); err != nil {
			return nil, err
		}
		if err := writeGroupSheet(f, "Top States", banking.ByState(data.Records, 10)); err != nil {
			return nil, err
		}
	}
	if len(data.Comparison.Results) > 0 {
		if err := writeComparisonSheet(f, "Model Comparison", data.Comparison); err != nil {
			return nil, err
		}
	}
	if data.Clustering != nil && len(data.Clustering.Profiles) > 0 {
		if err := writeClusterSheet(f, "Cluster Profiles", data.Clustering); err != nil {
			return nil, err
		}
	}

	// Drop the default sheet when at least one section rendered.
	if len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, errors.Wrap(err, "failed to drop default sheet")
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook streams the workbook to w, typically an HTTP response.
func WriteWorkbook(w io.Writer, data WorkbookData) error {
	f, err := BuildWorkbook(data)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sheet string, s *model.ProjectSummary) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Run ID", s.RunID},
		{"Generated", s.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Seed", s.Seed},
		{"Train split", s.SplitRatio},
		{"Features", s.FeatureCount},
		{"Models trained", s.ModelsTrained},
		{"Best model", s.BestModel.ModelName},
		{"Best R²", s.BestModel.TestR2},
		{"Best RMSE", s.BestModel.TestRMSE},
		{"Source rows", s.Dataset.SourceRows},
		{"Cleaned rows", s.Dataset.CleanedRows},
		{"Total deposits (₹M)", s.Dataset.TotalDeposits},
		{"Total offices", s.Dataset.TotalOffices},
		{"Total accounts", s.Dataset.TotalAccounts},
		{"States", s.Dataset.UniqueStates},
		{"Districts", s.Dataset.UniqueDistricts},
	}
	return writeSheet(f, sheet, rows)
}

func writeGroupSheet(f *excelize.File, sheet string, aggs []banking.GroupAggregate) error {
	rows := [][]any{{"Group", "Records", "Total Deposits (₹M)", "Average Deposits (₹M)", "Offices", "Accounts"}}
	for _, a := range aggs {
		rows = append(rows, []any{a.Key, a.Records, a.TotalDeposits, a.AverageDeposits, a.TotalOffices, a.TotalAccounts})
	}
	return writeSheet(f, sheet, rows)
}

func writeComparisonSheet(f *excelize.File, sheet string, c model.Comparison) error {
	rows := [][]any{{"Model", "Category", "Test R²", "Test RMSE", "Test MAE", "Training Time (s)"}}
	for _, r := range c.SortedBy(model.MetricR2) {
		rows = append(rows, []any{r.ModelName, r.Category, r.TestR2, r.TestRMSE, r.TestMAE, r.TrainingTimeSecs})
	}
	return writeSheet(f, sheet, rows)
}

func writeClusterSheet(f *excelize.File, sheet string, report *cluster.Report) error {
	rows := [][]any{{"Segment", "Size", "Avg Deposits (₹M)", "Avg Offices", "Avg Accounts", "Dominant Group", "Dominant Region", "Characterization"}}
	for _, p := range report.Profiles {
		rows = append(rows, []any{p.Label, p.Size, p.AvgDeposits, p.AvgOffices, p.AvgAccounts, p.DominantGroup, p.DominantRegion, p.Characterization})
	}
	return writeSheet(f, sheet, rows)
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "failed to create sheet %s", sheet)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return errors.Wrap(err, "failed to address cell")
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "failed to write %s!%s", sheet, cell)
			}
		}
	}
	return nil
}
