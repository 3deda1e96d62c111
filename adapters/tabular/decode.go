package tabular

import (
	"fmt"
	"strconv"

	"depositscope/domain/banking"
	"depositscope/domain/model"
)

// Columns of the cleaned dataset file.
var recordColumns = []string{
	"population_group", "region", "state_name", "district_name",
	"no_of_offices", "no_of_accounts", "deposit_amount",
}

// DecodeRecords turns a cleaned-data table into banking records. Row IDs
// are the zero-based data row positions, which is also how the feature
// matrix and cluster assignments number rows.
func DecodeRecords(t *Table) ([]banking.Record, error) {
	cols, err := t.RequireColumns(recordColumns...)
	if err != nil {
		return nil, err
	}
	records := make([]banking.Record, 0, t.Len())
	for i := range t.Rows {
		offices, err := strconv.ParseInt(t.Cell(i, cols[4]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid no_of_offices %q", i, t.Cell(i, cols[4]))
		}
		accounts, err := strconv.ParseInt(t.Cell(i, cols[5]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid no_of_accounts %q", i, t.Cell(i, cols[5]))
		}
		deposits, err := strconv.ParseFloat(t.Cell(i, cols[6]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid deposit_amount %q", i, t.Cell(i, cols[6]))
		}
		records = append(records, banking.Record{
			RowID:           i,
			PopulationGroup: t.Cell(i, cols[0]),
			Region:          t.Cell(i, cols[1]),
			StateName:       t.Cell(i, cols[2]),
			DistrictName:    t.Cell(i, cols[3]),
			NoOfOffices:     offices,
			NoOfAccounts:    accounts,
			DepositAmount:   deposits,
		})
	}
	return records, nil
}

// DecodeMatrix extracts the named feature columns and the target column
// from a featured-data table, row-aligned.
func DecodeMatrix(t *Table, featureNames []string, target string) ([][]float64, []float64, error) {
	cols, err := t.RequireColumns(featureNames...)
	if err != nil {
		return nil, nil, err
	}
	targetCol, ok := t.Column(target)
	if !ok {
		return nil, nil, fmt.Errorf("missing target column %s", target)
	}

	features := make([][]float64, 0, t.Len())
	targets := make([]float64, 0, t.Len())
	for i := range t.Rows {
		row := make([]float64, len(cols))
		for j, col := range cols {
			v, err := strconv.ParseFloat(t.Cell(i, col), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d, column %s: invalid value %q", i, featureNames[j], t.Cell(i, col))
			}
			row[j] = v
		}
		y, err := strconv.ParseFloat(t.Cell(i, targetCol), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: invalid target %q", i, t.Cell(i, targetCol))
		}
		features = append(features, row)
		targets = append(targets, y)
	}
	return features, targets, nil
}

// DecodeComparison parses the stored model comparison table.
func DecodeComparison(t *Table) (model.Comparison, error) {
	cols, err := t.RequireColumns("model_name", "category", "test_r2", "test_rmse", "test_mae", "training_time")
	if err != nil {
		return model.Comparison{}, err
	}
	results := make([]model.Result, 0, t.Len())
	for i := range t.Rows {
		name := t.Cell(i, cols[0])
		if name == "" {
			return model.Comparison{}, fmt.Errorf("row %d: empty model_name", i)
		}
		metrics := make([]float64, 4)
		for j := 2; j <= 5; j++ {
			v, err := strconv.ParseFloat(t.Cell(i, cols[j]), 64)
			if err != nil {
				return model.Comparison{}, fmt.Errorf("row %d: invalid %s %q", i, t.Headers[cols[j]], t.Cell(i, cols[j]))
			}
			metrics[j-2] = v
		}
		results = append(results, model.Result{
			ModelName:        name,
			Category:         t.Cell(i, cols[1]),
			TestR2:           metrics[0],
			TestRMSE:         metrics[1],
			TestMAE:          metrics[2],
			TrainingTimeSecs: metrics[3],
		})
	}
	return model.Comparison{Results: results}, nil
}
