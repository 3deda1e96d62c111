package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"depositscope/domain/banking"
	"depositscope/domain/model"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestReadCSVIntoTable(t *testing.T) {
	path := writeTempCSV(t, "population_group,region,state_name,district_name,no_of_offices,no_of_accounts,deposit_amount\nUrban,Southern,Karnataka,Mysore,42,15000,8200.5\n")
	table, err := NewDataReader(path).Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 data row, got %d", table.Len())
	}
	if len(table.Headers) != 7 {
		t.Errorf("expected 7 columns, got %d", len(table.Headers))
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "absent.csv")).Read()
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should mention the file is missing: %v", err)
	}
}

func TestColumnLookupNormalizesHeaders(t *testing.T) {
	table := NewTable([]string{"No Of Offices", "Deposit Amount"}, nil)
	if _, ok := table.Column("no_of_offices"); !ok {
		t.Error("snake_case lookup should match a spaced header")
	}
	if _, ok := table.Column("DEPOSIT AMOUNT"); !ok {
		t.Error("lookup should be case-insensitive")
	}
	if _, ok := table.Column("branch_count"); ok {
		t.Error("unknown column should not resolve")
	}
}

func TestDecodeRecords(t *testing.T) {
	table := NewTable(
		[]string{"population_group", "region", "state_name", "district_name", "no_of_offices", "no_of_accounts", "deposit_amount"},
		[][]string{
			{"Urban", "Southern", "Karnataka", "Mysore", "42", "15000", "8200.5"},
			{"Rural", "Central", "Madhya Pradesh", "Sehore", "9", "2600", "640"},
		},
	)
	records, err := DecodeRecords(table)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RowID != 0 || records[1].RowID != 1 {
		t.Error("row IDs should be zero-based row positions")
	}
	if records[0].DepositAmount != 8200.5 {
		t.Errorf("expected deposit 8200.5, got %f", records[0].DepositAmount)
	}
}

func TestDecodeRecordsReportsRowContext(t *testing.T) {
	table := NewTable(
		[]string{"population_group", "region", "state_name", "district_name", "no_of_offices", "no_of_accounts", "deposit_amount"},
		[][]string{{"Urban", "Southern", "Karnataka", "Mysore", "forty-two", "15000", "8200.5"}},
	)
	_, err := DecodeRecords(table)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "row 0") {
		t.Errorf("error should carry the row position: %v", err)
	}
}

func TestDecodeRecordsMissingColumns(t *testing.T) {
	table := NewTable([]string{"state_name"}, [][]string{{"Karnataka"}})
	_, err := DecodeRecords(table)
	if err == nil {
		t.Fatal("expected an error for missing columns")
	}
	if !strings.Contains(err.Error(), "missing columns") {
		t.Errorf("error should list missing columns: %v", err)
	}
}

func TestDecodeMatrix(t *testing.T) {
	table := NewTable(
		[]string{"f1", "f2", "deposit_amount"},
		[][]string{{"1.5", "2", "100"}, {"3", "4.5", "200"}},
	)
	features, targets, err := DecodeMatrix(table, []string{"f1", "f2"}, "deposit_amount")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(features) != 2 || len(targets) != 2 {
		t.Fatalf("expected 2 rows, got %d features and %d targets", len(features), len(targets))
	}
	if features[1][0] != 3 || targets[1] != 200 {
		t.Errorf("unexpected values: %v, %v", features[1], targets[1])
	}
}

func TestWriteAndDecodeRecordsRoundTrip(t *testing.T) {
	records := []banking.Record{
		{PopulationGroup: "Urban", Region: "Southern", StateName: "Karnataka", DistrictName: "Mysore", NoOfOffices: 42, NoOfAccounts: 15000, DepositAmount: 8200.5},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "cleaned_data.csv")
	if err := WriteRecordsCSV(path, records); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	table, err := NewDataReader(path).Read()
	if err != nil {
		t.Fatalf("read-back failed: %v", err)
	}
	decoded, err := DecodeRecords(table)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded[0].StateName != "Karnataka" || decoded[0].DepositAmount != 8200.5 {
		t.Errorf("round trip mangled the record: %+v", decoded[0])
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}
}

func TestWriteAndDecodeComparisonRoundTrip(t *testing.T) {
	comparison := model.Comparison{Results: []model.Result{
		{ModelName: "ridge", Category: model.CategoryBaseline, TestR2: 0.82, TestRMSE: 410.25, TestMAE: 300.5, TrainingTimeSecs: 0.02},
		{ModelName: "random_forest", Category: model.CategoryTree, TestR2: 0.91, TestRMSE: 310.75, TestMAE: 220.25, TrainingTimeSecs: 1.4},
	}}
	path := filepath.Join(t.TempDir(), "model_comparison.csv")
	if err := WriteComparisonCSV(path, comparison); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	table, err := NewDataReader(path).Read()
	if err != nil {
		t.Fatalf("read-back failed: %v", err)
	}
	decoded, err := DecodeComparison(table)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(decoded.Results))
	}
	// Writer sorts by R² descending, so random_forest comes first.
	first := decoded.Results[0]
	if first.ModelName != "random_forest" || first.Category != model.CategoryTree {
		t.Errorf("unexpected first result: %+v", first)
	}
	if first.TestRMSE != 310.75 || first.TrainingTimeSecs != 1.4 {
		t.Errorf("metrics mangled on round trip: %+v", first)
	}
}
