package tabular

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"depositscope/domain/banking"
	"depositscope/domain/cluster"
	"depositscope/domain/model"
)

func workbookFixture() WorkbookData {
	return WorkbookData{
		Summary: &model.ProjectSummary{
			RunID:         "run-1",
			GeneratedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			Seed:          42,
			SplitRatio:    0.8,
			FeatureCount:  21,
			ModelsTrained: 2,
			BestModel:     model.Result{ModelName: "random_forest", TestR2: 0.99},
		},
		Records: []banking.Record{
			{PopulationGroup: "Urban", Region: "Southern", StateName: "Karnataka", DistrictName: "Mysore", NoOfOffices: 10, NoOfAccounts: 120, DepositAmount: 900},
			{PopulationGroup: "Rural", Region: "Eastern", StateName: "Odisha", DistrictName: "Cuttack", NoOfOffices: 3, NoOfAccounts: 40, DepositAmount: 120},
		},
		Comparison: model.Comparison{Results: []model.Result{
			{ModelName: "random_forest", Category: model.CategoryTree, TestR2: 0.99, TestRMSE: 10, TestMAE: 7, TrainingTimeSecs: 1.2},
			{ModelName: "ridge", Category: model.CategoryBaseline, TestR2: 0.95, TestRMSE: 20, TestMAE: 14, TrainingTimeSecs: 0.1},
		}},
		Clustering: &cluster.Report{
			BestAlgorithm: "kmeans",
			Profiles: []cluster.Profile{
				{Label: 0, Size: 2, AvgDeposits: 510, DominantGroup: "Urban", DominantRegion: "Southern", Characterization: "high-deposit Urban branches, mostly in the Southern region"},
			},
		},
	}
}

func TestBuildWorkbookSheets(t *testing.T) {
	f, err := BuildWorkbook(workbookFixture())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Summary", "Population Groups", "Regions", "Top States", "Model Comparison", "Cluster Profiles"}
	for _, name := range want {
		found := false
		for _, s := range sheets {
			if s == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing sheet %q in %v", name, sheets)
		}
	}

	got, err := f.GetCellValue("Model Comparison", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "random_forest" {
		t.Errorf("expected best model first, got %q", got)
	}
}

func TestWriteWorkbookRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, workbookFixture()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Summary", "B8")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "random_forest" {
		t.Errorf("expected best model name in summary, got %q", got)
	}

	rows, err := f.GetRows("Population Groups")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 groups, got %d rows", len(rows))
	}
	if rows[1][0] != "Urban" {
		t.Errorf("groups should sort by deposits, got %q first", rows[1][0])
	}
}

func TestBuildWorkbookSkipsEmptySections(t *testing.T) {
	f, err := BuildWorkbook(WorkbookData{Comparison: model.Comparison{Results: []model.Result{
		{ModelName: "ridge", Category: model.CategoryBaseline, TestR2: 0.9},
	}}})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer f.Close()

	for _, s := range f.GetSheetList() {
		if s == "Summary" || s == "Cluster Profiles" {
			t.Errorf("unexpected sheet %q for empty section", s)
		}
	}
}
