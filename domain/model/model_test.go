package model

import (
	"math"
	"testing"

	"depositscope/internal/errors"
)

func testComparison() Comparison {
	return Comparison{Results: []Result{
		{ModelName: "decision_tree", Category: CategoryTree, TestR2: 0.9892, TestRMSE: 2987.45, TestMAE: 1567.23, TrainingTimeSecs: 0.08},
		{ModelName: "extra_trees", Category: CategoryTree, TestR2: 0.9976, TestRMSE: 1402.87, TestMAE: 444.56, TrainingTimeSecs: 1.92},
		{ModelName: "linear_regression", Category: CategoryBaseline, TestR2: 0.8421, TestRMSE: 9341.02, TestMAE: 4155.60, TrainingTimeSecs: 0.01},
		{ModelName: "gradient_boosting", Category: CategoryTree, TestR2: 0.9936, TestRMSE: 2290.71, TestMAE: 1234.89, TrainingTimeSecs: 3.41},
	}}
}

func TestSortedByDefaultsToR2Descending(t *testing.T) {
	sorted := testComparison().SortedBy("not_a_metric")
	if sorted[0].ModelName != "extra_trees" {
		t.Errorf("expected extra_trees first, got %s", sorted[0].ModelName)
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].TestR2 > sorted[i-1].TestR2 {
			t.Errorf("R² out of order at %d", i)
		}
	}
}

func TestSortedByErrorMetricsAscending(t *testing.T) {
	byRMSE := testComparison().SortedBy(MetricRMSE)
	if byRMSE[0].ModelName != "extra_trees" {
		t.Errorf("lowest RMSE should be extra_trees, got %s", byRMSE[0].ModelName)
	}
	byTime := testComparison().SortedBy(MetricTrainingTime)
	if byTime[0].ModelName != "linear_regression" {
		t.Errorf("fastest should be linear_regression, got %s", byTime[0].ModelName)
	}
}

func TestBestIsMaxR2(t *testing.T) {
	best, ok := testComparison().Best()
	if !ok {
		t.Fatal("expected a best model")
	}
	if best.ModelName != "extra_trees" {
		t.Errorf("expected extra_trees, got %s", best.ModelName)
	}
	if _, ok := (Comparison{}).Best(); ok {
		t.Error("empty comparison should have no best model")
	}
}

func TestTopNSlices(t *testing.T) {
	top := testComparison().TopN(MetricR2, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	if top[0].ModelName != "extra_trees" || top[1].ModelName != "gradient_boosting" {
		t.Errorf("unexpected top 2: %s, %s", top[0].ModelName, top[1].ModelName)
	}
}

func TestSchemaValidateReportsMissingAndUnexpected(t *testing.T) {
	s := Schema{Features: []string{"no_of_offices", "no_of_accounts"}}
	err := s.Validate(map[string]float64{"no_of_offices": 10, "branch_count": 3})
	if err == nil {
		t.Fatal("expected a feature mismatch")
	}
	if !errors.IsFeatureMismatch(err) {
		t.Errorf("expected FEATURE_MISMATCH code, got %s", errors.GetCode(err))
	}
}

func TestSchemaVectorOrdersValues(t *testing.T) {
	s := Schema{Features: []string{"b", "a", "c"}}
	vec, err := s.Vector(map[string]float64{"a": 1, "b": 2, "c": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{2, 1, 3}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("position %d: expected %f, got %f", i, want[i], vec[i])
		}
	}
}

func TestSchemaVectorRejectsNonFinite(t *testing.T) {
	s := Schema{Features: []string{"a"}}
	if _, err := s.Vector(map[string]float64{"a": math.NaN()}); err == nil {
		t.Error("NaN feature should be rejected")
	}
	if _, err := s.Vector(map[string]float64{"a": math.Inf(1)}); err == nil {
		t.Error("Inf feature should be rejected")
	}
}

func TestEvaluateBounds(t *testing.T) {
	actual := []float64{100, 200, 300, 400}
	predicted := []float64{110, 190, 310, 390}
	r2, rmse, mae := Evaluate(predicted, actual)
	if rmse < 0 || mae < 0 {
		t.Errorf("error metrics must be non-negative: rmse=%f mae=%f", rmse, mae)
	}
	if r2 > 1 {
		t.Errorf("R² cannot exceed 1, got %f", r2)
	}
	if r2 < 0.9 {
		t.Errorf("near-perfect predictions should score high, got %f", r2)
	}
}

func TestEvaluatePerfectPredictions(t *testing.T) {
	actual := []float64{5, 10, 15}
	r2, rmse, mae := Evaluate(actual, actual)
	if r2 != 1 || rmse != 0 || mae != 0 {
		t.Errorf("perfect predictions: expected (1, 0, 0), got (%f, %f, %f)", r2, rmse, mae)
	}
}
