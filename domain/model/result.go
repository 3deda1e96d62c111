package model

import "sort"

// Model categories as reported in the comparison table.
const (
	CategoryBaseline = "baseline"
	CategoryTree     = "tree_ensemble"
	CategoryAdvanced = "advanced"
)

// Sortable comparison metrics. R² sorts descending, the rest ascending
// (lower is better).
const (
	MetricR2           = "test_r2"
	MetricRMSE         = "test_rmse"
	MetricMAE          = "test_mae"
	MetricTrainingTime = "training_time"
)

// Result holds the held-out evaluation of one trained regressor. Written
// once by the trainer and never mutated afterwards.
type Result struct {
	ModelName        string  `json:"model_name"`
	Category         string  `json:"category"`
	TestR2           float64 `json:"test_r2"`
	TestRMSE         float64 `json:"test_rmse"`
	TestMAE          float64 `json:"test_mae"`
	TrainingTimeSecs float64 `json:"training_time"`
}

// Comparison is the stored model comparison table.
type Comparison struct {
	Results []Result `json:"results"`
}

// SortedBy returns a copy of the results ordered by the given metric.
// Unknown metrics fall back to R² descending.
func (c Comparison) SortedBy(metric string) []Result {
	out := make([]Result, len(c.Results))
	copy(out, c.Results)
	less := func(i, j int) bool { return out[i].TestR2 > out[j].TestR2 }
	switch metric {
	case MetricRMSE:
		less = func(i, j int) bool { return out[i].TestRMSE < out[j].TestRMSE }
	case MetricMAE:
		less = func(i, j int) bool { return out[i].TestMAE < out[j].TestMAE }
	case MetricTrainingTime:
		less = func(i, j int) bool { return out[i].TrainingTimeSecs < out[j].TrainingTimeSecs }
	}
	sort.SliceStable(out, less)
	return out
}

// Best returns the highest-R² result, false when the table is empty.
func (c Comparison) Best() (Result, bool) {
	if len(c.Results) == 0 {
		return Result{}, false
	}
	best := c.Results[0]
	for _, r := range c.Results[1:] {
		if r.TestR2 > best.TestR2 {
			best = r
		}
	}
	return best, true
}

// TopN returns the n best results by the given metric.
func (c Comparison) TopN(metric string, n int) []Result {
	sorted := c.SortedBy(metric)
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ByCategory groups results per category, preserving R² order inside each.
func (c Comparison) ByCategory() map[string][]Result {
	out := make(map[string][]Result)
	for _, r := range c.SortedBy(MetricR2) {
		out[r.Category] = append(out[r.Category], r)
	}
	return out
}

// Names returns the model names, sorted.
func (c Comparison) Names() []string {
	names := make([]string, 0, len(c.Results))
	for _, r := range c.Results {
		names = append(names, r.ModelName)
	}
	sort.Strings(names)
	return names
}
