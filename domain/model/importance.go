package model

import (
	"sort"
	"time"
)

// FeatureImportance scores one feature's contribution to a model's
// accuracy. Weight is the mean R² drop when the feature is permuted.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// ImportanceReport is the stored feature_importance.json artifact:
// permutation importances per model, computed on the held-out split at
// training time.
type ImportanceReport struct {
	RunID       string                         `json:"run_id"`
	GeneratedAt time.Time                      `json:"generated_at"`
	Metric      string                         `json:"metric"`
	Models      map[string][]FeatureImportance `json:"models"`
}

// For returns the ranking recorded for one model.
func (r ImportanceReport) For(modelName string) ([]FeatureImportance, bool) {
	ranking, ok := r.Models[modelName]
	return ranking, ok
}

// TopImportances returns the n highest-weighted entries of a ranking.
func TopImportances(ranking []FeatureImportance, n int) []FeatureImportance {
	sorted := make([]FeatureImportance, len(ranking))
	copy(sorted, ranking)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
