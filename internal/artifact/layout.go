package artifact

import "path/filepath"

// Logical artifact names of the reporting contract. The dashboard asks
// for these by name; the layout maps them to files under the data root.
const (
	NameCleanedData        = "cleaned_data"
	NameFeaturedData       = "featured_data"
	NameModelComparison    = "model_comparison"
	NameProjectSummary     = "project_summary"
	NameInsightsNarrative  = "insights_narrative"
	NameClusteringReport   = "clustering_report"
	NameClusterAssignments = "cluster_assignments"
	NameFeatureImportance  = "feature_importance"
	NameEncoder            = "encoder"
)

// Layout resolves logical artifact names to files. Root is the project
// data directory holding data/, models/ and reports/.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout { return Layout{Root: root} }

func (l Layout) ProcessedDir() string { return filepath.Join(l.Root, "data", "processed") }
func (l Layout) ModelsDir() string    { return filepath.Join(l.Root, "models", "saved_models") }
func (l Layout) ResultsDir() string   { return filepath.Join(l.Root, "reports", "model_results") }
func (l Layout) FiguresDir() string   { return filepath.Join(l.Root, "reports", "figures") }

func (l Layout) CleanedData() string  { return filepath.Join(l.ProcessedDir(), "cleaned_data.csv") }
func (l Layout) FeaturedData() string { return filepath.Join(l.ProcessedDir(), "featured_data.csv") }
func (l Layout) ModelComparison() string {
	return filepath.Join(l.ResultsDir(), "model_comparison.csv")
}
func (l Layout) ProjectSummary() string {
	return filepath.Join(l.ResultsDir(), "project_summary.json")
}
func (l Layout) InsightsNarrative() string {
	return filepath.Join(l.ResultsDir(), "data_storytelling_insights.txt")
}
func (l Layout) ClusteringReport() string {
	return filepath.Join(l.ResultsDir(), "clustering_results.json")
}
func (l Layout) ClusterAssignments() string {
	return filepath.Join(l.ResultsDir(), "cluster_assignments.csv")
}
func (l Layout) FeatureImportance() string {
	return filepath.Join(l.ResultsDir(), "feature_importance.json")
}
func (l Layout) Encoder() string          { return filepath.Join(l.ModelsDir(), "encoder.json") }
func (l Layout) Model(name string) string { return filepath.Join(l.ModelsDir(), name+".json") }

// Path resolves a non-model logical name, false if the name is unknown.
func (l Layout) Path(name string) (string, bool) {
	switch name {
	case NameCleanedData:
		return l.CleanedData(), true
	case NameFeaturedData:
		return l.FeaturedData(), true
	case NameModelComparison:
		return l.ModelComparison(), true
	case NameProjectSummary:
		return l.ProjectSummary(), true
	case NameInsightsNarrative:
		return l.InsightsNarrative(), true
	case NameClusteringReport:
		return l.ClusteringReport(), true
	case NameClusterAssignments:
		return l.ClusterAssignments(), true
	case NameFeatureImportance:
		return l.FeatureImportance(), true
	case NameEncoder:
		return l.Encoder(), true
	}
	return "", false
}
