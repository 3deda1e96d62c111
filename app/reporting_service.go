package app

import (
	"depositscope/domain/model"
	"depositscope/internal/artifact"
)

// ReportingService answers the dashboard's model comparison queries from
// stored run artifacts.
type ReportingService struct {
	store *artifact.Store
}

// NewReportingService creates a service over the artifact store.
func NewReportingService(store *artifact.Store) *ReportingService {
	return &ReportingService{store: store}
}

// Comparison returns results ordered by the given metric, trimmed to the
// top n when n > 0.
func (s *ReportingService) Comparison(metric string, n int) ([]model.Result, error) {
	c, err := s.store.ModelComparison()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return c.TopN(metric, n), nil
	}
	return c.SortedBy(metric), nil
}

// Best returns the champion by held-out R².
func (s *ReportingService) Best() (model.Result, error) {
	c, err := s.store.ModelComparison()
	if err != nil {
		return model.Result{}, err
	}
	best, _ := c.Best()
	return best, nil
}

// ByCategory groups results by model family, each group ordered by R².
func (s *ReportingService) ByCategory() (map[string][]model.Result, error) {
	c, err := s.store.ModelComparison()
	if err != nil {
		return nil, err
	}
	return c.ByCategory(), nil
}

// ModelDetail returns one model's saved envelope with its permutation
// importance ranking. The ranking may be empty when the importance
// artifact predates the model.
func (s *ReportingService) ModelDetail(name string) (*model.SavedModel, []model.FeatureImportance, error) {
	saved, err := s.store.Model(name)
	if err != nil {
		return nil, nil, err
	}
	report, err := s.store.Importances()
	if err != nil {
		return saved, nil, nil
	}
	ranking, _ := report.For(name)
	return saved, ranking, nil
}
