package ui

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"depositscope/domain/banking"
	"depositscope/domain/cluster"
	"depositscope/domain/model"
	"depositscope/internal/analysis"
)

// Chart payloads are plain series-of-points JSON; the client picks the
// drawing primitive from the series type.
type chartPoint struct {
	X     any     `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

type chartSeries struct {
	Name   string       `json:"name"`
	Type   string       `json:"type"`
	Points []chartPoint `json:"points"`
}

type chartPayload struct {
	Title  string        `json:"title"`
	XLabel string        `json:"x_label,omitempty"`
	YLabel string        `json:"y_label,omitempty"`
	Series []chartSeries `json:"series"`
}

func (s *Server) handleChart(c *gin.Context) {
	name := c.Param("name")

	var (
		payload *chartPayload
		err     error
	)
	switch name {
	case "deposit-distribution":
		payload, err = s.distributionChart(filterFromQuery(c), c.Query("column"))
	case "group-shares":
		payload, err = s.groupSharesChart(filterFromQuery(c))
	case "correlation":
		payload, err = s.correlationChart(filterFromQuery(c))
	case "model-scores":
		payload, err = s.modelScoresChart()
	case "model-tradeoff":
		payload, err = s.modelTradeoffChart()
	case "region-totals":
		payload, err = s.regionTotalsChart()
	case "state-totals":
		payload, err = s.stateTotalsChart()
	case "importance":
		payload, err = s.importanceChart(c.Query("model"))
	case "cluster-scatter":
		payload, err = s.clusterScatterChart()
	case "cluster-metrics":
		payload, err = s.clusterMetricsChart()
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart " + name})
		return
	}
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) filteredRecords(filter banking.Filter) ([]banking.Record, error) {
	ds, err := s.store.CleanedData()
	if err != nil {
		return nil, err
	}
	return filter.Apply(ds.Records), nil
}

func (s *Server) distributionChart(filter banking.Filter, column string) (*chartPayload, error) {
	records, err := s.filteredRecords(filter)
	if err != nil {
		return nil, err
	}
	names, series := analysis.NumericColumns(records)
	values := series[2]
	name := names[2]
	for i, n := range names {
		if n == column {
			values, name = series[i], n
		}
	}

	hist := analysis.NewHistogram(values, 30)
	points := make([]chartPoint, len(hist.Counts))
	for i, mid := range hist.Midpoints() {
		points[i] = chartPoint{X: fmt.Sprintf("%.0f", mid), Y: float64(hist.Counts[i])}
	}
	return &chartPayload{
		Title:  "Distribution of " + name,
		XLabel: name,
		YLabel: "records",
		Series: []chartSeries{{Name: name, Type: "bar", Points: points}},
	}, nil
}

func (s *Server) groupSharesChart(filter banking.Filter) (*chartPayload, error) {
	records, err := s.filteredRecords(filter)
	if err != nil {
		return nil, err
	}
	aggs := banking.ByPopulationGroup(records)
	totals := make([]chartPoint, len(aggs))
	averages := make([]chartPoint, len(aggs))
	for i, agg := range aggs {
		totals[i] = chartPoint{X: agg.Key, Y: agg.TotalDeposits}
		averages[i] = chartPoint{X: agg.Key, Y: agg.AverageDeposits}
	}
	return &chartPayload{
		Title:  "Deposits by population group",
		YLabel: "₹ millions",
		Series: []chartSeries{
			{Name: "Total deposits", Type: "bar", Points: totals},
			{Name: "Average deposit", Type: "bar", Points: averages},
		},
	}, nil
}

func (s *Server) correlationChart(filter banking.Filter) (*chartPayload, error) {
	records, err := s.filteredRecords(filter)
	if err != nil {
		return nil, err
	}
	names, series := analysis.NumericColumns(records)
	matrix := analysis.CorrelationMatrix(names, series)

	points := make([]chartPoint, 0, len(names)*len(names))
	for i, row := range matrix.Values {
		for j, r := range row {
			points = append(points, chartPoint{
				X:     matrix.Columns[j],
				Label: matrix.Columns[i],
				Y:     r,
			})
		}
	}
	return &chartPayload{
		Title:  "Correlation matrix",
		Series: []chartSeries{{Name: "pearson_r", Type: "heatmap", Points: points}},
	}, nil
}

func (s *Server) modelScoresChart() (*chartPayload, error) {
	comparison, err := s.store.ModelComparison()
	if err != nil {
		return nil, err
	}
	results := comparison.SortedBy(model.MetricR2)
	points := make([]chartPoint, len(results))
	for i, r := range results {
		points[i] = chartPoint{X: r.ModelName, Y: r.TestR2, Label: r.Category}
	}
	return &chartPayload{
		Title:  "Test R² by model",
		YLabel: "R²",
		Series: []chartSeries{{Name: "test_r2", Type: "bar", Points: points}},
	}, nil
}

func (s *Server) modelTradeoffChart() (*chartPayload, error) {
	comparison, err := s.store.ModelComparison()
	if err != nil {
		return nil, err
	}
	points := make([]chartPoint, len(comparison.Results))
	for i, r := range comparison.Results {
		points[i] = chartPoint{X: r.TrainingTimeSecs, Y: r.TestR2, Label: r.ModelName}
	}
	return &chartPayload{
		Title:  "Accuracy against training time",
		XLabel: "training seconds",
		YLabel: "R²",
		Series: []chartSeries{{Name: "models", Type: "scatter", Points: points}},
	}, nil
}

func (s *Server) regionTotalsChart() (*chartPayload, error) {
	records, err := s.filteredRecords(banking.Filter{})
	if err != nil {
		return nil, err
	}
	aggs := banking.ByRegion(records)
	points := make([]chartPoint, len(aggs))
	for i, agg := range aggs {
		points[i] = chartPoint{X: agg.Key, Y: agg.TotalDeposits}
	}
	return &chartPayload{
		Title:  "Total deposits by region",
		YLabel: "₹ millions",
		Series: []chartSeries{{Name: "total_deposits", Type: "bar", Points: points}},
	}, nil
}

func (s *Server) stateTotalsChart() (*chartPayload, error) {
	records, err := s.filteredRecords(banking.Filter{})
	if err != nil {
		return nil, err
	}
	aggs := banking.ByState(records, 15)
	points := make([]chartPoint, len(aggs))
	for i, agg := range aggs {
		points[i] = chartPoint{X: agg.Key, Y: agg.TotalDeposits}
	}
	return &chartPayload{
		Title:  "Top states by total deposits",
		YLabel: "₹ millions",
		Series: []chartSeries{{Name: "total_deposits", Type: "bar", Points: points}},
	}, nil
}

func (s *Server) importanceChart(modelName string) (*chartPayload, error) {
	report, err := s.store.Importances()
	if err != nil {
		return nil, err
	}
	name := s.selectModel(modelName, report)
	ranking, _ := report.For(name)
	top := model.TopImportances(ranking, 15)
	points := make([]chartPoint, len(top))
	for i, fi := range top {
		points[i] = chartPoint{X: fi.Feature, Y: fi.Weight}
	}
	return &chartPayload{
		Title:  "Permutation importance: " + name,
		YLabel: "R² drop",
		Series: []chartSeries{{Name: name, Type: "hbar", Points: points}},
	}, nil
}

func (s *Server) clusterScatterChart() (*chartPayload, error) {
	assignments, err := s.store.ClusterAssignments()
	if err != nil {
		return nil, err
	}
	byLabel := make(map[int][]chartPoint)
	for _, a := range assignments {
		byLabel[a.Label] = append(byLabel[a.Label], chartPoint{X: a.X, Y: a.Y})
	}
	labels := make([]int, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	series := make([]chartSeries, 0, len(labels))
	for _, label := range labels {
		name := fmt.Sprintf("Segment %d", label)
		if label == cluster.NoiseLabel {
			name = "Noise"
		}
		series = append(series, chartSeries{Name: name, Type: "scatter", Points: byLabel[label]})
	}
	return &chartPayload{
		Title:  "Branch segments (2-D projection)",
		XLabel: "component 1",
		YLabel: "component 2",
		Series: series,
	}, nil
}

func (s *Server) clusterMetricsChart() (*chartPayload, error) {
	report, err := s.store.ClusteringReport()
	if err != nil {
		return nil, err
	}
	silhouettes := make([]chartPoint, len(report.Runs))
	for i, run := range report.Runs {
		silhouettes[i] = chartPoint{X: run.Algorithm, Y: run.Silhouette}
	}
	return &chartPayload{
		Title:  "Silhouette by algorithm",
		YLabel: "silhouette",
		Series: []chartSeries{{Name: "silhouette", Type: "bar", Points: silhouettes}},
	}, nil
}
