package ui

import (
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"depositscope/adapters/regressors"
	"depositscope/app"
	"depositscope/domain/banking"
	"depositscope/domain/cluster"
	"depositscope/domain/model"
	"depositscope/internal/analysis"
	"depositscope/internal/errors"
	"depositscope/internal/metrics"
)

// dataset loads the cleaned records tolerantly: a missing artifact
// banners the page and returns nil, a corrupt one returns the error.
func (s *Server) dataset(page *basePage) (*banking.Dataset, error) {
	ds, err := s.store.CleanedData()
	if !tolerate(page, err, "The cleaned dataset") {
		return nil, err
	}
	if err != nil {
		return nil, nil
	}
	return ds, nil
}

type homePage struct {
	basePage
	Summary *model.ProjectSummary
	Leaders []model.Result
}

func (s *Server) handleHome(c *gin.Context) {
	page := homePage{basePage: newBasePage("Home", "home")}

	summary, err := s.store.ProjectSummary()
	if !tolerate(&page.basePage, err, "The project summary") {
		s.renderError(c, err)
		return
	}
	if err == nil {
		page.Summary = summary
	}

	comparison, err := s.store.ModelComparison()
	if !tolerate(&page.basePage, err, "The model comparison") {
		s.renderError(c, err)
		return
	}
	if err == nil {
		page.Leaders = comparison.TopN(model.MetricR2, 3)
	}

	s.renderPage(c, "home.html", page)
}

type columnSummary struct {
	Name  string
	Stats analysis.Summary
}

type valueCountBlock struct {
	Column string
	Counts []analysis.ValueCount
}

type edaPage struct {
	basePage
	Filter      banking.Filter
	Groups      []string
	Regions     []string
	States      []string
	Summary     banking.Summary
	Describe    []columnSummary
	ValueCounts []valueCountBlock
	GroupStats  []banking.GroupAggregate
	TopStates   []banking.GroupAggregate
	Correlation analysis.Matrix
	Sample      []banking.Record
	ChartQuery  string
}

func filterFromQuery(c *gin.Context) banking.Filter {
	return banking.Filter{
		PopulationGroup: c.Query("group"),
		Region:          c.Query("region"),
		State:           c.Query("state"),
	}
}

// chartQuery reproduces the page filter as a query string for the chart
// endpoints, so plots show the same slice as the tables.
func chartQuery(f banking.Filter) string {
	params := make([]string, 0, 3)
	if f.PopulationGroup != "" && f.PopulationGroup != banking.FilterAll {
		params = append(params, "group="+template.URLQueryEscaper(f.PopulationGroup))
	}
	if f.Region != "" && f.Region != banking.FilterAll {
		params = append(params, "region="+template.URLQueryEscaper(f.Region))
	}
	if f.State != "" && f.State != banking.FilterAll {
		params = append(params, "state="+template.URLQueryEscaper(f.State))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + strings.Join(params, "&")
}

func (s *Server) handleEDA(c *gin.Context) {
	page := edaPage{
		basePage: newBasePage("Exploratory Analysis", "eda"),
		Filter:   filterFromQuery(c),
		Groups:   banking.PopulationGroups,
		Regions:  banking.Regions,
	}
	page.ChartQuery = chartQuery(page.Filter)

	ds, err := s.dataset(&page.basePage)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if ds != nil {
		page.States = ds.States()
		records := page.Filter.Apply(ds.Records)
		page.Summary = banking.Summarize(records)

		names, series := analysis.NumericColumns(records)
		for i, name := range names {
			page.Describe = append(page.Describe, columnSummary{Name: name, Stats: analysis.Describe(series[i])})
		}
		page.Correlation = analysis.CorrelationMatrix(names, series)

		page.ValueCounts = []valueCountBlock{
			{Column: "population_group", Counts: analysis.CountBy(records, func(r banking.Record) string { return r.PopulationGroup })},
			{Column: "region", Counts: analysis.CountBy(records, func(r banking.Record) string { return r.Region })},
			{Column: "state_name", Counts: topCounts(analysis.CountBy(records, func(r banking.Record) string { return r.StateName }), 8)},
		}
		page.GroupStats = banking.ByPopulationGroup(records)
		page.TopStates = banking.ByState(records, 10)

		if len(records) > 10 {
			records = records[:10]
		}
		page.Sample = records
	}

	s.renderPage(c, "eda.html", page)
}

func topCounts(counts []analysis.ValueCount, n int) []analysis.ValueCount {
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

type rosterEntry struct {
	Name        string
	Description string
}

type categoryBlock struct {
	Category string
	Entries  []rosterEntry
}

type modelsPage struct {
	basePage
	Metric  string
	Results []model.Result
	Best    model.Result
	HasBest bool
	Roster  []categoryBlock
}

func (s *Server) handleModels(c *gin.Context) {
	page := modelsPage{
		basePage: newBasePage("Model Comparison", "models"),
		Metric:   comparisonMetric(c.Query("sort")),
		Roster:   modelRoster(),
	}

	comparison, err := s.store.ModelComparison()
	if !tolerate(&page.basePage, err, "The model comparison") {
		s.renderError(c, err)
		return
	}
	if err == nil {
		page.Results = comparison.SortedBy(page.Metric)
		page.Best, page.HasBest = comparison.Best()
	}

	s.renderPage(c, "models.html", page)
}

func comparisonMetric(raw string) string {
	switch raw {
	case model.MetricRMSE, model.MetricMAE, model.MetricTrainingTime:
		return raw
	}
	return model.MetricR2
}

func modelRoster() []categoryBlock {
	order := []string{model.CategoryBaseline, model.CategoryTree, model.CategoryAdvanced}
	byCategory := make(map[string][]rosterEntry)
	for _, spec := range regressors.Specs() {
		byCategory[spec.Category] = append(byCategory[spec.Category], rosterEntry{
			Name:        spec.Name,
			Description: spec.Description,
		})
	}
	blocks := make([]categoryBlock, 0, len(order))
	for _, category := range order {
		blocks = append(blocks, categoryBlock{Category: category, Entries: byCategory[category]})
	}
	return blocks
}

type predictionForm struct {
	Model    string
	Offices  string
	Accounts string
	Group    string
	Region   string
	State    string
	District string
}

type referenceStats struct {
	AvgOffices  float64
	AvgAccounts float64
	AvgDeposits float64
}

type predictionsPage struct {
	basePage
	Models        []string
	Groups        []string
	Regions       []string
	States        []string
	DistrictIndex map[string][]string
	Form          predictionForm
	FormError     string
	Result        *app.Prediction
	Reference     *referenceStats
}

func (s *Server) handlePredictions(c *gin.Context) {
	page := predictionsPage{
		basePage: newBasePage("Predictions", "predictions"),
		Groups:   banking.PopulationGroups,
		Regions:  banking.Regions,
		Form: predictionForm{
			Offices:  "10",
			Accounts: "1000",
			Group:    banking.PopulationGroups[0],
			Region:   banking.Regions[0],
		},
	}

	models, err := s.predictions.Models()
	if err != nil {
		s.renderError(c, err)
		return
	}
	page.Models = models
	if len(models) > 0 {
		page.Form.Model = models[0]
	}
	if len(models) == 0 {
		page.Warnings = append(page.Warnings,
			"No trained models found. Run `depositscope train` to generate them.")
	}

	ds, err := s.dataset(&page.basePage)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if ds != nil {
		page.States = ds.States()
		page.DistrictIndex = districtIndex(ds.Records)
		if len(page.States) > 0 {
			page.Form.State = page.States[0]
			if districts := page.DistrictIndex[page.Form.State]; len(districts) > 0 {
				page.Form.District = districts[0]
			}
		}
		summary := banking.Summarize(ds.Records)
		if summary.TotalRecords > 0 {
			page.Reference = &referenceStats{
				AvgOffices:  float64(summary.TotalOffices) / float64(summary.TotalRecords),
				AvgAccounts: float64(summary.TotalAccounts) / float64(summary.TotalRecords),
				AvgDeposits: summary.AverageDeposits,
			}
		}
	}

	if c.Request.Method == http.MethodPost {
		if err := s.scoreForm(c, &page); err != nil {
			s.renderError(c, err)
			return
		}
	}

	s.renderPage(c, "predictions.html", page)
}

// scoreForm validates the submitted scenario and scores it. Validation
// failures re-render the form with a message, a missing model banners
// the page, and only unreadable artifacts escalate to the error page.
func (s *Server) scoreForm(c *gin.Context, page *predictionsPage) error {
	page.Form = predictionForm{
		Model:    c.PostForm("model"),
		Offices:  c.PostForm("offices"),
		Accounts: c.PostForm("accounts"),
		Group:    c.PostForm("group"),
		Region:   c.PostForm("region"),
		State:    c.PostForm("state"),
		District: c.PostForm("district"),
	}

	offices, err := strconv.ParseInt(page.Form.Offices, 10, 64)
	if err != nil {
		page.FormError = "number of offices must be a whole number"
		return nil
	}
	accounts, err := strconv.ParseInt(page.Form.Accounts, 10, 64)
	if err != nil {
		page.FormError = "number of accounts must be a whole number"
		return nil
	}

	result, err := s.predictions.Predict(page.Form.Model, app.PredictionInput{
		Offices:         offices,
		Accounts:        accounts,
		PopulationGroup: page.Form.Group,
		Region:          page.Form.Region,
		State:           page.Form.State,
		District:        page.Form.District,
	})
	switch {
	case err == nil:
		page.Result = result
		metrics.PredictionsTotal.WithLabelValues(page.Form.Model, "ok").Inc()
	case errors.IsFeatureMismatch(err), errors.IsUnknownModel(err):
		page.FormError = err.Error()
		metrics.PredictionsTotal.WithLabelValues(page.Form.Model, "invalid").Inc()
	case errors.IsArtifactMissing(err):
		metrics.PredictionsTotal.WithLabelValues(page.Form.Model, "failed").Inc()
		tolerate(&page.basePage, err, "That model's artifact")
	default:
		metrics.PredictionsTotal.WithLabelValues(page.Form.Model, "failed").Inc()
		return err
	}
	return nil
}

func districtIndex(records []banking.Record) map[string][]string {
	seen := make(map[string]map[string]struct{})
	for _, r := range records {
		if seen[r.StateName] == nil {
			seen[r.StateName] = make(map[string]struct{})
		}
		seen[r.StateName][r.DistrictName] = struct{}{}
	}
	out := make(map[string][]string, len(seen))
	for state, districts := range seen {
		names := make([]string, 0, len(districts))
		for d := range districts {
			names = append(names, d)
		}
		sort.Strings(names)
		out[state] = names
	}
	return out
}

type insightsPage struct {
	basePage
	Summary   *model.ProjectSummary
	Narrative template.HTML
}

func (s *Server) handleInsights(c *gin.Context) {
	page := insightsPage{basePage: newBasePage("Insights", "insights")}

	summary, err := s.store.ProjectSummary()
	if !tolerate(&page.basePage, err, "The project summary") {
		s.renderError(c, err)
		return
	}
	if err == nil {
		page.Summary = summary
	}

	narrative, err := s.store.InsightsNarrative()
	if !tolerate(&page.basePage, err, "The insights narrative") {
		s.renderError(c, err)
		return
	}
	if err == nil {
		page.Narrative = renderMarkdown(narrative)
	}

	s.renderPage(c, "insights.html", page)
}

func renderMarkdown(src string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return template.HTML(markdown.ToHTML([]byte(src), p, renderer))
}

type efficiencyRow struct {
	State             string
	DepositPerOffice  float64
	AccountsPerOffice float64
}

type geographicPage struct {
	basePage
	Summary         banking.Summary
	Regions         []banking.GroupAggregate
	States          []banking.GroupAggregate
	TopDistricts    []banking.GroupAggregate
	BottomDistricts []banking.GroupAggregate
	Efficiency      []efficiencyRow
}

func (s *Server) handleGeographic(c *gin.Context) {
	page := geographicPage{basePage: newBasePage("Geographic Analysis", "geographic")}

	ds, err := s.dataset(&page.basePage)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if ds != nil {
		page.Summary = banking.Summarize(ds.Records)
		page.Regions = banking.ByRegion(ds.Records)
		page.States = banking.ByState(ds.Records, 15)
		districts := banking.ByDistrict(ds.Records, 0)
		page.TopDistricts = headAggregates(districts, 10)
		page.BottomDistricts = tailAggregates(districts, 10)
		page.Efficiency = efficiencyRows(ds.Records, 15)
	}

	s.renderPage(c, "geographic.html", page)
}

func headAggregates(aggs []banking.GroupAggregate, n int) []banking.GroupAggregate {
	if len(aggs) > n {
		aggs = aggs[:n]
	}
	return aggs
}

// tailAggregates returns the n smallest entries, smallest first.
func tailAggregates(aggs []banking.GroupAggregate, n int) []banking.GroupAggregate {
	if len(aggs) > n {
		aggs = aggs[len(aggs)-n:]
	}
	out := make([]banking.GroupAggregate, len(aggs))
	for i, agg := range aggs {
		out[len(aggs)-1-i] = agg
	}
	return out
}

func efficiencyRows(records []banking.Record, n int) []efficiencyRow {
	rows := make([]efficiencyRow, 0, 32)
	for _, agg := range banking.ByState(records, 0) {
		if agg.TotalOffices == 0 {
			continue
		}
		rows = append(rows, efficiencyRow{
			State:             agg.Key,
			DepositPerOffice:  agg.TotalDeposits / float64(agg.TotalOffices),
			AccountsPerOffice: float64(agg.TotalAccounts) / float64(agg.TotalOffices),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DepositPerOffice > rows[j].DepositPerOffice })
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

type featureFamilyRollup struct {
	Name   string
	Weight float64
	Count  int
}

type interpretabilityPage struct {
	basePage
	Models   []string
	Selected string
	Metric   string
	Ranking  []model.FeatureImportance
	Top      []model.FeatureImportance
	TopShare float64
	Families []featureFamilyRollup
	Detail   *model.SavedModel
}

func (s *Server) handleInterpretability(c *gin.Context) {
	page := interpretabilityPage{basePage: newBasePage("Interpretability", "interpretability")}

	report, err := s.store.Importances()
	if !tolerate(&page.basePage, err, "The feature importance report") {
		s.renderError(c, err)
		return
	}
	if err == nil {
		page.Metric = report.Metric
		for name := range report.Models {
			page.Models = append(page.Models, name)
		}
		sort.Strings(page.Models)

		page.Selected = s.selectModel(c.Query("model"), report)
		if ranking, ok := report.For(page.Selected); ok {
			page.Ranking = model.TopImportances(ranking, 0)
			page.Top = model.TopImportances(ranking, 3)
			page.TopShare = topShare(page.Ranking, 3)
			page.Families = familyRollup(ranking)
		}
		if saved, err := s.store.Model(page.Selected); err == nil {
			page.Detail = saved
		}
	}

	s.renderPage(c, "interpretability.html", page)
}

// selectModel picks the ranking to show: the requested model when it has
// one, otherwise the best trained model, otherwise the first available.
func (s *Server) selectModel(requested string, report *model.ImportanceReport) string {
	if _, ok := report.Models[requested]; ok {
		return requested
	}
	if best, err := s.reporting.Best(); err == nil {
		if _, ok := report.Models[best.ModelName]; ok {
			return best.ModelName
		}
	}
	names := make([]string, 0, len(report.Models))
	for name := range report.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

// topShare is the fraction of total positive importance carried by the
// n highest-ranked features, in percent.
func topShare(sorted []model.FeatureImportance, n int) float64 {
	var total, top float64
	for i, fi := range sorted {
		w := fi.Weight
		if w < 0 {
			w = 0
		}
		total += w
		if i < n {
			top += w
		}
	}
	if total == 0 {
		return 0
	}
	return top / total * 100
}

func familyOf(feature string) string {
	switch {
	case strings.HasSuffix(feature, "_code"):
		return "Location codes"
	case strings.HasPrefix(feature, "region_"):
		return "Region indicators"
	case strings.HasPrefix(feature, "population_group_"):
		return "Population group indicators"
	case strings.HasPrefix(feature, "log_"), feature == "offices_x_accounts":
		return "Transforms"
	case strings.Contains(feature, "_per_"):
		return "Ratios"
	default:
		return "Branch scale"
	}
}

func familyRollup(ranking []model.FeatureImportance) []featureFamilyRollup {
	byName := make(map[string]*featureFamilyRollup)
	order := make([]string, 0, 6)
	for _, fi := range ranking {
		name := familyOf(fi.Feature)
		roll, ok := byName[name]
		if !ok {
			roll = &featureFamilyRollup{Name: name}
			byName[name] = roll
			order = append(order, name)
		}
		if fi.Weight > 0 {
			roll.Weight += fi.Weight
		}
		roll.Count++
	}
	out := make([]featureFamilyRollup, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

type clusteringPage struct {
	basePage
	Report      *cluster.Report
	Best        cluster.Metrics
	HasBest     bool
	SampleCount int
}

func (s *Server) handleClustering(c *gin.Context) {
	page := clusteringPage{basePage: newBasePage("Clustering", "clustering")}

	report, err := s.store.ClusteringReport()
	if !tolerate(&page.basePage, err, "The clustering report") {
		s.renderError(c, err)
		return
	}
	if err == nil {
		page.Report = report
		page.Best, page.HasBest = report.BestRun()
	}

	assignments, err := s.store.ClusterAssignments()
	if !tolerate(&page.basePage, err, "The cluster assignments") {
		s.renderError(c, err)
		return
	}
	if err == nil {
		page.SampleCount = len(assignments)
	}

	s.renderPage(c, "clustering.html", page)
}
