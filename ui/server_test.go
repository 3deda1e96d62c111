package ui

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"depositscope/internal/artifact"
	"depositscope/internal/testkit"
)

// shared is a fully trained artifact tree reused by every read-only
// test. Tests that delete or corrupt artifacts build their own kit.
var shared *testkit.TestKit

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	root, err := os.MkdirTemp("", "depositscope-ui")
	if err != nil {
		panic(err)
	}
	kit, err := testkit.NewTestKit(root, testkit.DefaultConfig())
	if err != nil {
		os.RemoveAll(root)
		panic(err)
	}
	if err := kit.WriteFigure("deposit_overview.png"); err != nil {
		os.RemoveAll(root)
		panic(err)
	}
	shared = kit

	code := m.Run()
	os.RemoveAll(root)
	os.Exit(code)
}

func newDashboard(t *testing.T, kit *testkit.TestKit) *Server {
	t.Helper()
	store, err := kit.Store(32)
	require.NoError(t, err)
	srv, err := NewServer(store, true)
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestAllPagesRender(t *testing.T) {
	srv := newDashboard(t, shared)

	pages := []struct {
		path string
		want string
	}{
		{"/", "Deposit Analysis"},
		{"/eda", "Exploratory Analysis"},
		{"/models", "Model Comparison"},
		{"/predictions", "Deposit Predictions"},
		{"/insights", "Insights"},
		{"/geographic", "Geographic Analysis"},
		{"/interpretability", "Interpretability"},
		{"/clustering", "Clustering"},
		{"/downloads", "Downloads"},
	}
	for _, tc := range pages {
		t.Run(tc.path, func(t *testing.T) {
			w := get(t, srv, tc.path)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
			assert.Contains(t, w.Body.String(), "DepositScope")
		})
	}
}

func TestEDAFilterNarrowsPage(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/eda?region=Southern")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Karnataka")
	assert.NotContains(t, body, "Mumbai")
}

func TestMissingArtifactDegradesPage(t *testing.T) {
	kit, err := testkit.NewTestKit(t.TempDir(), testkit.DefaultConfig())
	require.NoError(t, err)
	layout := artifact.NewLayout(kit.Root)
	require.NoError(t, kit.Remove(layout.InsightsNarrative()))

	srv := newDashboard(t, kit)
	w := get(t, srv, "/insights")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not available yet")
	assert.Contains(t, w.Body.String(), "depositscope train")
}

func TestCorruptArtifactFailsPage(t *testing.T) {
	kit, err := testkit.NewTestKit(t.TempDir(), testkit.DefaultConfig())
	require.NoError(t, err)
	layout := artifact.NewLayout(kit.Root)
	require.NoError(t, kit.Corrupt(layout.ProjectSummary()))

	srv := newDashboard(t, kit)
	w := get(t, srv, "/")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong")
	assert.Contains(t, w.Body.String(), "depositscope train")
}

func TestPredictionFormScoresScenario(t *testing.T) {
	srv := newDashboard(t, shared)

	w := postForm(t, srv, "/predictions", url.Values{
		"model":    {"ridge"},
		"offices":  {"10"},
		"accounts": {"150"},
		"group":    {"Urban"},
		"region":   {"Southern"},
		"state":    {"Karnataka"},
		"district": {"Bangalore"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Predicted deposits")
	assert.Contains(t, body, "ridge")
	assert.Contains(t, body, "confidence")
}

func TestPredictionFormValidation(t *testing.T) {
	srv := newDashboard(t, shared)

	cases := []struct {
		name string
		edit func(form url.Values)
		want string
	}{
		{"non-numeric offices", func(f url.Values) { f.Set("offices", "ten") }, "must be a whole number"},
		{"unknown group", func(f url.Values) { f.Set("group", "Cosmopolitan") }, "unknown population group"},
		{"unknown model", func(f url.Values) { f.Set("model", "quantum_forest") }, "unknown model"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := url.Values{
				"model":    {"ridge"},
				"offices":  {"10"},
				"accounts": {"150"},
				"group":    {"Urban"},
				"region":   {"Southern"},
				"state":    {"Karnataka"},
				"district": {"Bangalore"},
			}
			tc.edit(form)
			w := postForm(t, srv, "/predictions", form)
			require.Equal(t, http.StatusOK, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, tc.want)
			assert.NotContains(t, body, "Predicted deposits")
		})
	}
}

func TestPredictionFormUntrainedModelBanners(t *testing.T) {
	srv := newDashboard(t, shared)

	// mlp is a valid roster name the fixture never trained.
	w := postForm(t, srv, "/predictions", url.Values{
		"model":    {"mlp"},
		"offices":  {"10"},
		"accounts": {"150"},
		"group":    {"Urban"},
		"region":   {"Southern"},
		"state":    {"Karnataka"},
		"district": {"Bangalore"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not available yet")
}

func TestPredictionFormCorruptModelFailsPage(t *testing.T) {
	kit, err := testkit.NewTestKit(t.TempDir(), testkit.DefaultConfig())
	require.NoError(t, err)
	layout := artifact.NewLayout(kit.Root)
	require.NoError(t, kit.Corrupt(layout.Model("ridge")))

	srv := newDashboard(t, kit)
	w := postForm(t, srv, "/predictions", url.Values{
		"model":    {"ridge"},
		"offices":  {"10"},
		"accounts": {"150"},
		"group":    {"Urban"},
		"region":   {"Southern"},
		"state":    {"Karnataka"},
		"district": {"Bangalore"},
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong")
}

func TestAPISummary(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var summary struct {
		RunID         string `json:"run_id"`
		ModelsTrained int    `json:"models_trained"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.ModelsTrained)
}

func TestAPIModelsSorted(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/api/models?sort=test_rmse&limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Metric string `json:"metric"`
		Count  int    `json:"count"`
		Models []struct {
			ModelName string `json:"model_name"`
		} `json:"models"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "test_rmse", resp.Metric)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Models, 1)
}

func TestAPIRecordsFilterAndLimit(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/api/records?group=Metropolitan&limit=5")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total   int `json:"total"`
		Count   int `json:"count"`
		Records []struct {
			PopulationGroup string `json:"population_group"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, resp.Total, 5)
	assert.Equal(t, 5, resp.Count)
	for _, r := range resp.Records {
		assert.Equal(t, "Metropolitan", r.PopulationGroup)
	}
}

func TestAPIPredict(t *testing.T) {
	srv := newDashboard(t, shared)

	valid := map[string]any{
		"model":            "ridge",
		"offices":          10,
		"accounts":         150,
		"population_group": "Urban",
		"region":           "Southern",
		"state":            "Karnataka",
		"district":         "Bangalore",
	}

	w := postJSON(t, srv, "/api/predict", valid)
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		ModelName string  `json:"model_name"`
		Amount    float64 `json:"predicted_amount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "ridge", result.ModelName)
	assert.Greater(t, result.Amount, 0.0)

	unknown := map[string]any{}
	for k, v := range valid {
		unknown[k] = v
	}
	unknown["model"] = "quantum_forest"
	w = postJSON(t, srv, "/api/predict", unknown)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	untrained := map[string]any{}
	for k, v := range valid {
		untrained[k] = v
	}
	untrained["model"] = "mlp"
	w = postJSON(t, srv, "/api/predict", untrained)
	assert.Equal(t, http.StatusNotFound, w.Code)

	invalid := map[string]any{}
	for k, v := range valid {
		invalid[k] = v
	}
	invalid["population_group"] = "Cosmopolitan"
	w = postJSON(t, srv, "/api/predict", invalid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChartEndpoints(t *testing.T) {
	srv := newDashboard(t, shared)

	charts := []string{
		"deposit-distribution",
		"group-shares",
		"correlation",
		"model-scores",
		"model-tradeoff",
		"region-totals",
		"state-totals",
		"importance",
		"cluster-scatter",
		"cluster-metrics",
	}
	for _, name := range charts {
		t.Run(name, func(t *testing.T) {
			w := get(t, srv, "/api/charts/"+name)
			require.Equal(t, http.StatusOK, w.Code)

			var payload struct {
				Title  string `json:"title"`
				Series []struct {
					Type   string `json:"type"`
					Points []struct {
						Y float64 `json:"y"`
					} `json:"points"`
				} `json:"series"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.NotEmpty(t, payload.Title)
			require.NotEmpty(t, payload.Series)
			assert.NotEmpty(t, payload.Series[0].Points)
		})
	}

	w := get(t, srv, "/api/charts/bogus")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChartRespectsFilter(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/api/charts/group-shares?group=Rural")
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Series []struct {
			Points []struct {
				X string `json:"x"`
			} `json:"points"`
		} `json:"series"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Series)
	require.Len(t, payload.Series[0].Points, 1)
	assert.Equal(t, "Rural", payload.Series[0].Points[0].X)
}

func TestDownloadCSVAndReport(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/downloads/csv/cleaned_data")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "population_group")

	w = get(t, srv, "/downloads/report/project_summary")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "run_id")

	w = get(t, srv, "/downloads/csv/bogus")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadModel(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/downloads/model/ridge")
	require.Equal(t, http.StatusOK, w.Code)

	// Valid roster name without a trained file on disk.
	w = get(t, srv, "/downloads/model/mlp")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, srv, "/downloads/model/quantum_forest")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadFigure(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/downloads/figure/deposit_overview.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotZero(t, w.Body.Len())

	w = get(t, srv, "/downloads/figure/bogus.png")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadExcelWorkbook(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/downloads/excel")
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "Model Comparison")
	assert.Contains(t, sheets, "Population Groups")
}

func TestDownloadArchive(t *testing.T) {
	srv := newDashboard(t, shared)

	w := get(t, srv, "/downloads/archive")
	require.Equal(t, http.StatusOK, w.Code)

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "reports/model_results/project_summary.json")
	assert.Contains(t, names, "data/processed/cleaned_data.csv")
	assert.Contains(t, names, "models/saved_models/ridge.json")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newDashboard(t, shared)

	// Serve one page so the request counters exist before scraping.
	get(t, srv, "/")

	w := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "depositscope_")
}
