package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depositscope/domain/run"
	"depositscope/internal/artifact"
	"depositscope/internal/errors"
)

// writeRawCSV generates a synthetic raw deposits file with a planted
// linear signal so every model has something to learn.
func writeRawCSV(t *testing.T, path string, rows int) {
	t.Helper()
	type site struct {
		state, district, region string
	}
	sites := []site{
		{"Karnataka", "Bangalore", "Southern"},
		{"Karnataka", "Mysore", "Southern"},
		{"Maharashtra", "Mumbai", "Western"},
		{"Maharashtra", "Pune", "Western"},
		{"Odisha", "Cuttack", "Eastern"},
		{"Punjab", "Amritsar", "Northern"},
	}
	groups := []string{"Rural", "Semi-urban", "Urban", "Metropolitan"}

	rng := rand.New(rand.NewSource(7))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	fmt.Fprintln(f, "population_group,region,state_name,district_name,no_of_offices,no_of_accounts,deposit_amount")
	for i := 0; i < rows; i++ {
		s := sites[i%len(sites)]
		g := groups[i%len(groups)]
		offices := int64(2 + rng.Intn(40))
		accounts := offices*12 + int64(rng.Intn(100))
		deposit := 120.0*float64(offices) + 8.0*float64(accounts) + rng.Float64()*50
		fmt.Fprintf(f, "%s,%s,%s,%s,%d,%d,%.2f\n",
			g, s.region, s.state, s.district, offices, accounts, deposit)
	}
}

func testManifest(models ...string) run.Manifest {
	m := run.Default(models)
	m.Run.Workers = 2
	m.Clustering.Algorithms = []string{"kmeans"}
	m.Clustering.Clusters = 3
	m.Importance.Repeats = 2
	return m
}

// trainFixture runs a small end-to-end pipeline and returns the root it
// wrote under.
func trainFixture(t *testing.T, models ...string) string {
	t.Helper()
	root := t.TempDir()
	rawPath := filepath.Join(root, "raw.csv")
	writeRawCSV(t, rawPath, 80)

	svc := NewTrainingService(testManifest(models...), artifact.NewWriter(root), rawPath)
	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(models), result.ModelsTrained)
	return root
}

func TestTrainingRunWritesAllArtifacts(t *testing.T) {
	root := trainFixture(t, "linear_regression", "ridge", "decision_tree")
	layout := artifact.NewLayout(root)

	for _, path := range []string{
		layout.CleanedData(),
		layout.FeaturedData(),
		layout.Encoder(),
		layout.ModelComparison(),
		layout.ProjectSummary(),
		layout.InsightsNarrative(),
		layout.ClusteringReport(),
		layout.ClusterAssignments(),
		layout.FeatureImportance(),
		layout.Model("ridge"),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected artifact %s", path)
	}

	store, err := artifact.NewStore(root, 16)
	require.NoError(t, err)

	comparison, err := store.ModelComparison()
	require.NoError(t, err)
	assert.Len(t, comparison.Results, 3)
	best, ok := comparison.Best()
	require.True(t, ok)
	assert.Greater(t, best.TestR2, 0.9, "planted linear signal should be learnable")

	summary, err := store.ProjectSummary()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ModelsTrained)
	assert.Equal(t, 21, summary.FeatureCount)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, best.ModelName, summary.BestModel.ModelName)
	assert.Equal(t, 80, summary.Dataset.SourceRows)

	narrative, err := store.InsightsNarrative()
	require.NoError(t, err)
	assert.Contains(t, narrative, "# Banking Deposits")
	assert.Contains(t, narrative, best.ModelName)

	report, err := store.ClusteringReport()
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)
	assert.Equal(t, "kmeans", report.BestAlgorithm)
	assert.NotEmpty(t, report.Profiles)

	assignments, err := store.ClusterAssignments()
	require.NoError(t, err)
	assert.Len(t, assignments, summary.Dataset.CleanedRows)

	importances, err := store.Importances()
	require.NoError(t, err)
	ranking, ok := importances.For("ridge")
	require.True(t, ok)
	assert.Len(t, ranking, 21)
}

func TestTrainingRunDeterministicScores(t *testing.T) {
	first := trainFixture(t, "ridge")
	second := trainFixture(t, "ridge")

	storeA, err := artifact.NewStore(first, 4)
	require.NoError(t, err)
	storeB, err := artifact.NewStore(second, 4)
	require.NoError(t, err)

	a, err := storeA.ModelComparison()
	require.NoError(t, err)
	b, err := storeB.ModelComparison()
	require.NoError(t, err)

	require.Len(t, a.Results, 1)
	require.Len(t, b.Results, 1)
	assert.Equal(t, a.Results[0].TestR2, b.Results[0].TestR2)
	assert.Equal(t, a.Results[0].TestRMSE, b.Results[0].TestRMSE)
	assert.Equal(t, a.Results[0].TestMAE, b.Results[0].TestMAE)
}

func TestTrainingRunRejectsUnknownModel(t *testing.T) {
	root := t.TempDir()
	rawPath := filepath.Join(root, "raw.csv")
	writeRawCSV(t, rawPath, 40)

	svc := NewTrainingService(testManifest("quantum_forest"), artifact.NewWriter(root), rawPath)
	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsUnknownModel(err))
}

func TestTrainingRunMissingRawFile(t *testing.T) {
	root := t.TempDir()
	svc := NewTrainingService(testManifest("ridge"), artifact.NewWriter(root), filepath.Join(root, "nope.csv"))
	_, err := svc.Run(context.Background())
	require.Error(t, err)
}

func TestBuildInsightsMentionsEveryGroup(t *testing.T) {
	root := trainFixture(t, "ridge")
	store, err := artifact.NewStore(root, 4)
	require.NoError(t, err)

	narrative, err := store.InsightsNarrative()
	require.NoError(t, err)
	for _, group := range []string{"Rural", "Semi-urban", "Urban", "Metropolitan"} {
		assert.Contains(t, narrative, group)
	}
	assert.Contains(t, narrative, "Welch t-test")
	assert.Contains(t, narrative, "## Branch Segmentation")
}
