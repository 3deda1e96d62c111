package app

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"depositscope/adapters/clusterers"
	"depositscope/adapters/regressors"
	"depositscope/adapters/tabular"
	"depositscope/domain/banking"
	"depositscope/domain/cluster"
	"depositscope/domain/model"
	"depositscope/domain/run"
	"depositscope/internal"
	"depositscope/internal/artifact"
	"depositscope/internal/errors"
	"depositscope/internal/pipeline"
)

// TrainingService runs the offline pipeline end to end: clean, engineer
// features, train the manifest roster, cluster, and write every artifact
// the dashboard reads.
type TrainingService struct {
	manifest run.Manifest
	writer   artifact.Writer
	rawPath  string
	logger   *internal.Logger
}

// TrainingResult reports what a run produced.
type TrainingResult struct {
	RunID         string
	Cleaning      pipeline.CleaningReport
	Comparison    model.Comparison
	Clustering    *cluster.Report
	ModelsTrained int
	Duration      time.Duration
}

// NewTrainingService creates a trainer writing under the writer's root.
func NewTrainingService(manifest run.Manifest, writer artifact.Writer, rawPath string) *TrainingService {
	return &TrainingService{
		manifest: manifest,
		writer:   writer,
		rawPath:  rawPath,
		logger:   internal.Component("Training"),
	}
}

// Run executes the full pipeline. Everything downstream of the raw file
// is a pure function of it and the manifest seed, so reruns reproduce
// the same artifacts (timing fields aside).
func (s *TrainingService) Run(ctx context.Context) (*TrainingResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	layout := s.writer.Layout()

	s.logger.Info("Run %s starting from %s", runID, s.rawPath)

	raw, err := tabular.NewDataReader(s.rawPath).Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read raw dataset")
	}
	records, report, err := pipeline.Clean(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Cleaned %d rows down to %d (%.1f%% removed)",
		report.SourceRows, report.CleanedRows, report.RemovalRate()*100)
	if err := tabular.WriteRecordsCSV(layout.CleanedData(), records); err != nil {
		return nil, err
	}

	encoder := pipeline.FitEncoder(records)
	frame := encoder.BuildFeatures(records)
	if err := pipeline.WriteFrameCSV(layout.FeaturedData(), frame); err != nil {
		return nil, err
	}

	split := pipeline.TrainTestSplit(len(frame.Rows), s.manifest.Run.SplitRatio, s.manifest.Run.Seed)
	trainRaw, trainY := pipeline.Select(frame.Rows, frame.Target, split.Train)
	encoder.FitScaler(trainRaw)
	if err := s.writer.SaveJSON(layout.Encoder(), encoder); err != nil {
		return nil, err
	}

	trainX := encoder.ScaleRows(trainRaw)
	testRaw, testY := pipeline.Select(frame.Rows, frame.Target, split.Test)
	testX := encoder.ScaleRows(testRaw)
	s.logger.Info("Split %d train / %d test, %d features",
		len(trainX), len(testX), len(frame.Names))

	results, importances, err := s.trainModels(ctx, runID, frame.Names, trainX, trainY, testX, testY)
	if err != nil {
		return nil, err
	}

	comparison := model.Comparison{Results: results}
	if err := tabular.WriteComparisonCSV(layout.ModelComparison(), comparison); err != nil {
		return nil, err
	}

	importanceReport := model.ImportanceReport{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Metric:      "r2_drop",
		Models:      importances,
	}
	if err := s.writer.SaveJSON(layout.FeatureImportance(), importanceReport); err != nil {
		return nil, err
	}

	clusterReport, err := s.runClustering(ctx, runID, encoder.ScaleRows(frame.Rows), frame.RowIDs, records)
	if err != nil {
		return nil, err
	}

	best, _ := comparison.Best()
	summary := model.ProjectSummary{
		RunID:         runID,
		GeneratedAt:   time.Now().UTC(),
		Seed:          s.manifest.Run.Seed,
		SplitRatio:    s.manifest.Run.SplitRatio,
		FeatureCount:  len(frame.Names),
		ModelsTrained: len(results),
		BestModel:     best,
		Dataset:       datasetProfile(report, records),
	}
	if err := s.writer.SaveJSON(layout.ProjectSummary(), summary); err != nil {
		return nil, err
	}

	narrative := BuildInsights(records, report, comparison, clusterReport)
	if err := s.writer.SaveText(layout.InsightsNarrative(), narrative); err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	s.logger.Info("Run %s finished: %d models, best %s (R²=%.4f) in %s",
		runID, len(results), best.ModelName, best.TestR2, elapsed.Round(time.Millisecond))

	return &TrainingResult{
		RunID:         runID,
		Cleaning:      report,
		Comparison:    comparison,
		Clustering:    clusterReport,
		ModelsTrained: len(results),
		Duration:      elapsed,
	}, nil
}

// trainModels fits the manifest roster concurrently with a bounded
// worker pool. Results come back in manifest order regardless of which
// worker finished first.
func (s *TrainingService) trainModels(ctx context.Context, runID string, featureNames []string, trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) ([]model.Result, map[string][]model.FeatureImportance, error) {
	entries := s.manifest.Models
	results := make([]model.Result, len(entries))
	rankings := make([][]model.FeatureImportance, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.manifest.Run.Workers)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			category, ok := regressors.CategoryOf(entry.Name)
			if !ok {
				return errors.UnknownModel(entry.Name)
			}
			params := regressors.Params{}
			for k, v := range entry.Params {
				params[k] = v
			}
			if _, set := params["seed"]; !set {
				params["seed"] = float64(s.manifest.Run.Seed)
			}

			predictor, err := regressors.New(entry.Name, params)
			if err != nil {
				return err
			}

			fitStart := time.Now()
			if err := predictor.Fit(trainX, trainY); err != nil {
				return errors.Wrapf(err, "training %s failed", entry.Name)
			}
			trainSecs := time.Since(fitStart).Seconds()

			predicted := make([]float64, len(testX))
			for j, row := range testX {
				y, err := predictor.Predict(row)
				if err != nil {
					return errors.Wrapf(err, "evaluating %s failed", entry.Name)
				}
				predicted[j] = y
			}
			r2, rmse, mae := model.Evaluate(predicted, testY)
			results[i] = model.Result{
				ModelName:        entry.Name,
				Category:         category,
				TestR2:           r2,
				TestRMSE:         rmse,
				TestMAE:          mae,
				TrainingTimeSecs: trainSecs,
			}

			ranking, err := regressors.PermutationImportance(predictor, testX, testY, featureNames, s.manifest.Importance.Repeats, s.manifest.Run.Seed)
			if err != nil {
				return errors.Wrapf(err, "scoring importance for %s failed", entry.Name)
			}
			rankings[i] = ranking
			s.logger.Debug("%s importance scored over %d repeats", entry.Name, s.manifest.Importance.Repeats)

			payload, err := predictor.MarshalParams()
			if err != nil {
				return errors.Wrapf(err, "serializing %s failed", entry.Name)
			}
			saved := model.SavedModel{
				ModelName:    entry.Name,
				Category:     category,
				RunID:        runID,
				TrainedAt:    time.Now().UTC(),
				Seed:         params.Seed(),
				FeatureNames: featureNames,
				Params:       payload,
				Metrics:      results[i],
			}
			if err := s.writer.SaveJSON(s.writer.Layout().Model(entry.Name), saved); err != nil {
				return err
			}
			s.logger.Info("%-22s R²=%.4f RMSE=%.2f (%.2fs)", entry.Name, r2, rmse, trainSecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	byModel := make(map[string][]model.FeatureImportance, len(entries))
	for i, entry := range entries {
		byModel[entry.Name] = rankings[i]
	}
	return results, byModel, nil
}

// runClustering fits every manifest algorithm over the standardized
// feature rows, scores each run, and writes the winning assignment set
// with its 2-D projection.
func (s *TrainingService) runClustering(ctx context.Context, runID string, rows [][]float64, rowIDs []int, records []banking.Record) (*cluster.Report, error) {
	logger := internal.Component("Clustering")
	p := s.manifest.Clustering
	sampleRows, sampleIDs := sampleForClustering(rows, rowIDs, p.Sample, s.manifest.Run.Seed)
	if len(sampleRows) < len(rows) {
		logger.Info("Sampled %d of %d rows", len(sampleRows), len(rows))
	}

	coords, err := clusterers.Project2D(sampleRows)
	if err != nil {
		return nil, err
	}

	options := clusterers.Options{
		Clusters:  p.Clusters,
		Eps:       p.Eps,
		MinPoints: p.MinPoints,
		MaxIter:   p.MaxIter,
		Seed:      s.manifest.Run.Seed,
	}

	report := &cluster.Report{RunID: runID, GeneratedAt: time.Now().UTC()}
	bestScore := -2.0
	var bestLabels []int
	for _, name := range p.Algorithms {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		algo, err := clusterers.New(name, options)
		if err != nil {
			return nil, err
		}
		fitStart := time.Now()
		labels, err := algo.Fit(sampleRows)
		if err != nil {
			return nil, errors.Wrapf(err, "clustering with %s failed", name)
		}
		elapsed := time.Since(fitStart).Seconds()

		found, noise := clusterers.CountClusters(labels)
		silhouette, _ := clusterers.Silhouette(sampleRows, labels)
		db, _ := clusterers.DaviesBouldin(sampleRows, labels)
		report.Runs = append(report.Runs, cluster.Metrics{
			Algorithm:     name,
			Clusters:      found,
			Silhouette:    silhouette,
			DaviesBouldin: db,
			ExecutionSecs: elapsed,
			NoisePoints:   noise,
		})
		logger.Info("%-13s clusters=%d silhouette=%.3f db=%.3f (%.2fs)",
			name, found, silhouette, db, elapsed)

		if found >= 2 && silhouette > bestScore {
			bestScore = silhouette
			report.BestAlgorithm = name
			bestLabels = labels
		}
	}

	if bestLabels == nil {
		logger.Warn("no algorithm found 2 or more clusters; skipping assignments")
	} else {
		assignments := make([]cluster.Assignment, len(bestLabels))
		for i, label := range bestLabels {
			assignments[i] = cluster.Assignment{
				RowID: sampleIDs[i],
				Label: label,
				X:     coords[i][0],
				Y:     coords[i][1],
			}
		}
		report.Profiles = clusterers.Profiles(assignments, records)
		if err := tabular.WriteAssignmentsCSV(s.writer.Layout().ClusterAssignments(), assignments); err != nil {
			return nil, err
		}
	}

	if err := s.writer.SaveJSON(s.writer.Layout().ClusteringReport(), report); err != nil {
		return nil, err
	}
	return report, nil
}

// sampleForClustering takes a seeded subsample when the dataset exceeds
// the manifest cap, keeping row order stable for determinism.
func sampleForClustering(rows [][]float64, rowIDs []int, limit int, seed int64) ([][]float64, []int) {
	if limit <= 0 || len(rows) <= limit {
		return rows, rowIDs
	}
	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(rows))[:limit]
	sort.Ints(picked)
	outRows := make([][]float64, limit)
	outIDs := make([]int, limit)
	for i, idx := range picked {
		outRows[i] = rows[idx]
		outIDs[i] = rowIDs[idx]
	}
	return outRows, outIDs
}

func datasetProfile(report pipeline.CleaningReport, records []banking.Record) model.DatasetProfile {
	summary := banking.Summarize(records)
	return model.DatasetProfile{
		SourceRows:      report.SourceRows,
		CleanedRows:     report.CleanedRows,
		ZeroDepositRows: report.ZeroDeposit,
		TotalDeposits:   summary.TotalDeposits,
		TotalOffices:    summary.TotalOffices,
		TotalAccounts:   summary.TotalAccounts,
		UniqueStates:    summary.UniqueStates,
		UniqueDistricts: summary.UniqueDistricts,
	}
}
