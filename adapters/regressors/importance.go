package regressors

import (
	"math/rand"
	"sort"

	"depositscope/domain/model"
	"depositscope/internal/errors"
)

// PermutationImportance scores every feature of a fitted predictor by
// the mean R² drop over repeated seeded column shuffles of the held-out
// data. Output is sorted by weight descending, name on ties.
func PermutationImportance(p model.Predictor, features [][]float64, targets []float64, featureNames []string, repeats int, seed int64) ([]model.FeatureImportance, error) {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return nil, err
	}
	if len(featureNames) != width {
		return nil, errors.FeatureMismatch("feature names do not match matrix width")
	}
	if repeats < 1 {
		repeats = 3
	}

	baseline, err := scoreR2(p, features, targets)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	work := cloneMatrix(features)
	column := make([]float64, len(features))
	out := make([]model.FeatureImportance, width)
	for j := 0; j < width; j++ {
		for i, row := range features {
			column[i] = row[j]
		}
		var drop float64
		for r := 0; r < repeats; r++ {
			perm := rng.Perm(len(column))
			for i, src := range perm {
				work[i][j] = column[src]
			}
			score, err := scoreR2(p, work, targets)
			if err != nil {
				return nil, err
			}
			drop += baseline - score
		}
		for i := range work {
			work[i][j] = column[i]
		}
		out[j] = model.FeatureImportance{Feature: featureNames[j], Weight: drop / float64(repeats)}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Weight != out[b].Weight {
			return out[a].Weight > out[b].Weight
		}
		return out[a].Feature < out[b].Feature
	})
	return out, nil
}

func scoreR2(p model.Predictor, features [][]float64, targets []float64) (float64, error) {
	predicted := make([]float64, len(features))
	for i, row := range features {
		y, err := p.Predict(row)
		if err != nil {
			return 0, err
		}
		predicted[i] = y
	}
	r2, _, _ := model.Evaluate(predicted, targets)
	return r2, nil
}
