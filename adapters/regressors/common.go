package regressors

import (
	"math"

	"depositscope/internal/errors"
)

// checkTrainingData validates the (features, targets) pair every Fit
// receives. It returns the feature width.
func checkTrainingData(features [][]float64, targets []float64) (int, error) {
	if len(features) == 0 {
		return 0, errors.InvalidInput("training data is empty")
	}
	if len(features) != len(targets) {
		return 0, errors.InvalidInput("features and targets have different lengths")
	}
	width := len(features[0])
	if width == 0 {
		return 0, errors.InvalidInput("feature rows are empty")
	}
	for _, row := range features {
		if len(row) != width {
			return 0, errors.InvalidInput("feature rows have inconsistent widths")
		}
		if err := checkFinite(row); err != nil {
			return 0, errors.InvalidInput("features contain non-finite values")
		}
	}
	if err := checkFinite(targets); err != nil {
		return 0, errors.InvalidInput("targets contain non-finite values")
	}
	return width, nil
}

// checkVector validates a prediction input against the fitted width.
func checkVector(x []float64, width int) error {
	if len(x) != width {
		return errors.FeatureMismatch("feature vector has the wrong width")
	}
	return checkFinite(x)
}

// checkFinite rejects NaN and infinite feature values.
func checkFinite(x []float64) error {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.FeatureMismatch("feature vector contains non-finite values")
		}
	}
	return nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var s float64
	for _, v := range values {
		s += v
	}
	return s / float64(len(values))
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}

func squaredDistance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func cloneMatrix(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64{}, row...)
	}
	return out
}

func cloneVector(v []float64) []float64 {
	return append([]float64{}, v...)
}
