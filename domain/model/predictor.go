package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"depositscope/internal/errors"
)

// Predictor is the contract every regressor implements. Fit consumes the
// training matrix row-wise; Predict scores one feature vector. Training may
// be randomized behind a fixed seed, prediction never is.
type Predictor interface {
	Name() string
	Fit(features [][]float64, targets []float64) error
	Predict(features []float64) (float64, error)
	MarshalParams() ([]byte, error)
	UnmarshalParams(data []byte) error
}

// SavedModel is the on-disk envelope for one trained predictor.
type SavedModel struct {
	ModelName    string          `json:"model_name"`
	Category     string          `json:"category"`
	RunID        string          `json:"run_id"`
	TrainedAt    time.Time       `json:"trained_at"`
	Seed         int64           `json:"seed"`
	FeatureNames []string        `json:"feature_names"`
	Params       json.RawMessage `json:"params"`
	Metrics      Result          `json:"metrics"`
}

// Schema fixes the order and names of the model feature vector.
type Schema struct {
	Features []string `json:"features"`
}

// Len returns the vector width.
func (s Schema) Len() int {
	return len(s.Features)
}

// Validate checks a named vector against the schema and reports every
// missing and unexpected feature in one error.
func (s Schema) Validate(vector map[string]float64) error {
	known := make(map[string]struct{}, len(s.Features))
	var missing []string
	for _, name := range s.Features {
		known[name] = struct{}{}
		if _, ok := vector[name]; !ok {
			missing = append(missing, name)
		}
	}
	var unexpected []string
	for name := range vector {
		if _, ok := known[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(unexpected)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing features: %s", strings.Join(missing, ", ")))
	}
	if len(unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected features: %s", strings.Join(unexpected, ", ")))
	}
	return errors.FeatureMismatch(strings.Join(parts, "; "))
}

// Vector orders a named vector into schema order, validating first.
func (s Schema) Vector(values map[string]float64) ([]float64, error) {
	if err := s.Validate(values); err != nil {
		return nil, err
	}
	out := make([]float64, len(s.Features))
	for i, name := range s.Features {
		v := values[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.FeatureMismatch(fmt.Sprintf("feature %s is not finite", name))
		}
		out[i] = v
	}
	return out, nil
}
