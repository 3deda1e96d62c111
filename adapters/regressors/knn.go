package regressors

import (
	"encoding/json"
	"math"
	"sort"

	"depositscope/internal/errors"
)

// KNN predicts the distance-weighted mean target of the k nearest training
// rows. Ties in distance resolve by row order, so prediction is stable.
type KNN struct {
	K        int         `json:"k"`
	Weighted bool        `json:"weighted"`
	X        [][]float64 `json:"x"`
	Y        []float64   `json:"y"`
}

// NewKNN creates an unfitted k-nearest-neighbours model.
func NewKNN(p Params) *KNN {
	return &KNN{
		K:        p.Int("k", 5),
		Weighted: p.Float("distance_weighted", 1) != 0,
	}
}

func (m *KNN) Name() string { return "knn" }

func (m *KNN) Fit(features [][]float64, targets []float64) error {
	if _, err := checkTrainingData(features, targets); err != nil {
		return err
	}
	if m.K < 1 {
		return errors.InvalidInput("k must be at least 1")
	}
	m.X = cloneMatrix(features)
	m.Y = cloneVector(targets)
	return nil
}

func (m *KNN) Predict(x []float64) (float64, error) {
	if len(m.X) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, len(m.X[0])); err != nil {
		return 0, err
	}

	type neighbour struct {
		dist float64
		idx  int
	}
	neighbours := make([]neighbour, len(m.X))
	for i, row := range m.X {
		neighbours[i] = neighbour{dist: squaredDistance(row, x), idx: i}
	}
	sort.Slice(neighbours, func(i, j int) bool {
		if neighbours[i].dist != neighbours[j].dist {
			return neighbours[i].dist < neighbours[j].dist
		}
		return neighbours[i].idx < neighbours[j].idx
	})

	k := m.K
	if k > len(neighbours) {
		k = len(neighbours)
	}
	if !m.Weighted {
		var sum float64
		for _, nb := range neighbours[:k] {
			sum += m.Y[nb.idx]
		}
		return sum / float64(k), nil
	}

	// An exact match dominates: return its target directly.
	var weightSum, valueSum float64
	for _, nb := range neighbours[:k] {
		d := math.Sqrt(nb.dist)
		if d == 0 {
			return m.Y[nb.idx], nil
		}
		w := 1 / d
		weightSum += w
		valueSum += w * m.Y[nb.idx]
	}
	return valueSum / weightSum, nil
}

func (m *KNN) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *KNN) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }
