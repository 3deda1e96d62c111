package regressors

import (
	"encoding/json"
	"math"

	"depositscope/internal/errors"
)

// LinearSVR minimizes epsilon-insensitive loss with an L2 penalty by
// full-batch subgradient descent. Targets are standardized internally so
// the epsilon tube and learning rate work at unit scale.
type LinearSVR struct {
	Epsilon   float64   `json:"epsilon"`
	Lambda    float64   `json:"lambda"`
	Epochs    int       `json:"epochs"`
	LR        float64   `json:"lr"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	YMean     float64   `json:"y_mean"`
	YStd      float64   `json:"y_std"`
}

// NewLinearSVR creates an unfitted linear support vector regressor.
func NewLinearSVR(p Params) *LinearSVR {
	return &LinearSVR{
		Epsilon: p.Float("epsilon", 0.1),
		Lambda:  p.Float("lambda", 1e-4),
		Epochs:  p.Int("epochs", 500),
		LR:      p.Float("lr", 0.05),
	}
}

func (m *LinearSVR) Name() string { return "linear_svr" }

func (m *LinearSVR) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	n := len(features)
	nf := float64(n)

	m.YMean = meanOf(targets)
	var variance float64
	for _, y := range targets {
		dev := y - m.YMean
		variance += dev * dev
	}
	m.YStd = math.Sqrt(variance / nf)
	if m.YStd == 0 {
		m.YStd = 1
	}
	scaled := make([]float64, n)
	for i, y := range targets {
		scaled[i] = (y - m.YMean) / m.YStd
	}

	w := make([]float64, width)
	var b float64
	grad := make([]float64, width)

	for epoch := 0; epoch < m.Epochs; epoch++ {
		for j := range grad {
			grad[j] = m.Lambda * w[j]
		}
		var gradB float64
		for i, row := range features {
			residual := scaled[i] - dot(w, row) - b
			if math.Abs(residual) <= m.Epsilon {
				continue
			}
			sign := 1.0
			if residual < 0 {
				sign = -1
			}
			for j, v := range row {
				grad[j] -= sign * v / nf
			}
			gradB -= sign / nf
		}
		lr := m.LR / (1 + 0.01*float64(epoch))
		for j := range w {
			w[j] -= lr * grad[j]
		}
		b -= lr * gradB
	}

	m.Weights = w
	m.Intercept = b
	return nil
}

func (m *LinearSVR) Predict(x []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, len(m.Weights)); err != nil {
		return 0, err
	}
	scaled := dot(m.Weights, x) + m.Intercept
	return scaled*m.YStd + m.YMean, nil
}

func (m *LinearSVR) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *LinearSVR) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }
