package regressors

import (
	"encoding/json"
	"math"
	"math/rand"

	"depositscope/internal/errors"
)

// MLP is a single-hidden-layer relu network trained with Adam on
// standardized targets. The parameter vector is flattened during
// training so the optimizer is one loop; fitted weights are unpacked
// into per-layer slices for serialization.
type MLP struct {
	HiddenUnits  int     `json:"hidden_units"`
	Epochs       int     `json:"epochs"`
	BatchSize    int     `json:"batch_size"`
	LearningRate float64 `json:"learning_rate"`
	Seed         int64   `json:"seed"`

	W1    [][]float64 `json:"w1"`
	B1    []float64   `json:"b1"`
	W2    []float64   `json:"w2"`
	B2    float64     `json:"b2"`
	YMean float64     `json:"y_mean"`
	YStd  float64     `json:"y_std"`
}

// NewMLP creates an unfitted network.
func NewMLP(p Params) *MLP {
	return &MLP{
		HiddenUnits:  p.Int("hidden_units", 64),
		Epochs:       p.Int("epochs", 200),
		BatchSize:    p.Int("batch_size", 32),
		LearningRate: p.Float("learning_rate", 1e-3),
		Seed:         p.Seed(),
	}
}

func (m *MLP) Name() string { return "mlp" }

func (m *MLP) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	n := len(features)
	h := m.HiddenUnits
	if h < 1 {
		return errors.InvalidInput("hidden_units must be positive")
	}
	batch := m.BatchSize
	if batch < 1 || batch > n {
		batch = n
	}

	m.YMean = meanOf(targets)
	var variance float64
	for _, y := range targets {
		variance += (y - m.YMean) * (y - m.YMean)
	}
	m.YStd = math.Sqrt(variance / float64(n))
	if m.YStd == 0 {
		m.YStd = 1
	}
	scaled := make([]float64, n)
	for i, y := range targets {
		scaled[i] = (y - m.YMean) / m.YStd
	}

	// Layout: W1 rows, then B1, then W2, then B2 at the end.
	size := h*width + 2*h + 1
	w2Off := h*width + h
	theta := make([]float64, size)

	rng := rand.New(rand.NewSource(m.Seed))
	heIn := math.Sqrt(2 / float64(width))
	for i := 0; i < h*width; i++ {
		theta[i] = rng.NormFloat64() * heIn
	}
	heHidden := math.Sqrt(2 / float64(h))
	for j := 0; j < h; j++ {
		theta[w2Off+j] = rng.NormFloat64() * heHidden
	}

	grad := make([]float64, size)
	mom := make([]float64, size)
	vel := make([]float64, size)
	hidden := make([]float64, h)

	const beta1, beta2, eps = 0.9, 0.999, 1e-8
	step := 0
	for epoch := 0; epoch < m.Epochs; epoch++ {
		perm := rng.Perm(n)
		for start := 0; start < n; start += batch {
			end := start + batch
			if end > n {
				end = n
			}
			for i := range grad {
				grad[i] = 0
			}
			for _, idx := range perm[start:end] {
				x := features[idx]
				out := forwardHidden(theta, width, h, x, hidden)
				dOut := out - scaled[idx]
				grad[size-1] += dOut
				for j := 0; j < h; j++ {
					grad[w2Off+j] += dOut * hidden[j]
					if hidden[j] > 0 {
						dH := dOut * theta[w2Off+j]
						grad[h*width+j] += dH
						base := j * width
						for k, v := range x {
							grad[base+k] += dH * v
						}
					}
				}
			}
			inv := 1 / float64(end-start)
			step++
			c1 := 1 - math.Pow(beta1, float64(step))
			c2 := 1 - math.Pow(beta2, float64(step))
			for i := range theta {
				g := grad[i] * inv
				mom[i] = beta1*mom[i] + (1-beta1)*g
				vel[i] = beta2*vel[i] + (1-beta2)*g*g
				theta[i] -= m.LearningRate * (mom[i] / c1) / (math.Sqrt(vel[i]/c2) + eps)
			}
		}
	}

	m.W1 = make([][]float64, h)
	for j := 0; j < h; j++ {
		m.W1[j] = cloneVector(theta[j*width : (j+1)*width])
	}
	m.B1 = cloneVector(theta[h*width : h*width+h])
	m.W2 = cloneVector(theta[w2Off : w2Off+h])
	m.B2 = theta[size-1]
	return nil
}

func (m *MLP) Predict(x []float64) (float64, error) {
	if len(m.W1) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, len(m.W1[0])); err != nil {
		return 0, err
	}
	out := m.B2
	for j, row := range m.W1 {
		z := m.B1[j] + dot(row, x)
		if z > 0 {
			out += m.W2[j] * z
		}
	}
	return m.YMean + m.YStd*out, nil
}

func (m *MLP) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *MLP) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

func forwardHidden(theta []float64, width, h int, x, hidden []float64) float64 {
	for j := 0; j < h; j++ {
		z := theta[h*width+j] + dot(theta[j*width:(j+1)*width], x)
		if z < 0 {
			z = 0
		}
		hidden[j] = z
	}
	return theta[len(theta)-1] + dot(theta[h*width+h:h*width+2*h], hidden)
}
