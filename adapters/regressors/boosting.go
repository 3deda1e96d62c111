package regressors

import (
	"encoding/json"
	"math"
	"math/rand"
	"sort"

	"depositscope/internal/errors"
)

// GradientBoosting fits shallow trees to the running residuals, shrinking
// each stage's contribution by the learning rate.
type GradientBoosting struct {
	NEstimators    int          `json:"n_estimators"`
	LearningRate   float64      `json:"learning_rate"`
	MaxDepth       int          `json:"max_depth"`
	MinSamplesLeaf int          `json:"min_samples_leaf"`
	Subsample      float64      `json:"subsample"`
	Seed           int64        `json:"seed"`
	NFeatures      int          `json:"n_features"`
	Init           float64      `json:"init"`
	Trees          [][]TreeNode `json:"trees"`
}

// NewGradientBoosting creates an unfitted gradient boosting model.
func NewGradientBoosting(p Params) *GradientBoosting {
	return &GradientBoosting{
		NEstimators:    p.Int("n_estimators", 100),
		LearningRate:   p.Float("learning_rate", 0.1),
		MaxDepth:       p.Int("max_depth", 3),
		MinSamplesLeaf: p.Int("min_samples_leaf", 1),
		Subsample:      p.Float("subsample", 1.0),
		Seed:           p.Seed(),
	}
}

func (m *GradientBoosting) Name() string { return "gradient_boosting" }

func (m *GradientBoosting) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	if m.NEstimators < 1 {
		return errors.InvalidInput("n_estimators must be at least 1")
	}
	m.NFeatures = width
	n := len(features)
	rng := rand.New(rand.NewSource(m.Seed))

	m.Init = meanOf(targets)
	current := make([]float64, n)
	for i := range current {
		current[i] = m.Init
	}
	residuals := make([]float64, n)

	m.Trees = make([][]TreeNode, 0, m.NEstimators)
	for stage := 0; stage < m.NEstimators; stage++ {
		for i := range residuals {
			residuals[i] = targets[i] - current[i]
		}
		indices := stageSample(n, m.Subsample, rng)
		tree := &DecisionTree{
			MaxDepth:        m.MaxDepth,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  m.MinSamplesLeaf,
		}
		tree.fitIndices(features, residuals, indices, rng)
		m.Trees = append(m.Trees, tree.Nodes)

		for i, row := range features {
			v, err := walkTree(tree.Nodes, row)
			if err != nil {
				return err
			}
			current[i] += m.LearningRate * v
		}
	}
	return nil
}

func (m *GradientBoosting) Predict(x []float64) (float64, error) {
	if len(m.Trees) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, m.NFeatures); err != nil {
		return 0, err
	}
	out := m.Init
	for _, nodes := range m.Trees {
		v, err := walkTree(nodes, x)
		if err != nil {
			return 0, err
		}
		out += m.LearningRate * v
	}
	return out, nil
}

func (m *GradientBoosting) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *GradientBoosting) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// HistGradientBoosting is gradient boosting over quantile-binned features:
// every feature is quantized to its bin's midpoint before tree fitting, so
// split search only ever considers bin boundaries. The bin edges are part
// of the fitted model and applied again at prediction time.
type HistGradientBoosting struct {
	NEstimators    int          `json:"n_estimators"`
	LearningRate   float64      `json:"learning_rate"`
	MaxDepth       int          `json:"max_depth"`
	MinSamplesLeaf int          `json:"min_samples_leaf"`
	MaxBins        int          `json:"max_bins"`
	Seed           int64        `json:"seed"`
	Init           float64      `json:"init"`
	BinEdges       [][]float64  `json:"bin_edges"`
	Trees          [][]TreeNode `json:"trees"`
}

// NewHistGradientBoosting creates an unfitted binned boosting model.
func NewHistGradientBoosting(p Params) *HistGradientBoosting {
	return &HistGradientBoosting{
		NEstimators:    p.Int("n_estimators", 100),
		LearningRate:   p.Float("learning_rate", 0.1),
		MaxDepth:       p.Int("max_depth", 6),
		MinSamplesLeaf: p.Int("min_samples_leaf", 5),
		MaxBins:        p.Int("max_bins", 64),
		Seed:           p.Seed(),
	}
}

func (m *HistGradientBoosting) Name() string { return "hist_gradient_boosting" }

func (m *HistGradientBoosting) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	if m.MaxBins < 2 {
		return errors.InvalidInput("max_bins must be at least 2")
	}

	m.BinEdges = make([][]float64, width)
	for j := 0; j < width; j++ {
		m.BinEdges[j] = quantileEdges(features, j, m.MaxBins)
	}
	binned := make([][]float64, len(features))
	for i, row := range features {
		binned[i] = m.quantize(row)
	}

	inner := &GradientBoosting{
		NEstimators:    m.NEstimators,
		LearningRate:   m.LearningRate,
		MaxDepth:       m.MaxDepth,
		MinSamplesLeaf: m.MinSamplesLeaf,
		Subsample:      1.0,
		Seed:           m.Seed,
	}
	if err := inner.Fit(binned, targets); err != nil {
		return err
	}
	m.Init = inner.Init
	m.Trees = inner.Trees
	return nil
}

func (m *HistGradientBoosting) Predict(x []float64) (float64, error) {
	if len(m.Trees) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkFinite(x); err != nil {
		return 0, err
	}
	if len(x) != len(m.BinEdges) {
		return 0, errors.FeatureMismatch("feature vector has the wrong width")
	}
	binned := m.quantize(x)
	out := m.Init
	for _, nodes := range m.Trees {
		v, err := walkTree(nodes, binned)
		if err != nil {
			return 0, err
		}
		out += m.LearningRate * v
	}
	return out, nil
}

// quantize maps every value to the midpoint of its bin.
func (m *HistGradientBoosting) quantize(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		edges := m.BinEdges[j]
		if len(edges) == 0 {
			out[j] = v
			continue
		}
		// Find the first edge above v; the bin midpoint stands in for v.
		k := sort.SearchFloat64s(edges, v)
		switch {
		case k == 0:
			out[j] = edges[0]
		case k == len(edges):
			out[j] = edges[len(edges)-1]
		default:
			out[j] = (edges[k-1] + edges[k]) / 2
		}
	}
	return out
}

func (m *HistGradientBoosting) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *HistGradientBoosting) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// AdaBoost implements AdaBoost.R2 with linear loss over shallow trees:
// rows are resampled by weight each stage, stages are weighted by their
// log inverse beta, and prediction is the weighted median.
type AdaBoost struct {
	NEstimators  int          `json:"n_estimators"`
	LearningRate float64      `json:"learning_rate"`
	MaxDepth     int          `json:"max_depth"`
	Seed         int64        `json:"seed"`
	NFeatures    int          `json:"n_features"`
	Trees        [][]TreeNode `json:"trees"`
	StageWeights []float64    `json:"stage_weights"`
}

// NewAdaBoost creates an unfitted AdaBoost.R2 model.
func NewAdaBoost(p Params) *AdaBoost {
	return &AdaBoost{
		NEstimators:  p.Int("n_estimators", 50),
		LearningRate: p.Float("learning_rate", 1.0),
		MaxDepth:     p.Int("max_depth", 3),
		Seed:         p.Seed(),
	}
}

func (m *AdaBoost) Name() string { return "adaboost" }

func (m *AdaBoost) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	m.NFeatures = width
	n := len(features)
	rng := rand.New(rand.NewSource(m.Seed))

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}

	m.Trees = m.Trees[:0]
	m.StageWeights = m.StageWeights[:0]
	predictions := make([]float64, n)

	for stage := 0; stage < m.NEstimators; stage++ {
		indices := weightedSample(weights, n, rng)
		tree := &DecisionTree{MaxDepth: m.MaxDepth, MinSamplesSplit: 2, MinSamplesLeaf: 1}
		tree.fitIndices(features, targets, indices, rng)

		var maxErr float64
		for i, row := range features {
			v, err := walkTree(tree.Nodes, row)
			if err != nil {
				return err
			}
			predictions[i] = math.Abs(v - targets[i])
			if predictions[i] > maxErr {
				maxErr = predictions[i]
			}
		}
		if maxErr == 0 {
			// The stage is already perfect; keep it with full weight.
			m.Trees = append(m.Trees, tree.Nodes)
			m.StageWeights = append(m.StageWeights, 1)
			break
		}

		var avgLoss float64
		for i := range predictions {
			predictions[i] /= maxErr
			avgLoss += weights[i] * predictions[i]
		}
		if avgLoss >= 0.5 {
			if len(m.Trees) == 0 {
				m.Trees = append(m.Trees, tree.Nodes)
				m.StageWeights = append(m.StageWeights, 1)
			}
			break
		}

		beta := avgLoss / (1 - avgLoss)
		m.Trees = append(m.Trees, tree.Nodes)
		m.StageWeights = append(m.StageWeights, m.LearningRate*math.Log(1/beta))

		var total float64
		for i := range weights {
			weights[i] *= math.Pow(beta, m.LearningRate*(1-predictions[i]))
			total += weights[i]
		}
		for i := range weights {
			weights[i] /= total
		}
	}
	if len(m.Trees) == 0 {
		return errors.InternalError("boosting produced no usable stage")
	}
	return nil
}

func (m *AdaBoost) Predict(x []float64) (float64, error) {
	if len(m.Trees) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, m.NFeatures); err != nil {
		return 0, err
	}
	type staged struct {
		value  float64
		weight float64
	}
	values := make([]staged, len(m.Trees))
	var totalWeight float64
	for i, nodes := range m.Trees {
		v, err := walkTree(nodes, x)
		if err != nil {
			return 0, err
		}
		values[i] = staged{value: v, weight: m.StageWeights[i]}
		totalWeight += m.StageWeights[i]
	}
	sort.Slice(values, func(i, j int) bool { return values[i].value < values[j].value })

	// Weighted median over the stage predictions.
	half := totalWeight / 2
	var acc float64
	for _, s := range values {
		acc += s.weight
		if acc >= half {
			return s.value, nil
		}
	}
	return values[len(values)-1].value, nil
}

func (m *AdaBoost) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *AdaBoost) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// stageSample draws the row subset of one boosting stage.
func stageSample(n int, subsample float64, rng *rand.Rand) []int {
	if subsample >= 1 || subsample <= 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(float64(n) * subsample)
	if k < 1 {
		k = 1
	}
	return rng.Perm(n)[:k]
}

// weightedSample draws k rows with replacement from a weight distribution.
func weightedSample(weights []float64, k int, rng *rand.Rand) []int {
	cumulative := make([]float64, len(weights))
	var total float64
	for i, w := range weights {
		total += w
		cumulative[i] = total
	}
	out := make([]int, k)
	for i := range out {
		r := rng.Float64() * total
		out[i] = sort.SearchFloat64s(cumulative, r)
		if out[i] >= len(weights) {
			out[i] = len(weights) - 1
		}
	}
	return out
}

// quantileEdges computes up to maxBins-1 interior quantile boundaries of
// one feature column.
func quantileEdges(features [][]float64, col, maxBins int) []float64 {
	values := make([]float64, len(features))
	for i, row := range features {
		values[i] = row[col]
	}
	sort.Float64s(values)

	edges := make([]float64, 0, maxBins-1)
	for b := 1; b < maxBins; b++ {
		idx := b * (len(values) - 1) / maxBins
		v := values[idx]
		if len(edges) == 0 || v > edges[len(edges)-1] {
			edges = append(edges, v)
		}
	}
	return edges
}
