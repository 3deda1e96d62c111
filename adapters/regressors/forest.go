package regressors

import (
	"encoding/json"
	"math/rand"

	"depositscope/internal/errors"
)

// autoFeatures asks the splitter to consider one third of the features,
// resolved once the width is known.
const autoFeatures = -1

// ensemble is the shared machinery behind the bagged tree models: a set of
// trees grown over (optionally bootstrapped) row samples whose predictions
// are averaged.
type ensemble struct {
	NEstimators     int          `json:"n_estimators"`
	MaxDepth        int          `json:"max_depth"`
	MinSamplesSplit int          `json:"min_samples_split"`
	MinSamplesLeaf  int          `json:"min_samples_leaf"`
	MaxFeatures     int          `json:"max_features"`
	Bootstrap       bool         `json:"bootstrap"`
	RandomSplits    bool         `json:"random_splits"`
	Seed            int64        `json:"seed"`
	NFeatures       int          `json:"n_features"`
	Trees           [][]TreeNode `json:"trees"`
}

func (e *ensemble) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	if e.NEstimators < 1 {
		return errors.InvalidInput("n_estimators must be at least 1")
	}
	e.NFeatures = width
	maxFeatures := e.MaxFeatures
	if maxFeatures == autoFeatures {
		maxFeatures = width / 3
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rng := rand.New(rand.NewSource(e.Seed))
	n := len(features)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	e.Trees = make([][]TreeNode, 0, e.NEstimators)
	for t := 0; t < e.NEstimators; t++ {
		indices := all
		if e.Bootstrap {
			indices = make([]int, n)
			for i := range indices {
				indices[i] = rng.Intn(n)
			}
		}
		tree := &DecisionTree{
			MaxDepth:        e.MaxDepth,
			MinSamplesSplit: e.MinSamplesSplit,
			MinSamplesLeaf:  e.MinSamplesLeaf,
			MaxFeatures:     maxFeatures,
			RandomSplits:    e.RandomSplits,
		}
		tree.fitIndices(features, targets, indices, rng)
		e.Trees = append(e.Trees, tree.Nodes)
	}
	return nil
}

func (e *ensemble) Predict(x []float64) (float64, error) {
	if len(e.Trees) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, e.NFeatures); err != nil {
		return 0, err
	}
	var sum float64
	for _, nodes := range e.Trees {
		v, err := walkTree(nodes, x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(e.Trees)), nil
}

func (e *ensemble) MarshalParams() ([]byte, error)    { return json.Marshal(e) }
func (e *ensemble) UnmarshalParams(data []byte) error { return json.Unmarshal(data, e) }

// RandomForest bags exact-splitting trees over bootstrap samples with a
// one-third feature subsample per split.
type RandomForest struct {
	ensemble
}

// NewRandomForest creates an unfitted random forest.
func NewRandomForest(p Params) *RandomForest {
	return &RandomForest{ensemble{
		NEstimators:     p.Int("n_estimators", 100),
		MaxDepth:        p.Int("max_depth", 16),
		MinSamplesSplit: p.Int("min_samples_split", 2),
		MinSamplesLeaf:  p.Int("min_samples_leaf", 1),
		MaxFeatures:     p.Int("max_features", autoFeatures),
		Bootstrap:       true,
		Seed:            p.Seed(),
	}}
}

func (m *RandomForest) Name() string { return "random_forest" }

// ExtraTrees grows trees on the full sample with uniformly drawn split
// thresholds, trading split optimality for decorrelation.
type ExtraTrees struct {
	ensemble
}

// NewExtraTrees creates an unfitted extra-trees model.
func NewExtraTrees(p Params) *ExtraTrees {
	return &ExtraTrees{ensemble{
		NEstimators:     p.Int("n_estimators", 100),
		MaxDepth:        p.Int("max_depth", 16),
		MinSamplesSplit: p.Int("min_samples_split", 2),
		MinSamplesLeaf:  p.Int("min_samples_leaf", 1),
		MaxFeatures:     p.Int("max_features", autoFeatures),
		RandomSplits:    true,
		Seed:            p.Seed(),
	}}
}

func (m *ExtraTrees) Name() string { return "extra_trees" }

// Bagging averages full-feature exact trees over bootstrap samples.
type Bagging struct {
	ensemble
}

// NewBagging creates an unfitted bagging model.
func NewBagging(p Params) *Bagging {
	return &Bagging{ensemble{
		NEstimators:     p.Int("n_estimators", 10),
		MaxDepth:        p.Int("max_depth", 16),
		MinSamplesSplit: p.Int("min_samples_split", 2),
		MinSamplesLeaf:  p.Int("min_samples_leaf", 1),
		Bootstrap:       true,
		Seed:            p.Seed(),
	}}
}

func (m *Bagging) Name() string { return "bagging" }
