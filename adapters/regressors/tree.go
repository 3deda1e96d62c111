package regressors

import (
	"encoding/json"
	"math"
	"math/rand"
	"sort"

	"depositscope/internal/errors"
)

// TreeNode is one node of a regression tree, stored in a flat array.
// Child links are offsets relative to the node's own position, so a
// subtree slice stays valid wherever it lands in the parent array.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	IsLeaf     bool    `json:"is_leaf"`
	Prediction float64 `json:"prediction"`
}

// DecisionTree is a CART regression tree splitting on variance reduction.
// With RandomSplits set it draws thresholds uniformly between the feature
// bounds instead of scanning midpoints, which is the extra-trees splitter.
type DecisionTree struct {
	MaxDepth        int        `json:"max_depth"`
	MinSamplesSplit int        `json:"min_samples_split"`
	MinSamplesLeaf  int        `json:"min_samples_leaf"`
	MaxFeatures     int        `json:"max_features,omitempty"`
	RandomSplits    bool       `json:"random_splits,omitempty"`
	Seed            int64      `json:"seed"`
	NFeatures       int        `json:"n_features"`
	Nodes           []TreeNode `json:"nodes"`
}

// NewDecisionTree creates an unfitted CART tree.
func NewDecisionTree(p Params) *DecisionTree {
	return &DecisionTree{
		MaxDepth:        p.Int("max_depth", 12),
		MinSamplesSplit: p.Int("min_samples_split", 2),
		MinSamplesLeaf:  p.Int("min_samples_leaf", 1),
		Seed:            p.Seed(),
	}
}

func (t *DecisionTree) Name() string { return "decision_tree" }

func (t *DecisionTree) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	t.NFeatures = width
	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}
	t.fitIndices(features, targets, indices, rand.New(rand.NewSource(t.Seed)))
	return nil
}

// fitIndices grows the tree over a row subset. Ensembles call it directly
// with their bootstrap samples and a shared generator.
func (t *DecisionTree) fitIndices(features [][]float64, targets []float64, indices []int, rng *rand.Rand) {
	t.Nodes = t.buildNode(features, targets, indices, 0, rng)
}

func (t *DecisionTree) buildNode(features [][]float64, targets []float64, indices []int, depth int, rng *rand.Rand) []TreeNode {
	prediction := meanAt(targets, indices)
	if depth >= t.MaxDepth || len(indices) < t.MinSamplesSplit || isPure(targets, indices) {
		return []TreeNode{{IsLeaf: true, Prediction: prediction}}
	}

	featureIdx, threshold, ok := t.findBestSplit(features, targets, indices, rng)
	if !ok {
		return []TreeNode{{IsLeaf: true, Prediction: prediction}}
	}

	var left, right []int
	for _, idx := range indices {
		if features[idx][featureIdx] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < t.MinSamplesLeaf || len(right) < t.MinSamplesLeaf {
		return []TreeNode{{IsLeaf: true, Prediction: prediction}}
	}

	leftNodes := t.buildNode(features, targets, left, depth+1, rng)
	rightNodes := t.buildNode(features, targets, right, depth+1, rng)

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, TreeNode{
		FeatureIdx: featureIdx,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
	})
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return nodes
}

// findBestSplit returns the (feature, threshold) minimizing the summed
// child squared error.
func (t *DecisionTree) findBestSplit(features [][]float64, targets []float64, indices []int, rng *rand.Rand) (int, float64, bool) {
	width := len(features[0])
	candidates := featureCandidates(width, t.MaxFeatures, rng)

	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, j := range candidates {
		var score, threshold float64
		var ok bool
		if t.RandomSplits {
			score, threshold, ok = t.randomSplit(features, targets, indices, j, rng)
		} else {
			score, threshold, ok = t.exactSplit(features, targets, indices, j)
		}
		if ok && score < bestScore {
			bestScore = score
			bestFeature = j
			bestThreshold = threshold
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// exactSplit scans midpoints between adjacent distinct values using prefix
// sums, the classic CART splitter.
func (t *DecisionTree) exactSplit(features [][]float64, targets []float64, indices []int, feature int) (float64, float64, bool) {
	n := len(indices)
	type pair struct{ v, y float64 }
	pairs := make([]pair, n)
	for i, idx := range indices {
		pairs[i] = pair{v: features[idx][feature], y: targets[idx]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	var totalSum, totalSq float64
	for _, p := range pairs {
		totalSum += p.y
		totalSq += p.y * p.y
	}

	bestScore := math.Inf(1)
	bestThreshold := 0.0
	found := false
	var leftSum, leftSq float64
	for i := 1; i < n; i++ {
		leftSum += pairs[i-1].y
		leftSq += pairs[i-1].y * pairs[i-1].y
		if pairs[i].v == pairs[i-1].v {
			continue
		}
		if i < t.MinSamplesLeaf || n-i < t.MinSamplesLeaf {
			continue
		}
		rightSum := totalSum - leftSum
		rightSq := totalSq - leftSq
		score := (leftSq - leftSum*leftSum/float64(i)) + (rightSq - rightSum*rightSum/float64(n-i))
		if score < bestScore {
			bestScore = score
			bestThreshold = (pairs[i-1].v + pairs[i].v) / 2
			found = true
		}
	}
	return bestScore, bestThreshold, found
}

// randomSplit draws one threshold uniformly between the feature bounds.
func (t *DecisionTree) randomSplit(features [][]float64, targets []float64, indices []int, feature int, rng *rand.Rand) (float64, float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, idx := range indices {
		v := features[idx][feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo >= hi {
		return 0, 0, false
	}
	threshold := lo + rng.Float64()*(hi-lo)

	var leftSum, leftSq, rightSum, rightSq float64
	var leftN, rightN int
	for _, idx := range indices {
		y := targets[idx]
		if features[idx][feature] <= threshold {
			leftSum += y
			leftSq += y * y
			leftN++
		} else {
			rightSum += y
			rightSq += y * y
			rightN++
		}
	}
	if leftN < t.MinSamplesLeaf || rightN < t.MinSamplesLeaf {
		return 0, 0, false
	}
	score := (leftSq - leftSum*leftSum/float64(leftN)) + (rightSq - rightSum*rightSum/float64(rightN))
	return score, threshold, true
}

func (t *DecisionTree) Predict(x []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, t.NFeatures); err != nil {
		return 0, err
	}
	return walkTree(t.Nodes, x)
}

// walkTree descends a flat node array to its leaf prediction.
func walkTree(nodes []TreeNode, x []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(nodes); steps++ {
		node := nodes[idx]
		if node.IsLeaf {
			return node.Prediction, nil
		}
		if node.FeatureIdx >= len(x) {
			return 0, errors.FeatureMismatch("feature vector has the wrong width")
		}
		if x[node.FeatureIdx] <= node.Threshold {
			idx += node.LeftChild
		} else {
			idx += node.RightChild
		}
		if idx <= 0 || idx >= len(nodes) {
			break
		}
	}
	return 0, errors.InternalError("malformed tree structure")
}

func (t *DecisionTree) MarshalParams() ([]byte, error)    { return json.Marshal(t) }
func (t *DecisionTree) UnmarshalParams(data []byte) error { return json.Unmarshal(data, t) }

func featureCandidates(width, maxFeatures int, rng *rand.Rand) []int {
	if maxFeatures <= 0 || maxFeatures >= width {
		all := make([]int, width)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return rng.Perm(width)[:maxFeatures]
}

func meanAt(targets []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var s float64
	for _, idx := range indices {
		s += targets[idx]
	}
	return s / float64(len(indices))
}

func isPure(targets []float64, indices []int) bool {
	if len(indices) < 2 {
		return true
	}
	first := targets[indices[0]]
	for _, idx := range indices[1:] {
		if targets[idx] != first {
			return false
		}
	}
	return true
}
