package clusterers

import "math"

// Hierarchical is bottom-up agglomerative clustering with average
// linkage, cut when the target cluster count is reached.
type Hierarchical struct {
	K int
}

// NewHierarchical creates an agglomerative clusterer from manifest options.
func NewHierarchical(o Options) *Hierarchical {
	return &Hierarchical{K: o.clusters()}
}

func (m *Hierarchical) Name() string { return "hierarchical" }

func (m *Hierarchical) Fit(features [][]float64) ([]int, error) {
	if _, err := checkRows(features); err != nil {
		return nil, err
	}
	n := len(features)
	k := m.K
	if k > n {
		k = n
	}

	// Pairwise distances between active clusters, updated in place with
	// the Lance-Williams rule for average linkage.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Sqrt(squaredDistance(features[i], features[j]))
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	active := make([]bool, n)
	size := make([]int, n)
	members := make([][]int, n)
	for i := range active {
		active[i] = true
		size[i] = 1
		members[i] = []int{i}
	}

	// Each active cluster caches its nearest neighbour so a merge step
	// does not rescan the full matrix.
	nearest := make([]int, n)
	nearestDist := make([]float64, n)
	for i := 0; i < n; i++ {
		nearest[i], nearestDist[i] = closestActive(dist[i], active, i)
	}

	for remaining := n; remaining > k; remaining-- {
		bi := -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if active[i] && nearestDist[i] < best {
				bi, best = i, nearestDist[i]
			}
		}
		bj := nearest[bi]

		// Merge bj into bi, weighting by cluster sizes.
		wi := float64(size[bi])
		wj := float64(size[bj])
		for t := 0; t < n; t++ {
			if !active[t] || t == bi || t == bj {
				continue
			}
			d := (wi*dist[bi][t] + wj*dist[bj][t]) / (wi + wj)
			dist[bi][t] = d
			dist[t][bi] = d
		}
		size[bi] += size[bj]
		members[bi] = append(members[bi], members[bj]...)
		active[bj] = false

		nearest[bi], nearestDist[bi] = closestActive(dist[bi], active, bi)
		for t := 0; t < n; t++ {
			if !active[t] || t == bi {
				continue
			}
			// Stale entries are ones that pointed at a merged cluster or
			// can now be beaten by the merged one.
			if nearest[t] == bi || nearest[t] == bj {
				nearest[t], nearestDist[t] = closestActive(dist[t], active, t)
			} else if dist[t][bi] < nearestDist[t] {
				nearest[t], nearestDist[t] = bi, dist[t][bi]
			}
		}
	}

	// Relabel survivors 0..k-1 in first-member order for stable output.
	labels := make([]int, n)
	next := 0
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		for _, row := range members[i] {
			labels[row] = next
		}
		next++
	}
	return labels, nil
}

func closestActive(row []float64, active []bool, self int) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for t, d := range row {
		if t == self || !active[t] {
			continue
		}
		if d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, bestDist
}
