package clusterers

import "depositscope/domain/cluster"

// DBSCAN groups density-reachable points. Rows no core point can reach
// keep the noise label.
type DBSCAN struct {
	Eps       float64
	MinPoints int
}

// NewDBSCAN creates a density clusterer from manifest options. Defaults
// suit standardized 21-dimensional feature rows.
func NewDBSCAN(o Options) *DBSCAN {
	eps := o.Eps
	if eps <= 0 {
		eps = 3.0
	}
	minPts := o.MinPoints
	if minPts < 1 {
		minPts = 10
	}
	return &DBSCAN{Eps: eps, MinPoints: minPts}
}

func (m *DBSCAN) Name() string { return "dbscan" }

func (m *DBSCAN) Fit(features [][]float64) ([]int, error) {
	if _, err := checkRows(features); err != nil {
		return nil, err
	}
	n := len(features)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = cluster.NoiseLabel
	}
	visited := make([]bool, n)
	epsSq := m.Eps * m.Eps

	next := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		neighbors := m.regionQuery(features, i, epsSq)
		if len(neighbors) < m.MinPoints {
			continue
		}
		labels[i] = next
		queue := append([]int{}, neighbors...)
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if !visited[p] {
				visited[p] = true
				if reach := m.regionQuery(features, p, epsSq); len(reach) >= m.MinPoints {
					queue = append(queue, reach...)
				}
			}
			// Claim border points but never steal from another cluster.
			if labels[p] == cluster.NoiseLabel {
				labels[p] = next
			}
		}
		next++
	}
	return labels, nil
}

// regionQuery returns every row within eps of row i, itself included.
func (m *DBSCAN) regionQuery(features [][]float64, i int, epsSq float64) []int {
	var out []int
	for j, row := range features {
		if squaredDistance(features[i], row) <= epsSq {
			out = append(out, j)
		}
	}
	return out
}
