package clusterers

import (
	"math"
	"math/rand"

	"depositscope/internal/errors"
)

// KMeans is Lloyd's algorithm with k-means++ seeding.
type KMeans struct {
	K       int
	MaxIter int
	Seed    int64

	Centroids [][]float64
}

// NewKMeans creates a k-means clusterer from manifest options.
func NewKMeans(o Options) *KMeans {
	return &KMeans{K: o.clusters(), MaxIter: o.maxIter(100), Seed: o.Seed}
}

func (m *KMeans) Name() string { return "kmeans" }

func (m *KMeans) Fit(features [][]float64) ([]int, error) {
	width, err := checkRows(features)
	if err != nil {
		return nil, err
	}
	n := len(features)
	k := m.K
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(m.Seed))
	centroids := seedCentroids(features, k, rng)
	labels := make([]int, n)

	for iter := 0; iter < m.MaxIter; iter++ {
		changed := false
		for i, row := range features {
			best := nearestCentroid(row, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, width)
		}
		for i, row := range features {
			c := labels[i]
			counts[c]++
			for j, v := range row {
				sums[c][j] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Reseed an empty cluster at the point farthest from its centroid.
				centroids[c] = append([]float64{}, farthestPoint(features, labels, centroids)...)
				changed = true
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	m.Centroids = centroids
	return labels, nil
}

// seedCentroids is k-means++: the first centre is uniform, each further
// centre is drawn proportionally to its squared distance from the
// nearest chosen centre.
func seedCentroids(features [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(features)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64{}, features[rng.Intn(n)]...))

	dists := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, row := range features {
			d := math.Inf(1)
			for _, c := range centroids {
				if v := squaredDistance(row, c); v < d {
					d = v
				}
			}
			dists[i] = d
			total += d
		}
		if total == 0 {
			// All remaining points coincide with a centre; duplicate one.
			centroids = append(centroids, append([]float64{}, features[0]...))
			continue
		}
		r := rng.Float64() * total
		var acc float64
		pick := n - 1
		for i, d := range dists {
			acc += d
			if acc >= r {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float64{}, features[pick]...))
	}
	return centroids
}

func nearestCentroid(row []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(row, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func farthestPoint(features [][]float64, labels []int, centroids [][]float64) []float64 {
	worst, worstDist := 0, -1.0
	for i, row := range features {
		if d := squaredDistance(row, centroids[labels[i]]); d > worstDist {
			worst, worstDist = i, d
		}
	}
	return features[worst]
}

func squaredDistance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// Predict assigns a row to its nearest fitted centroid.
func (m *KMeans) Predict(row []float64) (int, error) {
	if len(m.Centroids) == 0 {
		return 0, errors.InvalidInput("clusterer is not fitted")
	}
	if len(row) != len(m.Centroids[0]) {
		return 0, errors.FeatureMismatch("feature vector has the wrong width")
	}
	return nearestCentroid(row, m.Centroids), nil
}
