package clusterers

import (
	"math"

	"depositscope/domain/cluster"
)

// Silhouette computes the mean silhouette coefficient over labelled
// rows, noise excluded. Higher is better, range [-1, 1]. ok is false
// when fewer than two clusters carry points.
func Silhouette(features [][]float64, labels []int) (float64, bool) {
	groups := groupByLabel(labels)
	if len(groups) < 2 {
		return 0, false
	}

	var total float64
	var counted int
	for i, label := range labels {
		if label == cluster.NoiseLabel {
			continue
		}
		own := groups[label]
		if len(own) < 2 {
			// Singleton clusters contribute zero by convention.
			counted++
			continue
		}

		a := meanDistanceTo(features, i, own, true)
		b := math.Inf(1)
		for other, rows := range groups {
			if other == label {
				continue
			}
			if d := meanDistanceTo(features, i, rows, false); d < b {
				b = d
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
		counted++
	}
	if counted == 0 {
		return 0, false
	}
	return total / float64(counted), true
}

// DaviesBouldin computes the Davies-Bouldin index over labelled rows,
// noise excluded. Lower is better. ok is false when fewer than two
// clusters carry points.
func DaviesBouldin(features [][]float64, labels []int) (float64, bool) {
	groups := groupByLabel(labels)
	if len(groups) < 2 {
		return 0, false
	}

	order := make([]int, 0, len(groups))
	for label := range groups {
		order = append(order, label)
	}

	centroids := make(map[int][]float64, len(groups))
	scatter := make(map[int]float64, len(groups))
	width := len(features[0])
	for label, rows := range groups {
		centroid := make([]float64, width)
		for _, i := range rows {
			for j, v := range features[i] {
				centroid[j] += v
			}
		}
		for j := range centroid {
			centroid[j] /= float64(len(rows))
		}
		var s float64
		for _, i := range rows {
			s += math.Sqrt(squaredDistance(features[i], centroid))
		}
		centroids[label] = centroid
		scatter[label] = s / float64(len(rows))
	}

	var sum float64
	for _, c := range order {
		worst := 0.0
		for _, o := range order {
			if o == c {
				continue
			}
			sep := math.Sqrt(squaredDistance(centroids[c], centroids[o]))
			if sep == 0 {
				continue
			}
			if r := (scatter[c] + scatter[o]) / sep; r > worst {
				worst = r
			}
		}
		sum += worst
	}
	return sum / float64(len(order)), true
}

// CountClusters returns the number of distinct non-noise labels and the
// number of noise rows.
func CountClusters(labels []int) (clusters, noise int) {
	seen := make(map[int]struct{})
	for _, label := range labels {
		if label == cluster.NoiseLabel {
			noise++
			continue
		}
		seen[label] = struct{}{}
	}
	return len(seen), noise
}

func groupByLabel(labels []int) map[int][]int {
	groups := make(map[int][]int)
	for i, label := range labels {
		if label == cluster.NoiseLabel {
			continue
		}
		groups[label] = append(groups[label], i)
	}
	return groups
}

// meanDistanceTo averages the euclidean distance from row i to the given
// rows; excludeSelf drops i itself from the average (intra-cluster case).
func meanDistanceTo(features [][]float64, i int, rows []int, excludeSelf bool) float64 {
	var sum float64
	var n int
	for _, j := range rows {
		if excludeSelf && j == i {
			continue
		}
		sum += math.Sqrt(squaredDistance(features[i], features[j]))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
