package analysis

// Histogram divides [min, max] into equal-width bins and counts values
// per bin. Edges has one more entry than Counts.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// NewHistogram bins values into the given number of equal-width bins.
// Degenerate inputs (empty, or all values equal) collapse to one bin.
func NewHistogram(values []float64, bins int) Histogram {
	if len(values) == 0 {
		return Histogram{}
	}
	if bins < 1 {
		bins = 20
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return Histogram{Edges: []float64{min, max}, Counts: []int{len(values)}}
	}

	width := (max - min) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	edges[bins] = max

	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return Histogram{Edges: edges, Counts: counts}
}

// Midpoints returns one x-coordinate per bin for plotting.
func (h Histogram) Midpoints() []float64 {
	if len(h.Counts) == 0 {
		return nil
	}
	out := make([]float64, len(h.Counts))
	for i := range out {
		out[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	return out
}
