package pipeline

import (
	"math/rand"

	"depositscope/adapters/tabular"
)

// Split holds row indices of one train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles row indices with the given seed and cuts them at
// the train ratio. The same seed and row count always produce the same
// partition.
func TrainTestSplit(rows int, trainRatio float64, seed int64) Split {
	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	cut := int(float64(rows) * trainRatio)
	if cut < 1 && rows > 0 {
		cut = 1
	}
	if cut > rows {
		cut = rows
	}
	return Split{Train: indices[:cut], Test: indices[cut:]}
}

// Select gathers the rows and targets at the given indices.
func Select(rows [][]float64, targets []float64, indices []int) ([][]float64, []float64) {
	outRows := make([][]float64, len(indices))
	outTargets := make([]float64, len(indices))
	for i, idx := range indices {
		outRows[i] = rows[idx]
		outTargets[i] = targets[idx]
	}
	return outRows, outTargets
}

// WriteFrameCSV writes the featured dataset: feature columns in schema
// order plus the target column.
func WriteFrameCSV(path string, frame *FeatureFrame) error {
	headers := append(append([]string{}, frame.Names...), TargetColumn)
	rows := make([][]string, len(frame.Rows))
	for i, row := range frame.Rows {
		cells := make([]string, 0, len(row)+1)
		for _, v := range row {
			cells = append(cells, tabular.FormatFloat(v))
		}
		cells = append(cells, tabular.FormatFloat(frame.Target[i]))
		rows[i] = cells
	}
	return tabular.WriteCSV(path, headers, rows)
}
