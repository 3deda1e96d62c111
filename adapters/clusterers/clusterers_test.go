package clusterers

import (
	"math"
	"math/rand"
	"testing"

	"depositscope/domain/banking"
	"depositscope/domain/cluster"
	"depositscope/internal/errors"
)

// blobs builds three well-separated gaussian blobs in 4 dimensions so
// every algorithm should recover the grouping.
func blobs(perBlob int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	centers := [][]float64{
		{0, 0, 0, 0},
		{8, 8, 0, 0},
		{-8, 8, 8, 0},
	}
	var features [][]float64
	var truth []int
	for c, center := range centers {
		for i := 0; i < perBlob; i++ {
			row := make([]float64, len(center))
			for j, v := range center {
				row[j] = v + 0.4*rng.NormFloat64()
			}
			features = append(features, row)
			truth = append(truth, c)
		}
	}
	return features, truth
}

// agreement checks that rows sharing a true blob share a predicted label
// and rows from different blobs do not, up to label permutation.
func agreement(t *testing.T, labels, truth []int) {
	t.Helper()
	mapping := map[int]int{}
	for i, label := range labels {
		if label == cluster.NoiseLabel {
			continue
		}
		if want, seen := mapping[truth[i]]; seen {
			if label != want {
				t.Fatalf("row %d: blob %d split between labels %d and %d", i, truth[i], want, label)
			}
		} else {
			mapping[truth[i]] = label
		}
	}
	seen := map[int]bool{}
	for _, label := range mapping {
		if seen[label] {
			t.Fatal("two blobs were merged into one cluster")
		}
		seen[label] = true
	}
}

func TestRegistryBuildsEveryAlgorithm(t *testing.T) {
	if len(Specs()) != 4 {
		t.Fatalf("expected 4 registered clusterers, got %d", len(Specs()))
	}
	for _, spec := range Specs() {
		c, err := New(spec.Name, Options{Clusters: 3, Seed: 42})
		if err != nil {
			t.Fatalf("New(%s) failed: %v", spec.Name, err)
		}
		if c.Name() != spec.Name {
			t.Errorf("clusterer reports name %q, registered as %q", c.Name(), spec.Name)
		}
	}
	if _, err := New("spectral", Options{}); !errors.IsUnknownModel(err) {
		t.Errorf("expected UNKNOWN_MODEL for unregistered name, got %v", err)
	}
}

func TestKMeansRecoversBlobs(t *testing.T) {
	features, truth := blobs(40, 7)
	km := NewKMeans(Options{Clusters: 3, Seed: 42})
	labels, err := km.Fit(features)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if len(labels) != len(features) {
		t.Fatalf("expected %d labels, got %d", len(features), len(labels))
	}
	agreement(t, labels, truth)

	got, err := km.Predict(features[0])
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if got != labels[0] {
		t.Errorf("predict disagreed with fit: %d vs %d", got, labels[0])
	}
}

func TestKMeansDeterministicForFixedSeed(t *testing.T) {
	features, _ := blobs(30, 9)
	first, err := NewKMeans(Options{Clusters: 3, Seed: 42}).Fit(features)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	second, err := NewKMeans(Options{Clusters: 3, Seed: 42}).Fit(features)
	if err != nil {
		t.Fatalf("refit failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d labelled %d then %d across reruns", i, first[i], second[i])
		}
	}
}

func TestHierarchicalRecoversBlobs(t *testing.T) {
	features, truth := blobs(25, 11)
	labels, err := NewHierarchical(Options{Clusters: 3}).Fit(features)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	agreement(t, labels, truth)
	clusters, _ := CountClusters(labels)
	if clusters != 3 {
		t.Errorf("expected 3 clusters, got %d", clusters)
	}
}

func TestDBSCANFindsNoise(t *testing.T) {
	features, _ := blobs(30, 13)
	// A point far away from every blob should stay noise.
	features = append(features, []float64{50, -50, 50, -50})

	labels, err := NewDBSCAN(Options{Eps: 2.0, MinPoints: 5}).Fit(features)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if labels[len(labels)-1] != cluster.NoiseLabel {
		t.Errorf("outlier got label %d, expected noise", labels[len(labels)-1])
	}
	clusters, noise := CountClusters(labels)
	if clusters != 3 {
		t.Errorf("expected 3 dense clusters, got %d", clusters)
	}
	if noise != 1 {
		t.Errorf("expected 1 noise point, got %d", noise)
	}
}

func TestGMMRecoversBlobs(t *testing.T) {
	features, truth := blobs(40, 17)
	labels, err := NewGMM(Options{Clusters: 3, Seed: 42}).Fit(features)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	agreement(t, labels, truth)
}

func TestSilhouetteBounds(t *testing.T) {
	features, truth := blobs(20, 19)
	s, ok := Silhouette(features, truth)
	if !ok {
		t.Fatal("silhouette should be defined for three clusters")
	}
	if s < -1 || s > 1 {
		t.Fatalf("silhouette %f outside [-1, 1]", s)
	}
	if s < 0.8 {
		t.Errorf("well-separated blobs should score high, got %f", s)
	}

	if _, ok := Silhouette(features, make([]int, len(features))); ok {
		t.Error("silhouette should be undefined for a single cluster")
	}
}

func TestDaviesBouldinPrefersTightClusters(t *testing.T) {
	features, truth := blobs(20, 23)
	tight, ok := DaviesBouldin(features, truth)
	if !ok {
		t.Fatal("davies-bouldin should be defined for three clusters")
	}
	if tight <= 0 {
		t.Fatalf("expected positive index, got %f", tight)
	}

	// Shuffling labels destroys structure and must score worse.
	rng := rand.New(rand.NewSource(1))
	shuffled := make([]int, len(truth))
	copy(shuffled, truth)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	loose, ok := DaviesBouldin(features, shuffled)
	if !ok {
		t.Fatal("davies-bouldin should be defined for shuffled labels")
	}
	if loose <= tight {
		t.Errorf("shuffled labels scored %f, tight clustering %f", loose, tight)
	}
}

func TestProject2DSpreadsAlongFirstComponent(t *testing.T) {
	// Points on a line in 4-D should project onto one axis.
	var features [][]float64
	for i := 0; i < 20; i++ {
		v := float64(i)
		features = append(features, []float64{v, 2 * v, -v, 0.5 * v})
	}
	coords, err := Project2D(features)
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}
	if len(coords) != len(features) {
		t.Fatalf("expected %d coordinates, got %d", len(features), len(coords))
	}
	var spreadX, spreadY float64
	for _, c := range coords {
		spreadX += c[0] * c[0]
		spreadY += c[1] * c[1]
	}
	if spreadY > spreadX*1e-6 {
		t.Errorf("second component captured variance from collinear data: x=%f y=%f", spreadX, spreadY)
	}
}

func TestProfilesJoinRecords(t *testing.T) {
	records := []banking.Record{
		{RowID: 0, PopulationGroup: "Urban", Region: "Southern", NoOfOffices: 10, NoOfAccounts: 1000, DepositAmount: 5000},
		{RowID: 1, PopulationGroup: "Urban", Region: "Southern", NoOfOffices: 12, NoOfAccounts: 1200, DepositAmount: 5200},
		{RowID: 2, PopulationGroup: "Rural", Region: "Eastern", NoOfOffices: 2, NoOfAccounts: 150, DepositAmount: 300},
		{RowID: 3, PopulationGroup: "Rural", Region: "Eastern", NoOfOffices: 3, NoOfAccounts: 180, DepositAmount: 350},
	}
	assignments := []cluster.Assignment{
		{RowID: 0, Label: 0}, {RowID: 1, Label: 0},
		{RowID: 2, Label: 1}, {RowID: 3, Label: 1},
	}
	profiles := Profiles(assignments, records)
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	urban := profiles[0]
	if urban.Size != 2 || urban.DominantGroup != "Urban" || urban.DominantRegion != "Southern" {
		t.Errorf("unexpected first profile: %+v", urban)
	}
	if math.Abs(urban.AvgDeposits-5100) > 1e-9 {
		t.Errorf("expected average deposits 5100, got %f", urban.AvgDeposits)
	}
	if urban.Characterization == "" {
		t.Error("profiles should carry a characterization line")
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	for _, spec := range Specs() {
		c, err := New(spec.Name, Options{Clusters: 2, Seed: 1})
		if err != nil {
			t.Fatalf("New(%s) failed: %v", spec.Name, err)
		}
		if _, err := c.Fit(nil); err == nil {
			t.Errorf("%s accepted empty input", spec.Name)
		}
		if _, err := c.Fit([][]float64{{1, 2}, {1}}); err == nil {
			t.Errorf("%s accepted ragged rows", spec.Name)
		}
	}
}
