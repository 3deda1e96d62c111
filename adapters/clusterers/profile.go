package clusterers

import (
	"fmt"
	"sort"

	"depositscope/domain/banking"
	"depositscope/domain/cluster"
)

// Profiles summarizes each cluster of a run in banking terms by joining
// assignments back to the cleaned records they index. Noise rows are
// skipped. Output is sorted by label.
func Profiles(assignments []cluster.Assignment, records []banking.Record) []cluster.Profile {
	byID := make(map[int]banking.Record, len(records))
	var overallTotal float64
	for _, r := range records {
		byID[r.RowID] = r
		overallTotal += r.DepositAmount
	}
	var overallAvg float64
	if len(records) > 0 {
		overallAvg = overallTotal / float64(len(records))
	}

	type tally struct {
		size     int
		deposits float64
		offices  float64
		accounts float64
		groups   map[string]int
		regions  map[string]int
	}
	tallies := make(map[int]*tally)
	for _, a := range assignments {
		if a.Label == cluster.NoiseLabel {
			continue
		}
		r, ok := byID[a.RowID]
		if !ok {
			continue
		}
		t := tallies[a.Label]
		if t == nil {
			t = &tally{groups: make(map[string]int), regions: make(map[string]int)}
			tallies[a.Label] = t
		}
		t.size++
		t.deposits += r.DepositAmount
		t.offices += float64(r.NoOfOffices)
		t.accounts += float64(r.NoOfAccounts)
		t.groups[r.PopulationGroup]++
		t.regions[r.Region]++
	}

	labels := make([]int, 0, len(tallies))
	for label := range tallies {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	profiles := make([]cluster.Profile, 0, len(labels))
	for _, label := range labels {
		t := tallies[label]
		n := float64(t.size)
		p := cluster.Profile{
			Label:          label,
			Size:           t.size,
			AvgDeposits:    t.deposits / n,
			AvgOffices:     t.offices / n,
			AvgAccounts:    t.accounts / n,
			DominantGroup:  dominantKey(t.groups),
			DominantRegion: dominantKey(t.regions),
		}
		p.Characterization = characterize(p, overallAvg)
		profiles = append(profiles, p)
	}
	return profiles
}

// dominantKey picks the most frequent key, ties broken alphabetically so
// reruns stay stable.
func dominantKey(counts map[string]int) string {
	best, bestCount := "", -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func characterize(p cluster.Profile, overallAvg float64) string {
	level := "average-deposit"
	switch {
	case overallAvg > 0 && p.AvgDeposits > 1.5*overallAvg:
		level = "high-deposit"
	case overallAvg > 0 && p.AvgDeposits < 0.5*overallAvg:
		level = "low-deposit"
	}
	return fmt.Sprintf("%s %s branches, mostly in the %s region", level, p.DominantGroup, p.DominantRegion)
}
