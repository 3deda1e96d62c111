package analysis

import (
	"sort"

	"depositscope/domain/banking"
)

// ValueCount pairs one categorical value with its row count.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountBy tallies records by a label selector, sorted by count
// descending, then value for stable output.
func CountBy(records []banking.Record, key func(banking.Record) string) []ValueCount {
	tally := make(map[string]int)
	for _, r := range records {
		tally[key(r)]++
	}
	out := make([]ValueCount, 0, len(tally))
	for value, count := range tally {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Deposits extracts the deposit column from records.
func Deposits(records []banking.Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.DepositAmount
	}
	return out
}

// NumericColumns returns the three numeric columns of the cleaned
// dataset, row-aligned, in (offices, accounts, deposits) order.
func NumericColumns(records []banking.Record) (names []string, series [][]float64) {
	offices := make([]float64, len(records))
	accounts := make([]float64, len(records))
	deposits := make([]float64, len(records))
	for i, r := range records {
		offices[i] = float64(r.NoOfOffices)
		accounts[i] = float64(r.NoOfAccounts)
		deposits[i] = r.DepositAmount
	}
	names = []string{"no_of_offices", "no_of_accounts", "deposit_amount"}
	return names, [][]float64{offices, accounts, deposits}
}
