package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"depositscope/adapters/tabular"
	"depositscope/domain/banking"

	"github.com/shopspring/decimal"
)

// CleaningReport records what the cleaner dropped and why.
type CleaningReport struct {
	SourceRows     int `json:"source_rows"`
	CleanedRows    int `json:"cleaned_rows"`
	MissingDropped int `json:"missing_dropped"`
	InvalidDropped int `json:"invalid_dropped"`
	ZeroDeposit    int `json:"zero_deposit_dropped"`
	Duplicates     int `json:"duplicates_dropped"`
}

// RemovalRate returns the fraction of source rows the cleaner dropped.
func (r CleaningReport) RemovalRate() float64 {
	if r.SourceRows == 0 {
		return 0
	}
	return 1 - float64(r.CleanedRows)/float64(r.SourceRows)
}

// Clean turns a raw deposits table into validated records. Rows with
// missing fields, unknown categories, malformed numbers or zero deposits
// are dropped and counted; exact duplicates keep their first occurrence.
func Clean(t *tabular.Table) ([]banking.Record, CleaningReport, error) {
	cols, err := t.RequireColumns(
		"population_group", "region", "state_name", "district_name",
		"no_of_offices", "no_of_accounts", "deposit_amount",
	)
	if err != nil {
		return nil, CleaningReport{}, fmt.Errorf("raw dataset: %w", err)
	}

	report := CleaningReport{SourceRows: t.Len()}
	titled := cases.Title(language.English)
	seen := make(map[string]struct{}, t.Len())
	records := make([]banking.Record, 0, t.Len())

	for i := range t.Rows {
		group := canonicalGroup(t.Cell(i, cols[0]))
		region := canonicalRegion(t.Cell(i, cols[1]))
		state := titled.String(strings.TrimSpace(t.Cell(i, cols[2])))
		district := titled.String(strings.TrimSpace(t.Cell(i, cols[3])))

		if group == "" || region == "" || state == "" || district == "" {
			if anyEmpty(t.Cell(i, cols[0]), t.Cell(i, cols[1]), t.Cell(i, cols[2]), t.Cell(i, cols[3])) {
				report.MissingDropped++
			} else {
				report.InvalidDropped++
			}
			continue
		}

		offices, okOffices := parseCount(t.Cell(i, cols[4]))
		accounts, okAccounts := parseCount(t.Cell(i, cols[5]))
		deposit, okDeposit := parseAmount(t.Cell(i, cols[6]))
		if !okOffices || !okAccounts || !okDeposit {
			report.InvalidDropped++
			continue
		}
		if deposit.IsZero() {
			report.ZeroDeposit++
			continue
		}

		key := strings.Join([]string{group, region, state, district,
			fmt.Sprint(offices), fmt.Sprint(accounts), deposit.String()}, "|")
		if _, dup := seen[key]; dup {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		records = append(records, banking.Record{
			RowID:           len(records),
			PopulationGroup: group,
			Region:          region,
			StateName:       state,
			DistrictName:    district,
			NoOfOffices:     offices,
			NoOfAccounts:    accounts,
			DepositAmount:   deposit.InexactFloat64(),
		})
	}

	report.CleanedRows = len(records)
	return records, report, nil
}

func canonicalGroup(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, known := range banking.PopulationGroups {
		if strings.EqualFold(raw, known) {
			return known
		}
	}
	return ""
}

func canonicalRegion(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, " ", "-"))
	for _, known := range banking.Regions {
		if strings.EqualFold(raw, known) {
			return known
		}
	}
	return ""
}

func anyEmpty(cells ...string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) == "" {
			return true
		}
	}
	return false
}

func parseCount(raw string) (int64, bool) {
	d, ok := parseAmount(raw)
	if !ok || d.IsNegative() || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

// parseAmount parses a monetary cell exactly, tolerating thousands
// separators and a currency prefix.
func parseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimPrefix(raw, "₹")
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}
