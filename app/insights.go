package app

import (
	"fmt"
	"strings"

	"depositscope/domain/banking"
	"depositscope/domain/cluster"
	"depositscope/domain/model"
	"depositscope/internal/analysis"
	"depositscope/internal/pipeline"
)

// BuildInsights renders the data storytelling narrative as markdown.
// Every figure is computed from the inputs, so the narrative always
// agrees with the artifacts written alongside it.
func BuildInsights(records []banking.Record, cleaning pipeline.CleaningReport, comparison model.Comparison, clustering *cluster.Report) string {
	var b strings.Builder
	summary := banking.Summarize(records)
	deposits := analysis.Deposits(records)

	b.WriteString("# Banking Deposits: Data Storytelling Insights\n\n")

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "This analysis covers **%d records** across **%d states** and **%d districts**, ",
		summary.TotalRecords, summary.UniqueStates, summary.UniqueDistricts)
	fmt.Fprintf(&b, "representing ₹%.1f billion in deposits held at %d bank offices serving %d accounts.\n\n",
		summary.TotalDeposits/1e3, summary.TotalOffices, summary.TotalAccounts)
	if best, ok := comparison.Best(); ok {
		fmt.Fprintf(&b, "The best regression model, **%s**, explains **%.2f%%** of deposit variance on held-out data (RMSE ₹%.2fM).\n\n",
			best.ModelName, best.TestR2*100, best.TestRMSE)
	}

	b.WriteString("## Data Quality\n\n")
	fmt.Fprintf(&b, "- Source rows: %d, cleaned rows: %d (%.1f%% removed)\n",
		cleaning.SourceRows, cleaning.CleanedRows, cleaning.RemovalRate()*100)
	fmt.Fprintf(&b, "- Dropped: %d with missing fields, %d invalid, %d zero-deposit, %d duplicates\n\n",
		cleaning.MissingDropped, cleaning.InvalidDropped, cleaning.ZeroDeposit, cleaning.Duplicates)

	b.WriteString("## Deposit Distribution\n\n")
	stats := analysis.Describe(deposits)
	skew := analysis.Skewness(deposits)
	outliers := analysis.OutlierCount(deposits)
	fmt.Fprintf(&b, "Deposits range from ₹%.2fM to ₹%.2fM with a median of ₹%.2fM against a mean of ₹%.2fM. ",
		stats.Min, stats.Max, stats.Median, stats.Mean)
	fmt.Fprintf(&b, "Skewness of %.2f marks a %s distribution", skew, skewLabel(skew))
	fmt.Fprintf(&b, "; %d records (%.1f%%) sit outside the 1.5 IQR fences.\n\n",
		outliers, pct(outliers, len(deposits)))

	writeGroupSection(&b, records, summary)
	writeInfrastructureSection(&b, records, summary)
	writeRegionalSection(&b, records, summary)
	writeModelSection(&b, comparison)
	writeClusterSection(&b, clustering)

	return b.String()
}

func writeGroupSection(b *strings.Builder, records []banking.Record, summary banking.Summary) {
	b.WriteString("## Population Group Patterns\n\n")
	for _, agg := range banking.ByPopulationGroup(records) {
		fmt.Fprintf(b, "- **%s**: %d records (%.1f%%), average deposit ₹%.2fM, %.1f%% of total deposits\n",
			agg.Key, agg.Records, pct(agg.Records, summary.TotalRecords),
			agg.AverageDeposits, share(agg.TotalDeposits, summary.TotalDeposits))
	}
	b.WriteString("\n")

	groups := banking.ByPopulationGroup(records)
	if len(groups) >= 2 {
		top, bottom := groups[0], groups[len(groups)-1]
		a := depositsOf(records, func(r banking.Record) bool { return r.PopulationGroup == top.Key })
		c := depositsOf(records, func(r banking.Record) bool { return r.PopulationGroup == bottom.Key })
		t, p := analysis.WelchTTest(a, c)
		fmt.Fprintf(b, "A Welch t-test between %s and %s deposits gives t=%.2f (p=%.4f), %s.\n\n",
			top.Key, bottom.Key, t, p, significanceLabel(p))
	}
}

func writeInfrastructureSection(b *strings.Builder, records []banking.Record, summary banking.Summary) {
	b.WriteString("## Infrastructure Relationships\n\n")
	names, series := analysis.NumericColumns(records)
	byName := make(map[string][]float64, len(names))
	for i, name := range names {
		byName[name] = series[i]
	}
	offices, accounts, deposits := byName["no_of_offices"], byName["no_of_accounts"], byName["deposit_amount"]

	r1, _ := analysis.Pearson(offices, accounts)
	r2, _ := analysis.Pearson(offices, deposits)
	r3, _ := analysis.Pearson(accounts, deposits)
	fmt.Fprintf(b, "- Offices and accounts correlate at r=%.3f (%s)\n", r1, correlationLabel(r1))
	fmt.Fprintf(b, "- Offices and deposits correlate at r=%.3f (%s)\n", r2, correlationLabel(r2))
	fmt.Fprintf(b, "- Accounts and deposits correlate at r=%.3f (%s)\n", r3, correlationLabel(r3))
	fmt.Fprintf(b, "- Each office serves %.1f accounts on average\n\n", summary.AccountsPerOffice())
}

func writeRegionalSection(b *strings.Builder, records []banking.Record, summary banking.Summary) {
	b.WriteString("## Regional Disparities\n\n")
	regions := banking.ByRegion(records)
	for _, agg := range regions {
		fmt.Fprintf(b, "- **%s region**: ₹%.1fB total across %d records (avg ₹%.2fM)\n",
			agg.Key, agg.TotalDeposits/1e3, agg.Records, agg.AverageDeposits)
	}
	b.WriteString("\n")

	states := banking.ByState(records, 5)
	if len(states) > 0 {
		b.WriteString("Top states by total deposits:\n\n")
		for i, agg := range states {
			fmt.Fprintf(b, "%d. %s with ₹%.1fB (%.1f%% of the national total)\n",
				i+1, agg.Key, agg.TotalDeposits/1e3, share(agg.TotalDeposits, summary.TotalDeposits))
		}
		b.WriteString("\n")
	}
	if len(regions) >= 2 {
		top, bottom := regions[0], regions[len(regions)-1]
		fmt.Fprintf(b, "The %s region holds %.1fx the deposits of the %s region, ",
			top.Key, ratio(top.TotalDeposits, bottom.TotalDeposits), bottom.Key)
		b.WriteString("a gap that widens further at district level.\n\n")
	}
}

func writeModelSection(b *strings.Builder, comparison model.Comparison) {
	b.WriteString("## Model Performance\n\n")
	byCategory := comparison.ByCategory()
	for _, category := range []string{model.CategoryBaseline, model.CategoryTree, model.CategoryAdvanced} {
		results, ok := byCategory[category]
		if !ok || len(results) == 0 {
			continue
		}
		best := results[0]
		fmt.Fprintf(b, "- Best %s model: **%s** at R²=%.4f\n", category, best.ModelName, best.TestR2)
	}
	if fastest := fastestStrong(comparison); fastest != "" {
		fmt.Fprintf(b, "- Fastest model above 0.9 R²: **%s**\n", fastest)
	}
	b.WriteString("\n")
}

func writeClusterSection(b *strings.Builder, report *cluster.Report) {
	if report == nil || len(report.Profiles) == 0 {
		return
	}
	b.WriteString("## Branch Segmentation\n\n")
	if run, ok := report.BestRun(); ok {
		fmt.Fprintf(b, "%s found %d distinct segments (silhouette %.3f):\n\n",
			report.BestAlgorithm, run.Clusters, run.Silhouette)
	}
	for _, p := range report.Profiles {
		fmt.Fprintf(b, "- **Segment %d** (%d branches): %s. Average deposit ₹%.2fM.\n",
			p.Label, p.Size, p.Characterization, p.AvgDeposits)
	}
	b.WriteString("\n")
}

func depositsOf(records []banking.Record, match func(banking.Record) bool) []float64 {
	var out []float64
	for _, r := range records {
		if match(r) {
			out = append(out, r.DepositAmount)
		}
	}
	return out
}

func fastestStrong(comparison model.Comparison) string {
	name := ""
	best := 0.0
	for _, r := range comparison.Results {
		if r.TestR2 < 0.9 {
			continue
		}
		if name == "" || r.TrainingTimeSecs < best {
			name = r.ModelName
			best = r.TrainingTimeSecs
		}
	}
	return name
}

func skewLabel(skew float64) string {
	switch {
	case skew > 1:
		return "heavily right-skewed"
	case skew > 0.5:
		return "moderately right-skewed"
	case skew < -1:
		return "heavily left-skewed"
	case skew < -0.5:
		return "moderately left-skewed"
	default:
		return "roughly symmetric"
	}
}

func correlationLabel(r float64) string {
	switch abs := r; {
	case abs >= 0.9 || abs <= -0.9:
		return "very strong"
	case abs >= 0.7 || abs <= -0.7:
		return "strong"
	case abs >= 0.4 || abs <= -0.4:
		return "moderate"
	default:
		return "weak"
	}
}

func significanceLabel(p float64) string {
	if p < 0.05 {
		return "a statistically significant difference"
	}
	return "not statistically significant at the 5% level"
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func share(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
