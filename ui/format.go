package ui

import (
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Deposit amounts are stored in ₹ millions; counts use Indian digit
// grouping (12,34,567) like the source statistics do.
var printer = message.NewPrinter(language.MustParse("en-IN"))

func funcMap() template.FuncMap {
	return template.FuncMap{
		"inr":      formatINR,
		"count":    formatCount,
		"mul":      func(a, b float64) float64 { return a * b },
		"add":      func(a, b int) int { return a + b },
		"f1":       func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"f2":       func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"f4":       func(v float64) string { return fmt.Sprintf("%.4f", v) },
		"pct1":     func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"secs":     func(v float64) string { return fmt.Sprintf("%.2fs", v) },
		"signed":   formatSigned,
		"category": categoryTitle,
		"json":     toJSON,
	}
}

// formatINR renders a ₹-millions amount, switching to billions once the
// figure would need four digits.
func formatINR(millions float64) string {
	switch {
	case math.Abs(millions) >= 1000:
		return fmt.Sprintf("₹%.1fB", millions/1000)
	case math.Abs(millions) >= 1:
		return fmt.Sprintf("₹%.1fM", millions)
	default:
		return fmt.Sprintf("₹%.2fM", millions)
	}
}

// formatCount accepts int/int64/float64 to tolerate struct fields and
// JSON-decoded inputs alike.
func formatCount(v any) string {
	switch t := v.(type) {
	case int:
		return printer.Sprintf("%v", number.Decimal(t))
	case int64:
		return printer.Sprintf("%v", number.Decimal(t))
	case float64:
		return printer.Sprintf("%v", number.Decimal(int64(t)))
	default:
		return "—"
	}
}

// formatSigned prefixes positive deltas with + so comparison figures
// read as direction, not magnitude.
func formatSigned(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

func categoryTitle(category string) string {
	switch category {
	case "baseline":
		return "Baseline"
	case "tree_ensemble":
		return "Tree Ensemble"
	case "advanced":
		return "Advanced"
	}
	return strings.ReplaceAll(category, "_", " ")
}

// toJSON embeds a value as a JSON literal inside a script block, for the
// dependent form dropdowns.
func toJSON(v any) template.JS {
	data, err := json.Marshal(v)
	if err != nil {
		return template.JS("null")
	}
	return template.JS(data)
}
