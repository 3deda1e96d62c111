package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"depositscope/internal/artifact"
	"depositscope/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configuration and trained artifacts",
	Long: `Checks that the configuration resolves and that the artifacts the
dashboard needs exist on disk. Required: the cleaned and featured
datasets, the model comparison and at least one trained model.
Missing optional artifacts only degrade their dashboard sections.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "📊 DepositScope setup check")

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "\n   ❌ Configuration: %v\n", err)
		return fmt.Errorf("configuration invalid")
	}
	fmt.Fprintf(out, "\n   ✅ Configuration: data dir %s, port %s\n", cfg.Paths.DataDir, cfg.Server.Port)

	layout := artifact.NewLayout(cfg.Paths.DataDir)
	fmt.Fprintln(out, "\n🔍 Checking artifacts...")

	required := []fileCheck{
		{"Cleaned dataset", layout.CleanedData()},
		{"Engineered features", layout.FeaturedData()},
		{"Model comparison", layout.ModelComparison()},
	}
	optional := []fileCheck{
		{"Inference encoder", layout.Encoder()},
		{"Project summary", layout.ProjectSummary()},
		{"Insights narrative", layout.InsightsNarrative()},
		{"Clustering report", layout.ClusteringReport()},
		{"Cluster assignments", layout.ClusterAssignments()},
		{"Feature importance", layout.FeatureImportance()},
	}

	ready := true
	for _, fc := range required {
		if !reportFile(out, fc, true) {
			ready = false
		}
	}
	if n := countModels(layout); n > 0 {
		fmt.Fprintf(out, "   ✅ Trained models: %d found\n", n)
	} else {
		fmt.Fprintln(out, "   ❌ Trained models: NONE (required)")
		ready = false
	}
	for _, fc := range optional {
		reportFile(out, fc, false)
	}

	if !ready {
		fmt.Fprintln(out, "\n⚠️  Setup incomplete. Run `depositscope train` to generate the missing artifacts.")
		return fmt.Errorf("required artifacts missing")
	}
	fmt.Fprintln(out, "\n🎉 All checks passed. Run `depositscope serve` to launch the dashboard.")
	return nil
}

type fileCheck struct {
	label string
	path  string
}

func reportFile(out io.Writer, fc fileCheck, required bool) bool {
	info, err := os.Stat(fc.path)
	if err == nil {
		fmt.Fprintf(out, "   ✅ %s: %.1f KB\n", fc.label, float64(info.Size())/1024)
		return true
	}
	if required {
		fmt.Fprintf(out, "   ❌ %s: NOT FOUND (required)\n", fc.label)
		return false
	}
	fmt.Fprintf(out, "   ⚠️  %s: not found (optional)\n", fc.label)
	return true
}

// countModels counts trained model envelopes, excluding the encoder that
// shares their directory.
func countModels(layout artifact.Layout) int {
	entries, err := os.ReadDir(layout.ModelsDir())
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || e.Name() == "encoder.json" {
			continue
		}
		n++
	}
	return n
}
