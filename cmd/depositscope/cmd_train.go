package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"depositscope/adapters/regressors"
	"depositscope/domain/run"
	"depositscope/internal/config"
	"depositscope/internal/container"
)

var trainFlags struct {
	manifest string
	raw      string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the offline pipeline: clean, features, models, clustering, reports",
	Long: `Runs the full training pipeline over the raw deposits file and writes
every artifact the dashboard reads: processed datasets, trained model
envelopes, the comparison table, clustering results, the feature
importance report, the project summary and the insights narrative.

Without a manifest the full eighteen-model roster trains with default
knobs. Artifacts land under DATA_DIR (default ".").`,
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVarP(&trainFlags.manifest, "manifest", "m", "", "Training manifest path (default: $TRAINING_MANIFEST)")
	f.StringVar(&trainFlags.raw, "raw", "", "Raw deposits CSV path (default: $RAW_DATA_FILE)")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if trainFlags.raw != "" {
		cfg.Paths.RawDataFile = trainFlags.raw
	}

	manifestPath := trainFlags.manifest
	if manifestPath == "" {
		manifestPath = cfg.Paths.ManifestFile
	}
	var manifest run.Manifest
	if _, statErr := os.Stat(manifestPath); statErr == nil {
		manifest, err = run.Load(manifestPath)
		if err != nil {
			return err
		}
		log.Printf("[Training] Manifest %s: %d models", manifestPath, len(manifest.Models))
	} else {
		manifest = run.Default(regressors.Names())
		log.Printf("[Training] No manifest at %s, training the full %d-model roster",
			manifestPath, len(manifest.Models))
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	result, err := c.Trainer(manifest).Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRun %s complete in %s\n", result.RunID, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Rows:     %d cleaned of %d source\n", result.Cleaning.CleanedRows, result.Cleaning.SourceRows)
	fmt.Fprintf(out, "  Models:   %d trained\n", result.ModelsTrained)
	if best, ok := result.Comparison.Best(); ok {
		fmt.Fprintf(out, "  Best:     %s (R²=%.4f, RMSE=%.2f)\n", best.ModelName, best.TestR2, best.TestRMSE)
	}
	if result.Clustering != nil && result.Clustering.BestAlgorithm != "" {
		fmt.Fprintf(out, "  Segments: %s selected by silhouette\n", result.Clustering.BestAlgorithm)
	}
	fmt.Fprintln(out, "\nRun `depositscope serve` to explore the results.")
	return nil
}
