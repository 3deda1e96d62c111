package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"depositscope/internal/config"
	"depositscope/internal/container"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard over the trained artifacts",
	Long: `Serves the read-only dashboard. Missing artifacts do not stop the
server: affected pages show a warning banner until a training run
generates them. Corrupt artifacts fail their page with an error.`,
	RunE: runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	if err := c.InitDashboard(); err != nil {
		return err
	}
	warnMissingArtifacts(c)

	log.Printf("🚀 Starting DepositScope on port %s", cfg.Server.Port)
	return c.Server.Start(":" + cfg.Server.Port)
}

// warnMissingArtifacts logs which dashboard sections start degraded. The
// server comes up regardless; pages banner until training fills the gaps.
func warnMissingArtifacts(c *container.Container) {
	layout := c.Store.Layout()
	checks := []struct{ label, path string }{
		{"cleaned dataset", layout.CleanedData()},
		{"model comparison", layout.ModelComparison()},
		{"project summary", layout.ProjectSummary()},
		{"insights narrative", layout.InsightsNarrative()},
		{"clustering report", layout.ClusteringReport()},
	}
	missing := 0
	for _, fc := range checks {
		if _, err := os.Stat(fc.path); err != nil {
			log.Printf("⚠️  Missing %s (%s)", fc.label, fc.path)
			missing++
		}
	}
	if models, err := c.Store.AvailableModels(); err == nil && len(models) == 0 {
		log.Printf("⚠️  No trained models under %s", layout.ModelsDir())
		missing++
	}
	if missing > 0 {
		log.Printf("⚠️  %d artifact(s) missing; run `depositscope train` to generate them", missing)
	}
}
