package testkit

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"depositscope/app"
	"depositscope/domain/run"
	"depositscope/internal/artifact"
)

// TestKit provisions a complete trained artifact tree under a temp
// root, so dashboard and CLI tests exercise the same files a real run
// produces.
type TestKit struct {
	Root    string
	RawPath string
}

// NewTestKit generates synthetic raw data and runs the full training
// pipeline over it with a small model roster.
func NewTestKit(root string, cfg Config, models ...string) (*TestKit, error) {
	if len(models) == 0 {
		models = []string{"ridge", "decision_tree"}
	}
	rawPath := filepath.Join(root, "data", "raw", "deposits.csv")
	if err := NewGenerator(cfg).WriteRawCSV(rawPath); err != nil {
		return nil, err
	}

	manifest := run.Default(models)
	manifest.Run.Workers = 2
	manifest.Clustering.Algorithms = []string{"kmeans"}
	manifest.Clustering.Clusters = 3
	manifest.Importance.Repeats = 2

	trainer := app.NewTrainingService(manifest, artifact.NewWriter(root), rawPath)
	if _, err := trainer.Run(context.Background()); err != nil {
		return nil, err
	}
	return &TestKit{Root: root, RawPath: rawPath}, nil
}

// Store opens an artifact store over the kit's root.
func (k *TestKit) Store(cacheSize int) (*artifact.Store, error) {
	return artifact.NewStore(k.Root, cacheSize)
}

// WriteFigure drops a tiny PNG into reports/figures, for tests that
// list or archive figure artifacts.
func (k *TestKit) WriteFigure(name string) error {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	dir := artifact.NewLayout(k.Root).FiguresDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644)
}

// Corrupt overwrites a stored artifact with unparsable bytes, for
// format-error paths.
func (k *TestKit) Corrupt(path string) error {
	return os.WriteFile(path, []byte("{ this is not valid"), 0o644)
}

// Remove deletes a stored artifact, for missing-artifact paths.
func (k *TestKit) Remove(path string) error {
	return os.Remove(path)
}
