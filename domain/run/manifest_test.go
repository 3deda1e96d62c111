package run

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "training.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write manifest fixture: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeManifest(t, `
models:
  - name: linear_regression
  - name: ridge
    params:
      alpha: 0.5
`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if m.Run.Seed != 42 || m.Run.SplitRatio != 0.8 || m.Run.Workers != 4 {
		t.Errorf("defaults not applied: %+v", m.Run)
	}
	if len(m.Clustering.Algorithms) != 4 {
		t.Errorf("expected all four clustering algorithms by default, got %v", m.Clustering.Algorithms)
	}
	if m.Importance.Repeats != 5 {
		t.Errorf("expected 5 importance repeats, got %d", m.Importance.Repeats)
	}
	if p := m.ParamsFor("ridge"); p["alpha"] != 0.5 {
		t.Errorf("ridge params lost: %v", p)
	}
	if p := m.ParamsFor("linear_regression"); p != nil {
		t.Errorf("expected nil params for bare entry, got %v", p)
	}
}

func TestLoadRejectsBadSplitRatio(t *testing.T) {
	path := writeManifest(t, `
run:
  split_ratio: 1.5
models:
  - name: ridge
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for split_ratio outside (0, 1)")
	}
}

func TestLoadRejectsDuplicateModels(t *testing.T) {
	path := writeManifest(t, `
models:
  - name: ridge
  - name: ridge
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate model entry")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestDefaultManifestValidates(t *testing.T) {
	m := Default([]string{"linear_regression", "ridge"})
	if err := m.Validate(); err != nil {
		t.Fatalf("default manifest should validate: %v", err)
	}
	if names := m.ModelNames(); len(names) != 2 || names[1] != "ridge" {
		t.Errorf("unexpected roster: %v", names)
	}
}
