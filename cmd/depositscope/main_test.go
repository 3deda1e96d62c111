package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"depositscope/internal/testkit"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCheckFailsOnEmptyDataDir(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())

	out, err := executeCommand(t, "check")
	if err == nil {
		t.Fatal("check should fail when required artifacts are missing")
	}
	for _, want := range []string{
		"Cleaned dataset: NOT FOUND (required)",
		"Trained models: NONE (required)",
		"Setup incomplete",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckPassesOnTrainedTree(t *testing.T) {
	root := t.TempDir()
	if _, err := testkit.NewTestKit(root, testkit.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_DIR", root)

	out, err := executeCommand(t, "check")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Trained models: 2 found",
		"Inference encoder",
		"All checks passed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTrainWritesArtifacts(t *testing.T) {
	root := t.TempDir()
	rawPath := filepath.Join(root, "data", "raw", "deposits.csv")
	if err := testkit.NewGenerator(testkit.DefaultConfig()).WriteRawCSV(rawPath); err != nil {
		t.Fatal(err)
	}
	manifestPath := filepath.Join(root, "training.yaml")
	manifest := `run:
  seed: 7
  workers: 2
models:
  - name: ridge
  - name: decision_tree
clustering:
  algorithms: [kmeans]
  clusters: 3
importance:
  repeats: 2
`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_DIR", root)

	out, err := executeCommand(t, "train", "--manifest", manifestPath, "--raw", rawPath)
	if err != nil {
		t.Fatalf("train failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "complete in") || !strings.Contains(out, "Best:") {
		t.Errorf("unexpected train output:\n%s", out)
	}
	for _, rel := range []string{
		filepath.Join("reports", "model_results", "model_comparison.csv"),
		filepath.Join("reports", "model_results", "project_summary.json"),
		filepath.Join("models", "saved_models", "ridge.json"),
	} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("artifact %s not written: %v", rel, err)
		}
	}
}
