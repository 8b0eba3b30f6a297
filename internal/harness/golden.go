package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the planned request bodies of a run as indented JSON
// with sorted keys and a trailing newline, the golden file format.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	requests := make([]any, len(result.Requests))
	for i, r := range result.Requests {
		entry := map[string]any{
			"query": r.Query,
			"op":    r.Op,
		}
		if len(r.Body) > 0 {
			entry["body"] = r.Body
		}
		if r.Error != "" {
			entry["error"] = r.Error
		}
		requests[i] = entry
	}

	out, err := json.MarshalIndent(map[string]any{
		"scenario": scenario.Name,
		"requests": requests,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(out, '\n'), nil
}

// RunWithGolden executes a scenario, fails t on unmet expectations and
// compares the planned requests against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, e)
	}

	snapshot, err := Snapshot(scenario, result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)
	return result
}

// GoldenPath returns the golden file of a scenario file: a golden/
// directory next to it, named after the file.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// UpdateGolden writes snapshot to path, creating the directory.
func UpdateGolden(path string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, snapshot, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the golden file at path holds snapshot.
// A missing golden file is reported as os.ErrNotExist.
func CompareGolden(path string, snapshot []byte) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return bytes.Equal(golden, snapshot), nil
}
