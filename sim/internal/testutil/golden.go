// Package testutil provides shared test infrastructure for the patient-flow simulator.
// It consolidates fixture lookup, golden episode types and assertion helpers used
// across the sim/, sim/policy/ and cmd/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_episodes.json.
type GoldenDataset struct {
	Episodes []GoldenEpisode `json:"episodes"`
}

// GoldenEpisode is one fixture run to completion under a named policy.
type GoldenEpisode struct {
	Fixture string        `json:"fixture"`
	Policy  string        `json:"policy"`
	Steps   int           `json:"steps"`
	Metrics GoldenMetrics `json:"metrics"`
}

// GoldenMetrics is the expected episode summary. Every fixture uses constant
// durations, so all values are exact.
type GoldenMetrics struct {
	Spawned      int       `json:"spawned"`
	Admitted     int       `json:"admitted"`
	Exited       int       `json:"exited"`
	TotalReward  float64   `json:"total_reward"`
	MeanWait     float64   `json:"mean_wait"`
	Makespan     int64     `json:"makespan"`
	SimEndedTime int64     `json:"sim_ended_time"`
	Utilisation  []float64 `json:"utilisation"`
}

// RepoRoot returns the repository root, resolved relative to this source file.
func RepoRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..")
}

// FixturePath returns the path of a file under the repo root testdata/ directory.
func FixturePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "testdata", name)
}

// ExamplePath returns the path of a file under the repo root examples/ directory.
func ExamplePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "examples", name)
}

// LoadGoldenDataset loads the golden episodes from the testdata directory.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()
	data, err := os.ReadFile(FixturePath(t, "golden_episodes.json"))
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}
	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
