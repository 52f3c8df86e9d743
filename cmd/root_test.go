package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edps-sim/edps-sim/sim"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func fixtureConfig(t *testing.T, name string) *sim.Config {
	t.Helper()
	cfg, err := sim.LoadConfig(filepath.Join("..", "testdata", name))
	require.NoError(t, err)
	return cfg
}

func TestRunEpisodes_MetricsPrintedToWriter(t *testing.T) {
	// GIVEN Scenario A driven by first-available
	cfg := fixtureConfig(t, "scenario_a.yaml")
	var buf bytes.Buffer

	// WHEN one episode is run
	results, err := runEpisodes(&buf, cfg, runOptions{Policy: "first-available", Episodes: 1})

	// THEN the metrics block is printed and matches the episode
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 11, results[0].Steps)
	out := buf.String()
	assert.Contains(t, out, "=== Simulation Metrics ===")
	assert.Contains(t, out, "Patients Spawned     : 12")
	assert.Contains(t, out, "policy first-available, seed 42")
	assert.NotContains(t, out, "=== Policy Summary ===", "summary only for several episodes")
}

func TestRunEpisodes_SeveralEpisodesWriteResults(t *testing.T) {
	// GIVEN the stochastic facility with decision tracing and a results path
	cfg := fixtureConfig(t, "stochastic.yaml")
	cfg.Trace = "decisions"
	path := filepath.Join(t.TempDir(), "results.json")
	var buf bytes.Buffer

	// WHEN three episodes are run
	results, err := runEpisodes(&buf, cfg, runOptions{
		Policy: "greedy-acuity", Episodes: 3, CheckInvariants: true, ResultsPath: path,
	})

	// THEN seeds are consecutive, every episode has a results file, and a summary is printed
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, cfg.Seed+int64(i), res.Seed)
		assert.NotNil(t, res.Trace)
		assert.FileExists(t, resultsFile(path, i, 3))
	}
	out := buf.String()
	assert.Contains(t, out, "=== Policy Summary ===")
	assert.Contains(t, out, "Episodes             : 3")
	assert.Contains(t, out, "=== Trace Summary ===")
}

func TestRunEpisodes_RejectsBadOptions(t *testing.T) {
	cfg := fixtureConfig(t, "scenario_a.yaml")
	tests := []struct {
		name string
		opts runOptions
		want string
	}{
		{"unknown policy", runOptions{Policy: "oracle", Episodes: 1}, "unknown policy"},
		{"no episodes", runOptions{Policy: "random", Episodes: 0}, "--episodes"},
		{"step limit", runOptions{Policy: "random", Episodes: 1, MaxSteps: 2}, "exceeded 2 steps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runEpisodes(&bytes.Buffer{}, cfg, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResultsFile(t *testing.T) {
	assert.Equal(t, "out.json", resultsFile("out.json", 0, 1))
	assert.Equal(t, "out-2.json", resultsFile("out.json", 2, 3))
	assert.Equal(t, "dir/out-0", resultsFile("dir/out", 0, 2))
}

func TestDescribeFacility_Tables(t *testing.T) {
	// GIVEN the two-stage facility
	f, err := fixtureConfig(t, "two_stage.yaml").Resolve()
	require.NoError(t, err)
	var buf bytes.Buffer

	// WHEN described
	require.NoError(t, describeFacility(&buf, f))

	// THEN each section lists its labels and resolved durations
	out := buf.String()
	for _, want := range []string{"RESOURCE", "triage", "imaging", "ACUITY", "urgent", "assess", "constant(30)", "constant(50)", "assess -> scan", "selection=longest-wait"} {
		assert.Contains(t, out, want)
	}
}
