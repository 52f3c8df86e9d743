package sim

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edps-sim/edps-sim/sim/internal/testutil"
)

func TestMetrics_RecordAdmission_ClipsToHorizon(t *testing.T) {
	// GIVEN metrics for one resource
	m := NewMetrics(1, 1)

	// WHEN one treatment ends inside the horizon and one runs past it
	m.RecordAdmission(0, 10, 5, 100)
	m.RecordAdmission(0, 95, 20, 100)

	// THEN busy time counts only ticks before max_time
	assert.Equal(t, int64(10), m.ResourceBusy[0])
	assert.Equal(t, 2, m.Admitted)
}

func TestMetrics_Summarize(t *testing.T) {
	// GIVEN exits with waits 10, 20, 30, 40 for acuity 0 and none for acuity 1
	m := NewMetrics(2, 2)
	for i, w := range []int64{40, 10, 30, 20} {
		m.RecordExit(&Patient{ID: i, Acuity: 0, WaitingTime: w, ExitTime: int64(100 + i)})
	}
	m.ResourceBusy = []int64{150, 50}
	m.SimEndedTime = 100

	// WHEN summarised with capacities [3, 1]
	s := m.Summarize([]int{3, 1})

	// THEN waits, makespan and utilisation are derived
	assert.Equal(t, 4, s.Exited)
	testutil.AssertFloat64Equal(t, "mean wait", 25, s.MeanWait, 1e-12)
	testutil.AssertFloat64Equal(t, "acuity 0 mean", 25, s.MeanWaits[0], 1e-12)
	testutil.AssertFloat64Equal(t, "acuity 0 p90", 40, s.P90Waits[0], 1e-12)
	assert.Equal(t, 0.0, s.MeanWaits[1])
	assert.Equal(t, int64(103), s.Makespan)
	testutil.AssertFloat64Equal(t, "utilisation 0", 0.5, s.Utilisation[0], 1e-12)
	testutil.AssertFloat64Equal(t, "utilisation 1", 0.5, s.Utilisation[1], 1e-12)
}

func TestMetrics_Summarize_EmptyEpisode(t *testing.T) {
	s := NewMetrics(1, 1).Summarize([]int{1})
	assert.Equal(t, 0.0, s.MeanWait)
	assert.Equal(t, []float64{0}, s.Utilisation)
}

func TestMetrics_Print(t *testing.T) {
	// GIVEN a finished Scenario A episode
	env := newFixtureEnv(t, "scenario_a.yaml")
	env.Reset()
	for !env.Done() {
		mustStep(t, env, Single(0, 0))
	}

	// WHEN printed
	var buf bytes.Buffer
	env.Metrics().Print(&buf, env.Facility())

	// THEN the block names the counts and each resource
	out := buf.String()
	assert.Contains(t, out, "=== Simulation Metrics ===")
	assert.Contains(t, out, "Patients Spawned     : 12")
	assert.Contains(t, out, "Patients Exited      : 11")
	assert.Contains(t, out, "bay")
}

func TestMetrics_SaveResults(t *testing.T) {
	// GIVEN metrics with one exit
	m := NewMetrics(1, 1)
	m.Spawned = 1
	m.RecordExit(&Patient{WaitingTime: 7, ExitTime: 12})
	m.SimEndedTime = 12
	path := filepath.Join(t.TempDir(), "results.json")

	// WHEN saved
	require.NoError(t, m.SaveResults(path, "ep-1", []int{1}))

	// THEN the file holds the episode id and the summary
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got EpisodeResults
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ep-1", got.EpisodeID)
	assert.Equal(t, 1, got.Exited)
	assert.Equal(t, 7.0, got.MeanWait)
	assert.Equal(t, int64(12), got.Makespan)
}
