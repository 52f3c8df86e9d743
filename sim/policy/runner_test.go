package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edps-sim/edps-sim/sim"
	"github.com/edps-sim/edps-sim/sim/internal/testutil"
)

func newEnv(t *testing.T, fixture string) *sim.Environment {
	t.Helper()
	cfg, err := sim.LoadConfig(testutil.FixturePath(t, fixture))
	require.NoError(t, err)
	env, err := sim.NewEnvironment(cfg)
	require.NoError(t, err)
	return env
}

func TestRunEpisode_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	require.NotEmpty(t, dataset.Episodes)
	for _, tc := range dataset.Episodes {
		t.Run(tc.Fixture, func(t *testing.T) {
			// GIVEN a deterministic fixture
			env := newEnv(t, tc.Fixture)

			// WHEN run to completion under the recorded policy
			res, err := RunEpisode(env, NewPolicy(tc.Policy, 0), RunOptions{Seed: env.Facility().Seed, CheckInvariants: true})
			require.NoError(t, err)

			// THEN every metric matches the golden values
			want := tc.Metrics
			assert.Equal(t, tc.Steps, res.Steps)
			assert.Equal(t, want.Spawned, res.Summary.Spawned)
			assert.Equal(t, want.Admitted, res.Summary.Admitted)
			assert.Equal(t, want.Exited, res.Summary.Exited)
			assert.Equal(t, want.Makespan, res.Summary.Makespan)
			assert.Equal(t, want.SimEndedTime, res.Summary.SimEndedTime)
			testutil.AssertFloat64Equal(t, "total_reward", want.TotalReward, res.Summary.TotalReward, 1e-9)
			testutil.AssertFloat64Equal(t, "total_reward (steps)", want.TotalReward, res.TotalReward(), 1e-9)
			testutil.AssertFloat64Equal(t, "mean_wait", want.MeanWait, res.Summary.MeanWait, 1e-9)
			require.Len(t, res.Summary.Utilisation, len(want.Utilisation))
			for r := range want.Utilisation {
				testutil.AssertFloat64Equal(t, "utilisation", want.Utilisation[r], res.Summary.Utilisation[r], 1e-9)
			}
		})
	}
}

func TestRunEpisode_AllPoliciesKeepInvariants(t *testing.T) {
	for _, name := range ValidPolicyNames() {
		t.Run(name, func(t *testing.T) {
			// GIVEN the stochastic facility
			env := newEnv(t, "stochastic.yaml")

			// WHEN a whole episode is driven by the policy with invariant checks
			res, err := RunEpisode(env, NewPolicy(name, 3), RunOptions{Seed: 11, CheckInvariants: true})

			// THEN it terminates cleanly with nothing pending before the final clock
			require.NoError(t, err)
			assert.True(t, env.Done())
			assert.Greater(t, res.Steps, 0)
			assert.Equal(t, res.Final.Time, res.Summary.SimEndedTime)
			for _, ev := range res.Final.PendingEvents {
				assert.GreaterOrEqual(t, ev.Time, res.Summary.SimEndedTime)
			}
			assert.Len(t, res.Rewards, res.Steps)
			assert.Equal(t, int64(11), res.Seed)
			assert.Nil(t, res.Trace, "tracing is off by default")
		})
	}
}

func TestRunEpisode_MaxSteps(t *testing.T) {
	env := newEnv(t, "scenario_a.yaml")
	_, err := RunEpisode(env, FirstAvailable{}, RunOptions{Seed: 1, MaxSteps: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded 3 steps")
}

func TestRunEpisode_TraceSummary(t *testing.T) {
	// GIVEN the two-stage facility with decision tracing
	cfg, err := sim.LoadConfig(testutil.FixturePath(t, "two_stage.yaml"))
	require.NoError(t, err)
	cfg.Trace = "decisions"
	env, err := sim.NewEnvironment(cfg)
	require.NoError(t, err)

	// WHEN run with first-available
	res, err := RunEpisode(env, FirstAvailable{}, RunOptions{Seed: cfg.Seed})
	require.NoError(t, err)

	// THEN the trace summary counts every admission by resource
	require.NotNil(t, res.Trace)
	assert.Equal(t, 9, res.Trace.TotalDecisions)
	assert.Equal(t, 7, res.Trace.AdmissionsByResource[0])
	assert.Equal(t, 2, res.Trace.AdmissionsByResource[1])
	assert.Equal(t, int64(30), res.Trace.MaxWait)
}
