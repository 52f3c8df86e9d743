package policy

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/edps-sim/edps-sim/sim"
	"github.com/edps-sim/edps-sim/sim/trace"
)

// RunOptions controls RunEpisode.
type RunOptions struct {
	Seed            int64 // episode seed passed to ResetWithSeed
	MaxSteps        int   // 0 = unlimited
	CheckInvariants bool  // verify engine bookkeeping after reset and every step
}

// EpisodeResult summarises one episode driven by a policy.
type EpisodeResult struct {
	EpisodeID string              `json:"episode_id"`
	Policy    string              `json:"policy"`
	Seed      int64               `json:"seed"`
	Steps     int                 `json:"steps"`
	Rewards   []float64           `json:"rewards"`
	Summary   sim.MetricsSummary  `json:"summary"`
	Trace     *trace.TraceSummary `json:"trace,omitempty"`
	Final     sim.DebugInfo       `json:"-"`
}

// TotalReward returns the sum of the step rewards.
func (r *EpisodeResult) TotalReward() float64 {
	total := 0.0
	for _, v := range r.Rewards {
		total += v
	}
	return total
}

// RunEpisode resets env and steps it with p until the episode terminates.
func RunEpisode(env *sim.Environment, p Policy, opts RunOptions) (*EpisodeResult, error) {
	env.ResetWithSeed(opts.Seed)
	res := &EpisodeResult{EpisodeID: env.EpisodeID(), Policy: p.Name(), Seed: opts.Seed}
	if opts.CheckInvariants {
		if err := env.CheckInvariants(); err != nil {
			return nil, fmt.Errorf("after reset: %w", err)
		}
	}
	f := env.Facility()
	for !env.Done() {
		if opts.MaxSteps > 0 && res.Steps >= opts.MaxSteps {
			return nil, fmt.Errorf("episode %s exceeded %d steps at t=%d", res.EpisodeID, opts.MaxSteps, env.Clock())
		}
		action := p.Choose(env.Debug(), f)
		out, err := env.Step(action)
		if err != nil {
			return nil, fmt.Errorf("step %d at t=%d, policy %s chose %v: %w", res.Steps, env.Clock(), p.Name(), action, err)
		}
		res.Steps++
		res.Rewards = append(res.Rewards, out.Reward)
		if opts.CheckInvariants {
			if err := env.CheckInvariants(); err != nil {
				return nil, fmt.Errorf("after step %d: %w", res.Steps, err)
			}
		}
	}
	res.Summary = env.Metrics().Summarize(f.Capacities)
	res.Final = env.Debug()
	if env.Trace().Enabled() {
		res.Trace = trace.Summarize(env.Trace())
	}
	logrus.Infof("episode %s (%s, seed %d): %d steps, reward %.2f", res.EpisodeID, res.Policy, res.Seed, res.Steps, res.TotalReward())
	return res, nil
}
