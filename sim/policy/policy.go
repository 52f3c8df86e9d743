package policy

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/edps-sim/edps-sim/sim"
)

// Policy chooses the admissions to make at a decision point.
// Implementations only read the snapshot; the returned Action must be accepted by
// Environment.Step whenever info is actionable.
type Policy interface {
	Name() string
	Choose(info sim.DebugInfo, f *sim.Facility) sim.Action
}

// FirstAvailable admits one patient into the lowest-numbered free resource,
// taking the lowest-numbered non-empty acuity.
type FirstAvailable struct{}

func (FirstAvailable) Name() string { return "first-available" }

func (FirstAvailable) Choose(info sim.DebugInfo, _ *sim.Facility) sim.Action {
	for r, row := range info.Queues {
		if info.FreeResources[r] == 0 {
			continue
		}
		for a, q := range row {
			if len(q) > 0 {
				return sim.Single(r, a)
			}
		}
	}
	return nil
}

// GreedyAcuity fills every free unit in one step, preferring the acuity with the
// largest reward weight. Ties go to the lower acuity index.
type GreedyAcuity struct{}

func (GreedyAcuity) Name() string { return "greedy-acuity" }

func (GreedyAcuity) Choose(info sim.DebugInfo, f *sim.Facility) sim.Action {
	order := make([]int, f.NumAcuities())
	for a := range order {
		order[a] = a
	}
	sort.SliceStable(order, func(i, j int) bool {
		return f.AcuityWeights[order[i]] > f.AcuityWeights[order[j]]
	})

	var action sim.Action
	for r, row := range info.Queues {
		free := info.FreeResources[r]
		for _, a := range order {
			for n := len(row[a]); n > 0 && free > 0; n-- {
				action = append(action, sim.Assignment{Resource: r, Acuity: a})
				free--
			}
		}
	}
	return action
}

// Random picks one valid single assignment uniformly at random.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a Random policy drawing from the policy stream of seed.
func NewRandom(seed int64) *Random {
	return &Random{rng: sim.NewPartitionedRNG(sim.NewSimulationKey(seed)).ForSubsystem(sim.SubsystemPolicy)}
}

func (*Random) Name() string { return "random" }

func (p *Random) Choose(info sim.DebugInfo, _ *sim.Facility) sim.Action {
	var valid []sim.Assignment
	for r, row := range info.Queues {
		if info.FreeResources[r] == 0 {
			continue
		}
		for a, q := range row {
			if len(q) > 0 {
				valid = append(valid, sim.Assignment{Resource: r, Acuity: a})
			}
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return sim.Action{valid[p.rng.IntN(len(valid))]}
}

// validPolicies is the set of recognized policy names.
var validPolicies = map[string]bool{
	"": true, "first-available": true, "greedy-acuity": true, "random": true,
}

// IsValidPolicy reports whether name is a recognized policy.
func IsValidPolicy(name string) bool {
	return validPolicies[name]
}

// ValidPolicyNames returns the recognized policy names in sorted order.
func ValidPolicyNames() []string {
	var names []string
	for name := range validPolicies {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewPolicy creates a policy by name. Empty string defaults to greedy-acuity.
// seed only affects the random policy.
// Panics on unrecognized names; callers validate with IsValidPolicy first.
func NewPolicy(name string, seed int64) Policy {
	switch name {
	case "", "greedy-acuity":
		return GreedyAcuity{}
	case "first-available":
		return FirstAvailable{}
	case "random":
		return NewRandom(seed)
	default:
		panic(fmt.Sprintf("unknown policy %q", name))
	}
}
