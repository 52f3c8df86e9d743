package sim

import (
	"hash/fnv"
	"math/rand/v2"
)

// SimulationKey is the seed an episode is reset with. The same key, facility and
// action sequence reproduce the same clock, queues and rewards.
type SimulationKey int64

// NewSimulationKey wraps a seed.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// RNG stream names.
const (
	// SubsystemArrivals draws inter-arrival times, acuities and patterns at reset.
	SubsystemArrivals = "arrivals"

	// SubsystemTreatment draws treatment durations at admission, so the agent's
	// choices never shift the arrival stream.
	SubsystemTreatment = "treatment"

	// SubsystemPolicy feeds stochastic policies.
	SubsystemPolicy = "policy"
)

// PartitionedRNG hands out one PCG stream per named subsystem, seeded with the
// episode key and the FNV-1a hash of the name. Owned by a single environment.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates the streams for key lazily.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewPCG(uint64(p.key), streamID(name)))
	p.streams[name] = rng
	return rng
}

// Key returns the episode key.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func streamID(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}
