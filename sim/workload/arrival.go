package workload

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Categorical draws an index in [0, n) with fixed relative weights,
// using inverse CDF via binary search.
type Categorical struct {
	cdf []float64
}

// NewCategorical builds a sampler from non-negative weights.
// Weights are normalized; at least one must be positive.
func NewCategorical(weights []float64) (*Categorical, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("categorical: no weights")
	}
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("categorical: weight[%d] must be non-negative, got %f", i, w)
		}
	}
	total := floats.Sum(weights)
	if total <= 0 {
		return nil, fmt.Errorf("categorical: weights sum to %f, need a positive total", total)
	}
	cdf := floats.CumSum(make([]float64, len(weights)), weights)
	floats.Scale(1/total, cdf)
	// Ensure last CDF entry is exactly 1.0
	cdf[len(cdf)-1] = 1.0
	return &Categorical{cdf: cdf}, nil
}

// Len returns the number of categories.
func (c *Categorical) Len() int {
	return len(c.cdf)
}

// Sample draws one category index.
func (c *Categorical) Sample(rng *rand.Rand) int {
	if len(c.cdf) == 1 {
		return 0
	}
	u := rng.Float64()
	idx := sort.Search(len(c.cdf), func(i int) bool { return c.cdf[i] > u })
	if idx >= len(c.cdf) {
		idx = len(c.cdf) - 1
	}
	return idx
}

// Arrival is one patient arrival drawn at reset time.
type Arrival struct {
	Time    int64
	Acuity  int
	Pattern int
}

// ArrivalSpec bundles the samplers that describe the patient arrival process.
type ArrivalSpec struct {
	Interval Distribution // inter-arrival time
	Acuity   *Categorical // acuity class of each arrival
	Pattern  *Categorical // treatment pattern of each arrival
}

// GenerateArrivals draws the full arrival schedule for [0, horizon).
// The clock starts at zero and advances by one inter-arrival sample per patient
// while it is still below the horizon, so the last arrival may land on or past it.
// Draw order per patient is interval, acuity, pattern. Deterministic given rng state.
func GenerateArrivals(rng *rand.Rand, spec ArrivalSpec, horizon int64) []Arrival {
	if horizon <= 0 {
		return nil
	}
	var arrivals []Arrival
	t := int64(0)
	for t < horizon {
		t += spec.Interval.Sample(rng)
		arrivals = append(arrivals, Arrival{
			Time:    t,
			Acuity:  spec.Acuity.Sample(rng),
			Pattern: spec.Pattern.Sample(rng),
		})
	}
	logrus.Debugf("generated %d arrivals over horizon %d (interval %s)", len(arrivals), horizon, spec.Interval)
	return arrivals
}
