package sim

import (
	"gonum.org/v1/gonum/floats"
)

// Observation is the queue-occupancy matrix [resource][acuity].
// Each row holds the fraction of the patients queued for that resource that belong
// to each acuity; rows sum to 1, or are all zero when nobody waits for the resource.
type Observation [][]float64

// Observation computes the occupancy matrix at the current clock.
func (e *Environment) Observation() Observation {
	nR, nA := e.facility.NumResources(), e.facility.NumAcuities()
	obs := make(Observation, nR)
	for r := range obs {
		row := make([]float64, nA)
		for a := range row {
			row[a] = float64(e.queues.Len(r, a))
		}
		if total := floats.Sum(row); total > 0 {
			floats.Scale(1/total, row)
		}
		obs[r] = row
	}
	return obs
}

// Flatten returns the matrix in row-major order.
func (o Observation) Flatten() []float64 {
	var out []float64
	for _, row := range o {
		out = append(out, row...)
	}
	return out
}
