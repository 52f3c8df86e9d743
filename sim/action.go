package sim

import "fmt"

// Assignment admits one patient of Acuity into one free unit of Resource.
type Assignment struct {
	Resource int `json:"resource"`
	Acuity   int `json:"acuity"`
}

func (a Assignment) String() string {
	return fmt.Sprintf("(resource %d, acuity %d)", a.Resource, a.Acuity)
}

// Action is the set of admissions made at one decision point.
// A single-slot decision is a one-element Action. Assignments are applied in order,
// and the same (resource, acuity) pair may appear more than once.
type Action []Assignment

// Single builds a one-assignment Action.
func Single(resource, acuity int) Action {
	return Action{{Resource: resource, Acuity: acuity}}
}

// validateAction checks the action against bounds, free capacity and queue lengths
// without mutating anything. Demand is counted across the whole action, so either
// every assignment can be honoured or the action is rejected.
func (e *Environment) validateAction(action Action) error {
	switch e.state {
	case EnvIdle:
		return ErrNotReset
	case EnvTerminated:
		return fmt.Errorf("%w at t=%d", ErrTerminated, e.clock)
	}
	if len(action) == 0 {
		return fmt.Errorf("%w: no assignments", ErrInvalidAction)
	}
	nR, nA := e.facility.NumResources(), e.facility.NumAcuities()
	resourceDemand := make(map[int]int)
	queueDemand := make(map[queueKey]int)
	for i, as := range action {
		if as.Resource < 0 || as.Resource >= nR {
			return fmt.Errorf("%w: assignment %d: resource %d out of range [0, %d)", ErrInvalidAction, i, as.Resource, nR)
		}
		if as.Acuity < 0 || as.Acuity >= nA {
			return fmt.Errorf("%w: assignment %d: acuity %d out of range [0, %d)", ErrInvalidAction, i, as.Acuity, nA)
		}
		k := queueKey{resource: as.Resource, acuity: as.Acuity}
		queueDemand[k]++
		if queueDemand[k] > e.queues.Len(as.Resource, as.Acuity) {
			return fmt.Errorf("%w: assignment %d: %s has %d waiting", ErrEmptyQueue, i, as, e.queues.Len(as.Resource, as.Acuity))
		}
		resourceDemand[as.Resource]++
		if resourceDemand[as.Resource] > e.pool.Free(as.Resource) {
			return fmt.Errorf("%w: assignment %d: resource %d has %d free", ErrNoCapacity, i, as.Resource, e.pool.Free(as.Resource))
		}
	}
	return nil
}
