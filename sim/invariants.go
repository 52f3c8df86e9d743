package sim

import "fmt"

// CheckInvariants verifies the engine's bookkeeping and returns the first violation.
// It checks capacity accounting, single queue membership, single pending event per
// patient, queue targets and conservation of spawned patients.
func (e *Environment) CheckInvariants() error {
	inService := make([]int, e.pool.Len())
	pending := make(map[int]int)
	for _, ev := range e.schedule.Pending() {
		pending[ev.PatientID]++
		if ev.Time < e.clock {
			return fmt.Errorf("pending event %s is earlier than clock %d", ev, e.clock)
		}
		if !ev.IsArrival() {
			inService[ev.Freed]++
		}
	}
	for r := 0; r < e.pool.Len(); r++ {
		if e.pool.Free(r) < 0 || e.pool.Free(r) > e.pool.Capacity(r) {
			return fmt.Errorf("resource %d: free %d outside [0, %d]", r, e.pool.Free(r), e.pool.Capacity(r))
		}
		if e.pool.Free(r)+inService[r] != e.pool.Capacity(r) {
			return fmt.Errorf("resource %d: free %d + in service %d != capacity %d",
				r, e.pool.Free(r), inService[r], e.pool.Capacity(r))
		}
	}

	counts := make(map[PatientState]int)
	for _, p := range e.patients {
		counts[p.State]++
		if pending[p.ID] > 1 {
			return fmt.Errorf("patient %d referenced by %d pending events", p.ID, pending[p.ID])
		}
		hasEvent := pending[p.ID] == 1
		if hasEvent != p.PendingEvent {
			return fmt.Errorf("patient %d: pending flag %v but %d events", p.ID, p.PendingEvent, pending[p.ID])
		}
		r, a, queued := e.queues.Location(p.ID)
		switch p.State {
		case StateQueued:
			if !queued || hasEvent {
				return fmt.Errorf("patient %d is queued but queue membership=%v, pending event=%v", p.ID, queued, hasEvent)
			}
			if a != p.Acuity || r != e.facility.ResourceOf(p.CurrentTreatment()) {
				return fmt.Errorf("patient %d queued at (resource %d, acuity %d), expected (resource %d, acuity %d)",
					p.ID, r, a, e.facility.ResourceOf(p.CurrentTreatment()), p.Acuity)
			}
		case StateArriving, StateTreating:
			if queued || !hasEvent {
				return fmt.Errorf("patient %d is %s but queue membership=%v, pending event=%v", p.ID, p.State, queued, hasEvent)
			}
		case StateExited:
			if queued || hasEvent || len(p.Order) != 0 {
				return fmt.Errorf("patient %d exited but still referenced or has %d treatments left", p.ID, len(p.Order))
			}
		}
	}
	if e.queues.TotalLen() != counts[StateQueued] {
		return fmt.Errorf("queue table holds %d patients, %d are queued", e.queues.TotalLen(), counts[StateQueued])
	}
	total := counts[StateArriving] + counts[StateQueued] + counts[StateTreating] + counts[StateExited]
	if total != len(e.patients) {
		return fmt.Errorf("conservation: %d patients accounted for, %d spawned", total, len(e.patients))
	}
	if counts[StateExited] != e.metrics.Exited {
		return fmt.Errorf("metrics count %d exits, %d patients exited", e.metrics.Exited, counts[StateExited])
	}
	return nil
}
