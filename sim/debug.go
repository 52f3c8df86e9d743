package sim

// DebugInfo is a read-only snapshot of the engine for logging and visualisation.
// Every slice is a copy; mutating it never affects the environment.
type DebugInfo struct {
	Time          int64     `json:"time"`
	State         EnvState  `json:"state"`
	Queues        [][][]int `json:"queues"` // [resource][acuity] -> patient ids in enqueue order
	PendingEvents []Event   `json:"pending_events"`
	FreeResources []int     `json:"free_resources"`
}

// Debug returns a deep-copied snapshot of the current state.
func (e *Environment) Debug() DebugInfo {
	return DebugInfo{
		Time:          e.clock,
		State:         e.state,
		Queues:        e.queues.Snapshot(),
		PendingEvents: e.schedule.Pending(),
		FreeResources: e.pool.FreeSnapshot(),
	}
}

// QueueLen returns the number of patients waiting for (resource, acuity) in the snapshot.
func (d DebugInfo) QueueLen(resource, acuity int) int {
	return len(d.Queues[resource][acuity])
}

// Actionable reports whether the snapshot has a free resource with a waiting patient.
func (d DebugInfo) Actionable() bool {
	for r, row := range d.Queues {
		if d.FreeResources[r] == 0 {
			continue
		}
		for _, q := range row {
			if len(q) > 0 {
				return true
			}
		}
	}
	return false
}
