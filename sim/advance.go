// Implements the advancement loop that moves the clock from one decision point
// to the next by draining the event schedule.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/edps-sim/edps-sim/sim/trace"
)

// EnvState is the state of the environment's decision process.
type EnvState int

const (
	EnvIdle            EnvState = iota // constructed, not reset
	EnvAwaitingAction                  // some free resource has a non-empty queue
	EnvAdvancing                       // draining events, internal only
	EnvTerminated                      // clock reached max_time or nothing left to do
)

func (s EnvState) String() string {
	switch s {
	case EnvIdle:
		return "idle"
	case EnvAwaitingAction:
		return "awaiting-action"
	case EnvAdvancing:
		return "advancing"
	case EnvTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("EnvState(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON and logs.
func (s EnvState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *EnvState) UnmarshalText(text []byte) error {
	for _, st := range []EnvState{EnvIdle, EnvAwaitingAction, EnvAdvancing, EnvTerminated} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown environment state %q", text)
}

// actionable reports whether any resource with a free unit has a waiting patient.
func (e *Environment) actionable() bool {
	for r := 0; r < e.pool.Len(); r++ {
		if e.pool.Free(r) > 0 && e.queues.ResourceLen(r) > 0 {
			return true
		}
	}
	return false
}

// advance runs the clock forward until a decision is possible or the episode ends.
// All events sharing the earliest fire time are drained before actionability is
// re-checked, since releases and requeues at one instant can jointly open a decision.
// A batch whose fire time passes max_time is still applied; the run then ends at that time.
func (e *Environment) advance() {
	e.state = EnvAdvancing
	for {
		if e.clock >= e.facility.MaxTime {
			e.terminate("max_time reached")
			return
		}
		if e.actionable() {
			e.state = EnvAwaitingAction
			return
		}
		next, ok := e.schedule.PeekTime()
		if !ok {
			e.terminate("no pending events")
			return
		}
		if next < e.clock {
			panic(fmt.Sprintf("event at t=%d is earlier than clock t=%d", next, e.clock))
		}
		e.clock = next
		for {
			t, ok := e.schedule.PeekTime()
			if !ok || t != next {
				break
			}
			e.fire(e.schedule.Pop())
		}
	}
}

// fire applies one event at the current clock.
func (e *Environment) fire(ev Event) {
	p := e.patients[ev.PatientID]
	if !p.PendingEvent {
		panic(fmt.Sprintf("event %s fired for patient %d with no pending event", ev, p.ID))
	}
	p.PendingEvent = false

	kind := trace.EventCompletion
	if ev.IsArrival() {
		kind = trace.EventArrival
	} else {
		e.pool.Release(ev.Freed)
	}

	if ev.IsExit() {
		kind = trace.EventExit
		p.State = StateExited
		p.ExitTime = ev.Time
		e.metrics.RecordExit(p)
		logrus.Debugf("[t %07d] patient %d exited after waiting %d", ev.Time, p.ID, p.WaitingTime)
	} else {
		p.State = StateQueued
		p.WaitStart = ev.Time
		e.queues.Enqueue(ev.Next, p.Acuity, p.ID)
		logrus.Debugf("[t %07d] patient %d queued at %s (acuity %s)", ev.Time, p.ID,
			e.facility.ResourceLabels[ev.Next], e.facility.AcuityLabels[p.Acuity])
	}
	e.trace.RecordEvent(trace.EventRecord{
		Time:      ev.Time,
		PatientID: ev.PatientID,
		Kind:      kind,
		Freed:     ev.Freed,
		Next:      ev.Next,
	})
}

func (e *Environment) terminate(reason string) {
	e.state = EnvTerminated
	e.metrics.SimEndedTime = e.clock
	logrus.Infof("[t %07d] episode %s terminated: %s (%d/%d patients exited, %d events pending)",
		e.clock, e.episodeID, reason, e.metrics.Exited, e.metrics.Spawned, e.schedule.Len())
}
