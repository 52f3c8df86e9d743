// Defines the Patient struct that models an individual patient in the simulation.
// Tracks acuity, remaining treatment order and accumulated waiting time.

package sim

import (
	"fmt"
)

// PatientState represents the lifecycle state of a patient.
type PatientState string

const (
	StateArriving PatientState = "arriving" // spawned at reset, arrival event pending
	StateQueued   PatientState = "queued"   // waiting in exactly one (resource, acuity) queue
	StateTreating PatientState = "treating" // holding one resource unit, completion event pending
	StateExited   PatientState = "exited"   // order exhausted
)

// Patient models a single patient's lifecycle in the simulation.
// Patients are owned by the Environment and referenced by ID from queues and events.
type Patient struct {
	ID          int   // Stable identifier assigned at spawn (index in the patient store)
	Acuity      int   // Acuity class in [0, num_acuities)
	Pattern     int   // Index of the treatment pattern drawn at spawn
	ArrivalTime int64 // Tick of the first queue entry
	Order       []int // Remaining treatment ids, head is the next/current treatment

	WaitingTime int64 // Cumulative ticks spent queued, non-decreasing
	WaitStart   int64 // Tick at which the current wait (or last treatment) began

	State        PatientState
	PendingEvent bool  // true while an arrival or completion event references this patient
	ExitTime     int64 // Tick of exit; only meaningful when State == StateExited
}

// NewPatient creates a patient in the arriving state. The order slice is copied.
func NewPatient(id int, arrival int64, acuity int, pattern int, order []int) *Patient {
	return &Patient{
		ID:          id,
		Acuity:      acuity,
		Pattern:     pattern,
		ArrivalTime: arrival,
		Order:       append([]int(nil), order...),
		WaitStart:   arrival,
		State:       StateArriving,
	}
}

// CurrentTreatment returns the head of the remaining order.
// Panics if the order is exhausted: an exited patient must never be queued.
func (p *Patient) CurrentTreatment() int {
	if len(p.Order) == 0 {
		panic(fmt.Sprintf("patient %d has no remaining treatment", p.ID))
	}
	return p.Order[0]
}

// TotalWait returns the waiting time accumulated so far including the current leg.
// Only the queued state has an open leg.
func (p *Patient) TotalWait(now int64) int64 {
	if p.State == StateQueued {
		return p.WaitingTime + (now - p.WaitStart)
	}
	return p.WaitingTime
}

// Admit moves the patient from its queue into service at now.
// It closes the current waiting leg, consumes the head of the order, and returns
// the completion event carrying the freed resource and the next resource (or NoResource).
// nextResource maps a treatment id to its resource id.
func (p *Patient) Admit(now, duration int64, resource int, nextResource func(treatment int) int) Event {
	if p.State != StateQueued {
		panic(fmt.Sprintf("patient %d admitted from state %s", p.ID, p.State))
	}
	p.WaitingTime += now - p.WaitStart
	p.WaitStart = now
	p.Order = p.Order[1:]
	p.State = StateTreating
	p.PendingEvent = true

	next := NoResource
	if len(p.Order) > 0 {
		next = nextResource(p.Order[0])
	}
	return Event{
		Time:      now + duration,
		PatientID: p.ID,
		Freed:     resource,
		Next:      next,
	}
}

// This method returns a human-readable string representation of a Patient.
func (p Patient) String() string {
	return fmt.Sprintf("Patient: (ID: %d, Acuity: %d, State: %s, Remaining: %v, Waiting: %d)", p.ID, p.Acuity, p.State, p.Order, p.WaitingTime)
}
