package sim

import (
	"container/heap"
	"fmt"
	"sort"
)

// NoResource marks an absent resource in an Event: no unit to free for a first
// arrival, no queue to join when the patient's order is exhausted.
const NoResource = -1

// Event is a future point at which a patient leaves service or first arrives.
// It is created once, consumed exactly once when popped, and never mutated in between.
type Event struct {
	Time      int64 `json:"time"`       // Simulation time the event fires (in ticks)
	Seq       int64 `json:"seq"`        // Insertion order, breaks ties between equal times
	PatientID int   `json:"patient_id"` // Patient the event belongs to
	Freed     int   `json:"freed"`      // Resource unit to return, or NoResource
	Next      int   `json:"next"`       // Resource queue to join, or NoResource (exit)
}

// IsArrival reports whether the event is a first arrival (nothing to free).
func (e Event) IsArrival() bool { return e.Freed == NoResource }

// IsExit reports whether the patient leaves the system when the event fires.
func (e Event) IsExit() bool { return e.Next == NoResource }

func (e Event) String() string {
	return fmt.Sprintf("Event: (t=%d, seq=%d, patient=%d, freed=%d, next=%d)", e.Time, e.Seq, e.PatientID, e.Freed, e.Next)
}

// eventQueue implements heap.Interface and orders events by (Time, Seq).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventQueue []Event

func (eq eventQueue) Len() int { return len(eq) }

func (eq eventQueue) Less(i, j int) bool {
	if eq[i].Time != eq[j].Time {
		return eq[i].Time < eq[j].Time
	}
	return eq[i].Seq < eq[j].Seq
}

func (eq eventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *eventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *eventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// EventSchedule is the min-priority queue of pending events.
// Events with equal Time pop in insertion order.
type EventSchedule struct {
	events  eventQueue
	nextSeq int64
}

// NewEventSchedule creates an empty schedule.
func NewEventSchedule() *EventSchedule {
	s := &EventSchedule{events: make(eventQueue, 0)}
	heap.Init(&s.events)
	return s
}

// Push adds an event, stamping it with the next insertion sequence number.
func (s *EventSchedule) Push(ev Event) {
	ev.Seq = s.nextSeq
	s.nextSeq++
	heap.Push(&s.events, ev)
}

// PeekTime returns the time of the earliest event, or false if the schedule is empty.
func (s *EventSchedule) PeekTime() (int64, bool) {
	if len(s.events) == 0 {
		return 0, false
	}
	return s.events[0].Time, true
}

// Pop removes and returns the earliest event. Panics if the schedule is empty.
func (s *EventSchedule) Pop() Event {
	if len(s.events) == 0 {
		panic("Pop: event schedule is empty")
	}
	return heap.Pop(&s.events).(Event)
}

// Len returns the number of pending events.
func (s *EventSchedule) Len() int {
	return len(s.events)
}

// Pending returns a copy of all pending events in firing order.
func (s *EventSchedule) Pending() []Event {
	out := append(eventQueue{}, s.events...)
	sort.Sort(out)
	return out
}
