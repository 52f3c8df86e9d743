// Package trace provides decision-trace recording for scheduling-policy analysis.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// AdmissionRecord captures one patient admitted into service by a step.
type AdmissionRecord struct {
	Time      int64   `json:"time"`
	PatientID int     `json:"patient_id"`
	Resource  int     `json:"resource"`
	Acuity    int     `json:"acuity"`
	Treatment int     `json:"treatment"`
	Duration  int64   `json:"duration"`
	Waited    int64   `json:"waited"` // accumulated waiting time after this admission
	Reward    float64 `json:"reward"`
}

// EventKind classifies a fired schedule event.
type EventKind string

const (
	EventArrival    EventKind = "arrival"    // first queue entry
	EventCompletion EventKind = "completion" // treatment done, patient requeued
	EventExit       EventKind = "exit"       // treatment done, order exhausted
)

// EventRecord captures one event popped from the schedule.
type EventRecord struct {
	Time      int64     `json:"time"`
	PatientID int       `json:"patient_id"`
	Kind      EventKind `json:"kind"`
	Freed     int       `json:"freed"` // -1 when no resource was returned
	Next      int       `json:"next"`  // -1 when the patient exits
}
