// Package sim provides the discrete-event engine that moves patients through
// finite-capacity medical resources and exposes it as a steppable decision process.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - patient.go: Patient lifecycle (arriving → queued → treating → exited)
//   - event.go: the Event record and the (time, sequence) ordered schedule
//   - advance.go: the state machine and the batched event-draining loop
//   - environment.go: Reset / Step / Observation / Debug
//
// # Architecture
//
// The sim package owns the state; pure helpers live in sub-packages:
//   - sim/workload/: duration distributions and arrival-schedule generation
//   - sim/trace/: decision trace recording
//   - sim/policy/: heuristic scheduling policies and the episode runner
//
// # Key Interfaces
//
//   - SelectionRule: which waiting patient of a (resource, acuity) queue is admitted
//   - workload.Distribution: closed set of duration distributions resolved at load time
package sim
