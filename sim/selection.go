package sim

import (
	"fmt"
)

// PatientLookup resolves a patient id to its record.
type PatientLookup func(id int) *Patient

// SelectionRule picks which waiting patient of a (resource, acuity) queue is admitted.
// Implementations MUST NOT modify the ids slice or the patients; only the returned
// index into ids is used. ids is never empty.
type SelectionRule interface {
	Select(ids []int, lookup PatientLookup, now int64) int
}

// LongestWait admits the patient with the largest total wait across all legs so far:
// WaitingTime (closed legs) + now - WaitStart (current leg).
// Ties go to the lowest patient id.
type LongestWait struct{}

func (LongestWait) Select(ids []int, lookup PatientLookup, now int64) int {
	best := 0
	bestWait := lookup(ids[0]).TotalWait(now)
	for i := 1; i < len(ids); i++ {
		w := lookup(ids[i]).TotalWait(now)
		if w > bestWait || (w == bestWait && ids[i] < ids[best]) {
			best, bestWait = i, w
		}
	}
	return best
}

// FCFS admits the patient that entered this queue first.
type FCFS struct{}

func (FCFS) Select(_ []int, _ PatientLookup, _ int64) int {
	return 0
}

// LongestCurrentWait admits the patient waiting longest on the current leg only,
// ignoring earlier legs. Ties go to the lowest patient id.
type LongestCurrentWait struct{}

func (LongestCurrentWait) Select(ids []int, lookup PatientLookup, _ int64) int {
	best := 0
	bestStart := lookup(ids[0]).WaitStart
	for i := 1; i < len(ids); i++ {
		s := lookup(ids[i]).WaitStart
		if s < bestStart || (s == bestStart && ids[i] < ids[best]) {
			best, bestStart = i, s
		}
	}
	return best
}

// validSelectionRules is the set of recognized selection rule names.
var validSelectionRules = map[string]bool{
	"": true, "longest-wait": true, "fcfs": true, "longest-current-wait": true,
}

// IsValidSelectionRule reports whether name is a recognized selection rule.
func IsValidSelectionRule(name string) bool {
	return validSelectionRules[name]
}

// NewSelectionRule creates a SelectionRule by name.
// Empty string defaults to LongestWait.
// Panics on unrecognized names; Config.Validate rejects them first.
func NewSelectionRule(name string) SelectionRule {
	switch name {
	case "", "longest-wait":
		return LongestWait{}
	case "fcfs":
		return FCFS{}
	case "longest-current-wait":
		return LongestCurrentWait{}
	default:
		panic(fmt.Sprintf("unknown selection rule %q", name))
	}
}
