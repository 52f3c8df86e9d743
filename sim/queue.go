// Implements the QueueTable, which holds all patients waiting for a resource.
// Patients are enqueued when their arrival or completion event fires.

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue is the list of patient ids waiting for one (resource, acuity) pair,
// kept in enqueue order.
type WaitQueue struct {
	queue []int
}

// Enqueue adds a patient id to the back of the wait queue.
func (wq *WaitQueue) Enqueue(id int) {
	wq.queue = append(wq.queue, id)
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range wq.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of patients in the queue.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers
// may iterate over it but MUST NOT append to or reslice it.
func (wq *WaitQueue) Items() []int {
	return wq.queue
}

// RemoveAt removes and returns the id at position i, preserving the order of the rest.
func (wq *WaitQueue) RemoveAt(i int) int {
	if i < 0 || i >= len(wq.queue) {
		panic(fmt.Sprintf("RemoveAt: index %d out of range [0, %d)", i, len(wq.queue)))
	}
	id := wq.queue[i]
	wq.queue = append(wq.queue[:i], wq.queue[i+1:]...)
	return id
}

type queueKey struct {
	resource int
	acuity   int
}

// QueueTable holds one WaitQueue per (resource, acuity) pair.
// Invariant: a patient id is a member of at most one queue.
type QueueTable struct {
	queues  [][]*WaitQueue
	members map[int]queueKey
}

// NewQueueTable creates empty queues for every (resource, acuity) pair.
func NewQueueTable(numResources, numAcuities int) *QueueTable {
	queues := make([][]*WaitQueue, numResources)
	for r := range queues {
		queues[r] = make([]*WaitQueue, numAcuities)
		for a := range queues[r] {
			queues[r][a] = &WaitQueue{}
		}
	}
	return &QueueTable{queues: queues, members: make(map[int]queueKey)}
}

// Enqueue records id as waiting for (resource, acuity).
// Panics if id is already queued anywhere.
func (qt *QueueTable) Enqueue(resource, acuity, id int) {
	if k, ok := qt.members[id]; ok {
		panic(fmt.Sprintf("Enqueue: patient %d already queued at (resource %d, acuity %d)", id, k.resource, k.acuity))
	}
	qt.queues[resource][acuity].Enqueue(id)
	qt.members[id] = queueKey{resource: resource, acuity: acuity}
}

// IsEmpty reports whether no patient waits for (resource, acuity).
func (qt *QueueTable) IsEmpty(resource, acuity int) bool {
	return qt.queues[resource][acuity].Len() == 0
}

// Len returns the number of patients waiting for (resource, acuity).
func (qt *QueueTable) Len(resource, acuity int) int {
	return qt.queues[resource][acuity].Len()
}

// ResourceLen returns the number of patients waiting for resource across all acuities.
func (qt *QueueTable) ResourceLen(resource int) int {
	n := 0
	for _, wq := range qt.queues[resource] {
		n += wq.Len()
	}
	return n
}

// TotalLen returns the number of queued patients.
func (qt *QueueTable) TotalLen() int {
	return len(qt.members)
}

// Contains reports whether id is queued anywhere.
func (qt *QueueTable) Contains(id int) bool {
	_, ok := qt.members[id]
	return ok
}

// SelectAndRemove removes and returns the id chosen by rule from (resource, acuity).
// Callers must check IsEmpty first; selecting from an empty queue panics.
func (qt *QueueTable) SelectAndRemove(resource, acuity int, rule SelectionRule, lookup PatientLookup, now int64) int {
	wq := qt.queues[resource][acuity]
	if wq.Len() == 0 {
		panic(fmt.Sprintf("SelectAndRemove: queue (resource %d, acuity %d) is empty", resource, acuity))
	}
	idx := rule.Select(wq.Items(), lookup, now)
	id := wq.RemoveAt(idx)
	delete(qt.members, id)
	return id
}

// Snapshot returns a deep copy of every queue as [resource][acuity][]id.
func (qt *QueueTable) Snapshot() [][][]int {
	out := make([][][]int, len(qt.queues))
	for r := range qt.queues {
		out[r] = make([][]int, len(qt.queues[r]))
		for a, wq := range qt.queues[r] {
			out[r][a] = append([]int{}, wq.Items()...)
		}
	}
	return out
}

// Location returns the (resource, acuity) queue holding id, if any.
func (qt *QueueTable) Location(id int) (resource, acuity int, ok bool) {
	k, ok := qt.members[id]
	return k.resource, k.acuity, ok
}
