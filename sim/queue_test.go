package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queuedPatients builds a lookup over patients queued at the given wait starts.
func queuedPatients(waitStarts map[int]int64) PatientLookup {
	store := make(map[int]*Patient, len(waitStarts))
	for id, start := range waitStarts {
		p := NewPatient(id, start, 0, 0, []int{0})
		p.State = StateQueued
		store[id] = p
	}
	return func(id int) *Patient { return store[id] }
}

func TestWaitQueue_RemoveAt_PreservesOrder(t *testing.T) {
	// GIVEN a queue [1 2 3 4]
	wq := &WaitQueue{}
	for _, id := range []int{1, 2, 3, 4} {
		wq.Enqueue(id)
	}

	// WHEN the element at index 1 is removed
	got := wq.RemoveAt(1)

	// THEN it returns 2 and the rest keep their order
	assert.Equal(t, 2, got)
	assert.Equal(t, []int{1, 3, 4}, wq.Items())
	assert.Equal(t, "[1 3 4]", wq.String())
}

func TestWaitQueue_RemoveAt_OutOfRange_Panics(t *testing.T) {
	wq := &WaitQueue{}
	wq.Enqueue(1)
	assert.Panics(t, func() { wq.RemoveAt(1) })
	assert.Panics(t, func() { wq.RemoveAt(-1) })
}

func TestQueueTable_EnqueueAndLengths(t *testing.T) {
	// GIVEN a 2x3 queue table
	qt := NewQueueTable(2, 3)

	// WHEN patients are queued across resources and acuities
	qt.Enqueue(0, 0, 10)
	qt.Enqueue(0, 2, 11)
	qt.Enqueue(1, 2, 12)
	qt.Enqueue(0, 2, 13)

	// THEN per-queue, per-resource and total counts agree
	assert.Equal(t, 1, qt.Len(0, 0))
	assert.Equal(t, 2, qt.Len(0, 2))
	assert.True(t, qt.IsEmpty(0, 1))
	assert.Equal(t, 3, qt.ResourceLen(0))
	assert.Equal(t, 1, qt.ResourceLen(1))
	assert.Equal(t, 4, qt.TotalLen())
	assert.True(t, qt.Contains(12))
	assert.False(t, qt.Contains(99))

	r, a, ok := qt.Location(13)
	require.True(t, ok)
	assert.Equal(t, 0, r)
	assert.Equal(t, 2, a)
}

func TestQueueTable_DoubleEnqueue_Panics(t *testing.T) {
	// GIVEN a patient already queued for resource 0
	qt := NewQueueTable(2, 1)
	qt.Enqueue(0, 0, 5)

	// WHEN the same patient is queued anywhere else
	// THEN the table refuses: a patient is in at most one queue
	assert.Panics(t, func() { qt.Enqueue(1, 0, 5) })
	assert.Panics(t, func() { qt.Enqueue(0, 0, 5) })
}

func TestQueueTable_SelectAndRemove_LongestWait(t *testing.T) {
	// GIVEN three patients queued at t=10, t=4, t=7
	qt := NewQueueTable(1, 1)
	lookup := queuedPatients(map[int]int64{0: 10, 1: 4, 2: 7})
	for _, id := range []int{0, 1, 2} {
		qt.Enqueue(0, 0, id)
	}

	// WHEN selecting at t=12 with the longest-wait rule
	id := qt.SelectAndRemove(0, 0, LongestWait{}, lookup, 12)

	// THEN the patient waiting since t=4 is chosen and membership is cleared
	assert.Equal(t, 1, id)
	assert.False(t, qt.Contains(1))
	assert.Equal(t, []int{0, 2}, qt.Snapshot()[0][0])
}

func TestQueueTable_SelectAndRemove_Empty_Panics(t *testing.T) {
	qt := NewQueueTable(1, 1)
	assert.Panics(t, func() { qt.SelectAndRemove(0, 0, FCFS{}, queuedPatients(nil), 0) })
}

func TestQueueTable_Snapshot_IsDeepCopy(t *testing.T) {
	// GIVEN a table with one queued patient
	qt := NewQueueTable(1, 1)
	qt.Enqueue(0, 0, 3)

	// WHEN the snapshot is mutated
	snap := qt.Snapshot()
	snap[0][0][0] = 99

	// THEN the table is unaffected
	assert.Equal(t, []int{3}, qt.Snapshot()[0][0])
}
