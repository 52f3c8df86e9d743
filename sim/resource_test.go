package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourcePool_AcquireRelease(t *testing.T) {
	// GIVEN a pool with capacities [2, 1]
	rp := NewResourcePool([]int{2, 1})

	// WHEN units are acquired until exhaustion
	assert.True(t, rp.TryAcquire(0))
	assert.True(t, rp.TryAcquire(0))
	assert.False(t, rp.TryAcquire(0), "third acquire exceeds capacity")

	// THEN free + in-service equals capacity throughout
	assert.Equal(t, 0, rp.Free(0))
	assert.Equal(t, 2, rp.InService(0))
	assert.Equal(t, 1, rp.Free(1))

	rp.Release(0)
	assert.Equal(t, 1, rp.Free(0))
	assert.Equal(t, []int{1, 1}, rp.FreeSnapshot())
}

func TestResourcePool_ReleaseBeyondCapacity_Panics(t *testing.T) {
	rp := NewResourcePool([]int{1})
	assert.Panics(t, func() { rp.Release(0) })
}

func TestResourcePool_CopiesCapacities(t *testing.T) {
	caps := []int{3}
	rp := NewResourcePool(caps)
	caps[0] = 0
	assert.Equal(t, 3, rp.Capacity(0))
	assert.Equal(t, 1, rp.Len())
}

func TestPatient_Admit(t *testing.T) {
	// GIVEN a patient queued since t=10 with order [2, 0]
	p := NewPatient(4, 10, 1, 0, []int{2, 0})
	p.State = StateQueued
	resourceOf := func(treatment int) int { return treatment + 10 }

	// WHEN admitted at t=25 for 7 ticks on resource 12
	ev := p.Admit(25, 7, 12, resourceOf)

	// THEN the leg's wait is accumulated and the completion carries the next resource
	assert.Equal(t, int64(15), p.WaitingTime)
	assert.Equal(t, int64(25), p.WaitStart)
	assert.Equal(t, []int{0}, p.Order)
	assert.Equal(t, StateTreating, p.State)
	assert.Equal(t, Event{Time: 32, PatientID: 4, Freed: 12, Next: 10}, ev)

	// AND admitting again before the event fires is refused
	assert.Panics(t, func() { p.Admit(26, 1, 10, resourceOf) })
}

func TestPatient_Admit_LastTreatmentExits(t *testing.T) {
	p := NewPatient(0, 0, 0, 0, []int{1})
	p.State = StateQueued
	ev := p.Admit(3, 2, 1, func(int) int { return 1 })
	assert.True(t, ev.IsExit())
	assert.Empty(t, p.Order)
	assert.Panics(t, func() { p.CurrentTreatment() })
}

func TestPatient_TotalWait(t *testing.T) {
	p := NewPatient(0, 5, 0, 0, []int{0})
	p.WaitingTime = 4
	assert.Equal(t, int64(4), p.TotalWait(50), "arriving patient has no open leg")
	p.State = StateQueued
	p.WaitStart = 40
	assert.Equal(t, int64(14), p.TotalWait(50))
}
