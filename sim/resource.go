package sim

import "fmt"

// ResourcePool tracks free units per resource type.
// Invariant: 0 <= free[r] <= capacity[r].
type ResourcePool struct {
	capacity []int
	free     []int
}

// NewResourcePool creates a pool with every unit idle.
func NewResourcePool(capacities []int) *ResourcePool {
	return &ResourcePool{
		capacity: append([]int(nil), capacities...),
		free:     append([]int(nil), capacities...),
	}
}

// Len returns the number of resource types.
func (rp *ResourcePool) Len() int {
	return len(rp.capacity)
}

// TryAcquire takes one unit of r if any is free.
func (rp *ResourcePool) TryAcquire(r int) bool {
	if rp.free[r] <= 0 {
		return false
	}
	rp.free[r]--
	return true
}

// Release returns one unit of r.
// Releasing beyond capacity means the bookkeeping is corrupt; it panics.
func (rp *ResourcePool) Release(r int) {
	if rp.free[r]+1 > rp.capacity[r] {
		panic(fmt.Sprintf("Release: resource %d would exceed capacity %d", r, rp.capacity[r]))
	}
	rp.free[r]++
}

// Free returns the idle units of r.
func (rp *ResourcePool) Free(r int) int {
	return rp.free[r]
}

// Capacity returns the total units of r.
func (rp *ResourcePool) Capacity(r int) int {
	return rp.capacity[r]
}

// InService returns the units of r currently treating a patient.
func (rp *ResourcePool) InService(r int) int {
	return rp.capacity[r] - rp.free[r]
}

// FreeSnapshot returns a copy of the free-unit vector.
func (rp *ResourcePool) FreeSnapshot() []int {
	return append([]int(nil), rp.free...)
}
