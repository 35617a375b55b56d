package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the number of encode slots for this host. It respects
// container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the slot count; use 0 for no cap.
//
// Can be overridden with the ENCODE_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("ENCODE_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	slots := int(float64(available) * multiplier)

	if slots < 1 {
		slots = 1
	}
	if limit > 0 && slots > limit {
		slots = limit
	}

	return slots
}

// ForCPU returns the slot count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the slot count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Semaphore is a non-blocking admission gate. An external encode holds a CPU
// (or GPU) for its entire lifetime, so saturated slots reject rather than
// queue.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore with n slots. n < 1 is treated as 1.
func NewSemaphore(n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// TryAcquire claims a slot without blocking. It reports whether a slot was
// available.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a previously acquired slot. Releasing more than was acquired
// panics, since that always indicates a bookkeeping bug in the caller.
func (s *Semaphore) Release() {
	select {
	case <-s.slots:
	default:
		panic("workers: Release without matching TryAcquire")
	}
}

// Capacity returns the total number of slots.
func (s *Semaphore) Capacity() int {
	return cap(s.slots)
}

// InUse returns the number of slots currently held.
func (s *Semaphore) InUse() int {
	return len(s.slots)
}


