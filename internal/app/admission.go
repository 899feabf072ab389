package app

import (
	"fmt"
	"sync"

	"github.com/faadiallop/FileTransferServer/internal/domain"
	"github.com/faadiallop/FileTransferServer/pkg/frame"
)

// Handshake tokens written right after accept, before any framing.
const (
	TokenAccepted = frame.TokenAccepted
	TokenFailed   = frame.TokenFailed
)

// Admission bounds the number of concurrently running sessions.
type Admission struct {
	mu       sync.Mutex
	active   int
	capacity int
}

// NewAdmission creates a controller admitting at most capacity sessions.
// A capacity below one is treated as one.
func NewAdmission(capacity int) *Admission {
	if capacity < 1 {
		capacity = 1
	}
	return &Admission{capacity: capacity}
}

// TryAdmit takes a slot if one is free and reports whether it did.
func (a *Admission) TryAdmit() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active >= a.capacity {
		return false
	}
	a.active++
	return true
}

// Release frees a slot taken by TryAdmit.
// It panics if no slot is held, like a negative sync.WaitGroup counter.
func (a *Admission) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == 0 {
		panic("admission: Release without matching TryAdmit")
	}
	a.active--
}

// Active returns the number of admitted sessions.
func (a *Admission) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Capacity returns the current maximum.
func (a *Admission) Capacity() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capacity
}

// SetCapacity changes the maximum. Running sessions above a lowered capacity
// keep their slots; new admissions wait until active drops below it.
func (a *Admission) SetCapacity(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: max connections must be at least 1, got %d", domain.ErrInvalidConfig, n)
	}
	a.mu.Lock()
	a.capacity = n
	a.mu.Unlock()
	return nil
}
