package app

import (
	"context"
	"sync"
	"time"

	"github.com/faadiallop/FileTransferServer/internal/domain"
	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// ShutdownTimeout is the default time Stop waits for in-flight sessions.
const ShutdownTimeout = 30 * time.Second

// State is a receiver lifecycle state.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateListening
	StateShuttingDown
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateListening:
		return "Listening"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// transitions lists the states reachable from each state. Crashed to
// ShuttingDown is further restricted to receivers that still owe a drain.
var transitions = map[State][]State{
	StateStopped:      {StateStarting},
	StateStarting:     {StateListening, StateShuttingDown, StateCrashed},
	StateListening:    {StateShuttingDown, StateCrashed},
	StateShuttingDown: {StateStopped, StateCrashed},
	StateCrashed:      {StateStarting, StateShuttingDown},
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle tracks the receiver state and the accept-loop worker.
//
// A receiver that reached Listening owes a drain: its sessions must be
// waited for and its plugins shut down. The debt is paid by moving to
// ShuttingDown, so a receiver whose accept loop crashed can still be stopped
// cleanly, while one that crashed during Start has nothing to stop.
type Lifecycle struct {
	mu        sync.RWMutex
	state     State
	owesDrain bool
	cancel    context.CancelFunc

	wg      sync.WaitGroup
	logger  log.Logger
	emitter EventEmitter
}

// NewLifecycle creates a lifecycle in StateStopped.
func NewLifecycle(logger log.Logger, emitter EventEmitter) *Lifecycle {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Lifecycle{
		state:   StateStopped,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// OwesDrain reports whether a listener was bound since the last shutdown.
func (l *Lifecycle) OwesDrain() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owesDrain
}

// checkTransition returns nil when from -> to is allowed. Moves out of an
// idle state fail with ErrNotRunning, anything else with ErrAlreadyRunning.
func (l *Lifecycle) checkTransition(from, to State) error {
	for _, next := range transitions[from] {
		if next != to {
			continue
		}
		if from == StateCrashed && to == StateShuttingDown && !l.owesDrain {
			return domain.ErrNotRunning
		}
		if from == StateCrashed && to == StateStarting && l.owesDrain {
			return domain.ErrAlreadyRunning
		}
		return nil
	}
	if from == StateStopped || from == StateCrashed {
		return domain.ErrNotRunning
	}
	return domain.ErrAlreadyRunning
}

// TransitionTo moves to newState, logging and emitting the change.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state
	if err := l.checkTransition(oldState, newState); err != nil {
		l.mu.Unlock()
		return err
	}
	l.state = newState
	switch newState {
	case StateListening:
		l.owesDrain = true
	case StateShuttingDown:
		l.owesDrain = false
	}
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("receiver state",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)

	return nil
}

// CanStart reports whether Start may be called.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.checkTransition(l.state, StateStarting) == nil
}

// CanStop reports whether Stop may be called.
func (l *Lifecycle) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.checkTransition(l.state, StateShuttingDown) == nil
}

// SetCancel stores the cancel function that stops the accept loop.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel stops the accept loop.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker registers a background worker.
func (l *Lifecycle) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone marks a background worker as finished.
func (l *Lifecycle) WorkerDone() {
	l.wg.Done()
}

// WaitWithTimeout waits for all workers. Returns ErrShutdownTimeout if they
// are still running after timeout.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	return waitGroupTimeout(&l.wg, timeout, l.logger)
}

func waitGroupTimeout(wg *sync.WaitGroup, timeout time.Duration, logger log.Logger) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-done:
		return nil
	case <-t.C:
		logger.Warn("shutdown timeout, leaving workers running",
			log.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
