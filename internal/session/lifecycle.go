package session

import (
	"fmt"
	"sync"

	rlerr "gorelay/internal/errors"
)

// State is a stage of a relay run.  A run moves strictly forward:
//
//	Connecting → Active → Draining → Closed
//	Connecting → Closed                      (dial failed)
type State int

const (
	StateConnecting State = iota
	StateActive
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// next lists the legal successors of each state.
var next = map[State][]State{ //nolint:gochecknoglobals
	StateConnecting: {StateActive, StateClosed},
	StateActive:     {StateDraining},
	StateDraining:   {StateClosed},
}

// Lifecycle tracks the State of one run.  A nil *Lifecycle accepts
// every transition and reports StateConnecting.
type Lifecycle struct {
	mu    sync.Mutex
	state State

	// OnTransition, if set, is called after every state change.  It
	// runs under the lock, so keep it fast.
	OnTransition func(from, to State)
}

// NewLifecycle returns a Lifecycle in StateConnecting.
func NewLifecycle(onTransition func(from, to State)) *Lifecycle {
	return &Lifecycle{OnTransition: onTransition}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	if l == nil {
		return StateConnecting
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Advance moves to the given state.  Advancing to the current state is
// a no-op; anything not listed as a legal successor returns
// ErrIllegalTransition and leaves the state unchanged.
func (l *Lifecycle) Advance(to State) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	from := l.state
	if from == to {
		return nil
	}
	for _, s := range next[from] {
		if s == to {
			l.state = to
			if l.OnTransition != nil {
				l.OnTransition(from, to)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s → %s", rlerr.ErrIllegalTransition, from, to)
}
