package gesture

import (
	"fmt"
	"time"
)

// DefaultCooldown is the minimum spacing between two dispatched actions.
const DefaultCooldown = time.Second

// DispatchFailure reports that the executor could not perform an action.
// It never ends a session.
type DispatchFailure struct {
	Action Action
	Err    error
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Action, e.Err)
}

func (e *DispatchFailure) Unwrap() error {
	return e.Err
}

// CooldownState is the rate-limit state owned by one session.
type CooldownState struct {
	LastDispatch time.Time
	Interval     time.Duration
}

// CooldownGate lets at most one action through per interval, across all gestures.
type CooldownGate struct {
	state CooldownState
}

// NewCooldownGate creates a gate that has never fired. Negative intervals are treated as zero.
func NewCooldownGate(interval time.Duration) *CooldownGate {
	if interval < 0 {
		interval = 0
	}
	return &CooldownGate{state: CooldownState{Interval: interval}}
}

// TryDispatch runs dispatch for action unless the previous successful dispatch
// was less than the interval before now.
//
// A rejected call has no side effect and returns false, nil. A failed dispatch
// returns false and a *DispatchFailure, and leaves the gate unchanged.
func (g *CooldownGate) TryDispatch(now time.Time, action Action, dispatch func(Action) error) (bool, error) {
	if !g.state.LastDispatch.IsZero() && now.Sub(g.state.LastDispatch) < g.state.Interval {
		return false, nil
	}

	if err := dispatch(action); err != nil {
		return false, &DispatchFailure{Action: action, Err: err}
	}

	g.state.LastDispatch = now
	return true, nil
}

// Remaining returns how long until the gate opens again at now.
func (g *CooldownGate) Remaining(now time.Time) time.Duration {
	if g.state.LastDispatch.IsZero() {
		return 0
	}
	left := g.state.Interval - now.Sub(g.state.LastDispatch)
	if left < 0 {
		return 0
	}
	return left
}

// State returns a copy of the gate state.
func (g *CooldownGate) State() CooldownState {
	return g.state
}
