package hitl

import (
	"context"
	"sync"
	"time"

	"github.com/relaykit/relay/schema"
)

// Gate suspends one agent execution until an external approver resolves
// it. A Gate is single-use: once resolved it cannot be reused; each new
// gated decision creates a new Gate. The wait is a channel receive
// scoped to the owning execution, so unrelated executions keep running.
type Gate struct {
	request Request

	mu       sync.Mutex
	state    GateState
	decision *Decision
	resolved chan Decision
}

// NewGate opens a gate in the pending state.
func NewGate(request Request) *Gate {
	return &Gate{
		request:  request,
		state:    StatePending,
		resolved: make(chan Decision, 1),
	}
}

// Request returns the action description awaiting approval.
func (g *Gate) Request() Request {
	return g.request
}

// State returns the current gate state.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resolve records the approver's decision. A second resolve, or a
// resolve after timeout, fails with ErrGateResolved.
func (g *Gate) Resolve(decision Decision) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePending {
		return schema.ErrGateResolved
	}
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = time.Now()
	}

	switch decision.Type {
	case DecisionApprove:
		g.state = StateApproved
	default:
		g.state = StateRejected
	}
	g.decision = &decision
	g.resolved <- decision
	return nil
}

// Await blocks the owning execution until the gate resolves, the
// timeout elapses, or ctx is cancelled. Timeout blocks the gated tool
// like a rejection but is reported distinctly so callers can tell
// "explicitly denied" from "no response".
func (g *Gate) Await(ctx context.Context, timeout time.Duration) (*Decision, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case decision := <-g.resolved:
		if decision.Type == DecisionApprove {
			return &decision, nil
		}
		return &decision, schema.ErrApprovalRejected

	case <-timer:
		g.mu.Lock()
		if g.state == StatePending {
			g.state = StateTimedOut
		}
		state := g.state
		g.mu.Unlock()
		if state == StateTimedOut {
			return nil, schema.ErrApprovalTimeout
		}
		// Resolution raced the timer; drain it.
		select {
		case decision := <-g.resolved:
			if decision.Type == DecisionApprove {
				return &decision, nil
			}
			return &decision, schema.ErrApprovalRejected
		default:
			return nil, schema.ErrApprovalTimeout
		}

	case <-ctx.Done():
		// The owner is gone; take the gate out of the pending set so it
		// stops showing up for approvers and late decisions fail cleanly.
		g.mu.Lock()
		if g.state == StatePending {
			g.state = StateAbandoned
		}
		g.mu.Unlock()
		return nil, ctx.Err()
	}
}
