package hitl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/relaykit/relay/schema"
)

func TestGateApprove(t *testing.T) {
	gate := NewGate(Request{ToolName: "execute_trade"})
	if gate.State() != StatePending {
		t.Fatalf("new gate should be pending, got %s", gate.State())
	}

	go func() {
		gate.Resolve(Decision{Type: DecisionApprove, DecidedBy: "ops"})
	}()

	decision, err := gate.Await(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if decision.Type != DecisionApprove || decision.DecidedBy != "ops" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
	if gate.State() != StateApproved {
		t.Fatalf("state should be approved, got %s", gate.State())
	}
}

func TestGateReject(t *testing.T) {
	gate := NewGate(Request{ToolName: "execute_trade"})
	go func() {
		gate.Resolve(Decision{Type: DecisionReject, Reason: "too risky"})
	}()

	decision, err := gate.Await(context.Background(), time.Second)
	if !errors.Is(err, schema.ErrApprovalRejected) {
		t.Fatalf("expected ErrApprovalRejected, got %v", err)
	}
	if decision == nil || decision.Reason != "too risky" {
		t.Fatalf("rejection decision lost: %+v", decision)
	}
	if gate.State() != StateRejected {
		t.Fatalf("state should be rejected, got %s", gate.State())
	}
}

func TestGateTimeoutDistinctFromRejection(t *testing.T) {
	gate := NewGate(Request{ToolName: "execute_trade"})

	_, err := gate.Await(context.Background(), 10*time.Millisecond)
	if !errors.Is(err, schema.ErrApprovalTimeout) {
		t.Fatalf("expected ErrApprovalTimeout, got %v", err)
	}
	if errors.Is(err, schema.ErrApprovalRejected) {
		t.Fatal("timeout must not read as rejection")
	}
	if gate.State() != StateTimedOut {
		t.Fatalf("state should be timed_out, got %s", gate.State())
	}
}

func TestGateSingleUse(t *testing.T) {
	gate := NewGate(Request{})
	if err := gate.Resolve(Decision{Type: DecisionApprove}); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	err := gate.Resolve(Decision{Type: DecisionReject})
	if !errors.Is(err, schema.ErrGateResolved) {
		t.Fatalf("expected ErrGateResolved, got %v", err)
	}
	if gate.State() != StateApproved {
		t.Fatalf("second resolve must not change state, got %s", gate.State())
	}
}

func TestGateResolveAfterTimeout(t *testing.T) {
	gate := NewGate(Request{})
	if _, err := gate.Await(context.Background(), time.Millisecond); !errors.Is(err, schema.ErrApprovalTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	err := gate.Resolve(Decision{Type: DecisionApprove})
	if !errors.Is(err, schema.ErrGateResolved) {
		t.Fatalf("late approval must fail with ErrGateResolved, got %v", err)
	}
}

func TestGateAwaitContextCancel(t *testing.T) {
	gate := NewGate(Request{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gate.Await(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if gate.State() != StateAbandoned {
		t.Fatalf("cancelled wait must abandon the gate, got %s", gate.State())
	}
	if err := gate.Resolve(Decision{Type: DecisionApprove}); !errors.Is(err, schema.ErrGateResolved) {
		t.Fatalf("decision on an abandoned gate must fail, got %v", err)
	}
}

func TestManagerAbandonedGateLeavesPending(t *testing.T) {
	m := NewManager()
	gate, err := m.Open(Request{ExecutionID: "exec-1", ToolName: "execute_trade"}, time.Minute)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(m.Pending()) != 1 {
		t.Fatal("gate should be pending before the wait aborts")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gate.Await(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	m.Release("exec-1")

	if got := m.Pending(); len(got) != 0 {
		t.Fatalf("abandoned gate still listed as pending: %+v", got)
	}
	if _, err := m.Open(Request{ExecutionID: "exec-1"}, time.Minute); err != nil {
		t.Fatalf("new gate after abandonment blocked: %v", err)
	}
}

func TestManagerOpenResolve(t *testing.T) {
	m := NewManager()
	gate, err := m.Open(Request{ExecutionID: "exec-1", ToolName: "execute_trade"}, time.Minute)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	req := gate.Request()
	if req.ID == "" || req.CreatedAt.IsZero() || req.ExpiresAt.IsZero() {
		t.Fatalf("request metadata not filled: %+v", req)
	}

	pending := m.Pending()
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("pending list wrong: %+v", pending)
	}

	if err := m.Resolve(req.ID, Decision{Type: DecisionApprove}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := gate.Await(context.Background(), time.Second); err != nil {
		t.Fatalf("await after resolve: %v", err)
	}
	if len(m.Pending()) != 0 {
		t.Fatal("resolved gate still listed as pending")
	}
}

func TestManagerOneGatePerExecution(t *testing.T) {
	m := NewManager()
	if _, err := m.Open(Request{ExecutionID: "exec-1"}, time.Minute); err != nil {
		t.Fatalf("first open: %v", err)
	}

	_, err := m.Open(Request{ExecutionID: "exec-1"}, time.Minute)
	if !errors.Is(err, schema.ErrApprovalPending) {
		t.Fatalf("expected ErrApprovalPending, got %v", err)
	}

	// A different execution is unaffected.
	if _, err := m.Open(Request{ExecutionID: "exec-2"}, time.Minute); err != nil {
		t.Fatalf("unrelated execution blocked: %v", err)
	}

	m.Release("exec-1")
	if _, err := m.Open(Request{ExecutionID: "exec-1"}, time.Minute); err != nil {
		t.Fatalf("open after release: %v", err)
	}
}

func TestManagerResolveUnknownRequest(t *testing.T) {
	m := NewManager()
	err := m.Resolve("nope", Decision{Type: DecisionApprove})
	if err == nil {
		t.Fatal("expected error for unknown request")
	}
}

func TestGateSideEffectsPolicy(t *testing.T) {
	p := GateSideEffects{HighRiskTools: []string{"execute_trade"}}
	if !p.RequiresApproval("execute_trade", true) {
		t.Fatal("side-effecting tool must be gated")
	}
	if p.RequiresApproval("price_data", false) {
		t.Fatal("read-only tool must not be gated")
	}
	if p.Risk("execute_trade") != RiskHigh {
		t.Fatal("listed tool should be high risk")
	}
	if p.Risk("web_fetch") != RiskMedium {
		t.Fatal("unlisted gated tool should be medium risk")
	}
	if p.Timeout() != 5*time.Minute {
		t.Fatalf("zero value should default to 5m, got %v", p.Timeout())
	}

	var open ApproveAll
	if open.RequiresApproval("execute_trade", true) {
		t.Fatal("ApproveAll must never gate")
	}
}
