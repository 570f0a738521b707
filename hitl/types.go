// Package hitl implements the human-in-the-loop approval gate: an
// explicit suspend/resume state machine so gated executions are testable
// without a human present.
package hitl

import "time"

// GateState is the lifecycle of one approval gate.
type GateState string

const (
	StatePending  GateState = "pending"
	StateApproved GateState = "approved"
	StateRejected GateState = "rejected"
	StateTimedOut GateState = "timed_out"

	// StateAbandoned marks a gate whose owning execution stopped waiting,
	// usually through context cancellation. It cannot be resolved anymore.
	StateAbandoned GateState = "abandoned"
)

// RiskLevel classifies the gated action for the approver.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// DecisionType is the approver's verdict.
type DecisionType string

const (
	DecisionApprove DecisionType = "approve"
	DecisionReject  DecisionType = "reject"
)

// Request describes the action awaiting approval.
type Request struct {
	ID          string         `json:"id"`
	ExecutionID string         `json:"execution_id"`
	AgentRole   string         `json:"agent_role"`
	ToolName    string         `json:"tool_name"`
	Action      string         `json:"action"`
	Args        map[string]any `json:"args,omitempty"`
	Risk        RiskLevel      `json:"risk"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

// Decision is the approver's resolution of a request.
type Decision struct {
	Type      DecisionType `json:"type"`
	DecidedBy string       `json:"decided_by,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	DecidedAt time.Time    `json:"decided_at"`
}

// Policy decides which tools need gating and how long an approval may
// stay pending.
type Policy interface {
	// RequiresApproval reports whether the named tool must pass the
	// gate before executing.
	RequiresApproval(toolName string, sideEffecting bool) bool

	// Risk classifies the action for the approver.
	Risk(toolName string) RiskLevel

	// Timeout is the maximum time an approval may stay pending.
	Timeout() time.Duration
}

// GateSideEffects gates every side-effecting tool. The zero value uses
// a 5 minute approval timeout.
type GateSideEffects struct {
	ApprovalTimeout time.Duration
	HighRiskTools   []string
}

func (p GateSideEffects) RequiresApproval(toolName string, sideEffecting bool) bool {
	return sideEffecting
}

func (p GateSideEffects) Risk(toolName string) RiskLevel {
	for _, name := range p.HighRiskTools {
		if name == toolName {
			return RiskHigh
		}
	}
	return RiskMedium
}

func (p GateSideEffects) Timeout() time.Duration {
	if p.ApprovalTimeout > 0 {
		return p.ApprovalTimeout
	}
	return 5 * time.Minute
}

// ApproveAll never gates. Use it for agents whose whole subset is
// read-only.
type ApproveAll struct{}

func (ApproveAll) RequiresApproval(string, bool) bool { return false }
func (ApproveAll) Risk(string) RiskLevel              { return RiskLow }
func (ApproveAll) Timeout() time.Duration             { return 0 }
