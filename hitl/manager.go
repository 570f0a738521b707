package hitl

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaykit/relay/schema"
)

// Manager tracks open gates so external approvers can find and resolve
// them by request ID. At most one gate may be outstanding per agent
// execution.
type Manager struct {
	mu      sync.RWMutex
	gates   map[string]*Gate  // request ID -> gate
	byExec  map[string]string // execution ID -> request ID
	history []Request
}

// NewManager creates an empty approval manager.
func NewManager() *Manager {
	return &Manager{
		gates:  make(map[string]*Gate),
		byExec: make(map[string]string),
	}
}

// Open creates a pending gate for the request. The request ID and
// timestamps are filled in here.
func (m *Manager) Open(req Request, timeout time.Duration) (*Gate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.ExecutionID != "" {
		if reqID, exists := m.byExec[req.ExecutionID]; exists {
			if m.gates[reqID].State() == StatePending {
				return nil, schema.ErrApprovalPending
			}
		}
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.CreatedAt = time.Now()
	if timeout > 0 {
		req.ExpiresAt = req.CreatedAt.Add(timeout)
	}

	gate := NewGate(req)
	m.gates[req.ID] = gate
	if req.ExecutionID != "" {
		m.byExec[req.ExecutionID] = req.ID
	}
	m.history = append(m.history, req)
	return gate, nil
}

// Resolve applies an approver decision to a pending request.
func (m *Manager) Resolve(requestID string, decision Decision) error {
	m.mu.RLock()
	gate, exists := m.gates[requestID]
	m.mu.RUnlock()

	if !exists {
		return schema.NewValidationError("request_id", requestID, schema.ErrGateResolved, "approval request not found")
	}
	return gate.Resolve(decision)
}

// Get returns the gate for a request ID.
func (m *Manager) Get(requestID string) (*Gate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gate, exists := m.gates[requestID]
	return gate, exists
}

// Pending lists requests still awaiting a decision.
func (m *Manager) Pending() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []Request
	for _, req := range m.history {
		if gate, exists := m.gates[req.ID]; exists && gate.State() == StatePending {
			pending = append(pending, req)
		}
	}
	return pending
}

// Release drops the execution's outstanding-gate claim once its gate is
// resolved, allowing the next gated decision in the same execution.
func (m *Manager) Release(executionID string) {
	if executionID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byExec, executionID)
}
