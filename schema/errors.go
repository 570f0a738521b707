package schema

import (
	"errors"
	"fmt"
)

var (
	// Registry errors. Fatal at bootstrap, never recovered at runtime.
	ErrDuplicateTool  = errors.New("tool name already registered")
	ErrUnknownTool    = errors.New("tool not found in registry")
	ErrRegistryFrozen = errors.New("registry is frozen")

	// Invocation errors.
	ErrUnknownArgument = errors.New("unknown argument")
	ErrMissingArgument = errors.New("missing required argument")
	ErrTypeMismatch    = errors.New("argument type mismatch")
	ErrToolExecution   = errors.New("tool execution failed")

	// Agent errors.
	ErrToolNotAvailable  = errors.New("tool not available to this agent")
	ErrStepLimitExceeded = errors.New("agent step limit exceeded")
	ErrCancelledAfterSideEffectUnknown = errors.New("cancelled during invocation, side effect state unknown")

	// Classifier errors. Transport and malformed-output failures are retryable.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrClassifierMalformed   = errors.New("classifier returned malformed output")

	// Approval errors.
	ErrApprovalRejected = errors.New("approval rejected")
	ErrApprovalTimeout  = errors.New("approval timed out")
	ErrGateResolved     = errors.New("gate already resolved")
	ErrApprovalPending  = errors.New("another approval is already pending for this execution")

	// Routing errors.
	ErrAgentNotFound = errors.New("agent not found")
	ErrNoRouteMatch  = errors.New("no agent matched the task")
)

// Error kinds carried on Result.Error. Stable strings for callers and logs.
const (
	KindDuplicateName     = "DuplicateNameError"
	KindUnknownTool       = "UnknownToolError"
	KindUnknownArgument   = "UnknownArgumentError"
	KindMissingArgument   = "MissingArgumentError"
	KindTypeMismatch      = "TypeMismatchError"
	KindToolExecution     = "ToolExecutionError"
	KindToolNotAvailable  = "ToolNotAvailableError"
	KindStepLimitExceeded = "StepLimitExceededError"
	KindCancelledUnknown  = "CancelledAfterSideEffectUnknown"
	KindClassifier        = "ClassifierError"
	KindApprovalRejected  = "ApprovalRejected"
	KindApprovalTimeout   = "ApprovalTimeout"
	KindInternal          = "InternalError"
)

// Kind maps an error to its Result error kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateTool):
		return KindDuplicateName
	case errors.Is(err, ErrUnknownTool):
		return KindUnknownTool
	case errors.Is(err, ErrUnknownArgument):
		return KindUnknownArgument
	case errors.Is(err, ErrMissingArgument):
		return KindMissingArgument
	case errors.Is(err, ErrTypeMismatch):
		return KindTypeMismatch
	case errors.Is(err, ErrToolExecution):
		return KindToolExecution
	case errors.Is(err, ErrToolNotAvailable):
		return KindToolNotAvailable
	case errors.Is(err, ErrStepLimitExceeded):
		return KindStepLimitExceeded
	case errors.Is(err, ErrCancelledAfterSideEffectUnknown):
		return KindCancelledUnknown
	case errors.Is(err, ErrClassifierUnavailable), errors.Is(err, ErrClassifierMalformed):
		return KindClassifier
	case errors.Is(err, ErrApprovalRejected):
		return KindApprovalRejected
	case errors.Is(err, ErrApprovalTimeout):
		return KindApprovalTimeout
	default:
		return KindInternal
	}
}

// ToolError wraps a failure from a named tool operation.
type ToolError struct {
	ToolName string
	Op       string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s: %v", e.ToolName, e.Op, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func NewToolError(toolName, op string, err error) *ToolError {
	return &ToolError{ToolName: toolName, Op: op, Err: err}
}

// AgentError wraps a failure from a named agent operation.
type AgentError struct {
	Role string
	Op   string
	Err  error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s: %s: %v", e.Role, e.Op, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

func NewAgentError(role, op string, err error) *AgentError {
	return &AgentError{Role: role, Op: op, Err: err}
}

// ValidationError describes a rejected argument value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Err     error
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(field string, value interface{}, err error, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err, Message: message}
}

// IsRetryable reports whether the error is worth retrying with backoff.
// Only classifier transport and malformed-output errors qualify; tool
// failures are surfaced as-is because their side effects may not be safe
// to repeat.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrClassifierUnavailable):
		return true
	case errors.Is(err, ErrClassifierMalformed):
		return true
	default:
		return false
	}
}
