package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relaykit/relay/hitl"
	"github.com/relaykit/relay/llm"
	"github.com/relaykit/relay/schema"
	"github.com/relaykit/relay/tools"
)

// Execute runs one task through the classify/invoke loop.
//
// The returned error is non-nil only when the task was cancelled before
// any side effect could have happened (classification or approval wait);
// every other outcome, including tool failures, is a Result. Within one
// call classification always precedes invocation and invocation always
// precedes result emission, also under retry.
func (a *Agent) Execute(ctx context.Context, task string) (*schema.Result, error) {
	execID := uuid.New().String()
	var transcript []schema.Message

	for step := 1; ; step++ {
		if step > a.maxSteps {
			result := schema.Fail(schema.NewAgentError(a.role, "execute",
				fmt.Errorf("%w: limit %d", schema.ErrStepLimitExceeded, a.maxSteps)))
			result.AgentRole = a.role
			result.Steps = step - 1
			return result, nil
		}

		selection, err := a.classify(ctx, task, transcript)
		if err != nil {
			// Cancellation while classifying has caused no side effect.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			result := schema.Fail(schema.NewAgentError(a.role, "classify", err))
			result.AgentRole = a.role
			result.Steps = step
			return result, nil
		}

		if selection.ToolName == "" {
			result := schema.Ok(selection.Answer)
			result.AgentRole = a.role
			result.Steps = step
			return result, nil
		}

		// Capability isolation: a tool outside the owned subset is never
		// forwarded to the registry, even if the name exists globally.
		tool, owned := a.subset[selection.ToolName]
		if !owned {
			result := schema.Fail(schema.NewAgentError(a.role, "select",
				fmt.Errorf("%w: %s", schema.ErrToolNotAvailable, selection.ToolName)))
			result.AgentRole = a.role
			result.Steps = step
			return result, nil
		}

		if err := a.awaitApproval(ctx, execID, tool, selection.Arguments); err != nil {
			// Cancellation while pending approval has caused no side effect.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			result := schema.Fail(schema.NewAgentError(a.role, "approval", err))
			result.AgentRole = a.role
			result.Steps = step
			result.ToolName = tool.Name()
			return result, nil
		}

		inv := tools.Invoke(ctx, tool, selection.Arguments)
		if ctx.Err() != nil && tool.SideEffecting() {
			// The handler had started; whether the external side effect
			// happened is unknowable here, so say exactly that.
			result := schema.Fail(schema.NewAgentError(a.role, "invoke",
				schema.ErrCancelledAfterSideEffectUnknown))
			result.AgentRole = a.role
			result.Steps = step
			result.ToolName = tool.Name()
			return result, nil
		}

		inv.Result.AgentRole = a.role
		inv.Result.Steps = step

		// Tool-level failures are surfaced, never auto-retried.
		if !a.chainTools || inv.Result.Failed() {
			return inv.Result, nil
		}

		transcript = append(transcript, a.stepMessages(selection, inv)...)
	}
}

// classify runs one classification round, retrying transport and
// malformed-output failures with exponential backoff.
func (a *Agent) classify(ctx context.Context, task string, transcript []schema.Message) (*llm.Selection, error) {
	backoff := a.retryBackoff
	var lastErr error

	for attempt := 1; attempt <= a.retryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, a.classifyTimeout)
		selection, err := a.classifier.Classify(attemptCtx, task, a.menu, transcript)
		cancel()
		if err == nil {
			return selection, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !schema.IsRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt < a.retryAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}

// awaitApproval suspends the execution on a gate when the policy
// requires one. The handler is not invoked unless the gate resolves to
// approved.
func (a *Agent) awaitApproval(ctx context.Context, execID string, tool tools.Tool, args map[string]any) error {
	if !a.policy.RequiresApproval(tool.Name(), tool.SideEffecting()) {
		return nil
	}
	if a.approvals == nil {
		return fmt.Errorf("agent %s: policy gates %s but no approval manager is wired", a.role, tool.Name())
	}

	gate, err := a.approvals.Open(hitl.Request{
		ExecutionID: execID,
		AgentRole:   a.role,
		ToolName:    tool.Name(),
		Action:      fmt.Sprintf("invoke %s", tool.Name()),
		Args:        args,
		Risk:        a.policy.Risk(tool.Name()),
	}, a.policy.Timeout())
	if err != nil {
		return err
	}
	defer a.approvals.Release(execID)

	_, err = gate.Await(ctx, a.policy.Timeout())
	if err != nil && !errors.Is(err, schema.ErrApprovalRejected) && !errors.Is(err, schema.ErrApprovalTimeout) {
		return err
	}
	return err
}

// stepMessages records a completed step for the next classification
// round.
func (a *Agent) stepMessages(selection *llm.Selection, inv *tools.Invocation) []schema.Message {
	argsJSON, _ := json.Marshal(selection.Arguments)
	assistant := schema.Message{
		Role:      schema.RoleAssistant,
		Content:   fmt.Sprintf("using tool %s with arguments %s", selection.ToolName, argsJSON),
		ToolName:  selection.ToolName,
		Timestamp: time.Now(),
	}
	toolMsg := schema.Message{
		Role:      schema.RoleTool,
		Content:   inv.Result.ToJSON(),
		ToolName:  inv.ToolName,
		Timestamp: time.Now(),
	}
	return []schema.Message{assistant, toolMsg}
}
