package multi

import (
	"context"
	"fmt"
	"sync"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/schema"
)

// Observer receives execution callbacks for instrumentation. All
// methods may be called from concurrent fan-out branches.
type Observer interface {
	OnAgentStart(ctx context.Context, role, task string)
	OnAgentEnd(ctx context.Context, role string, result *schema.Result, err error)
}

// NoopObserver is the default observer.
type NoopObserver struct{}

func (NoopObserver) OnAgentStart(context.Context, string, string)              {}
func (NoopObserver) OnAgentEnd(context.Context, string, *schema.Result, error) {}

// Branch is one fan-out outcome.
type Branch struct {
	Role   string         `json:"role"`
	Result *schema.Result `json:"result"`
}

// Manager is the top-level entry point: it routes a task to agents and
// aggregates their results into a single Result.
type Manager struct {
	team     *Team
	router   Router
	observer Observer
}

// NewManager wires a team to a router.
func NewManager(team *Team, router Router, observer Observer) (*Manager, error) {
	if team == nil || team.Len() == 0 {
		return nil, fmt.Errorf("manager: team is empty")
	}
	if router == nil {
		return nil, fmt.Errorf("manager: router is nil")
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Manager{team: team, router: router, observer: observer}, nil
}

// Handle routes and executes one task. No fault propagates past this
// boundary as a panic or unwrapped error; the caller always gets a
// Result with a success flag and either data or a readable error.
func (m *Manager) Handle(ctx context.Context, task string) (*schema.Result, error) {
	plan, err := m.router.Route(ctx, task, m.team)
	if err != nil {
		return schema.Fail(err), nil
	}

	switch plan.Mode {
	case ModeFanOut:
		return m.runFanOut(ctx, task, plan.Roles)
	default:
		return m.runSequential(ctx, task, plan.Roles)
	}
}

// runSequential hands the task through the chain. Each agent's output
// becomes the next agent's task; the first terminal failure stops the
// chain and is surfaced rather than passing partial data onward.
func (m *Manager) runSequential(ctx context.Context, task string, roles []string) (*schema.Result, error) {
	current := task
	var last *schema.Result

	for _, role := range roles {
		ag, err := m.team.Get(role)
		if err != nil {
			return schema.Fail(err), nil
		}

		result, err := m.execute(ctx, ag, current)
		if err != nil {
			return nil, err
		}
		if result.Failed() {
			return result, nil
		}
		last = result
		if s, ok := result.Data.(string); ok && s != "" {
			current = s
		} else {
			current = result.ToJSON()
		}
	}

	if last == nil {
		return schema.Fail(schema.ErrNoRouteMatch), nil
	}
	return last, nil
}

// runFanOut executes independent agents concurrently. Agents share only
// the immutable registry and the LLM client; each branch failure stays
// in its branch.
func (m *Manager) runFanOut(ctx context.Context, task string, roles []string) (*schema.Result, error) {
	branches := make([]Branch, len(roles))
	errs := make([]error, len(roles))

	var wg sync.WaitGroup
	for i, role := range roles {
		wg.Add(1)
		go func(idx int, role string) {
			defer wg.Done()
			ag, err := m.team.Get(role)
			if err != nil {
				branches[idx] = Branch{Role: role, Result: schema.Fail(err)}
				return
			}
			result, err := m.execute(ctx, ag, task)
			if err != nil {
				errs[idx] = err
				return
			}
			branches[idx] = Branch{Role: role, Result: result}
		}(i, role)
	}
	wg.Wait()

	// Cancellation wins over partial aggregation.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	anySuccess := false
	for _, b := range branches {
		if b.Result != nil && b.Result.Success {
			anySuccess = true
			break
		}
	}

	if !anySuccess {
		first := branches[0].Result
		return &schema.Result{
			Success: false,
			Error: &schema.ErrorInfo{
				Kind:    first.Error.Kind,
				Message: fmt.Sprintf("all %d branches failed; first: %s", len(branches), first.Error.Message),
			},
		}, nil
	}
	return &schema.Result{Success: true, Data: branches}, nil
}

func (m *Manager) execute(ctx context.Context, ag *agent.Agent, task string) (*schema.Result, error) {
	m.observer.OnAgentStart(ctx, ag.Role(), task)
	result, err := ag.Execute(ctx, task)
	m.observer.OnAgentEnd(ctx, ag.Role(), result, err)
	return result, err
}
