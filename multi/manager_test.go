package multi

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/llm"
	"github.com/relaykit/relay/schema"
	"github.com/relaykit/relay/tools"
)

// failingAgent always selects a tool whose handler errors.
func failingAgent(t *testing.T, role string) *agent.Agent {
	t.Helper()
	client := &scriptClient{responses: []string{
		`{"tool_name": "boom", "arguments": {}}`,
	}}
	boom := tools.New("boom", "always fails",
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("handler blew up")
		})
	ag, err := agent.New(agent.Config{
		Role:       role,
		Tools:      []tools.Tool{boom},
		Classifier: llm.NewClassifier(client),
	})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return ag
}

func planRouter(mode Mode, roles ...string) Router {
	return routerFunc(func(context.Context, string, *Team) (Plan, error) {
		return Plan{Mode: mode, Roles: roles}, nil
	})
}

type routerFunc func(ctx context.Context, task string, team *Team) (Plan, error)

func (f routerFunc) Route(ctx context.Context, task string, team *Team) (Plan, error) {
	return f(ctx, task, team)
}

func TestManagerSequentialChain(t *testing.T) {
	first, _ := answerAgent(t, "first", "intermediate summary")
	second, secondClient := answerAgent(t, "second", "final answer")
	team := testTeam(t, first, second)

	m, err := NewManager(team, planRouter(ModeSequential, "first", "second"), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	result, err := m.Handle(context.Background(), "original task")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !result.Success || result.Data != "final answer" {
		t.Fatalf("unexpected result: %+v", result)
	}

	// The first agent's output became the second agent's task.
	msgs := secondClient.lastReq.Messages
	userMsg := msgs[len(msgs)-1]
	if userMsg.Content != "intermediate summary" {
		t.Fatalf("chained task not forwarded, got %q", userMsg.Content)
	}
}

func TestManagerSequentialStopsOnFailure(t *testing.T) {
	failing := failingAgent(t, "first")
	second, secondClient := answerAgent(t, "second", "never reached")
	team := testTeam(t, failing, second)

	m, err := NewManager(team, planRouter(ModeSequential, "first", "second"), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	result, err := m.Handle(context.Background(), "task")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Success || result.Error.Kind != schema.KindToolExecution {
		t.Fatalf("expected first failure surfaced, got %+v", result)
	}
	if secondClient.calls != 0 {
		t.Fatal("chain must stop at the first failure")
	}
}

func TestManagerFanOutPartialSuccess(t *testing.T) {
	ok, _ := answerAgent(t, "ok", "fine")
	failing := failingAgent(t, "bad")
	team := testTeam(t, ok, failing)

	m, err := NewManager(team, planRouter(ModeFanOut, "ok", "bad"), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	result, err := m.Handle(context.Background(), "task")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !result.Success {
		t.Fatalf("one good branch should make the aggregate succeed, got %+v", result.Error)
	}

	branches := result.Data.([]Branch)
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
	byRole := make(map[string]*schema.Result, 2)
	for _, b := range branches {
		byRole[b.Role] = b.Result
	}
	if !byRole["ok"].Success {
		t.Fatalf("good branch lost: %+v", byRole["ok"])
	}
	if !byRole["bad"].Failed() || byRole["bad"].Error.Kind != schema.KindToolExecution {
		t.Fatalf("bad branch not preserved: %+v", byRole["bad"])
	}
}

func TestManagerFanOutAllFailed(t *testing.T) {
	a := failingAgent(t, "a")
	b := failingAgent(t, "b")
	team := testTeam(t, a, b)

	m, err := NewManager(team, planRouter(ModeFanOut, "a", "b"), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	result, err := m.Handle(context.Background(), "task")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Success || result.Data != nil {
		t.Fatalf("all-failed aggregate must carry only an error, got %+v", result)
	}
	if result.Error.Kind != schema.KindToolExecution {
		t.Fatalf("first branch kind lost: %s", result.Error.Kind)
	}
	if !strings.Contains(result.Error.Message, "all 2 branches failed") {
		t.Fatalf("unexpected message: %q", result.Error.Message)
	}
}

func TestManagerRouterFailureBecomesResult(t *testing.T) {
	ok, _ := answerAgent(t, "ok", "fine")
	team := testTeam(t, ok)

	failRouter := routerFunc(func(context.Context, string, *Team) (Plan, error) {
		return Plan{}, schema.ErrNoRouteMatch
	})
	m, err := NewManager(team, failRouter, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	result, err := m.Handle(context.Background(), "task")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Success {
		t.Fatal("routing failure must produce a failed result")
	}
}

func TestManagerUnknownRoleInPlan(t *testing.T) {
	ok, _ := answerAgent(t, "ok", "fine")
	team := testTeam(t, ok)

	m, err := NewManager(team, planRouter(ModeSequential, "nobody"), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	result, err := m.Handle(context.Background(), "task")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Success {
		t.Fatal("unknown role must produce a failed result")
	}
}

func TestNewManagerValidation(t *testing.T) {
	ok, _ := answerAgent(t, "ok", "fine")
	team := testTeam(t, ok)

	if _, err := NewManager(nil, planRouter(ModeSequential, "ok"), nil); err == nil {
		t.Fatal("nil team must fail")
	}
	if _, err := NewManager(team, nil, nil); err == nil {
		t.Fatal("nil router must fail")
	}
}
