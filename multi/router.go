package multi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/relaykit/relay/llm"
	"github.com/relaykit/relay/schema"
)

// Mode selects how a plan's agents run.
type Mode string

const (
	// ModeSequential hands the task through the agents in order; the
	// first terminal failure stops the chain.
	ModeSequential Mode = "sequential"

	// ModeFanOut runs the agents concurrently and independently;
	// partial success is allowed and reported per branch.
	ModeFanOut Mode = "fanout"
)

// Plan is a deterministic routing decision for one task.
type Plan struct {
	Mode  Mode
	Roles []string
}

// Router produces a Plan for a task. Given the same task, team and
// classifier decision, the plan must be identical.
type Router interface {
	Route(ctx context.Context, task string, team *Team) (Plan, error)
}

// Rule matches tasks to a role by keyword.
type Rule struct {
	Keywords []string
	Role     string
}

// RuleRouter routes on keyword rules, in declaration order, falling
// back to Default.
type RuleRouter struct {
	Rules   []Rule
	Default string
}

func (r *RuleRouter) Route(_ context.Context, task string, team *Team) (Plan, error) {
	lowered := strings.ToLower(task)
	for _, rule := range r.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				if _, err := team.Get(rule.Role); err != nil {
					return Plan{}, err
				}
				return Plan{Mode: ModeSequential, Roles: []string{rule.Role}}, nil
			}
		}
	}
	if r.Default != "" {
		if _, err := team.Get(r.Default); err != nil {
			return Plan{}, err
		}
		return Plan{Mode: ModeSequential, Roles: []string{r.Default}}, nil
	}
	return Plan{}, schema.ErrNoRouteMatch
}

// routeSelection is the structured output for LLM routing.
type routeSelection struct {
	Roles  []string `json:"roles"`
	Mode   string   `json:"mode"`
	Reason string   `json:"reason"`
}

// LLMRouter asks the model to pick one or more roles. Falls back to
// Default when the model fails or names an unknown role.
type LLMRouter struct {
	Client  llm.Client
	Default string
}

func (r *LLMRouter) Route(ctx context.Context, task string, team *Team) (Plan, error) {
	if r.Client == nil {
		return Plan{}, fmt.Errorf("llm router: client is nil")
	}

	resp, err := r.Client.Complete(ctx, &llm.Request{
		Messages: []schema.Message{
			{Role: schema.RoleSystem, Content: r.buildPrompt(team)},
			{Role: schema.RoleUser, Content: task},
		},
		JSONOnly: true,
	})
	if err != nil {
		return r.fallback(team, err)
	}

	var sel routeSelection
	if err := json.Unmarshal([]byte(resp.Content), &sel); err != nil {
		return r.fallback(team, fmt.Errorf("%w: %v", schema.ErrClassifierMalformed, err))
	}
	if len(sel.Roles) == 0 {
		return r.fallback(team, fmt.Errorf("%w: empty roles", schema.ErrClassifierMalformed))
	}
	for _, role := range sel.Roles {
		if _, err := team.Get(role); err != nil {
			return r.fallback(team, err)
		}
	}

	mode := ModeSequential
	if sel.Mode == string(ModeFanOut) && len(sel.Roles) > 1 {
		mode = ModeFanOut
	}
	return Plan{Mode: mode, Roles: sel.Roles}, nil
}

func (r *LLMRouter) fallback(team *Team, cause error) (Plan, error) {
	if r.Default == "" {
		return Plan{}, fmt.Errorf("llm router: %w", cause)
	}
	if _, err := team.Get(r.Default); err != nil {
		return Plan{}, err
	}
	return Plan{Mode: ModeSequential, Roles: []string{r.Default}}, nil
}

func (r *LLMRouter) buildPrompt(team *Team) string {
	var sb strings.Builder
	sb.WriteString("Select the agents for this request.\n\nAgents:\n")

	roles := team.Roles()
	sort.Strings(roles)
	for _, role := range roles {
		ag, err := team.Get(role)
		if err != nil {
			continue
		}
		desc := ag.Description()
		if desc == "" {
			desc = role
		}
		sb.WriteString(fmt.Sprintf("- %s: %s\n", role, desc))
	}

	sb.WriteString("\nRespond: {\"roles\": [\"<role>\"], \"mode\": \"sequential|fanout\", \"reason\": \"<why>\"}\n")
	sb.WriteString("Use fanout only for independent sub-questions.")
	return sb.String()
}
