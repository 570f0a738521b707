// Package compose is the one place tool-to-agent wiring is declared.
// Composition happens once at process start; referential integrity is
// checked here and a dangling tool name is fatal, so a miswired agent
// can never run.
package compose

import (
	"fmt"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/hitl"
	"github.com/relaykit/relay/llm"
	"github.com/relaykit/relay/schema"
	"github.com/relaykit/relay/tools"
)

// RoleSpec declares one agent role and the tool names it owns.
type RoleSpec struct {
	Role        string
	Description string
	Tools       []string
	MaxSteps    int
	ChainTools  bool
}

// Compose builds the agent set from role specs. Every referenced tool
// name must exist in the registry; any miss aborts the whole
// composition. The registry is frozen on success, so no tool can be
// registered after agents are constructed.
func Compose(reg *tools.Registry, client llm.Client, approvals *hitl.Manager, policy hitl.Policy, specs []RoleSpec) ([]*agent.Agent, error) {
	if reg == nil {
		return nil, fmt.Errorf("compose: registry is nil")
	}
	if client == nil {
		return nil, fmt.Errorf("compose: llm client is nil")
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("compose: no role specs")
	}

	classifier := llm.NewClassifier(client)
	agents := make([]*agent.Agent, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))

	for _, spec := range specs {
		if _, dup := seen[spec.Role]; dup {
			return nil, fmt.Errorf("compose: duplicate role %q", spec.Role)
		}
		seen[spec.Role] = struct{}{}

		subset, err := reg.Subset(spec.Tools)
		if err != nil {
			return nil, fmt.Errorf("compose: role %q: %w", spec.Role, err)
		}

		ag, err := agent.New(agent.Config{
			Role:        spec.Role,
			Description: spec.Description,
			Tools:       subset,
			Classifier:  classifier,
			Approvals:   approvals,
			Policy:      policy,
			MaxSteps:    spec.MaxSteps,
			ChainTools:  spec.ChainTools,
		})
		if err != nil {
			return nil, fmt.Errorf("compose: %w", err)
		}
		agents = append(agents, ag)
	}

	reg.Freeze()
	return agents, nil
}

// Verify re-checks the wiring of an existing composition against the
// registry. Used by the verification command.
func Verify(reg *tools.Registry, agents []*agent.Agent) error {
	for _, ag := range agents {
		for _, name := range ag.ToolNames() {
			if !reg.Has(name) {
				return schema.NewAgentError(ag.Role(), "verify",
					fmt.Errorf("%w: %s", schema.ErrUnknownTool, name))
			}
		}
	}
	return nil
}

// DefaultRoles is the shipped wiring: which tools belong to which role.
// Adding a tool to an agent means adding its name here and nowhere else.
func DefaultRoles() []RoleSpec {
	return []RoleSpec{
		{
			Role:        "market",
			Description: "Market data and technical analysis: prices, RSI, moving averages",
			Tools:       []string{"price_data", "technical_analysis"},
			ChainTools:  true,
		},
		{
			Role:        "research",
			Description: "Web research: fetch pages, summarize content, check the clock",
			Tools:       []string{"web_fetch", "current_time"},
			ChainTools:  true,
		},
		{
			Role:        "operations",
			Description: "Side-effecting operations: order placement, gated by approval",
			Tools:       []string{"execute_trade", "price_data"},
		},
	}
}
