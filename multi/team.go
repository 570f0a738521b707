package multi

import (
	"fmt"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/schema"
)

// Team is the composed agent set, addressed by role. It is built once
// from the composer output and read-only afterwards.
type Team struct {
	agents map[string]*agent.Agent
	order  []string
}

// NewTeam indexes composed agents by role.
func NewTeam(agents []*agent.Agent) (*Team, error) {
	t := &Team{agents: make(map[string]*agent.Agent, len(agents))}
	for _, ag := range agents {
		role := ag.Role()
		if _, exists := t.agents[role]; exists {
			return nil, fmt.Errorf("team: duplicate role %s", role)
		}
		t.agents[role] = ag
		t.order = append(t.order, role)
	}
	return t, nil
}

// Get retrieves an agent by role.
func (t *Team) Get(role string) (*agent.Agent, error) {
	ag, exists := t.agents[role]
	if !exists {
		return nil, fmt.Errorf("%w: %s", schema.ErrAgentNotFound, role)
	}
	return ag, nil
}

// Roles returns role names in composition order.
func (t *Team) Roles() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of agents.
func (t *Team) Len() int {
	return len(t.agents)
}
