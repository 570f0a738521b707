// Package agent binds a tool subset, a classifier and an approval
// policy into an executable unit. An Agent is created once at compose
// time and is stateless across tasks; everything per-call lives in the
// execution transcript.
package agent

import (
	"fmt"
	"time"

	"github.com/relaykit/relay/hitl"
	"github.com/relaykit/relay/llm"
	"github.com/relaykit/relay/tools"
)

const (
	defaultMaxSteps        = 5
	defaultRetryAttempts   = 3
	defaultRetryBackoff    = 200 * time.Millisecond
	defaultClassifyTimeout = 30 * time.Second
)

// Config assembles an agent. Tools is the owned subset, already
// resolved against the registry by the composer; the agent never
// reaches into the registry itself.
type Config struct {
	Role        string
	Description string
	Tools       []tools.Tool
	Classifier  *llm.Classifier
	Approvals   *hitl.Manager
	Policy      hitl.Policy

	// MaxSteps bounds tool chaining; exceeding it is a terminal
	// StepLimitExceededError, never an endless loop.
	MaxSteps int

	// ChainTools feeds each tool result into another classification
	// round instead of returning after the first invocation.
	ChainTools bool

	RetryAttempts   int
	RetryBackoff    time.Duration
	ClassifyTimeout time.Duration
}

// Agent executes tasks against its owned tool subset.
type Agent struct {
	role        string
	description string
	subset      map[string]tools.Tool
	order       []string
	menu        []llm.ToolDescriptor
	classifier  *llm.Classifier
	approvals   *hitl.Manager
	policy      hitl.Policy

	maxSteps        int
	chainTools      bool
	retryAttempts   int
	retryBackoff    time.Duration
	classifyTimeout time.Duration
}

// New creates an agent, filling config defaults.
func New(cfg Config) (*Agent, error) {
	if cfg.Role == "" {
		return nil, fmt.Errorf("agent: role is required")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("agent %s: classifier is required", cfg.Role)
	}
	if cfg.Policy == nil {
		cfg.Policy = hitl.ApproveAll{}
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.ClassifyTimeout <= 0 {
		cfg.ClassifyTimeout = defaultClassifyTimeout
	}

	a := &Agent{
		role:            cfg.Role,
		description:     cfg.Description,
		subset:          make(map[string]tools.Tool, len(cfg.Tools)),
		classifier:      cfg.Classifier,
		approvals:       cfg.Approvals,
		policy:          cfg.Policy,
		maxSteps:        cfg.MaxSteps,
		chainTools:      cfg.ChainTools,
		retryAttempts:   cfg.RetryAttempts,
		retryBackoff:    cfg.RetryBackoff,
		classifyTimeout: cfg.ClassifyTimeout,
	}

	for _, t := range cfg.Tools {
		name := t.Name()
		if _, exists := a.subset[name]; exists {
			return nil, fmt.Errorf("agent %s: duplicate tool %s in subset", cfg.Role, name)
		}
		a.subset[name] = t
		a.order = append(a.order, name)
		a.menu = append(a.menu, llm.ToolDescriptor{
			Name:        name,
			Description: t.Description(),
			Schema:      tools.SchemaObject(t),
		})
	}

	return a, nil
}

// Role returns the agent's role identifier.
func (a *Agent) Role() string {
	return a.role
}

// Description returns the routing description.
func (a *Agent) Description() string {
	return a.description
}

// ToolNames returns the owned subset in declaration order.
func (a *Agent) ToolNames() []string {
	return append([]string(nil), a.order...)
}
