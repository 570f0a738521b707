package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaykit/relay/compose"
	"github.com/relaykit/relay/hitl"
	"github.com/relaykit/relay/llm"
	"github.com/relaykit/relay/multi"
	"github.com/relaykit/relay/tools"
	"github.com/relaykit/relay/tools/builtin"
)

var (
	modelFlag  string
	apiKeyFlag string
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Tool registry and agent dispatch runtime",
	Long: `Relay registers typed tools, composes them into agent capability
sets and dispatches tasks through an LLM classifier, with human
approval gating for side-effecting tools.`,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compose the full agent set and list each agent's tools",
	Long: `Builds the registry and the default agent composition, then prints
every tool each agent exposes. Any dangling tool name fails the
command, so miswired agents are caught before they ever run.`,
	RunE: runVerify,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List every registered tool with its parameter schema",
	RunE:  runTools,
}

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Route a task through the agent set",
	Args:  cobra.ExactArgs(1),
	RunE:  runTask,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "gpt-4o-mini", "model name (picks the provider)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "provider API key (defaults to RELAY_API_KEY)")
	rootCmd.AddCommand(verifyCmd, toolsCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildRegistry() (*tools.Registry, error) {
	reg := tools.NewRegistry()
	if err := builtin.RegisterAll(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func buildClient() (llm.Client, error) {
	apiKey := apiKeyFlag
	if apiKey == "" {
		apiKey = os.Getenv("RELAY_API_KEY")
	}
	return llm.NewLiteLLMClient(llm.Config{
		Model:  modelFlag,
		APIKey: apiKey,
	})
}

func runVerify(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}
	client, err := buildClient()
	if err != nil {
		return err
	}

	approvals := hitl.NewManager()
	agents, err := compose.Compose(reg, client, approvals, hitl.GateSideEffects{}, compose.DefaultRoles())
	if err != nil {
		return err
	}
	if err := compose.Verify(reg, agents); err != nil {
		return err
	}

	fmt.Printf("registry: %d tools, %d agents\n\n", reg.Count(), len(agents))
	for _, ag := range agents {
		fmt.Printf("agent %s\n", ag.Role())
		for _, name := range ag.ToolNames() {
			t, err := reg.Get(name)
			if err != nil {
				return err
			}
			marker := ""
			if t.SideEffecting() {
				marker = " [gated]"
			}
			fmt.Printf("  %-22s %s%s\n", name, t.Description(), marker)
		}
		fmt.Println()
	}
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}
	for _, t := range reg.List() {
		schemaJSON, err := json.MarshalIndent(tools.SchemaObject(t), "  ", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n  %s\n\n", t.Name(), t.Description(), schemaJSON)
	}
	return nil
}

func runTask(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}
	client, err := buildClient()
	if err != nil {
		return err
	}

	approvals := hitl.NewManager()
	agents, err := compose.Compose(reg, client, approvals, hitl.GateSideEffects{}, compose.DefaultRoles())
	if err != nil {
		return err
	}
	team, err := multi.NewTeam(agents)
	if err != nil {
		return err
	}

	router := &multi.LLMRouter{Client: client, Default: "research"}
	manager, err := multi.NewManager(team, router, nil)
	if err != nil {
		return err
	}

	result, err := manager.Handle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(result.ToJSON())
	if result.Failed() {
		os.Exit(1)
	}
	return nil
}
