package client

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Agent mirrors the agent payload returned by the API.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// AgentsCmd creates the agents parent command.
func AgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage agents",
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a new agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAgentCreate(api, cmd.OutOrStdout(), args[0], description, jsonOutput(cmd))
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "Agent description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List your agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAgentList(api, cmd.OutOrStdout(), jsonOutput(cmd))
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func runAgentCreate(api *APIClient, out io.Writer, name, description string, asJSON bool) error {
	resp, err := api.Post("/agents", map[string]string{"name": name, "description": description})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	var agent Agent
	if err := resp.Decode(&agent); err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, agent)
	}
	fmt.Fprintf(out, "Agent created: %s (%s)\n", agent.Name, agent.ID)
	return nil
}

func runAgentList(api *APIClient, out io.Writer, asJSON bool) error {
	resp, err := api.Get("/agents")
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}

	var agents []Agent
	if err := resp.Decode(&agents); err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, agents)
	}
	if len(agents) == 0 {
		fmt.Fprintln(out, "No agents found.")
		return nil
	}
	for _, a := range agents {
		fmt.Fprintf(out, "%s  %s", a.ID, a.Name)
		if a.Description != "" {
			fmt.Fprintf(out, " - %s", a.Description)
		}
		fmt.Fprintln(out)
	}
	return nil
}
