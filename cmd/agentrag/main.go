package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/agentrag/internal/cli"
	"github.com/cloo-solutions/agentrag/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentrag",
		Short: "agentrag CLI - feed and train retrieval agents",
		Long: `agentrag CLI manages agents, their documents and training runs.

Environment variables:
  AGENTRAG_API_KEY    API key for authentication
  AGENTRAG_API_URL    API base URL (default: http://localhost:8080)
  AGENTRAG_AGENT_ID   Default agent for commands that take --agent`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AgentsCmd())
	rootCmd.AddCommand(client.FilesCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.CrawlCmd())
	rootCmd.AddCommand(client.TrainCmd())
	rootCmd.AddCommand(client.JobsCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
