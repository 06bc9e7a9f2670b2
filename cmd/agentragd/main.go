package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/agentrag/internal/cli"
	"github.com/cloo-solutions/agentrag/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentragd",
		Short: "agentrag server and admin CLI",
		Long:  "agentrag daemon for running the API server and training worker, and for managing owners, API keys and the vector collection",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.OwnerCmd())
	rootCmd.AddCommand(admin.APIKeyCmd())
	rootCmd.AddCommand(admin.TrainCmd())
	rootCmd.AddCommand(admin.CollectionCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
