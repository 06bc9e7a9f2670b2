package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// jsonOutput reports whether the persistent --output flag asks for JSON.
func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("output")
	return v
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// resolveAgent returns the --agent flag or the configured default agent.
func resolveAgent(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envAgent); v != "" {
		return v, nil
	}
	config, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	if config != nil && config.AgentID != "" {
		return config.AgentID, nil
	}
	return "", fmt.Errorf("no agent given (use --agent, %s or 'agentrag auth login --agent')", envAgent)
}

// readInput reads a file, or stdin when path is empty or "-".
func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", fmt.Errorf("no input provided")
	}
	return content, nil
}

const separator = "----------------------------------------"
