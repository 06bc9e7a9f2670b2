package client

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// TrainResult mirrors the synchronous training response.
type TrainResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ChunksTrained int    `json:"chunksTrained"`
}

// Job mirrors a queued training job.
type Job struct {
	ID            string  `json:"id"`
	AgentID       string  `json:"agent_id"`
	Status        string  `json:"status"`
	Retries       int32   `json:"retries"`
	ChunksTrained int     `json:"chunks_trained"`
	Message       string  `json:"message,omitempty"`
	Error         string  `json:"error,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
}

func (j *Job) done() bool {
	return j.Status == "completed" || j.Status == "failed"
}

// TrainCmd runs or queues a training pass for an agent.
func TrainCmd() *cobra.Command {
	var async bool

	cmd := &cobra.Command{
		Use:   "train <agentID>",
		Short: "Train an agent on its stored files",
		Long: `Chunk, embed and index every stored file of the agent.
By default the request waits for the run to finish. With --async a training
job is queued and its ID printed; poll it with 'agentrag jobs get'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if async {
				return runEnqueue(api, cmd.OutOrStdout(), args[0], jsonOutput(cmd))
			}
			return runTrain(api, cmd.OutOrStdout(), args[0], jsonOutput(cmd))
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "Queue a training job instead of waiting")

	return cmd
}

func runTrain(api *APIClient, out io.Writer, agentID string, asJSON bool) error {
	resp, err := api.Post(agentPath(agentID, "train"), nil)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	var result TrainResult
	if err := resp.Decode(&result); err != nil {
		return err
	}

	if asJSON {
		if err := printJSON(out, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s (chunks trained: %d)\n", result.Message, result.ChunksTrained)
	}

	if !result.Success {
		return fmt.Errorf("training failed: %s", result.Message)
	}
	return nil
}

func runEnqueue(api *APIClient, out io.Writer, agentID string, asJSON bool) error {
	resp, err := api.Post(agentPath(agentID, "train", "jobs"), nil)
	if err != nil {
		return fmt.Errorf("failed to queue training: %w", err)
	}

	var job Job
	if err := resp.Decode(&job); err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, job)
	}
	verb := "queued"
	if resp.StatusCode == http.StatusOK {
		verb = "already active"
	}
	fmt.Fprintf(out, "Training job %s %s (%s)\n", job.ID, verb, job.Status)
	return nil
}

// JobsCmd creates the jobs parent command.
func JobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect training jobs",
	}

	var (
		agent    string
		wait     bool
		interval time.Duration
	)
	get := &cobra.Command{
		Use:   "get <jobID>",
		Short: "Show a training job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(agent)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if !wait {
				interval = 0
			}
			return runJobGet(api, cmd.OutOrStdout(), agentID, args[0], interval, jsonOutput(cmd))
		},
	}
	get.Flags().StringVarP(&agent, "agent", "a", "", "Agent ID")
	get.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the job completes or fails")
	get.Flags().DurationVar(&interval, "interval", 2*time.Second, "Poll interval with --wait")

	cmd.AddCommand(get)
	return cmd
}

// runJobGet fetches the job once, or until it is finished when interval > 0.
func runJobGet(api *APIClient, out io.Writer, agentID, jobID string, interval time.Duration, asJSON bool) error {
	var job Job
	for {
		resp, err := api.Get(agentPath(agentID, "train", "jobs", jobID))
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}
		if err := resp.Decode(&job); err != nil {
			return err
		}
		if interval <= 0 || job.done() {
			break
		}
		time.Sleep(interval)
	}

	if asJSON {
		return printJSON(out, job)
	}

	fmt.Fprintf(out, "Job %s: %s\n", job.ID, job.Status)
	fmt.Fprintf(out, "  Agent: %s\n", job.AgentID)
	fmt.Fprintf(out, "  Retries: %d\n", job.Retries)
	if job.Status == "completed" {
		fmt.Fprintf(out, "  Chunks trained: %d\n", job.ChunksTrained)
	}
	if job.Message != "" {
		fmt.Fprintf(out, "  Message: %s\n", job.Message)
	}
	if job.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", job.Error)
	}
	if job.ProcessedAt != nil {
		fmt.Fprintf(out, "  Processed: %s\n", *job.ProcessedAt)
	}
	return nil
}
