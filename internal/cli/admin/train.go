package admin

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// TrainCmd runs one training pass in the foreground, bypassing the job queue.
func TrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train <agentID>",
		Short: "Train an agent synchronously",
		Long:  "Chunk, embed and index every stored file of an agent without going through the job queue",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrain,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	pipe, err := newPipeline(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer pipe.close()

	result := pipe.training.TrainAgent(ctx, args[0])

	if outputFormat == "json" {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		fmt.Printf("%s (chunks trained: %d)\n", result.Message, result.ChunksTrained)
	}

	if !result.Success {
		os.Exit(1)
	}
	return nil
}
