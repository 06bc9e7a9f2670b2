package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func CollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage the vector collection",
		Long:  "Create or rebuild the shared vector collection used by every agent",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ensure",
		Short: "Create the collection if missing and check its vector size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIndexManager(cmd.Context(), "ensured", func(ctx context.Context, m indexAdmin) error {
				return m.EnsureCollection(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "recreate",
		Short: "Drop and recreate the collection (destroys all indexed chunks)",
		Long:  "Drop and recreate the collection. Requires AGENTRAG_ALLOW_RECREATE=true.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIndexManager(cmd.Context(), "recreated", func(ctx context.Context, m indexAdmin) error {
				return m.Recreate(ctx)
			})
		},
	})

	return cmd
}

type indexAdmin interface {
	EnsureCollection(ctx context.Context) error
	Recreate(ctx context.Context) error
	Collection() string
	VectorSize() int
}

func withIndexManager(ctx context.Context, verb string, fn func(context.Context, indexAdmin) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	index, closeBackend, err := newIndexManager(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer closeBackend()

	if err := fn(ctx, index); err != nil {
		return fmt.Errorf("collection %s: %w", index.Collection(), err)
	}
	fmt.Printf("Collection %s %s (vector size %d)\n", index.Collection(), verb, index.VectorSize())
	return nil
}
