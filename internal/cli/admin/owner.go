package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/repository"
	"github.com/cloo-solutions/agentrag/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func OwnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage owners",
		Long:  "Create and list owners. Every agent and API key belongs to one owner.",
	}

	cmd.AddCommand(OwnerCreateCmd())
	cmd.AddCommand(OwnerListCmd())

	return cmd
}

func OwnerCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new owner",
		Args:  cobra.ExactArgs(1),
		RunE:  runOwnerCreate,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runOwnerCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	authSvc := service.NewAuthService(repository.NewOwnerRepository(pool), nil, &service.DefaultUUIDGenerator{})

	owner, err := authSvc.CreateOwner(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to create owner: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(ownerJSON(owner))
	}
	fmt.Printf("Owner created: %s (%s)\n", owner.Name, owner.ID)
	return nil
}

func OwnerListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List owners",
		RunE:  runOwnerList,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runOwnerList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	authSvc := service.NewAuthService(repository.NewOwnerRepository(pool), nil, &service.DefaultUUIDGenerator{})
	owners, err := authSvc.ListOwners(ctx)
	if err != nil {
		return fmt.Errorf("failed to list owners: %w", err)
	}

	if outputFormat == "json" {
		items := make([]map[string]any, len(owners))
		for i, o := range owners {
			items[i] = ownerJSON(o)
		}
		return printJSON(items)
	}

	if len(owners) == 0 {
		fmt.Println("No owners found")
		return nil
	}
	for _, o := range owners {
		fmt.Printf("  %s: %s (created: %s)\n", o.ID, o.Name, o.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// resolveOwnerID accepts either an owner ID or an owner name.
func resolveOwnerID(ctx context.Context, owners service.OwnerRepository, ref string) (string, error) {
	var (
		owner *domain.Owner
		err   error
	)
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		owner, err = owners.GetByID(ctx, ref)
	} else {
		owner, err = owners.GetByName(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, domain.ErrOwnerNotFound) {
			return "", fmt.Errorf("owner not found: %s", ref)
		}
		return "", err
	}
	return owner.ID, nil
}

func ownerJSON(o *domain.Owner) map[string]any {
	return map[string]any{
		"id":         o.ID,
		"name":       o.Name,
		"created_at": o.CreatedAt,
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
