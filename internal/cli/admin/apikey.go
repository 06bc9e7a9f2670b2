package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/agentrag/internal/repository"
	"github.com/cloo-solutions/agentrag/internal/service"
	"github.com/spf13/cobra"
)

func APIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
		Long:  "Create, list, and revoke API keys",
	}

	cmd.AddCommand(APIKeyCreateCmd())
	cmd.AddCommand(APIKeyListCmd())
	cmd.AddCommand(APIKeyRevokeCmd())

	return cmd
}

func APIKeyCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Create a new API key for an owner. The token is shown once.",
		RunE:  runAPIKeyCreate,
	}

	cmd.Flags().StringP("owner", "w", "", "Owner ID or name (required)")
	cmd.Flags().StringP("name", "n", "", "API key name (required)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ownerRef, _ := cmd.Flags().GetString("owner")
	name, _ := cmd.Flags().GetString("name")
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ownerRepo := repository.NewOwnerRepository(pool)
	authSvc := service.NewAuthService(ownerRepo, repository.NewAPIKeyRepository(pool), &service.DefaultUUIDGenerator{})

	ownerID, err := resolveOwnerID(ctx, ownerRepo, ownerRef)
	if err != nil {
		return err
	}

	token, err := authSvc.CreateAPIKey(ctx, ownerID, name)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(map[string]any{
			"name":     name,
			"owner_id": ownerID,
			"token":    token,
		})
	}

	fmt.Printf("API key created for owner %s\n", ownerID)
	fmt.Printf("Key Name: %s\n", name)
	fmt.Printf("Token: %s\n", token)
	fmt.Println("\nSave this token now. You won't be able to see it again!")
	return nil
}

func APIKeyListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerRef, _ := cmd.Flags().GetString("owner")
			outputFormat, _ := cmd.Flags().GetString("output")
			return runAPIKeyList(ownerRef, outputFormat, limit, cursor)
		},
	}

	cmd.Flags().StringP("owner", "w", "", "Owner ID or name (required)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runAPIKeyList(ownerRef, outputFormat string, limit int, cursor string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ownerRepo := repository.NewOwnerRepository(pool)
	authSvc := service.NewAuthService(ownerRepo, repository.NewAPIKeyRepository(pool), &service.DefaultUUIDGenerator{})

	ownerID, err := resolveOwnerID(ctx, ownerRepo, ownerRef)
	if err != nil {
		return err
	}

	result, err := authSvc.ListAPIKeys(ctx, ownerID, cursor, limit)
	if err != nil {
		return fmt.Errorf("failed to list API keys: %w", err)
	}

	if outputFormat == "json" {
		items := make([]map[string]any, len(result.Items))
		for i, key := range result.Items {
			items[i] = map[string]any{
				"id":         key.ID,
				"name":       key.Name,
				"owner_id":   key.OwnerID,
				"created_at": key.CreatedAt,
				"revoked_at": key.RevokedAt,
				"revoked":    key.IsRevoked(),
			}
		}
		return printJSON(map[string]any{
			"items":    items,
			"cursor":   result.Cursor,
			"has_more": result.HasMore,
		})
	}

	if len(result.Items) == 0 {
		fmt.Printf("No API keys found for owner %s\n", ownerID)
		return nil
	}
	fmt.Printf("API keys for owner %s:\n", ownerID)
	for _, key := range result.Items {
		status := "active"
		if key.IsRevoked() {
			status = "revoked"
		}
		fmt.Printf("  %s: %s (%s, created: %s)\n", key.ID, key.Name, status, key.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if result.HasMore && result.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", result.Cursor)
	}
	return nil
}

func APIKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE:  runAPIKeyRevoke,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	keyID := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	authSvc := service.NewAuthService(nil, repository.NewAPIKeyRepository(pool), &service.DefaultUUIDGenerator{})
	if err := authSvc.RevokeAPIKey(ctx, keyID); err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(map[string]any{"id": keyID, "revoked": true})
	}
	fmt.Printf("API key %s revoked\n", keyID)
	return nil
}
