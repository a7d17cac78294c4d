package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/flowblocs/internal/config"
)

var syncPages bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local cache from Notion",
	Long:  "Fetch the workspace's databases (and optionally every page) from Notion, replacing the cached copies.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, client, engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if last, err := store.GetMetadata("last_full_sync"); err == nil && last != "" {
			fmt.Printf("Last full sync: %s\n", last)
		}

		ctx := context.Background()
		if _, err := client.GetCurrentUser(ctx); err != nil {
			return fmt.Errorf("token check failed: %w", err)
		}
		databases, err := engine.Databases(ctx, true)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Printf("Synced %d databases.\n", len(databases))
		store.SetMetadata("last_full_sync", time.Now().UTC().Format(time.RFC3339))

		if !syncPages {
			return nil
		}
		for _, d := range databases {
			pages, err := engine.DatabasePages(ctx, d.ID, true)
			if err != nil {
				fmt.Printf("  %s: %v\n", d.Title, err)
				continue
			}
			fmt.Printf("  %s: %d pages\n", d.Title, len(pages))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncPages, "pages", false, "Also sync every database's pages")
	rootCmd.AddCommand(syncCmd)
}
