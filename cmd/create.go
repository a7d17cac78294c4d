package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/flowblocs/internal/config"
	"github.com/user/flowblocs/internal/notion"
)

var createCmd = &cobra.Command{
	Use:   "create <database-id> <title>",
	Short: "Create a page in a database",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args[1:], " ")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, client, engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		properties := map[string]notion.PropertyValue{
			"Name": {
				Type:  "title",
				Title: []notion.RichText{{Type: "text", Text: &notion.TextSpan{Content: title}}},
			},
		}
		ctx := context.Background()
		page, err := client.CreatePage(ctx, notion.Parent{DatabaseID: args[0]}, properties, nil)
		if err != nil {
			return fmt.Errorf("creating page failed: %w", err)
		}

		// Redo the page listing so the cache picks up the new page.
		if _, err := engine.DatabasePages(ctx, args[0], true); err != nil {
			fmt.Printf("Created %s, but refreshing the cache failed: %v\n", page.ID, err)
			return nil
		}
		fmt.Printf("Created page %s.\n", page.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
