package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/flowblocs/internal/config"
)

var (
	pagesJSON    bool
	pagesRefresh bool
	pagesTree    bool
)

var pagesCmd = &cobra.Command{
	Use:   "pages <database-id>",
	Short: "List a database's pages",
	Long:  "List a database's canvas-eligible pages from the local cache. With --tree, treat the argument as a page id and show its sub-pages instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, _, engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		if pagesTree {
			parent, children, err := engine.PageHierarchy(ctx, args[0], pagesRefresh)
			if err != nil {
				return fmt.Errorf("loading hierarchy failed: %w", err)
			}
			fmt.Printf("%s (%d sub-pages)\n", parent.Title, len(children))
			for _, p := range children {
				fmt.Printf("  - %s\n", p.Title)
			}
			return nil
		}

		pages, err := engine.DatabasePages(ctx, args[0], pagesRefresh)
		if err != nil {
			return fmt.Errorf("listing pages failed: %w", err)
		}

		if pagesJSON {
			data, err := json.MarshalIndent(pages, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(pages) == 0 {
			fmt.Println("No pages found.")
			return nil
		}
		for i, p := range pages {
			icon := p.Icon
			if icon == "" {
				icon = "📄"
			}
			fmt.Printf("%d. %s %s\n   %s\n", i+1, icon, p.Title, p.ID)
		}
		return nil
	},
}

func init() {
	pagesCmd.Flags().BoolVarP(&pagesJSON, "json", "j", false, "Output as JSON")
	pagesCmd.Flags().BoolVarP(&pagesRefresh, "refresh", "r", false, "Bypass the cache and fetch from Notion")
	pagesCmd.Flags().BoolVarP(&pagesTree, "tree", "t", false, "Show the page's sub-page hierarchy")
	rootCmd.AddCommand(pagesCmd)
}
