package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/flowblocs/internal/blocks"
	"github.com/user/flowblocs/internal/config"
)

var (
	blocksJSON    bool
	blocksHTML    bool
	blocksRefresh bool
)

var blocksCmd = &cobra.Command{
	Use:   "blocks <page-id>",
	Short: "Show a page's content",
	Long:  "Fetch a page's blocks through the local cache and print them as text, JSON, or the editable HTML surface.",
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

		pageBlocks, err := engine.PageBlocks(context.Background(), args[0], blocksRefresh)
		if err != nil {
			return fmt.Errorf("loading blocks failed: %w", err)
		}

		if blocksJSON {
			data, err := json.MarshalIndent(pageBlocks, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		if blocksHTML {
			fmt.Println(blocks.Render(pageBlocks))
			return nil
		}
		for _, b := range pageBlocks {
			fmt.Printf("[%s] %s\n", b.Type, b.Content)
		}
		return nil
	},
}

func init() {
	blocksCmd.Flags().BoolVarP(&blocksJSON, "json", "j", false, "Output as JSON")
	blocksCmd.Flags().BoolVar(&blocksHTML, "html", false, "Output the editable HTML surface")
	blocksCmd.Flags().BoolVarP(&blocksRefresh, "refresh", "r", false, "Bypass the cache and fetch from Notion")
	rootCmd.AddCommand(blocksCmd)
}
