package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/flowblocs/internal/blocks"
	"github.com/user/flowblocs/internal/config"
)

var savePrune bool

var saveCmd = &cobra.Command{
	Use:   "save <page-id> <surface-file>",
	Short: "Save an edited page surface back to Notion",
	Long:  "Parse an edited HTML surface file, diff it against the page's cached blocks, and write the changes: one update per surviving block plus a single append for new ones.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageID := args[0]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, client, engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		surface, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading surface file: %w", err)
		}
		edited, err := blocks.ParseSurface(string(surface))
		if err != nil {
			return err
		}

		ctx := context.Background()
		cached, err := engine.PageBlocks(ctx, pageID, false)
		if err != nil {
			return fmt.Errorf("loading known blocks: %w", err)
		}
		known := make(map[string]bool, len(cached))
		for _, b := range cached {
			known[b.ID.Remote()] = true
		}

		reconciler := blocks.NewReconciler(client, nil)
		result, err := reconciler.Save(ctx, pageID, edited, known)

		deleted := 0
		if savePrune && err == nil {
			surviving := make(map[string]bool, len(edited))
			for _, b := range edited {
				surviving[b.ID.Remote()] = true
			}
			for _, b := range cached {
				if surviving[b.ID.Remote()] {
					continue
				}
				if delErr := client.DeleteBlock(ctx, b.ID.Remote()); delErr != nil {
					fmt.Fprintf(os.Stderr, "warning: deleting %s: %v\n", b.ID.Remote(), delErr)
					continue
				}
				deleted++
			}
		}

		// The remote block set has moved past the cache either way.
		if invErr := engine.InvalidatePage(pageID); invErr != nil {
			fmt.Fprintf(os.Stderr, "warning: invalidating cache: %v\n", invErr)
		}

		if err != nil {
			for _, f := range result.Failures {
				id := f.BlockID
				if id == "" {
					id = "(append batch)"
				}
				fmt.Fprintf(os.Stderr, "  %s: %v\n", id, f.Err)
			}
			return err
		}
		if savePrune {
			fmt.Printf("Saved: %d updated, %d appended, %d deleted.\n", result.Updated, result.Appended, deleted)
			return nil
		}
		fmt.Printf("Saved: %d updated, %d appended.\n", result.Updated, result.Appended)
		return nil
	},
}

func init() {
	saveCmd.Flags().BoolVar(&savePrune, "prune", false, "Also delete blocks removed from the surface")
	rootCmd.AddCommand(saveCmd)
}
