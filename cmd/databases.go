package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/flowblocs/internal/config"
	"github.com/user/flowblocs/internal/db"
)

var (
	databasesJSON    bool
	databasesRefresh bool
)

var databasesCmd = &cobra.Command{
	Use:   "databases [query]",
	Short: "List cached databases",
	Long:  "List the workspace's databases from the local cache, optionally filtered by a title substring.",
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

		databases, err := engine.Databases(context.Background(), databasesRefresh)
		if err != nil {
			return fmt.Errorf("listing databases failed: %w", err)
		}

		if len(args) > 0 {
			databases, err = store.SearchDatabases(strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
		}

		if databasesJSON {
			data, err := json.MarshalIndent(databases, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		return printDatabases(databases)
	},
}

func printDatabases(databases []db.Database) error {
	if len(databases) == 0 {
		fmt.Println("No databases found.")
		return nil
	}
	for i, d := range databases {
		icon := d.Icon
		if icon == "" {
			icon = "📄"
		}
		fmt.Printf("%d. %s %s (%d pages)\n   %s\n", i+1, icon, d.Title, d.PageCount, d.ID)
	}
	return nil
}

func init() {
	databasesCmd.Flags().BoolVarP(&databasesJSON, "json", "j", false, "Output as JSON")
	databasesCmd.Flags().BoolVarP(&databasesRefresh, "refresh", "r", false, "Bypass the cache and fetch from Notion")
	rootCmd.AddCommand(databasesCmd)
}
