package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/flowblocs/internal/config"
	"github.com/user/flowblocs/internal/db"
	"github.com/user/flowblocs/internal/notion"
	"github.com/user/flowblocs/internal/sync"
	"github.com/user/flowblocs/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "flowblocs",
	Short: "Notion workspace canvas TUI",
	Long:  "A TUI app to browse Notion databases and pages through a local cache and pin them to a visual canvas.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return tui.Run(cfg)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.flowblocs)")
}

// newEngine wires the store and Notion client for one-shot commands. The
// caller owns the returned store and must close it.
func newEngine(cfg *config.Config) (*db.Store, *notion.Client, *sync.Engine, error) {
	store, err := db.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	client := notion.NewClient(notion.ClientOptions{
		BaseURL:       cfg.Notion.BaseURL,
		TokenProvider: notion.StaticToken(cfg.Notion.Token),
		APIVersion:    cfg.Notion.Version,
	})
	engine := sync.NewEngine(client, store, sync.Options{TTL: cfg.CacheTTL()})
	return store, client, engine, nil
}
