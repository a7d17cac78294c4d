package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/flowblocs/internal/config"
	"github.com/user/flowblocs/internal/notion"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Verify the Notion token",
	Long:  "Call the Notion API with the configured token and print the integration's bot user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		client := notion.NewClient(notion.ClientOptions{
			BaseURL:       cfg.Notion.BaseURL,
			TokenProvider: notion.StaticToken(cfg.Notion.Token),
			APIVersion:    cfg.Notion.Version,
		})

		user, err := client.GetCurrentUser(context.Background())
		if err != nil {
			return fmt.Errorf("token check failed: %w", err)
		}
		fmt.Printf("Authenticated as %s (%s)\n", user.Name, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
