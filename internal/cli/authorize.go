package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"insights-bot/internal/insights"
)

// authorizeCmd runs the interactive OAuth flow once and caches the token.
// The bot itself never prompts: without a cached token it simply runs with
// storage off.
var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Run the interactive Google Drive authorization flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := insights.LoadConfig()
		if err != nil {
			return err
		}
		if !cfg.StorageEnabled() {
			return fmt.Errorf("set INSIGHTS_GOOGLE_CREDENTIALS or INSIGHTS_GOOGLE_CREDENTIALS_FILE first")
		}
		auth, err := newAuthenticator(cfg)
		if err != nil {
			return err
		}
		return auth.Authorize(cmd.Context(), os.Stdin, cmd.OutOrStdout())
	},
}
