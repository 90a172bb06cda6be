// Package cli implements the insightsbot CLI commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"insights-bot/internal/insights"
	"insights-bot/internal/storage"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "insightsbot",
	Short:         "Daily insights Telegram bot",
	Long:          "Fetches your day's messages from a source bot, analyzes them with Gemini, and optionally saves both texts to Google Drive.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.AddCommand(runCmd, analyzeCmd, authorizeCmd, versionCmd)
}

func newAuthenticator(cfg insights.Config) (*storage.Authenticator, error) {
	return storage.NewAuthenticator(cfg.CredentialsJSON, &storage.FileTokenStore{Path: cfg.TokenFile})
}

// newDrive builds the storage client from cached credentials. Callers treat
// storage.ErrAuthRequired as "run `insightsbot authorize` first".
func newDrive(ctx context.Context, cfg insights.Config) (*storage.Drive, error) {
	auth, err := newAuthenticator(cfg)
	if err != nil {
		return nil, err
	}
	return storage.NewDrive(ctx, auth, cfg.DriveFolder)
}
