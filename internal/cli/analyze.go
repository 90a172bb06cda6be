package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"insights-bot/internal/insights"
)

var analyzeSave bool

// analyzeCmd runs the pipeline once from the terminal: useful for checking
// configuration without a Telegram round-trip.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch today's messages, analyze them, and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := insights.LoadConfig()
		if err != nil {
			return err
		}
		if !cfg.FetchEnabled() {
			return fmt.Errorf("INSIGHTS_SOURCE_BOT_TOKEN is required for analyze")
		}
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("INSIGHTS_GEMINI_API_KEY is required for analyze")
		}
		ctx := cmd.Context()

		source := insights.NewBotClient(cfg.SourceBotToken, insights.BotClientOptions{})
		fetcher := insights.NewFetcher(source, cfg.ChatID)
		res, err := fetcher.FetchToday(ctx)
		if err != nil {
			return err
		}
		if res.Outcome == insights.FetchEmpty {
			fmt.Fprintln(cmd.OutOrStdout(), "No messages found for today.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found %d messages; analyzing...\n\n", res.Count)

		analyzer := insights.NewAnalyzer(cfg.GeminiAPIKey, insights.AnalyzerOptions{})
		analysis, err := analyzer.Analyze(ctx, res.Transcript)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), analysis)

		if !analyzeSave {
			return nil
		}
		if !cfg.StorageEnabled() {
			return insights.ErrStorageUnavailable
		}
		drive, err := newDrive(ctx, cfg)
		if err != nil {
			return err
		}
		date := fetcher.Today().Format("2006-01-02")
		for _, artifact := range []struct {
			name    string
			content string
		}{
			{"Daily Input Messages - " + date, "Daily Input Messages - " + date + "\n\n" + res.Transcript},
			{"Daily Analysis - " + date, "Daily Analysis - " + date + "\n\n" + analysis},
		} {
			link, err := drive.Save(ctx, artifact.name, artifact.content)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: %s\n", artifact.name, link)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "also save transcript and analysis to Google Drive")
}
