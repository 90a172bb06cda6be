package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"insights-bot/internal/insights"
	"insights-bot/internal/logging"
	"insights-bot/internal/storage"
)

var runPollTimeoutSec int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and block on the update loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := insights.LoadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.LogLevel, cfg.LogPretty)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Long-poll calls hold the connection open for the poll timeout, so
		// the polling client gets headroom on top of it.
		client := insights.NewBotClient(cfg.BotToken, insights.BotClientOptions{
			Timeout: time.Duration(runPollTimeoutSec+15) * time.Second,
		})

		var fetcher *insights.Fetcher
		if cfg.FetchEnabled() {
			source := insights.NewBotClient(cfg.SourceBotToken, insights.BotClientOptions{})
			fetcher = insights.NewFetcher(source, cfg.ChatID)
		} else {
			log.Warn().Msg("source bot token not configured; /analyze will report it")
		}

		var analyzer *insights.Analyzer
		if cfg.GeminiAPIKey != "" {
			analyzer = insights.NewAnalyzer(cfg.GeminiAPIKey, insights.AnalyzerOptions{})
		} else {
			log.Warn().Msg("Gemini API key not configured; /analyze will report it")
		}

		var saver insights.Saver
		if cfg.StorageEnabled() {
			drive, err := newDrive(ctx, cfg)
			switch {
			case errors.Is(err, storage.ErrAuthRequired):
				log.Warn().Msg("drive credentials present but not authorized; run `insightsbot authorize`")
			case err != nil:
				log.Warn().Err(err).Msg("drive setup failed; continuing without storage")
			default:
				saver = drive
			}
		} else {
			log.Info().Msg("drive credentials not configured; analyses will not be saved")
		}

		bot, err := insights.NewBot(insights.BotOptions{
			Client:         client,
			Fetcher:        fetcher,
			Analyzer:       analyzer,
			Saver:          saver,
			ChatID:         cfg.ChatID,
			OffsetFile:     cfg.OffsetFile,
			PollTimeoutSec: runPollTimeoutSec,
			Logger:         log,
		})
		if err != nil {
			return err
		}
		return bot.Run(ctx)
	},
}

func init() {
	runCmd.Flags().IntVar(&runPollTimeoutSec, "poll-timeout-sec", 30, "getUpdates long-poll timeout (seconds)")
}
