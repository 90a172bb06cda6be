package insights

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	unauthorizedReply = "❌ Unauthorized"

	startReply = "👋 Welcome to Daily Insights Bot!\n\n" +
		"Send /analyze to get your daily summary.\n\n" +
		"I'll fetch all your messages from today and analyze them!"

	fetchingReply    = "🔍 Fetching your messages from today..."
	emptyDayReply    = "📭 No messages found for today."
	savingReply      = "💾 Saving to Google Drive..."
	noStorageFooter  = "💡 Note: Google Drive saving is not configured."
	unknownCmdReply  = "Unknown command. Try /analyze or /start."
	analysisHeader   = "📊 *DAILY INSIGHTS*"
	inputArtifactTag = "Daily Input Messages"
	analysisArtifact = "Daily Analysis"
)

// Saver persists one labeled artifact and returns its shareable link.
type Saver interface {
	Save(ctx context.Context, name, content string) (string, error)
}

// BotOptions wires the dispatcher. Fetcher, Analyzer and Saver may be nil
// when the matching configuration is absent; the affected pipeline step then
// reports itself as unavailable instead of running.
type BotOptions struct {
	Client         *BotClient
	Fetcher        *Fetcher
	Analyzer       *Analyzer
	Saver          Saver
	ChatID         int64
	OffsetFile     string
	PollTimeoutSec int
	Logger         zerolog.Logger
}

// Bot receives commands from the single authorized chat and runs the
// fetch -> analyze -> reply -> save pipeline, one update at a time.
type Bot struct {
	client         *BotClient
	fetcher        *Fetcher
	analyzer       *Analyzer
	saver          Saver
	chatID         int64
	offsetFile     string
	pollTimeoutSec int
	log            zerolog.Logger
	now            func() time.Time
}

func NewBot(opts BotOptions) (*Bot, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("bot client is required")
	}
	pollTimeoutSec := opts.PollTimeoutSec
	if pollTimeoutSec <= 0 {
		pollTimeoutSec = 30
	}
	return &Bot{
		client:         opts.Client,
		fetcher:        opts.Fetcher,
		analyzer:       opts.Analyzer,
		saver:          opts.Saver,
		chatID:         opts.ChatID,
		offsetFile:     opts.OffsetFile,
		pollTimeoutSec: pollTimeoutSec,
		log:            opts.Logger,
		now:            time.Now,
	}, nil
}

// Run blocks on the update long-poll loop until ctx is canceled. Poll
// failures back off and retry; command pipeline failures are reported to the
// chat and never stop the loop.
func (b *Bot) Run(ctx context.Context) error {
	offset, err := loadOffset(b.offsetFile)
	if err != nil {
		return err
	}

	b.log.Info().Int("poll_timeout_sec", b.pollTimeoutSec).Msg("bot started")
	backoff := 2 * time.Second

	for {
		if ctx.Err() != nil {
			b.log.Info().Msg("interrupted; stopping")
			return nil
		}

		updates, nextOffset, err := b.client.GetUpdates(ctx, offset, b.pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				b.log.Info().Msg("interrupted; stopping")
				return nil
			}
			b.log.Warn().Err(err).Msg("getUpdates failed")
			if sleepErr := sleepOrCancel(ctx, backoff); sleepErr != nil {
				return nil
			}
			if backoff < 15*time.Second {
				backoff *= 2
				if backoff > 15*time.Second {
					backoff = 15 * time.Second
				}
			}
			continue
		}
		backoff = 2 * time.Second

		for _, upd := range updates {
			b.handleUpdate(ctx, upd)
		}

		if nextOffset > offset {
			offset = nextOffset
			if err := saveOffset(b.offsetFile, offset); err != nil {
				b.log.Warn().Err(err).Msg("save offset failed")
			}
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd Update) {
	if upd.Message == nil {
		return
	}
	chatID := upd.Message.Chat.ID
	text := strings.TrimSpace(upd.Message.Text)
	if chatID == 0 || text == "" {
		return
	}

	// The entire access-control model: one allow-listed chat.
	if chatID != b.chatID {
		b.log.Warn().Err(ErrUnauthorized).Int64("chat_id", chatID).Msg("rejected command")
		b.reply(ctx, chatID, unauthorizedReply)
		return
	}

	if !strings.HasPrefix(text, "/") {
		return
	}
	cmd := text
	if i := strings.IndexAny(cmd, " \t"); i > 0 {
		cmd = cmd[:i]
	}
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start", "/help":
		b.reply(ctx, chatID, startReply)
	case "/analyze":
		b.runAnalyze(ctx, chatID)
	default:
		b.reply(ctx, chatID, unknownCmdReply)
	}
}

// runAnalyze executes one pipeline invocation. Each externally-latent step
// is preceded by a progress message; any step's failure ends the invocation
// with an error reply, leaving already-sent output in place.
func (b *Bot) runAnalyze(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, fetchingReply)

	if b.fetcher == nil {
		b.reply(ctx, chatID, "❌ Error: source bot token is not configured")
		return
	}
	res, err := b.fetcher.FetchToday(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("fetch failed")
		b.reply(ctx, chatID, "❌ "+compactError(err))
		return
	}
	if res.Outcome == FetchEmpty {
		b.reply(ctx, chatID, emptyDayReply)
		return
	}

	b.reply(ctx, chatID, fmt.Sprintf("✅ Found %d messages\n\n🤖 Analyzing with AI...", res.Count))

	if b.analyzer == nil {
		b.reply(ctx, chatID, "❌ Error: AI API key is not configured")
		return
	}
	analysis, err := b.analyzer.Analyze(ctx, res.Transcript)
	if err != nil {
		b.log.Error().Err(err).Msg("analysis failed")
		b.reply(ctx, chatID, "❌ "+compactError(err))
		return
	}

	b.sendAnalysis(ctx, chatID, analysis)

	if b.saver == nil {
		b.reply(ctx, chatID, noStorageFooter)
		return
	}
	b.reply(ctx, chatID, savingReply)
	b.reply(ctx, chatID, b.saveArtifacts(ctx, res.Transcript, analysis))
}

// sendAnalysis delivers the analysis under the provider's message-size
// ceiling: one emphasized message when it fits, otherwise the header alone
// followed by exact fixed-size chunks whose concatenation is the analysis.
func (b *Bot) sendAnalysis(ctx context.Context, chatID int64, analysis string) {
	header := analysisHeader + "\n" + strings.Repeat("=", 30) + "\n\n"
	combined := header + analysis

	if len([]rune(combined)) <= MessageLimit {
		if err := b.client.SendMarkdown(ctx, chatID, combined); err != nil {
			b.log.Warn().Err(err).Msg("send analysis failed")
		}
		return
	}

	if err := b.client.SendMarkdown(ctx, chatID, header); err != nil {
		b.log.Warn().Err(err).Msg("send header failed")
		return
	}
	for _, chunk := range ChunkMessage(analysis, MessageLimit) {
		if err := b.client.SendMessage(ctx, chatID, chunk); err != nil {
			b.log.Warn().Err(err).Msg("send chunk failed")
			return
		}
	}
}

// saveArtifacts uploads the raw transcript and the analysis independently
// and reports each outcome on its own line, so a partial failure is visible
// rather than silently dropped.
func (b *Bot) saveArtifacts(ctx context.Context, transcript, analysis string) string {
	date := b.now().Format("2006-01-02")

	lines := make([]string, 0, 2)
	inputName := inputArtifactTag + " - " + date
	if link, err := b.saver.Save(ctx, inputName, inputName+"\n\n"+transcript); err != nil {
		b.log.Error().Err(err).Msg("save input failed")
		lines = append(lines, "📝 Input: ❌ "+compactError(err))
	} else {
		lines = append(lines, "📝 Input: "+link)
	}

	analysisName := analysisArtifact + " - " + date
	if link, err := b.saver.Save(ctx, analysisName, analysisName+"\n\n"+analysis); err != nil {
		b.log.Error().Err(err).Msg("save analysis failed")
		lines = append(lines, "📊 Analysis: ❌ "+compactError(err))
	} else {
		lines = append(lines, "📊 Analysis: "+link)
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("sendMessage failed")
	}
}

func sleepOrCancel(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func compactError(err error) string {
	raw := strings.TrimSpace(err.Error())
	if raw == "" {
		return "unknown error"
	}
	raw = strings.ReplaceAll(raw, "\n", " ")
	raw = strings.Join(strings.Fields(raw), " ")
	if len(raw) > 300 {
		return raw[:297] + "..."
	}
	return raw
}

func loadOffset(path string) (int64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read offset file: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return 0, nil
	}
	offset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse offset: %w", err)
	}
	if offset < 0 {
		return 0, nil
	}
	return offset, nil
}

func saveOffset(path string, offset int64) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create offset dir: %w", err)
	}
	content := strconv.FormatInt(offset, 10) + "\n"
	return os.WriteFile(path, []byte(content), 0o644)
}
