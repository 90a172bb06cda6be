package insights

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// placeholderText is an artifact the upstream message source injects; such
// messages are dropped without affecting the order of the rest.
const placeholderText = "{input}"

// FetchOutcome distinguishes a day with messages from a day without one.
// An empty day is not an error: the dispatcher's reply differs between the
// three cases (messages found / nothing today / fetch failed).
type FetchOutcome int

const (
	FetchOK FetchOutcome = iota
	FetchEmpty
)

// FetchResult is the outcome of one FetchToday call. Transcript and Count
// are only meaningful when Outcome is FetchOK.
type FetchResult struct {
	Outcome    FetchOutcome
	Transcript string
	Count      int
}

// Fetcher pulls the authorized chat's messages for the current local day
// from the source bot's update feed.
type Fetcher struct {
	client *BotClient
	chatID int64
	now    func() time.Time
}

func NewFetcher(client *BotClient, chatID int64) *Fetcher {
	return &Fetcher{client: client, chatID: chatID, now: time.Now}
}

// Today returns the fetcher's current wall-clock time, the reference for
// "this day" in both filtering and artifact names.
func (f *Fetcher) Today() time.Time { return f.now() }

// FetchToday reads the source feed's pending backlog and returns the day's
// transcript: one "[HH:MM] text" line per qualifying message, in the
// provider's delivery order. Failures reaching the feed come back as a
// wrapped *FetchError.
func (f *Fetcher) FetchToday(ctx context.Context) (FetchResult, error) {
	// No offset: the source feed is read in full on every invocation.
	updates, _, err := f.client.GetUpdates(ctx, 0, 0)
	if err != nil {
		return FetchResult{}, &FetchError{Err: err}
	}

	now := f.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	lines := make([]string, 0, len(updates))
	for _, upd := range updates {
		msg := upd.Message
		if msg == nil || msg.Chat.ID != f.chatID {
			continue
		}
		at := time.Unix(msg.Date, 0).In(now.Location())
		if at.Before(midnight) {
			continue
		}
		if msg.Text == "" || msg.Text == placeholderText {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", at.Format("15:04"), msg.Text))
	}

	if len(lines) == 0 {
		return FetchResult{Outcome: FetchEmpty}, nil
	}
	return FetchResult{
		Outcome:    FetchOK,
		Transcript: strings.Join(lines, "\n"),
		Count:      len(lines),
	}, nil
}
