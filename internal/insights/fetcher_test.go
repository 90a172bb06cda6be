package insights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func fetchTestServer(t *testing.T, updates []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": updates})
	}))
}

func testUpdate(id int64, chatID int64, at time.Time, text string) map[string]any {
	return map[string]any{
		"update_id": id,
		"message": map[string]any{
			"chat": map[string]any{"id": chatID},
			"date": at.Unix(),
			"text": text,
		},
	}
}

func TestFetchTodayFiltersAndFormats(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 12, 30, 0, 0, time.Local)
	today := func(h, m int) time.Time {
		return time.Date(2024, 1, 15, h, m, 0, 0, time.Local)
	}
	yesterday := time.Date(2024, 1, 14, 23, 59, 0, 0, time.Local)

	server := fetchTestServer(t, []map[string]any{
		testUpdate(1, 42, today(9, 0), "morning note"),
		testUpdate(2, 99, today(9, 5), "wrong chat"),
		testUpdate(3, 42, yesterday, "stale"),
		testUpdate(4, 42, today(9, 10), ""),
		testUpdate(5, 42, today(9, 15), "{input}"),
		testUpdate(6, 42, today(10, 45), "second note"),
	})
	defer server.Close()

	fetcher := NewFetcher(NewBotClient("src", BotClientOptions{BaseURL: server.URL}), 42)
	fetcher.now = func() time.Time { return now }

	res, err := fetcher.FetchToday(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Outcome != FetchOK {
		t.Fatalf("outcome mismatch: got=%v", res.Outcome)
	}
	if res.Count != 2 {
		t.Fatalf("count mismatch: got=%d want=2", res.Count)
	}
	want := "[09:00] morning note\n[10:45] second note"
	if res.Transcript != want {
		t.Fatalf("transcript mismatch:\ngot:  %q\nwant: %q", res.Transcript, want)
	}
}

func TestFetchTodayLineCountMatchesQualifyingMessages(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 2, 20, 0, 0, 0, time.Local)
	updates := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		at := time.Date(2024, 3, 2, 8+i, 0, 0, 0, time.Local)
		updates = append(updates, testUpdate(int64(i+1), 7, at, "note"))
	}
	server := fetchTestServer(t, updates)
	defer server.Close()

	fetcher := NewFetcher(NewBotClient("src", BotClientOptions{BaseURL: server.URL}), 7)
	fetcher.now = func() time.Time { return now }

	res, err := fetcher.FetchToday(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	lines := strings.Split(res.Transcript, "\n")
	if len(lines) != 5 || res.Count != 5 {
		t.Fatalf("line count mismatch: lines=%d count=%d want=5", len(lines), res.Count)
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "[") || line[3] != ':' || line[6] != ']' {
			t.Fatalf("line %d missing HH:MM prefix: %q", i, line)
		}
	}
	// Arrival order, not re-sorted.
	for i := range lines {
		wantStamp := time.Date(2024, 3, 2, 8+i, 0, 0, 0, time.Local).Format("15:04")
		if !strings.HasPrefix(lines[i], "["+wantStamp+"]") {
			t.Fatalf("line %d out of order: %q", i, lines[i])
		}
	}
}

func TestFetchTodayEmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	server := fetchTestServer(t, []map[string]any{
		testUpdate(1, 42, time.Date(2024, 1, 14, 9, 0, 0, 0, time.Local), "old"),
		testUpdate(2, 42, now, "{input}"),
	})
	defer server.Close()

	fetcher := NewFetcher(NewBotClient("src", BotClientOptions{BaseURL: server.URL}), 42)
	fetcher.now = func() time.Time { return now }

	res, err := fetcher.FetchToday(context.Background())
	if err != nil {
		t.Fatalf("empty day must not be an error: %v", err)
	}
	if res.Outcome != FetchEmpty {
		t.Fatalf("outcome mismatch: got=%v want=FetchEmpty", res.Outcome)
	}
	if res.Transcript != "" || res.Count != 0 {
		t.Fatalf("empty result must carry no transcript: %+v", res)
	}
}

func TestFetchTodayProviderFailureIsFetchError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "boom"})
	}))
	defer server.Close()

	fetcher := NewFetcher(NewBotClient("src", BotClientOptions{BaseURL: server.URL}), 42)
	_, err := fetcher.FetchToday(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got: %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("provider description missing: %v", err)
	}
}
