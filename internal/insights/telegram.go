package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTelegramBaseURL = "https://api.telegram.org"

	// MessageLimit is the practical per-message size ceiling the provider
	// enforces; longer replies are split into consecutive chunks.
	MessageLimit = 4000
)

type getUpdatesResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description,omitempty"`
	Result      []Update `json:"result"`
}

// Update is one entry from the provider's getUpdates feed.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming chat message. Date is a unix timestamp.
type Message struct {
	Chat Chat   `json:"chat"`
	Date int64  `json:"date"`
	Text string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// BotClient is a minimal typed client for the Telegram Bot API, one instance
// per bot token.
type BotClient struct {
	token   string
	baseURL string
	client  *http.Client
}

// BotClientOptions configures a BotClient. Zero values pick defaults; BaseURL
// and Client exist so tests can point at an httptest server.
type BotClientOptions struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func NewBotClient(token string, opts BotClientOptions) *BotClient {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &BotClient{token: strings.TrimSpace(token), baseURL: baseURL, client: client}
}

// GetUpdates polls the update feed. offset <= 0 means no offset parameter,
// which returns the provider's whole pending backlog. The returned next
// offset is one past the highest update ID seen.
func (b *BotClient) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, int64, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getUpdates", b.baseURL, b.token)
	values := url.Values{}
	if timeoutSec > 0 {
		values.Set("timeout", strconv.Itoa(timeoutSec))
	}
	if offset > 0 {
		values.Set("offset", strconv.FormatInt(offset, 10))
	}
	if enc := values.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, offset, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, offset, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, offset, fmt.Errorf("telegram getUpdates http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload getUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, offset, err
	}
	if !payload.OK {
		if strings.TrimSpace(payload.Description) == "" {
			return nil, offset, fmt.Errorf("telegram getUpdates failed")
		}
		return nil, offset, fmt.Errorf("telegram getUpdates failed: %s", payload.Description)
	}

	nextOffset := offset
	for _, upd := range payload.Result {
		if upd.UpdateID >= nextOffset {
			nextOffset = upd.UpdateID + 1
		}
	}
	return payload.Result, nextOffset, nil
}

// SendMessage sends a plain-text message to the chat.
func (b *BotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	return b.send(ctx, sendMessageRequest{ChatID: chatID, Text: text})
}

// SendMarkdown sends a message with Markdown emphasis enabled.
func (b *BotClient) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	return b.send(ctx, sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "Markdown"})
}

func (b *BotClient) send(ctx context.Context, reqBody sendMessageRequest) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", b.baseURL, b.token)
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("telegram sendMessage http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var res sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return err
	}
	if !res.OK {
		if strings.TrimSpace(res.Description) == "" {
			return fmt.Errorf("telegram sendMessage failed")
		}
		return fmt.Errorf("telegram sendMessage failed: %s", res.Description)
	}
	return nil
}

// ChunkMessage splits text into consecutive fixed-size chunks of at most
// maxRunes characters. Chunks are exact slices: no trimming and no rewrap at
// word boundaries, so their concatenation equals the input byte for byte.
func ChunkMessage(text string, maxRunes int) []string {
	if text == "" {
		return nil
	}
	if maxRunes <= 0 {
		maxRunes = MessageLimit
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return []string{text}
	}

	out := make([]string, 0, (len(runes)+maxRunes-1)/maxRunes)
	for start := 0; start < len(runes); start += maxRunes {
		end := start + maxRunes
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
