package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiModel          = "gemini-1.5-flash"
)

const analysisPrompt = `Analyze these daily voice notes and provide insights on:
- Main themes and topics discussed
- Emotional patterns throughout the day
- Key decisions or ideas mentioned
- Suggestions for follow-up actions
- Overall summary of the day

Here are today's notes:
%s
`

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Message string `json:"message"`
}

// Analyzer submits a daily transcript to the Gemini generateContent endpoint
// with a fixed analytical prompt. One synchronous call, no retry, no
// truncation of overlong transcripts.
type Analyzer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type AnalyzerOptions struct {
	BaseURL string
	Client  *http.Client
}

func NewAnalyzer(apiKey string, opts AnalyzerOptions) *Analyzer {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Analyzer{apiKey: strings.TrimSpace(apiKey), baseURL: baseURL, client: client}
}

// Analyze returns the first candidate's text for the transcript. A provider
// error or a response without candidates comes back as an *AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (string, error) {
	if a.apiKey == "" {
		return "", &AnalysisError{Message: "no API key configured"}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", a.baseURL, geminiModel, a.apiKey)
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: fmt.Sprintf(analysisPrompt, transcript)}},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &AnalysisError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &AnalysisError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &AnalysisError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", &AnalysisError{Err: err}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &AnalysisError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		msg := "unknown error"
		if parsed.Error != nil && strings.TrimSpace(parsed.Error.Message) != "" {
			msg = parsed.Error.Message
		}
		return "", &AnalysisError{Message: msg}
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
