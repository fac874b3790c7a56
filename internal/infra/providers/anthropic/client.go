package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/providers"
	"github.com/veritaslab/aiprobe/internal/infra/providers/prompt"
)

const (
	// ProviderID is the registry id for this adapter.
	ProviderID = "anthropic"

	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-5-haiku-latest"
	maxTokens      = 2048

	// maxResponseSize caps response bodies to keep a misbehaving upstream
	// from exhausting memory.
	maxResponseSize = 10 * 1024 * 1024
)

// Client adapts the Anthropic messages API to the Provider port. There is no
// SDK dependency; this is a plain JSON-over-HTTP client.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

func (c *Client) Descriptor() providers.Descriptor {
	return providers.Descriptor{
		ID: ProviderID,
		ContentTypes: []analysis.ContentType{
			analysis.ContentText,
			analysis.ContentURL,
			analysis.ContentDocument,
		},
		Tasks: providers.AllTasks(),
	}
}

// Available only checks credential presence; no network round trip.
func (c *Client) Available() bool { return c.apiKey != "" }

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Analyze(ctx context.Context, req analysis.Request) analysis.Result {
	start := time.Now()
	fail := func(f *analysis.Failure) analysis.Result {
		return analysis.Result{Provider: ProviderID, Error: f, Latency: time.Since(start)}
	}

	if c.apiKey == "" {
		return fail(analysis.Permanent("anthropic api key not configured"))
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    prompt.SystemPrompt(req.Task),
		Messages:  []message{{Role: "user", Content: prompt.UserPrompt(req)}},
	})
	if err != nil {
		return fail(analysis.Permanent("marshal request: " + err.Error()))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fail(analysis.Permanent("build request: " + err.Error()))
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fail(analysis.Transient("request timed out: " + err.Error()))
		}
		return fail(analysis.Transient(err.Error()))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fail(analysis.Transient("read response: " + err.Error()))
	}

	if resp.StatusCode != http.StatusOK {
		return fail(classifyStatus(resp.StatusCode, raw))
	}

	var msg messagesResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fail(analysis.Transient("parse response: " + err.Error()))
	}
	if len(msg.Content) == 0 {
		return fail(analysis.Transient("empty message response"))
	}

	payload, err := prompt.ParseResponse(msg.Content[0].Text)
	if err != nil {
		return fail(analysis.Transient(err.Error()))
	}

	return analysis.Result{
		Provider: ProviderID,
		Success:  true,
		Score:    payload.Score,
		Verdict:  payload.Verdict,
		Claims:   payload.Claims,
		Summary:  payload.Summary,
		Latency:  time.Since(start),
	}
}

// classifyStatus maps HTTP errors onto the retry taxonomy.
func classifyStatus(status int, body []byte) *analysis.Failure {
	var msg messagesResponse
	detail := fmt.Sprintf("status %d", status)
	if err := json.Unmarshal(body, &msg); err == nil && msg.Error != nil {
		detail = fmt.Sprintf("status %d: %s", status, msg.Error.Message)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return analysis.Transient("rate limited: " + detail)
	case status >= 500:
		return analysis.Transient(detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return analysis.Permanent("authentication failed: " + detail)
	default:
		return analysis.Permanent(detail)
	}
}
