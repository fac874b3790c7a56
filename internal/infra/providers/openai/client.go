package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/providers"
	"github.com/veritaslab/aiprobe/internal/infra/providers/prompt"
)

const (
	// ProviderID is the registry id for this adapter.
	ProviderID = "openai"

	maxTokens    = 2048
	defaultModel = "gpt-4o-mini"
)

// Client adapts the OpenAI chat completions API to the Provider port.
type Client struct {
	*openai.Client
	apiKey string
	model  string
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if model == "" {
		model = defaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{Client: openai.NewClientWithConfig(cfg), apiKey: apiKey, model: model}
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

func (c *Client) Analyze(ctx context.Context, req analysis.Request) analysis.Result {
	start := time.Now()
	fail := func(f *analysis.Failure) analysis.Result {
		return analysis.Result{Provider: ProviderID, Error: f, Latency: time.Since(start)}
	}

	if c.apiKey == "" {
		return fail(analysis.Permanent("openai api key not configured"))
	}

	chat := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt(req.Task)},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt(req)},
		},
		MaxTokens: maxTokens,
	}

	resp, err := c.CreateChatCompletion(ctx, chat)
	if err != nil {
		return fail(classify(err))
	}
	if len(resp.Choices) == 0 {
		return fail(analysis.Transient("empty completion response"))
	}

	payload, err := prompt.ParseResponse(resp.Choices[0].Message.Content)
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

// classify maps SDK errors onto the retry taxonomy: timeouts, rate limits and
// 5xx are transient; auth and malformed requests are permanent.
func classify(err error) *analysis.Failure {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return analysis.Transient("request timed out: " + err.Error())
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return analysis.Transient("rate limited: " + apiErr.Message)
		case apiErr.HTTPStatusCode >= 500:
			return analysis.Transient(apiErr.Message)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return analysis.Permanent("authentication failed: " + apiErr.Message)
		default:
			return analysis.Permanent(apiErr.Message)
		}
	}

	// Anything else is a network-level problem worth retrying.
	return analysis.Transient(err.Error())
}
