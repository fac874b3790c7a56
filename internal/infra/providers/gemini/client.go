package gemini

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
	ProviderID = "gemini"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"

	maxResponseSize = 10 * 1024 * 1024
)

// Client adapts the Gemini generateContent API to the Provider port.
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

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) Analyze(ctx context.Context, req analysis.Request) analysis.Result {
	start := time.Now()
	fail := func(f *analysis.Failure) analysis.Result {
		return analysis.Result{Provider: ProviderID, Error: f, Latency: time.Since(start)}
	}

	if c.apiKey == "" {
		return fail(analysis.Permanent("gemini api key not configured"))
	}

	body, err := json.Marshal(generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: prompt.SystemPrompt(req.Task)}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt.UserPrompt(req)}}},
		},
	})
	if err != nil {
		return fail(analysis.Permanent("marshal request: " + err.Error()))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fail(analysis.Permanent("build request: " + err.Error()))
	}
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

	var gen generateResponse
	if err := json.Unmarshal(raw, &gen); err != nil {
		return fail(analysis.Transient("parse response: " + err.Error()))
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return fail(analysis.Transient("empty candidates response"))
	}

	payload, err := prompt.ParseResponse(gen.Candidates[0].Content.Parts[0].Text)
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

func classifyStatus(status int, body []byte) *analysis.Failure {
	var gen generateResponse
	detail := fmt.Sprintf("status %d", status)
	if err := json.Unmarshal(body, &gen); err == nil && gen.Error != nil {
		detail = fmt.Sprintf("status %d: %s", status, gen.Error.Message)
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
