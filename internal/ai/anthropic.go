// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/article-engine/internal/httputil"
	"github.com/pdiddy/article-engine/internal/taskqueue"
	"github.com/pdiddy/article-engine/pkg/types"
)

// anthropicAPIURL is the Claude Messages API endpoint. Package-level var for
// test substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

const anthropicVersion = "2023-06-01"

// Claude implements Generator against the Claude Messages API. All calls
// through one Claude value are serialized in arrival order: concurrent
// callers share a single FIFO queue rather than racing the API session.
type Claude struct {
	cfg    types.AIConfig
	client *http.Client
	logw   io.Writer
	queue  *taskqueue.Queue[string]
}

// NewClaude builds a Claude generator from cfg. A nil client uses
// http.DefaultClient; a nil logw discards retry logging.
func NewClaude(cfg types.AIConfig, client *http.Client, logw io.Writer) *Claude {
	if client == nil {
		client = http.DefaultClient
	}
	if logw == nil {
		logw = io.Discard
	}
	return &Claude{cfg: cfg, client: client, logw: logw, queue: taskqueue.New[string]()}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// GenerateText sends prompt to the Claude API and returns the text reply.
// The call waits its turn in the queue behind any calls enqueued earlier.
func (c *Claude) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.queue.Enqueue(ctx, func(ctx context.Context) (string, error) {
		return c.call(ctx, prompt)
	})
}

// call performs one Messages API round trip. Only the drain loop runs it.
func (c *Claude) call(ctx context.Context, prompt string) (string, error) {
	reqBody := claudeRequest{
		Model:     c.cfg.Model,
		MaxTokens: 8192,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries, c.logw)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}

// GenerateObject sends prompt to the Claude API and decodes the JSON reply
// into out. A reply wrapped in a Markdown code fence is unwrapped first.
func (c *Claude) GenerateObject(ctx context.Context, prompt string, out any) error {
	text, err := c.GenerateText(ctx, prompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), out); err != nil {
		return fmt.Errorf("parsing model response JSON: %w", err)
	}
	return nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present.
// Models sometimes fence JSON replies despite instructions not to.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
