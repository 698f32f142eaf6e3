// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/article-engine/internal/httputil"
	"github.com/pdiddy/article-engine/pkg/types"
)

// openaiEmbeddingsURL is the OpenAI embeddings endpoint. Package-level var
// for test substitution.
var openaiEmbeddingsURL = "https://api.openai.com/v1/embeddings"

// DefaultEmbeddingModel is used when no embedding model is configured.
const DefaultEmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedder implements Embedder against the OpenAI embeddings API.
type OpenAIEmbedder struct {
	cfg    types.EmbeddingConfig
	client *http.Client
	logw   io.Writer
}

// NewOpenAIEmbedder builds an embedder from cfg. A nil client uses
// http.DefaultClient; a nil logw discards retry logging.
func NewOpenAIEmbedder(cfg types.EmbeddingConfig, client *http.Client, logw io.Writer) *OpenAIEmbedder {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logw == nil {
		logw = io.Discard
	}
	return &OpenAIEmbedder{cfg: cfg, client: client, logw: logw}
}

// embeddingsRequest is the request body for the OpenAI embeddings API.
type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingsResponse is the response body from the OpenAI embeddings API.
type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany returns one embedding per input text, index-aligned with texts.
func (e *OpenAIEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	bodyBytes, err := json.Marshal(embeddingsRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiEmbeddingsURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := httputil.DoWithRetry(ctx, e.client, req, e.cfg.MaxRetries, e.logw)
	if err != nil {
		return nil, fmt.Errorf("calling embeddings API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings API returned %d: %s", resp.StatusCode, string(body))
	}

	var eResp embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&eResp); err != nil {
		return nil, fmt.Errorf("decoding embeddings response: %w", err)
	}
	if len(eResp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(eResp.Data), len(texts))
	}

	// The API documents index-aligned output; order by index anyway.
	vecs := make([][]float64, len(texts))
	for _, d := range eResp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embeddings API returned out-of-range index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
