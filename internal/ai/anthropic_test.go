// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/article-engine/pkg/types"
)

// fakeClaude spins up a test server that replies with the given text block
// and points the package endpoint at it for the duration of the test.
func fakeClaude(t *testing.T, handler http.HandlerFunc) *Claude {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := anthropicAPIURL
	anthropicAPIURL = ts.URL
	t.Cleanup(func() { anthropicAPIURL = old })

	return NewClaude(types.AIConfig{Model: "claude-test", APIKey: "k"}, ts.Client(), nil)
}

func claudeTextReply(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
	}
}

func TestClaudeGenerateText(t *testing.T) {
	var gotVersion, gotKey string
	c := fakeClaude(t, func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		claudeTextReply("hello from the model")(w, r)
	})

	text, err := c.GenerateText(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello from the model" {
		t.Errorf("text = %q", text)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("anthropic-version header = %q", gotVersion)
	}
	if gotKey != "k" {
		t.Errorf("x-api-key header = %q", gotKey)
	}
}

func TestClaudeGenerateObject(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "bare json", reply: `{"title": "Intro", "n": 2}`},
		{name: "fenced json", reply: "```json\n{\"title\": \"Intro\", \"n\": 2}\n```"},
		{name: "fenced without language", reply: "```\n{\"title\": \"Intro\", \"n\": 2}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fakeClaude(t, claudeTextReply(tt.reply))

			var out struct {
				Title string `json:"title"`
				N     int    `json:"n"`
			}
			if err := c.GenerateObject(context.Background(), "p", &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Title != "Intro" || out.N != 2 {
				t.Errorf("decoded %+v", out)
			}
		})
	}
}

func TestClaudeGenerateObjectUnparsable(t *testing.T) {
	c := fakeClaude(t, claudeTextReply("this is not json"))

	var out map[string]any
	if err := c.GenerateObject(context.Background(), "p", &out); err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestClaudeAPIError(t *testing.T) {
	c := fakeClaude(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	if _, err := c.GenerateText(context.Background(), "p"); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestClaudeSerializesConcurrentCalls(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	c := fakeClaude(t, func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		claudeTextReply("ok")(w, r)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GenerateText(context.Background(), "p"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("max concurrent API calls = %d, want 1", got)
	}
}

func TestClaudeEmptyContent(t *testing.T) {
	c := fakeClaude(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	})

	if _, err := c.GenerateText(context.Background(), "p"); err == nil {
		t.Error("expected error for empty content")
	}
}
