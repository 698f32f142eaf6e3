// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/pdiddy/article-engine/pkg/types"
)

func fakeEmbedder(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := openaiEmbeddingsURL
	openaiEmbeddingsURL = ts.URL
	t.Cleanup(func() { openaiEmbeddingsURL = old })

	return NewOpenAIEmbedder(types.EmbeddingConfig{
		AIConfig: types.AIConfig{APIKey: "k"},
		Enabled:  true,
	}, ts.Client(), nil)
}

func TestEmbedMany(t *testing.T) {
	var gotReq embeddingsRequest
	e := fakeEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		// Reply out of order to verify index-based reassembly.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float64{0, 1}},
				{"index": 0, "embedding": []float64{1, 0}},
			},
		})
	})

	vecs, err := e.EmbedMany(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]float64{{1, 0}, {0, 1}}
	if !reflect.DeepEqual(vecs, want) {
		t.Errorf("vecs = %v, want %v", vecs, want)
	}
	if gotReq.Model != DefaultEmbeddingModel {
		t.Errorf("model = %q, want default", gotReq.Model)
	}
	if !reflect.DeepEqual(gotReq.Input, []string{"first", "second"}) {
		t.Errorf("input = %v", gotReq.Input)
	}
}

func TestEmbedSingle(t *testing.T) {
	e := fakeEmbedder(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{0.5, 0.5}}},
		})
	})

	vec, err := e.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(vec, []float64{0.5, 0.5}) {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbedManyEmptyInput(t *testing.T) {
	e := NewOpenAIEmbedder(types.EmbeddingConfig{}, nil, nil)
	vecs, err := e.EmbedMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecs != nil {
		t.Errorf("vecs = %v, want nil", vecs)
	}
}

func TestEmbedManyCountMismatch(t *testing.T) {
	e := fakeEmbedder(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	if _, err := e.EmbedMany(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error for vector count mismatch")
	}
}

func TestEmbedManyAPIError(t *testing.T) {
	e := fakeEmbedder(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	if _, err := e.EmbedMany(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error for non-200 status")
	}
}
