// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai defines the two model capabilities the engine consumes and
// their production backends. The engine depends only on these interfaces;
// tests supply mocks. Per prd008-article R1.1-R1.3.
package ai

import "context"

// Generator abstracts the generative-text capability: structured-object
// generation and free-text generation.
type Generator interface {
	// GenerateObject sends prompt to the model and decodes its JSON reply
	// into out. It fails when the call fails or the reply cannot be parsed.
	GenerateObject(ctx context.Context, prompt string, out any) error

	// GenerateText sends prompt to the model and returns its free-text reply.
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder abstracts the vector-embedding capability.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedMany returns one embedding vector per input text, index-aligned.
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)
}
