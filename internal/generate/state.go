// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import "github.com/pdiddy/article-engine/pkg/types"

// State is the generation context threaded through the recursive tree walk.
// It is extended by value: every helper returns a new State whose slices do
// not alias the receiver's, so a state handed to one recursion branch can
// never be mutated through another. One State is created per article run.
type State struct {
	// Topic is the article topic, immutable for the run.
	Topic string

	// Current is the outline item being processed, for prompt context.
	Current *types.OutlineItem

	// Sections holds already fully generated sections, in completion order.
	// Each recursive call sees only the sections its position entitles it
	// to: ancestors' placeholders and earlier siblings, never later ones.
	Sections []types.ArticleSection

	// Contents is the append-only log of stringified content produced so
	// far, in pre-order generation order. The deduplication corpus.
	Contents []string

	// Embeddings is index-aligned with Contents.
	Embeddings [][]float64
}

// NewState returns the initial state for a run.
func NewState(topic string) State {
	return State{Topic: topic}
}

// WithSection returns a copy of s with sec appended to Sections.
func (s State) WithSection(sec types.ArticleSection) State {
	out := s
	out.Sections = append(copySections(s.Sections), sec)
	return out
}

// WithContent returns a copy of s with (text, vec) appended to the
// content/embedding log.
func (s State) WithContent(text string, vec []float64) State {
	out := s
	out.Contents = append(append([]string(nil), s.Contents...), text)
	out.Embeddings = append(append([][]float64(nil), s.Embeddings...), vec)
	return out
}

// LastSections returns the up-to-k most recent fully generated sections,
// oldest first. This is the sliding context window handed to the model; it
// is read straight off the threaded state, never reconstructed from the tree.
func (s State) LastSections(k int) []types.ArticleSection {
	if k <= 0 || len(s.Sections) == 0 {
		return nil
	}
	if len(s.Sections) <= k {
		return copySections(s.Sections)
	}
	return copySections(s.Sections[len(s.Sections)-k:])
}

func copySections(in []types.ArticleSection) []types.ArticleSection {
	if in == nil {
		return nil
	}
	return append([]types.ArticleSection(nil), in...)
}
