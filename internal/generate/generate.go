// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns an outline tree into a content tree: the recursive
// section generator, its postprocessing pipeline (semantic deduplication and
// token-budget enforcement), and the generation state threaded through the
// walk. Implements: prd008-article (R3, R4, R5, R6).
package generate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/article-engine/internal/ai"
	"github.com/pdiddy/article-engine/internal/outline"
	"github.com/pdiddy/article-engine/pkg/types"
)

// Defaults for the recognized option surface.
const (
	DefaultContextWindow   = 3
	DefaultDedupeThreshold = 0.85
	DefaultMaxAttempts     = 3
	DefaultTokenTolerance  = 0.10
)

// Options is the immutable per-run configuration of the generator.
type Options struct {
	// Model is the generative capability. Required.
	Model ai.Generator

	// Embedder is the embedding capability. Nil disables semantic
	// deduplication; everything else still works.
	Embedder ai.Embedder

	// Topic is the article topic.
	Topic string

	// ContextWindow is how many trailing sections to expose as recent
	// context when drafting (default 3).
	ContextWindow int

	// DedupeThreshold is the cosine similarity at or above which content is
	// a near-duplicate (default 0.85).
	DedupeThreshold float64

	// MaxAttempts bounds deduplication regeneration attempts (default 3).
	MaxAttempts int

	// TokenTolerance is the accepted fractional deviation from a section's
	// token budget (default 0.10).
	TokenTolerance float64

	// Log receives progress and degradation messages. Nil discards them.
	Log io.Writer
}

// normalized fills zero-valued options with defaults.
func (o Options) normalized() Options {
	if o.ContextWindow <= 0 {
		o.ContextWindow = DefaultContextWindow
	}
	if o.DedupeThreshold <= 0 {
		o.DedupeThreshold = DefaultDedupeThreshold
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.TokenTolerance <= 0 {
		o.TokenTolerance = DefaultTokenTolerance
	}
	if o.Log == nil {
		o.Log = io.Discard
	}
	return o
}

// sectionDraft is the structured object the model returns for one section.
type sectionDraft struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Content     []types.ContentBlock `json:"content"`
}

// articleMeta is the structured object the model returns for the article
// title and description.
type articleMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GenerateArticle walks the outline tree depth-first, left to right, and
// produces the article. The returned section tree mirrors the outline tree
// exactly: same child count and order at every node.
//
// A generation failure at any node aborts the run; embedding and budget
// failures degrade with a log line instead. Per prd008-article R3.4, R6.
func GenerateArticle(ctx context.Context, o Options, items []types.OutlineItem) (*types.Article, error) {
	if o.Model == nil {
		return nil, fmt.Errorf("generate: no model configured")
	}
	if problems := outline.Validate(items); len(problems) > 0 {
		return nil, fmt.Errorf("generate: invalid outline: %s", strings.Join(problems, "; "))
	}
	o = o.normalized()

	st := NewState(o.Topic)
	sections := make([]types.ArticleSection, 0, len(items))
	for i := range items {
		sec, next, err := generateSection(ctx, o, st, items[i])
		if err != nil {
			return nil, err
		}
		st = next
		sections = append(sections, sec)
	}

	meta, err := generateMeta(ctx, o, sections)
	if err != nil {
		return nil, err
	}

	return &types.Article{
		Topic:       o.Topic,
		Title:       meta.Title,
		Description: meta.Description,
		Sections:    sections,
	}, nil
}

// generateSection produces one section and its subtree. It drafts the
// section from the last-k context window, postprocesses the draft, then
// recurses into the outline children in order, threading the state so each
// child sees the placeholder for this section plus all earlier siblings —
// and nothing generated later.
//
// The returned state is scoped for the caller: the caller's section window
// plus this fully assembled section, carrying the shared content/embedding
// log forward.
func generateSection(ctx context.Context, o Options, st State, item types.OutlineItem) (types.ArticleSection, State, error) {
	st.Current = &item

	prompt, err := renderSectionPrompt(st, item, o.ContextWindow)
	if err != nil {
		return types.ArticleSection{}, st, err
	}

	var draft sectionDraft
	if err := o.Model.GenerateObject(ctx, prompt, &draft); err != nil {
		// Not retried here: a failed draft invalidates the whole article.
		return types.ArticleSection{}, st, fmt.Errorf("generating section %q: %w", item.Title, err)
	}
	if draft.Title == "" {
		draft.Title = item.Title
	}

	sec := types.ArticleSection{
		Title:            draft.Title,
		Description:      draft.Description,
		Content:          draft.Content,
		TokenBudget:      item.TokenBudget,
		ActualTokenCount: types.TokenCountPending,
	}

	postState, sec := postprocess(ctx, o, st, sec)
	fmt.Fprintf(o.Log, "generated %q (%d blocks, ~%d tokens)\n", sec.Title, len(sec.Content), sec.ActualTokenCount)

	// Children see this section (childless placeholder) and, as the fold
	// advances, each completed earlier sibling.
	cur := postState.WithSection(sec)
	children := make([]types.ArticleSection, 0, len(item.Items))
	for i := range item.Items {
		child, next, err := generateSection(ctx, o, cur, item.Items[i])
		if err != nil {
			return types.ArticleSection{}, st, err
		}
		cur = next
		children = append(children, child)
	}
	if len(children) > 0 {
		sec.Children = children
	}

	// Scope the returned state for the caller: its own section window plus
	// the assembled section. The content/embedding log is shared run-wide,
	// so it carries everything the subtree produced.
	ret := State{
		Topic:      st.Topic,
		Current:    st.Current,
		Sections:   st.Sections,
		Contents:   cur.Contents,
		Embeddings: cur.Embeddings,
	}
	return sec, ret.WithSection(sec), nil
}

// generateMeta derives the article title and description from the finished
// top-level sections. Failures propagate: this is a generation call.
func generateMeta(ctx context.Context, o Options, sections []types.ArticleSection) (articleMeta, error) {
	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
	}

	prompt, err := renderMetaPrompt(o.Topic, titles)
	if err != nil {
		return articleMeta{}, err
	}

	var meta articleMeta
	if err := o.Model.GenerateObject(ctx, prompt, &meta); err != nil {
		return articleMeta{}, fmt.Errorf("generating article metadata: %w", err)
	}
	if meta.Title == "" {
		meta.Title = o.Topic
	}
	return meta, nil
}
