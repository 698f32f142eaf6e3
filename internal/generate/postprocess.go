// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/article-engine/internal/similarity"
	"github.com/pdiddy/article-engine/internal/token"
	"github.com/pdiddy/article-engine/pkg/types"
)

// stage is one postprocessing transformer. Stages communicate only through
// the returned state and section; they never abort generation.
type stage func(ctx context.Context, o Options, st State, sec types.ArticleSection) (State, types.ArticleSection)

// pipeline is the fixed stage order. Uniqueness runs before the budget step
// so deduplication judges the content at its originally generated length,
// before expansion or condensation reshapes it.
var pipeline = []stage{ensureUnique, ensureBudget}

func postprocess(ctx context.Context, o Options, st State, sec types.ArticleSection) (State, types.ArticleSection) {
	for _, s := range pipeline {
		st, sec = s(ctx, o, st, sec)
	}
	return st, sec
}

// ensureUnique checks the section's content against everything generated so
// far and regenerates near-duplicates, up to o.MaxAttempts. The accepted
// content (similar or not) is appended to the state's content/embedding log
// so later sections are checked against it. Uniqueness is a quality
// heuristic: any embedding or regeneration failure degrades to accepting
// the content as-is with a log line. Per prd008-article R5.
func ensureUnique(ctx context.Context, o Options, st State, sec types.ArticleSection) (State, types.ArticleSection) {
	if o.Embedder == nil {
		fmt.Fprintln(o.Log, "dedupe: no embedder configured, skipping")
		return st, sec
	}

	joined := types.JoinBlocks(sec.Content)
	if joined == "" {
		return st, sec
	}

	// First content of the run has nothing to collide with.
	if len(st.Contents) == 0 {
		vec, err := o.Embedder.Embed(ctx, joined)
		if err != nil {
			fmt.Fprintf(o.Log, "dedupe: embedding failed: %v\n", err)
			return st, sec
		}
		return st.WithContent(joined, vec), sec
	}

	item := st.Current
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		joined = types.JoinBlocks(sec.Content)

		vec, err := o.Embedder.Embed(ctx, joined)
		if err != nil {
			fmt.Fprintf(o.Log, "dedupe: embedding failed, accepting content unchecked: %v\n", err)
			return st, sec
		}

		sim, idx := similarity.Max(vec, st.Embeddings)
		if sim < o.DedupeThreshold || attempt == o.MaxAttempts {
			if sim >= o.DedupeThreshold {
				// Terminal branch: out of attempts, accept as-is. The final
				// regeneration's output is never rechecked.
				fmt.Fprintf(o.Log, "dedupe: still %.2f similar after %d attempts, accepting as-is\n", sim, o.MaxAttempts)
			}
			return st.WithContent(joined, vec), sec
		}

		fmt.Fprintf(o.Log, "dedupe: similarity %.2f >= %.2f, regenerating (attempt %d/%d)\n", sim, o.DedupeThreshold, attempt, o.MaxAttempts)

		regenerated, err := regenerateContent(ctx, o, st, item, st.Contents[idx])
		if err != nil {
			fmt.Fprintf(o.Log, "dedupe: regeneration failed, accepting content as-is: %v\n", err)
			return st.WithContent(joined, vec), sec
		}
		sec.Content = regenerated
	}

	// Unreachable: the loop always returns by attempt o.MaxAttempts.
	return st, sec
}

// regenerateContent asks the model for fresh content for the current
// outline item, telling it which existing passage it collided with.
func regenerateContent(ctx context.Context, o Options, st State, item *types.OutlineItem, similar string) ([]types.ContentBlock, error) {
	var cur types.OutlineItem
	if item != nil {
		cur = *item
	}

	prompt, err := renderRegeneratePrompt(st, cur, similar)
	if err != nil {
		return nil, err
	}

	var draft struct {
		Content []types.ContentBlock `json:"content"`
	}
	if err := o.Model.GenerateObject(ctx, prompt, &draft); err != nil {
		return nil, err
	}
	if len(draft.Content) == 0 {
		return nil, fmt.Errorf("model returned no content blocks")
	}
	return draft.Content, nil
}

// ensureBudget brings the section's content toward its token budget. Within
// the tolerance band nothing happens; below it the model expands, above it
// the model condenses. Failures keep the original content. The section's
// ActualTokenCount is always set on the way out, budget or not. Per
// prd008-article R6.
func ensureBudget(ctx context.Context, o Options, st State, sec types.ArticleSection) (State, types.ArticleSection) {
	joined := types.JoinBlocks(sec.Content)
	current := token.Estimate(joined)

	if sec.TokenBudget <= 0 {
		sec.ActualTokenCount = current
		return st, sec
	}

	tolerance := o.TokenTolerance * float64(sec.TokenBudget)
	lower := float64(sec.TokenBudget) - tolerance
	upper := float64(sec.TokenBudget) + tolerance

	if float64(current) >= lower && float64(current) <= upper {
		sec.ActualTokenCount = current
		return st, sec
	}

	var (
		prompt string
		err    error
	)
	if float64(current) < lower {
		fmt.Fprintf(o.Log, "budget: %d tokens under target %d, expanding\n", current, sec.TokenBudget)
		prompt, err = renderExpandPrompt(joined, current, sec.TokenBudget)
	} else {
		fmt.Fprintf(o.Log, "budget: %d tokens over target %d, condensing\n", current, sec.TokenBudget)
		prompt, err = renderCondensePrompt(joined, current, sec.TokenBudget)
	}
	if err != nil {
		fmt.Fprintf(o.Log, "budget: adjustment failed, keeping original content: %v\n", err)
		sec.ActualTokenCount = current
		return st, sec
	}

	blob, err := o.Model.GenerateText(ctx, prompt)
	if err != nil {
		fmt.Fprintf(o.Log, "budget: adjustment failed, keeping original content: %v\n", err)
		sec.ActualTokenCount = current
		return st, sec
	}

	paras := token.SplitParagraphs(blob)
	if len(paras) == 0 {
		fmt.Fprintln(o.Log, "budget: adjustment returned empty text, keeping original content")
		sec.ActualTokenCount = current
		return st, sec
	}

	blocks := make([]types.ContentBlock, len(paras))
	for i, p := range paras {
		blocks[i] = types.ContentBlock{Kind: types.BlockText, Text: p}
	}
	sec.Content = blocks
	sec.ActualTokenCount = token.Estimate(strings.Join(paras, "\n\n"))
	return st, sec
}
