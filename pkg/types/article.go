// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// OutlineItem is one node of the outline tree that drives generation.
// Items nest to arbitrary depth; order is significant. Per prd008-article R2.1.
type OutlineItem struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Description explains what the section covers.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Guidelines gives the model extra writing direction for this section.
	Guidelines string `json:"guidelines,omitempty" yaml:"guidelines,omitempty"`

	// TokenBudget is the target token count for this section's own content,
	// excluding children. Zero means no budget.
	TokenBudget int `json:"token_budget,omitempty" yaml:"token_budget,omitempty"`

	// Items lists the child sections in order.
	Items []OutlineItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// BlockKind classifies a content block. Per prd008-article R3.2.
type BlockKind string

const (
	BlockText    BlockKind = "text"
	BlockImage   BlockKind = "image"
	BlockInsight BlockKind = "insight"
)

// ContentBlock is one unit of generated article content: a paragraph, an
// image placeholder with a caption, or a highlighted insight.
type ContentBlock struct {
	// Kind selects the variant: text, image, or insight.
	Kind BlockKind `json:"kind" yaml:"kind"`

	// Text is the paragraph body (text), image description (image), or
	// insight body (insight).
	Text string `json:"text" yaml:"text"`

	// Caption is the image caption. Only set for image blocks.
	Caption string `json:"caption,omitempty" yaml:"caption,omitempty"`

	// Title is the insight heading. Only set for insight blocks.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Plain returns the block's text representation used for similarity
// comparison and token estimation.
func (b ContentBlock) Plain() string {
	switch b.Kind {
	case BlockImage:
		if b.Caption != "" {
			return b.Caption
		}
		return b.Text
	case BlockInsight:
		if b.Title != "" {
			return b.Title + ": " + b.Text
		}
		return b.Text
	default:
		return b.Text
	}
}

// JoinBlocks concatenates the plain text of blocks with blank-line
// separators, the form the estimator and the embedder operate on.
func JoinBlocks(blocks []ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := b.Plain(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// TokenCountPending is the ActualTokenCount sentinel for a section whose
// budget step has not run yet.
const TokenCountPending = -1

// ArticleSection is one generated section. Children mirror the originating
// OutlineItem's items positionally. Per prd008-article R3.1, R3.4.
type ArticleSection struct {
	// Title is the model-generated section heading.
	Title string `json:"title" yaml:"title"`

	// Description is a one-line summary of the section.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Content lists the section's own content blocks in order.
	Content []ContentBlock `json:"content" yaml:"content"`

	// Children holds the subsections, one per outline child, same order.
	Children []ArticleSection `json:"children,omitempty" yaml:"children,omitempty"`

	// TokenBudget is copied from the originating OutlineItem.
	TokenBudget int `json:"token_budget,omitempty" yaml:"token_budget,omitempty"`

	// ActualTokenCount is the estimated token count of Content after
	// postprocessing. TokenCountPending until the budget step runs.
	ActualTokenCount int `json:"actual_token_count" yaml:"actual_token_count"`
}

// Article is the generated document: a titled tree of sections.
type Article struct {
	// Topic is the user-supplied topic the article was generated from.
	Topic string `json:"topic" yaml:"topic"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Description is a short abstract of the article.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Sections lists the top-level sections in order.
	Sections []ArticleSection `json:"sections" yaml:"sections"`
}

// Perspective is one research viewpoint used to interrogate a topic before
// the outline is refined. Per prd009-research R2.1.
type Perspective struct {
	// Name labels the perspective (e.g. "historian", "practitioner").
	Name string `json:"name" yaml:"name"`

	// Focus states what this perspective cares about.
	Focus string `json:"focus" yaml:"focus"`
}

// QA pairs a research question with its answer.
type QA struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// ResearchNotes aggregates the perspective question/answer rounds that
// inform outline refinement.
type ResearchNotes struct {
	// Perspectives lists the viewpoints that were interviewed.
	Perspectives []Perspective `json:"perspectives" yaml:"perspectives"`

	// Dialogues holds the question/answer pairs, grouped per perspective
	// and index-aligned with Perspectives.
	Dialogues [][]QA `json:"dialogues" yaml:"dialogues"`
}
