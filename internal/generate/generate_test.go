// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/article-engine/pkg/types"
)

// scriptedModel numbers every structured draft it produces, so tests can
// read generation order straight off the section titles. Text calls are
// scripted separately.
type scriptedModel struct {
	n           int
	objPrompts  []string
	textPrompts []string
	textReply   string
	textErr     error
	objErr      error
	failAfter   int // fail GenerateObject calls after this many, 0 = never
}

func (m *scriptedModel) GenerateObject(_ context.Context, prompt string, out any) error {
	m.objPrompts = append(m.objPrompts, prompt)
	if m.objErr != nil {
		return m.objErr
	}
	m.n++
	if m.failAfter > 0 && m.n > m.failAfter {
		return errors.New("scripted failure")
	}
	reply := fmt.Sprintf(
		`{"title":"Section %d","description":"about part %d","content":[{"kind":"text","text":"Paragraph body number %d with its own distinct wording."}]}`,
		m.n, m.n, m.n,
	)
	return json.Unmarshal([]byte(reply), out)
}

func (m *scriptedModel) GenerateText(_ context.Context, prompt string) (string, error) {
	m.textPrompts = append(m.textPrompts, prompt)
	if m.textErr != nil {
		return "", m.textErr
	}
	return m.textReply, nil
}

// funcEmbedder adapts a function to the Embedder interface.
type funcEmbedder struct {
	fn    func(text string) ([]float64, error)
	calls int
}

func (e *funcEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.calls++
	return e.fn(text)
}

func (e *funcEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	vecs := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func testOptions(m *scriptedModel) Options {
	return Options{Model: m, Topic: "test topic"}
}

// shape compares an article section tree against an outline tree: same
// child count and order at every node.
func assertShape(t *testing.T, path string, items []types.OutlineItem, sections []types.ArticleSection) {
	t.Helper()
	if len(sections) != len(items) {
		t.Fatalf("%s: %d sections for %d outline items", path, len(sections), len(items))
	}
	for i := range items {
		assertShape(t, fmt.Sprintf("%s.%d", path, i), items[i].Items, sections[i].Children)
	}
}

func TestGenerateArticleStructuralIsomorphism(t *testing.T) {
	tests := []struct {
		name  string
		items []types.OutlineItem
	}{
		{
			name:  "single leaf",
			items: []types.OutlineItem{{Title: "A"}},
		},
		{
			name: "flat siblings",
			items: []types.OutlineItem{
				{Title: "A"}, {Title: "B"}, {Title: "C"},
			},
		},
		{
			name: "nested three deep",
			items: []types.OutlineItem{
				{Title: "A", Items: []types.OutlineItem{
					{Title: "A1"},
					{Title: "A2", Items: []types.OutlineItem{{Title: "A2a"}}},
				}},
				{Title: "B"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &scriptedModel{}
			article, err := GenerateArticle(context.Background(), testOptions(m), tt.items)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertShape(t, "root", tt.items, article.Sections)
		})
	}
}

func TestGenerateArticleDeepNesting(t *testing.T) {
	// Outline depth is unrestricted: a single chain nine levels deep
	// generates, one section per level.
	item := types.OutlineItem{Title: "level 9"}
	for i := 8; i >= 1; i-- {
		item = types.OutlineItem{
			Title: fmt.Sprintf("level %d", i),
			Items: []types.OutlineItem{item},
		}
	}
	items := []types.OutlineItem{item}

	m := &scriptedModel{}
	article, err := GenerateArticle(context.Background(), testOptions(m), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertShape(t, "root", items, article.Sections)

	// One draft per level plus the metadata call.
	if got := len(m.objPrompts); got != 10 {
		t.Errorf("model calls = %d, want 10", got)
	}
}

func TestGenerateArticlePreOrderTraversal(t *testing.T) {
	items := []types.OutlineItem{
		{Title: "A", Items: []types.OutlineItem{
			{Title: "A1"},
			{Title: "A2"},
		}},
		{Title: "B"},
	}

	m := &scriptedModel{}
	article, err := GenerateArticle(context.Background(), testOptions(m), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Drafts are numbered in call order; pre-order is A, A1, A2, B.
	if got := article.Sections[0].Title; got != "Section 1" {
		t.Errorf("A = %q", got)
	}
	if got := article.Sections[0].Children[0].Title; got != "Section 2" {
		t.Errorf("A1 = %q", got)
	}
	if got := article.Sections[0].Children[1].Title; got != "Section 3" {
		t.Errorf("A2 = %q", got)
	}
	if got := article.Sections[1].Title; got != "Section 4" {
		t.Errorf("B = %q", got)
	}
}

func TestSectionPromptSeesEarlierSiblingsOnly(t *testing.T) {
	items := []types.OutlineItem{
		{Title: "A", Items: []types.OutlineItem{
			{Title: "A1"},
			{Title: "A2"},
		}},
	}

	m := &scriptedModel{}
	if _, err := GenerateArticle(context.Background(), testOptions(m), items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Call order: A (prompt 0), A1 (prompt 1), A2 (prompt 2), meta.
	promptA1 := m.objPrompts[1]
	promptA2 := m.objPrompts[2]

	// A1 sees its parent's placeholder, not its later sibling.
	if !strings.Contains(promptA1, "Section 1") {
		t.Error("A1 prompt missing parent context")
	}
	if strings.Contains(promptA1, "Paragraph body number 3") {
		t.Error("A1 prompt leaked later sibling content")
	}

	// A2 sees both the parent and the completed earlier sibling.
	if !strings.Contains(promptA2, "Paragraph body number 1") {
		t.Error("A2 prompt missing parent content")
	}
	if !strings.Contains(promptA2, "Paragraph body number 2") {
		t.Error("A2 prompt missing earlier sibling content")
	}
}

func TestContextWindowBoundsRecentSections(t *testing.T) {
	items := []types.OutlineItem{
		{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"},
	}

	m := &scriptedModel{}
	o := testOptions(m)
	o.ContextWindow = 2
	if _, err := GenerateArticle(context.Background(), o, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// D's prompt (index 3) may carry only B and C.
	promptD := m.objPrompts[3]
	if strings.Contains(promptD, "Paragraph body number 1") {
		t.Error("D prompt includes section outside the context window")
	}
	if !strings.Contains(promptD, "Paragraph body number 2") || !strings.Contains(promptD, "Paragraph body number 3") {
		t.Error("D prompt missing sections inside the context window")
	}
}

func TestSectionPromptExcludesSubtreeOutline(t *testing.T) {
	items := []types.OutlineItem{
		{Title: "A", Description: "the parent", Items: []types.OutlineItem{
			{Title: "HiddenChildHeading"},
		}},
	}

	m := &scriptedModel{}
	if _, err := GenerateArticle(context.Background(), testOptions(m), items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(m.objPrompts[0], "HiddenChildHeading") {
		t.Error("parent prompt leaked child outline entries")
	}
}

func TestGenerationFailurePropagates(t *testing.T) {
	items := []types.OutlineItem{
		{Title: "A"}, {Title: "B"},
	}

	m := &scriptedModel{failAfter: 1}
	_, err := GenerateArticle(context.Background(), testOptions(m), items)
	if err == nil {
		t.Fatal("expected generation failure to abort the run")
	}
	if !strings.Contains(err.Error(), `"B"`) {
		t.Errorf("error %q does not name the failed section", err)
	}
}

func TestGenerateArticleRejectsMalformedOutline(t *testing.T) {
	m := &scriptedModel{}
	_, err := GenerateArticle(context.Background(), testOptions(m), []types.OutlineItem{{Title: ""}})
	if err == nil {
		t.Fatal("expected malformed outline to be rejected")
	}
	if len(m.objPrompts) != 0 {
		t.Error("model was called despite invalid outline")
	}
}

func TestGenerateArticleRequiresModel(t *testing.T) {
	_, err := GenerateArticle(context.Background(), Options{}, []types.OutlineItem{{Title: "A"}})
	if err == nil {
		t.Fatal("expected error without a model")
	}
}

func TestTokenBudgetCopiedAndCountSet(t *testing.T) {
	items := []types.OutlineItem{{Title: "A", TokenBudget: 500}}

	m := &scriptedModel{}
	article, err := GenerateArticle(context.Background(), testOptions(m), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sec := article.Sections[0]
	if sec.TokenBudget != 500 {
		t.Errorf("TokenBudget = %d, want 500", sec.TokenBudget)
	}
	if sec.ActualTokenCount == types.TokenCountPending {
		t.Error("ActualTokenCount left at sentinel")
	}
}

func TestStateCopyOnExtend(t *testing.T) {
	base := NewState("t")
	a := base.WithSection(types.ArticleSection{Title: "a"})
	b := base.WithSection(types.ArticleSection{Title: "b"})

	if len(base.Sections) != 0 {
		t.Error("base state mutated")
	}
	if a.Sections[0].Title != "a" || b.Sections[0].Title != "b" {
		t.Error("branch states share storage")
	}

	c := a.WithContent("text", []float64{1})
	if len(a.Contents) != 0 || len(c.Contents) != 1 {
		t.Error("WithContent mutated receiver")
	}
}

func TestLastSections(t *testing.T) {
	st := NewState("t")
	for _, name := range []string{"one", "two", "three"} {
		st = st.WithSection(types.ArticleSection{Title: name})
	}

	got := st.LastSections(2)
	if len(got) != 2 || got[0].Title != "two" || got[1].Title != "three" {
		t.Errorf("LastSections(2) = %v", got)
	}
	if got := st.LastSections(10); len(got) != 3 {
		t.Errorf("LastSections(10) returned %d", len(got))
	}
	if got := st.LastSections(0); got != nil {
		t.Errorf("LastSections(0) = %v, want nil", got)
	}
}
