// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs the pre-generation steps: drafting an outline from
// a topic, interviewing the topic from several perspectives, and refining
// the outline with what the interviews surfaced. Every step is a stateless
// structured model call. Implements: prd009-research (R1-R3).
package research

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-engine/internal/ai"
	"github.com/pdiddy/article-engine/internal/outline"
	"github.com/pdiddy/article-engine/pkg/types"
)

const (
	defaultPerspectives = 3
	defaultQuestions    = 3

	// answerFanOut bounds concurrent answer calls. Answers are independent
	// of each other, so they fan out and join; everything else is linear.
	answerFanOut = 4
)

var draftOutlineTmpl = template.Must(template.New("draft-outline").Parse(`Draft a hierarchical outline for a long-form article on the topic below. Use two levels: top-level sections, each with zero or more subsections. Give every entry a title, a one-line description, writing guidelines, and a token budget proportional to its importance (between 100 and 600 tokens).

Topic: {{.Topic}}

Respond with a JSON object: {"items": [{"title": string, "description": string, "guidelines": string, "token_budget": int, "items": [...]}]}. Do not include any text outside the JSON object.`))

var perspectivesTmpl = template.Must(template.New("perspectives").Parse(`List {{.Count}} distinct perspectives from which the topic below should be researched before writing an article about it. Each perspective is a persona with a focus (e.g. a historian focused on origins, a practitioner focused on day-to-day use).

Topic: {{.Topic}}

Respond with a JSON object: {"perspectives": [{"name": string, "focus": string}]}. Do not include any text outside the JSON object.`))

var questionsTmpl = template.Must(template.New("questions").Parse(`You are {{.Name}}, researching the topic below. Your focus: {{.Focus}}. Ask the {{.Count}} most informative questions you would want answered before an article is written.

Topic: {{.Topic}}

Respond with a JSON object: {"questions": [string]}. Do not include any text outside the JSON object.`))

var answerTmpl = template.Must(template.New("answer").Parse(`Answer the following research question about the topic below, factually and in a short paragraph.

Topic: {{.Topic}}

Question: {{.Question}}`))

var refineOutlineTmpl = template.Must(template.New("refine-outline").Parse(`Refine the draft article outline below using the research notes. Merge, split, reorder, or retitle sections so the outline covers what the research surfaced; keep token budgets proportional. Keep the same two-level structure and the same JSON shape.

Topic: {{.Topic}}

Draft outline (YAML):
{{.OutlineYAML}}

Research notes:
{{.Notes}}

Respond with a JSON object: {"items": [{"title": string, "description": string, "guidelines": string, "token_budget": int, "items": [...]}]}. Do not include any text outside the JSON object.`))

// outlineReply is the structured shape of outline-producing calls.
type outlineReply struct {
	Items []types.OutlineItem `json:"items"`
}

// DraftOutline asks the model for an initial outline of topic.
func DraftOutline(ctx context.Context, gen ai.Generator, topic string) ([]types.OutlineItem, error) {
	prompt, err := render(draftOutlineTmpl, struct{ Topic string }{topic})
	if err != nil {
		return nil, err
	}

	var reply outlineReply
	if err := gen.GenerateObject(ctx, prompt, &reply); err != nil {
		return nil, fmt.Errorf("drafting outline: %w", err)
	}
	if problems := outline.Validate(reply.Items); len(problems) > 0 {
		return nil, fmt.Errorf("model produced invalid outline: %s", problems[0])
	}
	return reply.Items, nil
}

// Conduct runs the full research round for topic: perspectives, then per
// perspective a question set, then all answers with bounded concurrency.
// Progress lines go to w.
func Conduct(ctx context.Context, gen ai.Generator, cfg types.ResearchConfig, topic string, w io.Writer) (*types.ResearchNotes, error) {
	if w == nil {
		w = io.Discard
	}
	nPersp := cfg.Perspectives
	if nPersp <= 0 {
		nPersp = defaultPerspectives
	}
	nQuestions := cfg.QuestionsPerPerspective
	if nQuestions <= 0 {
		nQuestions = defaultQuestions
	}

	perspectives, err := generatePerspectives(ctx, gen, topic, nPersp)
	if err != nil {
		return nil, err
	}

	notes := &types.ResearchNotes{
		Perspectives: perspectives,
		Dialogues:    make([][]types.QA, len(perspectives)),
	}

	for i, p := range perspectives {
		fmt.Fprintf(w, "interviewing %s\n", p.Name)

		questions, err := generateQuestions(ctx, gen, topic, p, nQuestions)
		if err != nil {
			return nil, err
		}

		answers, err := answerAll(ctx, gen, topic, questions)
		if err != nil {
			return nil, err
		}

		dialogue := make([]types.QA, len(questions))
		for j := range questions {
			dialogue[j] = types.QA{Question: questions[j], Answer: answers[j]}
		}
		notes.Dialogues[i] = dialogue
	}
	return notes, nil
}

// RefineOutline asks the model to revise a drafted outline in light of the
// research notes.
func RefineOutline(ctx context.Context, gen ai.Generator, topic string, draft []types.OutlineItem, notes *types.ResearchNotes) ([]types.OutlineItem, error) {
	draftYAML, err := yaml.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("marshaling draft outline: %w", err)
	}

	prompt, err := render(refineOutlineTmpl, struct {
		Topic       string
		OutlineYAML string
		Notes       string
	}{topic, string(draftYAML), formatNotes(notes)})
	if err != nil {
		return nil, err
	}

	var reply outlineReply
	if err := gen.GenerateObject(ctx, prompt, &reply); err != nil {
		return nil, fmt.Errorf("refining outline: %w", err)
	}
	if problems := outline.Validate(reply.Items); len(problems) > 0 {
		return nil, fmt.Errorf("model produced invalid outline: %s", problems[0])
	}
	return reply.Items, nil
}

func generatePerspectives(ctx context.Context, gen ai.Generator, topic string, count int) ([]types.Perspective, error) {
	prompt, err := render(perspectivesTmpl, struct {
		Topic string
		Count int
	}{topic, count})
	if err != nil {
		return nil, err
	}

	var reply struct {
		Perspectives []types.Perspective `json:"perspectives"`
	}
	if err := gen.GenerateObject(ctx, prompt, &reply); err != nil {
		return nil, fmt.Errorf("generating perspectives: %w", err)
	}
	if len(reply.Perspectives) == 0 {
		return nil, fmt.Errorf("model returned no perspectives")
	}
	if len(reply.Perspectives) > count {
		reply.Perspectives = reply.Perspectives[:count]
	}
	return reply.Perspectives, nil
}

func generateQuestions(ctx context.Context, gen ai.Generator, topic string, p types.Perspective, count int) ([]string, error) {
	prompt, err := render(questionsTmpl, struct {
		Topic, Name, Focus string
		Count              int
	}{topic, p.Name, p.Focus, count})
	if err != nil {
		return nil, err
	}

	var reply struct {
		Questions []string `json:"questions"`
	}
	if err := gen.GenerateObject(ctx, prompt, &reply); err != nil {
		return nil, fmt.Errorf("generating questions for %s: %w", p.Name, err)
	}
	if len(reply.Questions) > count {
		reply.Questions = reply.Questions[:count]
	}
	return reply.Questions, nil
}

// answerAll answers every question concurrently, at most answerFanOut in
// flight, and joins before returning. Answers are index-aligned with
// questions. The first failure wins; the rest are discarded.
func answerAll(ctx context.Context, gen ai.Generator, topic string, questions []string) ([]string, error) {
	answers := make([]string, len(questions))
	errs := make([]error, len(questions))
	sem := make(chan struct{}, answerFanOut)

	var wg sync.WaitGroup
	for i, q := range questions {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			prompt, err := render(answerTmpl, struct{ Topic, Question string }{topic, q})
			if err != nil {
				errs[i] = err
				return
			}
			answers[i], errs[i] = gen.GenerateText(ctx, prompt)
		}(i, q)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("answering %q: %w", questions[i], err)
		}
	}
	return answers, nil
}

// formatNotes flattens research notes into prompt text.
func formatNotes(notes *types.ResearchNotes) string {
	if notes == nil {
		return ""
	}
	var b strings.Builder
	for i, p := range notes.Perspectives {
		fmt.Fprintf(&b, "## %s (%s)\n", p.Name, p.Focus)
		if i < len(notes.Dialogues) {
			for _, qa := range notes.Dialogues[i] {
				fmt.Fprintf(&b, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
