// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"fmt"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-engine/pkg/types"
)

// sectionPromptTmpl drafts one section as a structured object. The recent
// sections keep the model's voice and coverage consistent without shipping
// the whole article history. Per prd008-article R4.2.
var sectionPromptTmpl = template.Must(template.New("section").Parse(`You are writing one section of a long-form article on the topic below. Follow the outline entry exactly: cover its description, honor its guidelines, and do not write content that belongs to its subsections.

Topic: {{.Topic}}

Outline entry (YAML):
{{.OutlineYAML}}
{{- if .Recent}}

Most recent sections already written (for continuity — do not repeat them):
{{range .Recent}}## {{.Title}}
{{.Plain}}

{{end}}{{- end}}
Respond with a JSON object: {"title": string, "description": string, "content": [block...]}. Each block is one of:
- {"kind": "text", "text": string} — a paragraph
- {"kind": "image", "text": string, "caption": string} — an image suggestion
- {"kind": "insight", "title": string, "text": string} — a highlighted takeaway

Most blocks should be text. Do not include any text outside the JSON object.`))

// regeneratePromptTmpl rewrites a section's content after it was flagged as
// a near-duplicate of existing passages. Per prd008-article R5.3.
var regeneratePromptTmpl = template.Must(template.New("regenerate").Parse(`You are rewriting the content of one section of a long-form article because your previous draft was too similar to a passage that already exists elsewhere in the article.

Topic: {{.Topic}}

Outline entry (YAML):
{{.OutlineYAML}}

Existing passage your draft overlapped with:
{{.Similar}}

Write fresh content for this section that covers the outline entry without repeating the passage above. Respond with a JSON object: {"content": [block...]} using the block forms {"kind": "text", "text": ...}, {"kind": "image", "text": ..., "caption": ...}, {"kind": "insight", "title": ..., "text": ...}. Do not include any text outside the JSON object.`))

// expandPromptTmpl asks for elaboration toward a token target.
var expandPromptTmpl = template.Must(template.New("expand").Parse(`The following article section is too short: it is roughly {{.Current}} tokens and the target is {{.Target}} tokens. Elaborate it toward the target length. Preserve the tone, keep every existing point, and add depth rather than filler. Reply with the expanded section text only, as plain paragraphs separated by blank lines.

{{.Text}}`))

// condensePromptTmpl asks for condensation toward a token target.
var condensePromptTmpl = template.Must(template.New("condense").Parse(`The following article section is too long: it is roughly {{.Current}} tokens and the target is {{.Target}} tokens. Condense it toward the target length. Preserve the key information and the tone; cut redundancy first. Reply with the condensed section text only, as plain paragraphs separated by blank lines.

{{.Text}}`))

// metaPromptTmpl derives the article title and abstract from the finished
// section headings.
var metaPromptTmpl = template.Must(template.New("meta").Parse(`An article on the topic below has been written with the following top-level sections. Write a compelling article title and a two-sentence description.

Topic: {{.Topic}}

Sections:
{{range .Titles}}- {{.}}
{{end}}
Respond with a JSON object: {"title": string, "description": string}. Do not include any text outside the JSON object.`))

// recentSection is the per-section view handed to sectionPromptTmpl.
type recentSection struct {
	Title string
	Plain string
}

func renderSectionPrompt(st State, item types.OutlineItem, k int) (string, error) {
	itemYAML, err := marshalOutlineItem(item)
	if err != nil {
		return "", err
	}

	var recent []recentSection
	for _, sec := range st.LastSections(k) {
		recent = append(recent, recentSection{Title: sec.Title, Plain: types.JoinBlocks(sec.Content)})
	}

	return render(sectionPromptTmpl, struct {
		Topic       string
		OutlineYAML string
		Recent      []recentSection
	}{st.Topic, itemYAML, recent})
}

func renderRegeneratePrompt(st State, item types.OutlineItem, similar string) (string, error) {
	itemYAML, err := marshalOutlineItem(item)
	if err != nil {
		return "", err
	}
	return render(regeneratePromptTmpl, struct {
		Topic       string
		OutlineYAML string
		Similar     string
	}{st.Topic, itemYAML, similar})
}

func renderExpandPrompt(text string, current, target int) (string, error) {
	return render(expandPromptTmpl, struct {
		Text            string
		Current, Target int
	}{text, current, target})
}

func renderCondensePrompt(text string, current, target int) (string, error) {
	return render(condensePromptTmpl, struct {
		Text            string
		Current, Target int
	}{text, current, target})
}

func renderMetaPrompt(topic string, titles []string) (string, error) {
	return render(metaPromptTmpl, struct {
		Topic  string
		Titles []string
	}{topic, titles})
}

// marshalOutlineItem serializes an outline item for prompting, without its
// children: a section prompt must not leak the subtree it should not write.
func marshalOutlineItem(item types.OutlineItem) (string, error) {
	item.Items = nil
	data, err := yaml.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("marshaling outline item: %w", err)
	}
	return string(data), nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
