// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes a generated article to disk as Markdown or LaTeX.
// Implements: prd008-article (R8).
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/article-engine/pkg/types"
)

// latexLevels maps heading depth to LaTeX sectioning commands. Depth past
// the table clamps to the last entry.
var latexLevels = []string{"section", "subsection", "subsubsection", "paragraph"}

// Markdown renders the article as a Markdown document. Section headings
// start at level 2; depth maps to heading level.
func Markdown(a *types.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.Title)
	if a.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", a.Description)
	}
	for _, sec := range a.Sections {
		markdownSection(&b, sec, 2)
	}
	return b.String()
}

func markdownSection(b *strings.Builder, sec types.ArticleSection, level int) {
	if level > 6 {
		level = 6
	}
	fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", level), sec.Title)
	for _, block := range sec.Content {
		switch block.Kind {
		case types.BlockImage:
			fmt.Fprintf(b, "![%s](images/%s.png)\n\n", block.Caption, Slug(block.Caption))
		case types.BlockInsight:
			if block.Title != "" {
				fmt.Fprintf(b, "> **%s**: %s\n\n", block.Title, block.Text)
			} else {
				fmt.Fprintf(b, "> %s\n\n", block.Text)
			}
		default:
			fmt.Fprintf(b, "%s\n\n", block.Text)
		}
	}
	for _, child := range sec.Children {
		markdownSection(b, child, level+1)
	}
}

// LaTeX renders the article body as LaTeX source (no preamble; the output
// is meant to be \input into a document).
func LaTeX(a *types.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\\title{%s}\n\n", escapeLaTeX(a.Title))
	if a.Description != "" {
		fmt.Fprintf(&b, "\\begin{abstract}\n%s\n\\end{abstract}\n\n", escapeLaTeX(a.Description))
	}
	for _, sec := range a.Sections {
		latexSection(&b, sec, 0)
	}
	return b.String()
}

func latexSection(b *strings.Builder, sec types.ArticleSection, depth int) {
	level := latexLevels[min(depth, len(latexLevels)-1)]
	fmt.Fprintf(b, "\\%s{%s}\n\n", level, escapeLaTeX(sec.Title))
	for _, block := range sec.Content {
		switch block.Kind {
		case types.BlockImage:
			fmt.Fprintf(b, "%% figure: %s\n\n", escapeLaTeX(block.Caption))
		case types.BlockInsight:
			fmt.Fprintf(b, "\\begin{quote}\n%s\n\\end{quote}\n\n", escapeLaTeX(block.Plain()))
		default:
			fmt.Fprintf(b, "%s\n\n", escapeLaTeX(block.Text))
		}
	}
	for _, child := range sec.Children {
		latexSection(b, child, depth+1)
	}
}

// escapeLaTeX escapes the characters LaTeX treats specially in prose.
var latexEscaper = strings.NewReplacer(
	"\\", "\\textbackslash{}",
	"&", "\\&",
	"%", "\\%",
	"$", "\\$",
	"#", "\\#",
	"_", "\\_",
	"{", "\\{",
	"}", "\\}",
	"~", "\\textasciitilde{}",
	"^", "\\textasciicircum{}",
)

func escapeLaTeX(s string) string {
	return latexEscaper.Replace(s)
}

// Write renders the article in the configured format and writes it to
// outputDir with a filename derived from the title.
func Write(a *types.Article, outputDir string, format types.OutputFormat) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	var (
		body string
		ext  string
	)
	switch format {
	case types.OutputLaTeX:
		body = LaTeX(a)
		ext = ".tex"
	default:
		body = Markdown(a)
		ext = ".md"
	}

	path := filepath.Join(outputDir, Slug(a.Title)+ext)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("writing article: %w", err)
	}
	return path, nil
}

// Slug turns a title into a lowercase hyphenated filename stem.
func Slug(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "article"
	}
	return out
}
