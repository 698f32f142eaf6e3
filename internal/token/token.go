// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package token provides a cheap, deterministic token-count heuristic.
// The estimate is tokenizer-free on purpose: it only has to be stable and
// roughly proportional, not billing-accurate. Per prd008-article R4.4.
package token

import (
	"math"
	"strings"
)

// wordsPerToken is the words-to-tokens multiplier. English prose averages
// about 1.3 tokens per word under common BPE tokenizers.
const wordsPerToken = 1.3

// Estimate returns the approximate token count of text:
// ceil(wordCount * 1.3). Empty or whitespace-only text estimates to 0.
func Estimate(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * wordsPerToken))
}

// SplitParagraphs splits a text blob into paragraphs on blank-line
// boundaries, dropping empty paragraphs. Used to re-block model output
// after an expand/condense call.
func SplitParagraphs(blob string) []string {
	var paras []string
	for _, p := range strings.Split(blob, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}
