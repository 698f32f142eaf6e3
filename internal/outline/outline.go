// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline loads, validates, and saves the outline trees that drive
// article generation. Implements: prd008-article (R2).
package outline

import (
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-engine/pkg/types"
)

// File is the on-disk outline format: a topic plus the section tree.
type File struct {
	// Topic is the article topic the outline was drafted for.
	Topic string `json:"topic" yaml:"topic"`

	// Items lists the top-level outline sections in order.
	Items []types.OutlineItem `json:"items" yaml:"items"`
}

// Load reads and validates an outline file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing outline: %w", err)
	}
	if problems := Validate(f.Items); len(problems) > 0 {
		return nil, fmt.Errorf("invalid outline: %s", problems[0])
	}
	return &f, nil
}

// Save writes an outline file as YAML.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling outline: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Write emits the outline as YAML to w.
func Write(w io.Writer, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling outline: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Validate walks the outline tree and returns every problem found: empty
// titles and negative token budgets. Nesting depth and fan-out are
// unrestricted. An empty return means the tree is well-formed. Generation
// rejects a malformed outline before making any model calls.
func Validate(items []types.OutlineItem) []string {
	var problems []string
	walk(items, "", &problems)
	return problems
}

func walk(items []types.OutlineItem, parent string, problems *[]string) {
	for i, item := range items {
		at := position(parent, i)
		if item.Title == "" {
			*problems = append(*problems, fmt.Sprintf("item %s: empty title", at))
		}
		if item.TokenBudget < 0 {
			*problems = append(*problems, fmt.Sprintf("item %s (%q): negative token budget %d", at, item.Title, item.TokenBudget))
		}
		walk(item.Items, at, problems)
	}
}

// position renders a 1-based dotted path like "2.1.3" for error messages.
func position(parent string, i int) string {
	if parent == "" {
		return fmt.Sprintf("%d", i+1)
	}
	return fmt.Sprintf("%s.%d", parent, i+1)
}
