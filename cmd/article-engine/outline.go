// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-engine/internal/ai"
	"github.com/pdiddy/article-engine/internal/outline"
	"github.com/pdiddy/article-engine/internal/research"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <topic>",
	Short: "Draft and refine an article outline without generating content",
	Long: `Outline runs the pre-generation pipeline only: it drafts an outline
for the topic, interviews the configured perspectives, and refines the
outline from their notes. The result is written as YAML so it can be
reviewed, edited by hand, and fed back to "write --outline".`,
	Args: cobra.ExactArgs(1),
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().String("model", "", "AI model identifier")
	outlineCmd.Flags().StringP("output", "o", "", "write the outline to this file instead of stdout")
	outlineCmd.Flags().Bool("no-research", false, "save the first draft without perspective research")

	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	topic := args[0]

	resCfg := researchConfig(cmd)
	if resCfg.APIKey == "" {
		return fmt.Errorf("no Anthropic API key: add .secrets/anthropic-api-key or set research.api_key")
	}
	model := ai.NewClaude(resCfg.AIConfig, nil, os.Stderr)

	fmt.Fprintln(os.Stderr, "drafting outline")
	items, err := research.DraftOutline(ctx, model, topic)
	if err != nil {
		return err
	}

	if skip, _ := cmd.Flags().GetBool("no-research"); !skip {
		notes, err := research.Conduct(ctx, model, resCfg, topic, os.Stderr)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "refining outline")
		items, err = research.RefineOutline(ctx, model, topic, items, notes)
		if err != nil {
			return err
		}
	}

	f := &outline.File{Topic: topic, Items: items}
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return outline.Write(os.Stdout, f)
	}
	if err := outline.Save(out, f); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
