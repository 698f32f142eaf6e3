// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-engine/internal/ai"
	"github.com/pdiddy/article-engine/internal/embedcache"
	"github.com/pdiddy/article-engine/internal/generate"
	"github.com/pdiddy/article-engine/internal/outline"
	"github.com/pdiddy/article-engine/internal/render"
	"github.com/pdiddy/article-engine/internal/research"
	"github.com/pdiddy/article-engine/pkg/types"
)

var writeCmd = &cobra.Command{
	Use:   "write [topic]",
	Short: "Generate a full article from a topic or an outline file",
	Long: `Write generates a long-form article. Given a topic, it drafts an
outline, researches the topic from several perspectives, refines the outline,
and generates the section tree. Given --outline, it skips research and
generates directly from the supplied outline file.

The finished article is rendered to the output directory as Markdown or
LaTeX.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().String("outline", "", "path to an outline YAML file (skips research)")
	writeCmd.Flags().String("model", "", "AI model identifier for generation")
	writeCmd.Flags().String("format", "markdown", "output format: markdown or latex")
	writeCmd.Flags().String("output-dir", "output/drafts", "directory for rendered articles")
	writeCmd.Flags().Bool("no-dedupe", false, "disable semantic deduplication")

	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	outlinePath, _ := cmd.Flags().GetString("outline")
	if len(args) == 0 && outlinePath == "" {
		return fmt.Errorf("provide a topic argument or --outline")
	}

	genCfg := generationConfig(cmd)
	if genCfg.APIKey == "" {
		return fmt.Errorf("no Anthropic API key: add .secrets/anthropic-api-key or set generation.api_key")
	}
	model := ai.NewClaude(genCfg.AIConfig, nil, os.Stderr)

	var (
		topic string
		items []types.OutlineItem
		err   error
	)
	if outlinePath != "" {
		f, err := outline.Load(outlinePath)
		if err != nil {
			return err
		}
		topic = f.Topic
		if len(args) == 1 {
			topic = args[0]
		}
		items = f.Items
	} else {
		topic = args[0]
		items, err = researchedOutline(ctx, model, cmd, topic)
		if err != nil {
			return err
		}
	}

	embedder, closeCache, err := buildEmbedder(cmd)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}

	article, err := generate.GenerateArticle(ctx, generate.Options{
		Model:           model,
		Embedder:        embedder,
		Topic:           topic,
		ContextWindow:   genCfg.ContextWindow,
		DedupeThreshold: genCfg.DedupeThreshold,
		MaxAttempts:     genCfg.MaxAttempts,
		TokenTolerance:  genCfg.TokenTolerance,
		Log:             os.Stderr,
	}, items)
	if err != nil {
		return err
	}

	path, err := render.Write(article, genCfg.OutputDir, genCfg.Format)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// researchedOutline runs the full pre-generation pipeline: draft outline,
// perspective interviews, refinement.
func researchedOutline(ctx context.Context, model ai.Generator, cmd *cobra.Command, topic string) ([]types.OutlineItem, error) {
	resCfg := researchConfig(cmd)

	fmt.Fprintln(os.Stderr, "drafting outline")
	draft, err := research.DraftOutline(ctx, model, topic)
	if err != nil {
		return nil, err
	}

	notes, err := research.Conduct(ctx, model, resCfg, topic, os.Stderr)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(os.Stderr, "refining outline")
	return research.RefineOutline(ctx, model, topic, draft, notes)
}

// buildEmbedder assembles the embedding capability, wrapped in the SQLite
// cache when one is configured. A nil embedder disables deduplication.
func buildEmbedder(cmd *cobra.Command) (ai.Embedder, func() error, error) {
	if noDedupe, _ := cmd.Flags().GetBool("no-dedupe"); noDedupe {
		return nil, nil, nil
	}

	embCfg := embeddingConfig()
	if !embCfg.Enabled {
		return nil, nil, nil
	}

	var embedder ai.Embedder = ai.NewOpenAIEmbedder(embCfg, nil, os.Stderr)
	if embCfg.CacheDir == "" {
		return embedder, nil, nil
	}

	store, err := embedcache.NewStore(embCfg.CacheDir, embCfg.Model)
	if err != nil {
		return nil, nil, err
	}
	return embedcache.Wrap(embedder, store), store.Close, nil
}
