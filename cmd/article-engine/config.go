// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/article-engine/internal/secrets"
	"github.com/pdiddy/article-engine/pkg/types"
)

// stringSetting resolves a setting: explicit flag wins, then the config
// file, then the fallback.
func stringSetting(cmd *cobra.Command, flag, viperKey, fallback string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if v := viper.GetString(viperKey); v != "" {
		return v
	}
	return fallback
}

func generationConfig(cmd *cobra.Command) types.GenerationConfig {
	cfg := types.GenerationConfig{
		AIConfig: types.AIConfig{
			Model:      stringSetting(cmd, "model", "generation.model", "claude-sonnet-4-5-20250929"),
			APIKey:     secretDefault(secrets.AnthropicAPIKey, viper.GetString("generation.api_key")),
			MaxRetries: viper.GetInt("generation.max_retries"),
		},
		ContextWindow:   viper.GetInt("generation.context_window"),
		DedupeThreshold: viper.GetFloat64("generation.dedupe_threshold"),
		MaxAttempts:     viper.GetInt("generation.max_attempts"),
		TokenTolerance:  viper.GetFloat64("generation.token_tolerance"),
		OutputDir:       stringSetting(cmd, "output-dir", "generation.output_dir", "output/drafts"),
		Format:          types.OutputFormat(stringSetting(cmd, "format", "generation.format", string(types.OutputMarkdown))),
	}
	return cfg
}

func researchConfig(cmd *cobra.Command) types.ResearchConfig {
	return types.ResearchConfig{
		AIConfig: types.AIConfig{
			Model:      stringSetting(cmd, "model", "research.model", "claude-sonnet-4-5-20250929"),
			APIKey:     secretDefault(secrets.AnthropicAPIKey, viper.GetString("research.api_key")),
			MaxRetries: viper.GetInt("research.max_retries"),
		},
		Perspectives:            viper.GetInt("research.perspectives"),
		QuestionsPerPerspective: viper.GetInt("research.questions_per_perspective"),
	}
}

func embeddingConfig() types.EmbeddingConfig {
	cfg := types.EmbeddingConfig{
		AIConfig: types.AIConfig{
			Model:      viper.GetString("embedding.model"),
			APIKey:     secretDefault(secrets.OpenAIAPIKey, viper.GetString("embedding.api_key")),
			MaxRetries: viper.GetInt("embedding.max_retries"),
		},
		Enabled:  true,
		CacheDir: viper.GetString("embedding.cache_dir"),
	}
	if viper.IsSet("embedding.enabled") {
		cfg.Enabled = viper.GetBool("embedding.enabled")
	}
	// No key means no embedding capability; deduplication degrades to a
	// pass-through rather than failing the run.
	if cfg.APIKey == "" {
		cfg.Enabled = false
	}
	return cfg
}
