package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/facet/internal/config"
	"github.com/dshills/facet/internal/output"
)

type modelInfo struct {
	Provider string
	Models   []string
	Env      string
}

// knownModels is advisory; any model name the endpoint accepts works.
var knownModels = []modelInfo{
	{
		Provider: "anthropic",
		Env:      "ANTHROPIC_API_KEY",
		Models: []string{
			"claude-sonnet-4-20250514",
			"claude-opus-4-20250514",
			"claude-3-5-haiku-20241022",
		},
	},
	{
		Provider: "openai",
		Env:      "OPENAI_API_KEY",
		Models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4.1",
			"gpt-4.1-mini",
			"o3-mini",
		},
	},
	{
		Provider: "gemini",
		Env:      "GEMINI_API_KEY",
		Models: []string{
			"gemini-2.5-flash",
			"gemini-2.5-pro",
			"gemini-2.0-flash",
		},
	},
	{
		Provider: "ollama",
		Env:      "OLLAMA_HOST",
		Models: []string{
			"llama3.1",
			"codellama",
			"qwen2.5-coder",
			"deepseek-coder-v2",
		},
	},
	{
		Provider: "lmstudio",
		Env:      "FACET_LOCAL_API_KEY",
		Models: []string{
			"qwen2.5-coder-7b-instruct",
			"deepseek-coder-v2-lite-instruct",
		},
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known providers and models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			cfg = config.Default()
		}

		table := output.NewTable(cmd.OutOrStdout(), []string{"Provider", "Model", "Env", "Default"})
		for _, info := range knownModels {
			for _, m := range info.Models {
				def := ""
				if info.Provider == cfg.Provider && m == cfg.Model {
					def = "*"
				}
				if err := table.Append([]string{info.Provider, m, info.Env, def}); err != nil {
					return err
				}
			}
		}
		return table.Render()
	},
}

// providerModels returns the known models for provider.
func providerModels(provider string) []string {
	for _, info := range knownModels {
		if strings.EqualFold(info.Provider, provider) {
			return info.Models
		}
	}
	return nil
}
