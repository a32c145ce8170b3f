package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dshills/facet/internal/providers"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider credentials and connectivity",
	Long: `Send a one-token request to the configured provider.

Exits 3 when the credential is missing or rejected and 4 when the
endpoint cannot be reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(buildOverrides(cmd))
		if err != nil {
			exitCode = ExitConfigError
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Checking %s (%s)...\n", cfg.Provider, cfg.Model)
		if known := providerModels(cfg.Provider); len(known) > 0 && !slices.Contains(known, cfg.Model) {
			ui.Warning("model %q is not in the known list for %s", cfg.Model, cfg.Provider)
		}

		p, err := newProvider(providers.Options{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			Endpoint: cfg.Endpoint,
			Timeout:  cfg.RequestTimeout(),
		})
		if err != nil {
			exitCode = ExitConfigError
			return fmt.Errorf("FAIL: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout())
		defer cancel()

		_, err = p.Review(ctx, providers.ReviewRequest{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			if providers.IsAuthError(err) || errors.Is(err, providers.ErrMissingCredential) {
				exitCode = ExitConfigError
			} else {
				exitCode = ExitRuntimeError
			}
			return fmt.Errorf("FAIL: %w", err)
		}

		ui.Success("%s is configured and responding", p.Name())
		return nil
	},
}

func init() {
	doctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	doctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
	doctorCmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "Override the provider base URL")
}
