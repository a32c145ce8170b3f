package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/facet/internal/cache"
	"github.com/dshills/facet/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the review cache",
}

// openCache opens the configured backend regardless of cache.enabled, so a
// disabled cache can still be inspected and cleared.
func openCache() (cache.Store, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func openStore(cfg config.Config) (cache.Store, error) {
	store, err := cache.New(cache.Options{
		Enabled: true,
		Backend: cfg.Cache.Backend,
		Dir:     cfg.Cache.Dir,
	})
	if err != nil {
		return nil, &setupError{code: ExitRuntimeError, err: fmt.Errorf("opening cache: %w", err)}
	}
	return store, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached review results",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			exitCode = exitCodeFor(err)
			return err
		}
		defer store.Close()

		n, err := store.Clear(cmd.Context())
		if err != nil {
			exitCode = ExitRuntimeError
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%d entries removed).\n", n)
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			exitCode = exitCodeFor(err)
			return err
		}
		defer store.Close()

		stats, err := store.Stats(cmd.Context())
		if err != nil {
			exitCode = ExitRuntimeError
			return fmt.Errorf("reading cache stats: %w", err)
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
