package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dshills/facet/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve facet_review over MCP (stdio)",
	Long: `Run an MCP server on stdin/stdout exposing the facet_review and
facet_perspectives tools. Diagnostics go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			exitCode = ExitConfigError
			return err
		}
		logger := newLogger(cfg.Log.Level, os.Stderr)

		p, err := buildPipeline(cfg, logger, pipelineOptions{})
		if err != nil {
			exitCode = exitCodeFor(err)
			return err
		}
		defer p.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		srv := mcp.NewServer(p.engine, p.aggregator, mcp.Options{
			Version:    version,
			Threshold:  cfg.Threshold,
			Extensions: cfg.Extensions,
		})
		logger.Info("mcp server listening on stdio", "provider", cfg.Provider, "model", cfg.Model)
		if err := srv.ServeStdio(ctx); err != nil && ctx.Err() == nil {
			exitCode = ExitRuntimeError
			return err
		}
		return nil
	},
}
