package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/facet/internal/gitctx"
	"github.com/dshills/facet/internal/perspective"
	"github.com/dshills/facet/internal/review"
)

// Options configures the review tool.
type Options struct {
	Version    string
	Threshold  float64
	Extensions []string
}

// Server exposes the review engine as MCP tools.
type Server struct {
	engine     *review.Engine
	aggregator review.Aggregator
	opts       Options
}

// NewServer wraps engine. Reports are built with aggregator.
func NewServer(engine *review.Engine, aggregator review.Aggregator, opts Options) *Server {
	return &Server{engine: engine, aggregator: aggregator, opts: opts}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("facet", s.opts.Version, server.WithToolCapabilities(true))
	srv.AddTool(s.reviewTool())
	srv.AddTool(s.perspectivesTool())
	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// reviewOutput is the facet_review payload.
type reviewOutput struct {
	Status   string        `json:"status"`
	ExitCode int           `json:"exit_code"`
	Report   review.Report `json:"report"`
}

// facet_review
func (s *Server) reviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("facet_review",
		mcp.WithDescription("Review source files under the security, quality and performance perspectives. Returns the aggregated JSON report plus a status of ok, below-threshold or error."),
		mcp.WithArray("paths", mcp.Required(), mcp.WithStringItems(), mcp.Description("File paths to review")),
		mcp.WithArray("perspectives", mcp.WithStringItems(), mcp.Description("Perspectives to apply (default: all)")),
		mcp.WithNumber("threshold", mcp.Description("Minimum passing average score, 0-100")),
	)
	return tool, s.handleReview
}

func (s *Server) handleReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := request.GetStringSlice("paths", nil)
	if len(paths) == 0 {
		return mcp.NewToolResultError("missing required parameter: paths"), nil
	}

	ids, err := perspective.Parse(request.GetStringSlice("perspectives", nil))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	threshold := request.GetFloat("threshold", s.opts.Threshold)
	if threshold < 0 || threshold > 100 {
		return mcp.NewToolResultError(fmt.Sprintf("threshold must be between 0 and 100, got %v", threshold)), nil
	}

	if len(s.opts.Extensions) > 0 {
		paths = gitctx.FilterExtensions(paths, s.opts.Extensions)
		if len(paths) == 0 {
			return mcp.NewToolResultError("No supported files to review (extensions: " + strings.Join(s.opts.Extensions, " ") + ")"), nil
		}
	}

	outcomes := s.engine.Run(ctx, review.LoadFiles(paths), ids)
	report := s.aggregator.Aggregate(outcomes)
	status := review.Evaluate(report, threshold)

	data, err := json.Marshal(reviewOutput{Status: status.String(), ExitCode: status.ExitCode(), Report: report})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// facet_perspectives
func (s *Server) perspectivesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("facet_perspectives",
		mcp.WithDescription("List the available review perspectives with their focus areas."),
	)
	return tool, s.handlePerspectives
}

func (s *Server) handlePerspectives(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(perspective.All())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal perspectives: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
