// Package mcp provides the autolint MCP server, exposing lint runs and
// report drill-down as tools.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/autolint"
	"github.com/deixis/autolint/internal/config"
	"github.com/deixis/autolint/internal/ignore"
	"github.com/deixis/autolint/internal/lint"
	"github.com/deixis/autolint/internal/report"
	"github.com/deixis/autolint/internal/runner"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg    *config.Config
	runner *runner.Runner
	store  report.Store
	target string
}

// NewServer creates an MCP server with all autolint tools registered.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store, target string) *mcp.Server {
	h := &handler{
		cfg:    cfg,
		runner: r,
		store:  store,
		target: target,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateTargetFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "autolint", Version: autolint.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "lint_run",
		Description: `Run the configured linters over the workspace and aggregate their exit codes.

The gate passes when every linter exits 0 or 1 (1 means findings were reported);
it fails on any other exit code, including a linter binary that cannot be launched.
Results are stored for drill-down via lint_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "lint_config",
		Description: `Show the effective autolint configuration and which languages the workspace currently matches.

Use this to understand which linters would run before calling lint_run.`,
	}, h.configHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "lint_inspect",
		Description: `Drill into the results of a previous lint_run.

Use the run_id from the lint_run output. Filter by linter name or by file path
to see individual exit codes and captured output.`,
	}, h.inspectHandler)

	return s
}

// newEngine assembles a lint engine for the current target, loading
// the ignore file fresh so edits between tool calls are picked up.
func (h *handler) newEngine() (*lint.Engine, error) {
	ign, err := ignore.Load(h.target, "")
	if err != nil {
		return nil, err
	}
	return &lint.Engine{
		Config: h.cfg,
		Runner: h.runner,
		Target: h.target,
		Ignore: ign,
	}, nil
}

// updateTargetFromRoots queries the client for MCP roots and re-points
// the handler at the first one. Called during session initialization,
// before any tool calls.
func (h *handler) updateTargetFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	target := u.Path

	cfg, err := config.Load(target, "")
	if err != nil {
		return
	}

	h.target = target
	h.cfg = cfg
	h.runner.Dir = target
	h.runner.Timeout = cfg.Timeout()
	h.runner.MaxOutput = cfg.MaxOutputBytes()
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
