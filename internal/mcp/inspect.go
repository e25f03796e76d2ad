package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/autolint/internal/report"
)

type inspectParams struct {
	RunID  string `json:"run_id" jsonschema:"the run ID from a lint_run result"`
	Linter string `json:"linter,omitempty" jsonschema:"show only invocations of this linter"`
	File   string `json:"file,omitempty" jsonschema:"show only invocations that covered this file (target-relative path)"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	runs := result.Runs
	switch {
	case params.Linter != "":
		runs = report.ByLinter(result, params.Linter)
	case params.File != "":
		runs = report.ByFile(result, params.File)
	default:
		// No filter: show only what gates, which is what callers
		// almost always want from a failed run.
		runs = report.Failing(result)
		if len(runs) == 0 {
			runs = result.Runs
		}
	}

	if len(runs) == 0 {
		return textResult(fmt.Sprintf("No matching invocations in run %s.", params.RunID))
	}

	return textResult(formatInspect(result, runs))
}

func formatInspect(result *report.RunResult, runs []report.LinterRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", result.ID)
	fmt.Fprintf(&b, "Target: %s\n", result.Target)
	fmt.Fprintln(&b)

	for _, run := range runs {
		name := run.File
		if name == "" {
			name = fmt.Sprintf("(%d files)", run.Files)
		}
		switch {
		case run.NotFound:
			fmt.Fprintf(&b, "%s %s — binary not found\n", run.Linter, name)
		case run.Gates():
			fmt.Fprintf(&b, "%s %s — abnormal exit %d\n", run.Linter, name, run.ExitCode)
		default:
			fmt.Fprintf(&b, "%s %s — exit %d\n", run.Linter, name, run.ExitCode)
		}
		if run.Output != "" {
			for _, line := range strings.Split(run.Output, "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
		fmt.Fprintln(&b)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
