package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/autolint/internal/report"
)

type runParams struct {
	Linters []string `json:"linters,omitempty" jsonschema:"restrict the run to these linter names. Defaults to every linter the configuration maps to the workspace's languages."`
	Jobs    int      `json:"jobs,omitempty" jsonschema:"maximum number of linter processes run concurrently. Default: 1 (sequential)."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	eng, err := h.newEngine()
	if err != nil {
		return errorResult(fmt.Sprintf("lint setup failed: %v", err))
	}
	eng.Only = params.Linters
	eng.Jobs = params.Jobs

	result, err := eng.Lint(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("lint failed: %v", err))
	}

	rr := result.Report()
	// Save for lint_inspect.
	_ = h.store.Save(rr)

	return textResult(formatRun(rr))
}

func formatRun(rr *report.RunResult) string {
	var b strings.Builder

	if rr.Failed == 0 {
		fmt.Fprintln(&b, "Status: PASS")
	} else {
		fmt.Fprintln(&b, "Status: FAIL")
	}
	fmt.Fprintf(&b, "Run: %s\n", rr.ID)
	fmt.Fprintf(&b, "Files: %d\n", rr.Files)
	fmt.Fprintln(&b)

	if len(rr.Runs) == 0 {
		fmt.Fprintln(&b, "No files matched any configured language.")
		return b.String()
	}

	type tally struct {
		files, findings int
		notFound        bool
	}
	tallies := make(map[string]*tally)
	var order []string
	for _, run := range rr.Runs {
		key := run.Language + "/" + run.Linter
		t, ok := tallies[key]
		if !ok {
			t = &tally{}
			tallies[key] = t
			order = append(order, key)
		}
		t.files += run.Files
		if run.ExitCode != 0 {
			t.findings += run.Files
		}
		if run.NotFound {
			t.notFound = true
		}
	}
	sort.Strings(order)

	for _, key := range order {
		t := tallies[key]
		if t.notFound {
			fmt.Fprintf(&b, "  %-30s binary not found\n", key)
			continue
		}
		fmt.Fprintf(&b, "  %-30s %d files, %d with findings\n", key, t.files, t.findings)
	}
	fmt.Fprintln(&b)

	if rr.Failed == 0 {
		fmt.Fprintln(&b, "Gate: pass (every linter exited 0 or 1).")
	} else {
		fmt.Fprintf(&b, "Gate: fail (%d invocations exited outside {0, 1}).\n", rr.Failed)
	}
	fmt.Fprintln(&b, "Use lint_inspect with the run ID to drill into a linter or file.")
	return b.String()
}
