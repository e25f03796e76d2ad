package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/autolint/internal/discover"
	"github.com/deixis/autolint/internal/ignore"
)

type configParams struct{}

func (h *handler) configHandler(ctx context.Context, req *mcp.CallToolRequest, _ configParams) (*mcp.CallToolResult, any, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Target: %s\n", h.target)
	fmt.Fprintf(&b, "Timeout: %s per invocation\n", h.cfg.Timeout())
	fmt.Fprintln(&b)

	ign, err := ignore.Load(h.target, "")
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load ignore file: %v", err))
	}
	files, err := discover.Files(h.target, ign)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to walk target: %v", err))
	}
	classified := discover.Classify(h.cfg, files)

	fmt.Fprintln(&b, "Languages:")
	for _, lang := range h.cfg.LanguageNames() {
		lc := h.cfg.Langs[lang]
		fmt.Fprintf(&b, "  %s (%d files matched)\n", lang, len(classified[lang]))
		fmt.Fprintf(&b, "    include: %s\n", strings.Join(lc.Include, ", "))
		fmt.Fprintf(&b, "    linters: %s\n", strings.Join(lc.Linters, ", "))
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Linters:")
	seen := make(map[string]bool)
	for _, lang := range h.cfg.LanguageNames() {
		for _, name := range h.cfg.Langs[lang].Linters {
			if seen[name] {
				continue
			}
			seen[name] = true
			linter := h.cfg.Linters[name]
			argv, err := linter.Argv()
			if err != nil {
				fmt.Fprintf(&b, "  %s: invalid (%v)\n", name, err)
				continue
			}
			fmt.Fprintf(&b, "  %s: %s (runner: %s)\n", name, strings.Join(argv, " "), linter.Mode())
		}
	}

	return textResult(b.String())
}
