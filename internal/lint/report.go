package lint

import (
	"strings"

	"github.com/deixis/autolint/internal/report"
)

// Report converts the run into its stored form. Stdout and stderr are
// folded into a single output string; launch failures keep the error
// text as their output.
func (r *Result) Report() *report.RunResult {
	rr := &report.RunResult{
		ID:     r.ID,
		Target: r.Target,
		Files:  r.Files,
	}
	for i := range r.Runs {
		run := &r.Runs[i]
		out := run.Err
		if out == "" {
			out = strings.TrimRight(string(run.Stdout)+string(run.Stderr), "\n")
		}
		rr.Runs = append(rr.Runs, report.LinterRun{
			Language: run.Language,
			Linter:   run.Linter,
			File:     run.File,
			Files:    run.Files,
			ExitCode: run.ExitCode,
			Output:   out,
			NotFound: run.Err != "",
		})
		if run.Failed() {
			rr.Failed++
		}
	}
	return rr
}
