// Package report provides structured persistence and retrieval of
// autolint run reports. Reports are stored as typed structs and can
// be queried by linter or file for drill-down.
package report

// Store persists and retrieves run reports.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult is the stored form of one autolint run.
type RunResult struct {
	ID     string      `json:"id"`
	Target string      `json:"target"`
	Files  int         `json:"files"` // files discovered after ignore filtering
	Runs   []LinterRun `json:"runs,omitempty"`
	Failed int         `json:"failed"` // invocations with exit codes outside {0,1}
}

// LinterRun is the stored outcome of one linter invocation.
type LinterRun struct {
	Language string `json:"language"`
	Linter   string `json:"linter"`
	File     string `json:"file,omitempty"` // empty for batch invocations
	Files    int    `json:"files"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"` // combined stdout and stderr
	NotFound bool   `json:"not_found,omitempty"`
}

// Gates reports whether this invocation fails the overall run.
func (r *LinterRun) Gates() bool {
	return r.ExitCode != 0 && r.ExitCode != 1
}

// ByLinter returns all invocations of the named linter.
func ByLinter(result *RunResult, name string) []LinterRun {
	var out []LinterRun
	for _, r := range result.Runs {
		if r.Linter == name {
			out = append(out, r)
		}
	}
	return out
}

// ByFile returns all invocations that covered the given file.
// Batch invocations carry no per-file attribution and are not matched.
func ByFile(result *RunResult, path string) []LinterRun {
	var out []LinterRun
	for _, r := range result.Runs {
		if r.File == path {
			out = append(out, r)
		}
	}
	return out
}

// Failing returns the invocations that gate the run.
func Failing(result *RunResult) []LinterRun {
	var out []LinterRun
	for _, r := range result.Runs {
		if r.Gates() {
			out = append(out, r)
		}
	}
	return out
}
