package lint

// ExitNotFound is recorded when a linter binary cannot be launched,
// mirroring the shell convention for "command not found". It sits
// outside the passing set {0, 1}, so a missing binary fails the run.
const ExitNotFound = 127

// RunResult is the captured outcome of one linter invocation.
// It is immutable once the dispatcher has filled it in.
type RunResult struct {
	Linter    string // linter name from configuration
	Language  string // language the files were classified under
	File      string // file linted; empty for batch invocations
	Files     int    // number of files covered by this invocation
	ExitCode  int    // process exit code, or ExitNotFound on launch failure
	Stdout    []byte
	Stderr    []byte
	Truncated bool   // output hit the size cap
	Err       string // launch failure detail; empty otherwise
}

// Failed reports whether this invocation fails the overall run.
// Exit code 1 means the linter reported findings, which is an
// acceptable outcome for the gate; only 2+ and launch failures gate.
func (r *RunResult) Failed() bool {
	return r.ExitCode != 0 && r.ExitCode != 1
}

// Aggregate folds invocation exit codes into the overall process exit
// code: 0 if every code is 0 or 1, and 1 otherwise. The result does
// not depend on the order of the runs. An empty run set passes.
func Aggregate(runs []RunResult) int {
	for i := range runs {
		if runs[i].Failed() {
			return 1
		}
	}
	return 0
}

// Result holds the full outcome of one autolint run.
type Result struct {
	ID       string      // unique run identifier
	Target   string      // directory that was linted
	Files    int         // files discovered after ignore filtering
	Runs     []RunResult // one entry per dispatched invocation
	ExitCode int         // Aggregate(Runs)
}

// FailedRuns returns the invocations that gate the run.
func (r *Result) FailedRuns() []RunResult {
	var out []RunResult
	for _, run := range r.Runs {
		if run.Failed() {
			out = append(out, run)
		}
	}
	return out
}
