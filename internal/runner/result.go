package runner

// Result holds the captured outcome of one linter process.
type Result struct {
	ExitCode  int    // process exit code
	Stdout    []byte // captured stdout (may be truncated)
	Stderr    []byte // captured stderr (may be truncated)
	Truncated bool   // true if either stream hit the size cap
}
