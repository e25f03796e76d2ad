package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/deixis/autolint/internal/config"
	"github.com/deixis/autolint/internal/runner"
)

// fakeRunner is a test double for CommandRunner. It returns
// predetermined results keyed by the linter binary name (argv[0]).
type fakeRunner struct {
	Results map[string]*runner.Result
	Err     map[string]error

	mu    sync.Mutex
	calls [][]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		Results: map[string]*runner.Result{},
		Err:     map[string]error{},
	}
}

func (f *fakeRunner) Run(_ context.Context, argv []string) (*runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, argv)
	f.mu.Unlock()

	if err, ok := f.Err[argv[0]]; ok {
		return nil, err
	}
	if r, ok := f.Results[argv[0]]; ok {
		return r, nil
	}
	return &runner.Result{ExitCode: 0}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Langs: map[string]config.Language{
			"python": {Include: []string{"**/*.py"}, Linters: []string{"pylint"}},
			"shell":  {Include: []string{"**/*.sh"}, Linters: []string{"shellcheck"}},
		},
		Linters: map[string]config.Linter{
			"pylint":     {Cmd: "pylint"},
			"shellcheck": {Cmd: "shellcheck"},
		},
	}
}

// --- Aggregate ---

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		codes []int
		want  int
	}{
		{"empty", nil, 0},
		{"all zero", []int{0, 0, 0}, 0},
		{"findings only", []int{0, 1, 0}, 0},
		{"all findings", []int{1, 1}, 0},
		{"abnormal exit", []int{0, 2}, 1},
		{"not found", []int{0, ExitNotFound, 1}, 1},
		{"negative code", []int{-1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := make([]RunResult, len(tt.codes))
			for i, c := range tt.codes {
				runs[i] = RunResult{ExitCode: c}
			}
			if got := Aggregate(runs); got != tt.want {
				t.Errorf("Aggregate(%v) = %d, want %d", tt.codes, got, tt.want)
			}
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	codes := []int{0, 1, 2, 1, 0}
	perms := [][]int{
		{0, 1, 2, 1, 0},
		{2, 0, 0, 1, 1},
		{1, 1, 0, 0, 2},
	}
	var first int
	for i, p := range perms {
		runs := make([]RunResult, len(p))
		for j, c := range p {
			runs[j] = RunResult{ExitCode: c}
		}
		got := Aggregate(runs)
		if i == 0 {
			first = got
		} else if got != first {
			t.Errorf("Aggregate(%v) = %d, differs from %d for a permutation of %v", p, got, first, codes)
		}
	}
}

// --- Dispatch ---

func TestDispatch_NoShortCircuitOnMissingBinary(t *testing.T) {
	fr := newFakeRunner()
	fr.Err["pylint"] = fmt.Errorf("executing pylint: file not found")
	fr.Results["shellcheck"] = &runner.Result{ExitCode: 0, Stdout: []byte("clean\n")}

	e := &Engine{Config: testConfig(), Runner: fr}
	specs := []Spec{
		{Name: "pylint", Language: "python", Argv: []string{"pylint"}, Files: []string{"a.py", "b.py"}},
		{Name: "shellcheck", Language: "shell", Argv: []string{"shellcheck"}, Files: []string{"run.sh"}},
	}

	runs := e.Dispatch(context.Background(), specs)

	// 2 pylint files + 1 shellcheck file = 3 results, none dropped.
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	for _, r := range runs[:2] {
		if r.ExitCode != ExitNotFound {
			t.Errorf("pylint run %s: ExitCode = %d, want %d", r.File, r.ExitCode, ExitNotFound)
		}
		if r.Err == "" {
			t.Errorf("pylint run %s: Err is empty", r.File)
		}
	}
	if runs[2].ExitCode != 0 {
		t.Errorf("shellcheck ExitCode = %d, want 0", runs[2].ExitCode)
	}
	if string(runs[2].Stdout) != "clean\n" {
		t.Errorf("shellcheck Stdout = %q, want output to be captured", runs[2].Stdout)
	}
	if Aggregate(runs) != 1 {
		t.Error("Aggregate = 0, want 1 with a missing binary")
	}
}

func TestDispatch_FindingsDoNotGate(t *testing.T) {
	// Linters A (exit 0), B (exit 1), C (exit 0) → overall exit 0.
	fr := newFakeRunner()
	fr.Results["a"] = &runner.Result{ExitCode: 0}
	fr.Results["b"] = &runner.Result{ExitCode: 1, Stdout: []byte("style: line too long\n")}
	fr.Results["c"] = &runner.Result{ExitCode: 0}

	e := &Engine{Config: testConfig(), Runner: fr}
	specs := []Spec{
		{Name: "a", Language: "python", Argv: []string{"a"}, Files: []string{"x.py"}},
		{Name: "b", Language: "python", Argv: []string{"b"}, Files: []string{"x.py"}},
		{Name: "c", Language: "python", Argv: []string{"c"}, Files: []string{"x.py"}},
	}

	runs := e.Dispatch(context.Background(), specs)
	if got := Aggregate(runs); got != 0 {
		t.Errorf("Aggregate = %d, want 0 (exit 1 means findings, not failure)", got)
	}
}

func TestDispatch_AbnormalExitGates(t *testing.T) {
	// Linters A (exit 0), B (exit 2) → overall exit 1.
	fr := newFakeRunner()
	fr.Results["a"] = &runner.Result{ExitCode: 0}
	fr.Results["b"] = &runner.Result{ExitCode: 2, Stderr: []byte("crashed\n")}

	e := &Engine{Config: testConfig(), Runner: fr}
	specs := []Spec{
		{Name: "a", Language: "python", Argv: []string{"a"}, Files: []string{"x.py"}},
		{Name: "b", Language: "python", Argv: []string{"b"}, Files: []string{"x.py"}},
	}

	runs := e.Dispatch(context.Background(), specs)
	if got := Aggregate(runs); got != 1 {
		t.Errorf("Aggregate = %d, want 1", got)
	}
}

func TestDispatch_FileTokenReplacement(t *testing.T) {
	fr := newFakeRunner()
	e := &Engine{Config: testConfig(), Runner: fr}
	specs := []Spec{{
		Name:     "custom",
		Language: "python",
		Argv:     []string{"custom", "--input=" + FileToken},
		Files:    []string{"a.py"},
	}}

	e.Dispatch(context.Background(), specs)

	if len(fr.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(fr.calls))
	}
	want := []string{"custom", "--input=a.py"}
	if !reflect.DeepEqual(fr.calls[0], want) {
		t.Errorf("argv = %v, want %v", fr.calls[0], want)
	}
}

func TestDispatch_FileAppendedWithoutToken(t *testing.T) {
	fr := newFakeRunner()
	e := &Engine{Config: testConfig(), Runner: fr}
	specs := []Spec{{
		Name:     "pylint",
		Language: "python",
		Argv:     []string{"pylint", "--score=n"},
		Files:    []string{"a.py", "b.py"},
	}}

	e.Dispatch(context.Background(), specs)

	if len(fr.calls) != 2 {
		t.Fatalf("calls = %d, want 2 (one per file)", len(fr.calls))
	}
	want := []string{"pylint", "--score=n", "a.py"}
	if !reflect.DeepEqual(fr.calls[0], want) {
		t.Errorf("argv = %v, want %v", fr.calls[0], want)
	}
}

func TestDispatch_BatchMode(t *testing.T) {
	fr := newFakeRunner()
	e := &Engine{Config: testConfig(), Runner: fr}
	specs := []Spec{{
		Name:     "gofmt",
		Language: "go",
		Argv:     []string{"gofmt", "-l"},
		Mode:     config.ModeBatch,
		Files:    []string{"a.go", "b.go", "c.go"},
	}}

	runs := e.Dispatch(context.Background(), specs)

	if len(fr.calls) != 1 {
		t.Fatalf("calls = %d, want 1 (batch mode)", len(fr.calls))
	}
	want := []string{"gofmt", "-l", "a.go", "b.go", "c.go"}
	if !reflect.DeepEqual(fr.calls[0], want) {
		t.Errorf("argv = %v, want %v", fr.calls[0], want)
	}
	if runs[0].Files != 3 {
		t.Errorf("Files = %d, want 3", runs[0].Files)
	}
}

func TestDispatch_ParallelMatchesSequential(t *testing.T) {
	specs := []Spec{
		{Name: "a", Language: "python", Argv: []string{"a"}, Files: []string{"1.py", "2.py", "3.py"}},
		{Name: "b", Language: "python", Argv: []string{"b"}, Files: []string{"1.py", "2.py", "3.py"}},
	}

	collect := func(jobs int) []string {
		fr := newFakeRunner()
		fr.Results["b"] = &runner.Result{ExitCode: 1}
		e := &Engine{Config: testConfig(), Runner: fr, Jobs: jobs}
		runs := e.Dispatch(context.Background(), specs)
		out := make([]string, len(runs))
		for i, r := range runs {
			out[i] = fmt.Sprintf("%s/%s/%d", r.Linter, r.File, r.ExitCode)
		}
		sort.Strings(out)
		return out
	}

	seq := collect(1)
	par := collect(4)
	if !reflect.DeepEqual(seq, par) {
		t.Errorf("parallel results differ:\nseq = %v\npar = %v", seq, par)
	}
}

func TestDispatch_ReportCallback(t *testing.T) {
	fr := newFakeRunner()
	var reported []string
	e := &Engine{
		Config: testConfig(),
		Runner: fr,
		Jobs:   4,
		Report: func(r *RunResult) { reported = append(reported, r.File) },
	}
	specs := []Spec{
		{Name: "a", Language: "python", Argv: []string{"a"}, Files: []string{"1.py", "2.py", "3.py", "4.py"}},
	}

	e.Dispatch(context.Background(), specs)

	// Report calls are serialized, so the unsynchronized append is safe.
	if len(reported) != 4 {
		t.Errorf("reported %d results, want 4", len(reported))
	}
}

// --- Specs ---

func TestSpecs_DeterministicOrder(t *testing.T) {
	cfg := &config.Config{
		Langs: map[string]config.Language{
			"python": {Include: []string{"**/*.py"}, Linters: []string{"pylint", "pycodestyle"}},
			"go":     {Include: []string{"**/*.go"}, Linters: []string{"gofmt"}},
		},
		Linters: map[string]config.Linter{
			"pylint":      {Cmd: "pylint"},
			"pycodestyle": {Cmd: "pycodestyle"},
			"gofmt":       {Cmd: "gofmt", RawMode: "batch"},
		},
	}
	e := &Engine{Config: cfg}
	classified := map[string][]string{
		"python": {"a.py"},
		"go":     {"m.go"},
	}

	specs, err := e.Specs(classified)
	if err != nil {
		t.Fatalf("Specs: %v", err)
	}
	// Languages sorted, then linters in configured list order.
	want := []string{"gofmt", "pylint", "pycodestyle"}
	if len(specs) != len(want) {
		t.Fatalf("len(specs) = %d, want %d", len(specs), len(want))
	}
	for i, name := range want {
		if specs[i].Name != name {
			t.Errorf("specs[%d].Name = %q, want %q", i, specs[i].Name, name)
		}
	}
}

func TestSpecs_OnlyFilter(t *testing.T) {
	cfg := &config.Config{
		Langs: map[string]config.Language{
			"python": {Include: []string{"**/*.py"}, Linters: []string{"pylint", "pycodestyle"}},
		},
		Linters: map[string]config.Linter{
			"pylint":      {Cmd: "pylint"},
			"pycodestyle": {Cmd: "pycodestyle"},
		},
	}
	e := &Engine{Config: cfg, Only: []string{"pycodestyle"}}

	specs, err := e.Specs(map[string][]string{"python": {"a.py"}})
	if err != nil {
		t.Fatalf("Specs: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "pycodestyle" {
		t.Errorf("specs = %+v, want just pycodestyle", specs)
	}
}

func TestSpecs_SkipsLanguagesWithoutFiles(t *testing.T) {
	e := &Engine{Config: testConfig()}
	specs, err := e.Specs(map[string][]string{"python": {"a.py"}})
	if err != nil {
		t.Fatalf("Specs: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "pylint" {
		t.Errorf("specs = %+v, want just pylint", specs)
	}
}

// --- Lint end to end ---

func TestLint_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"main.py", "tools/run.sh"} {
		full := filepath.Join(dir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fr := newFakeRunner()
	fr.Results["pylint"] = &runner.Result{ExitCode: 1, Stdout: []byte("main.py: unused import\n")}

	e := &Engine{Config: testConfig(), Runner: fr, Target: dir}
	result, err := e.Lint(context.Background())
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}

	if result.ID == "" {
		t.Error("ID is empty")
	}
	if result.Files != 2 {
		t.Errorf("Files = %d, want 2", result.Files)
	}
	if len(result.Runs) != 2 {
		t.Fatalf("len(Runs) = %d, want 2 (pylint on main.py, shellcheck on run.sh)", len(result.Runs))
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0 (findings do not gate)", result.ExitCode)
	}
	if got := result.FailedRuns(); got != nil {
		t.Errorf("FailedRuns = %v, want none", got)
	}
}

func TestLint_EmptyTarget(t *testing.T) {
	fr := newFakeRunner()
	e := &Engine{Config: testConfig(), Runner: fr, Target: t.TempDir()}

	result, err := e.Lint(context.Background())
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	if len(result.Runs) != 0 {
		t.Errorf("len(Runs) = %d, want 0", len(result.Runs))
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0 for an empty run set", result.ExitCode)
	}
}
