// Package lint dispatches configured linters over classified files and
// aggregates their exit statuses into a single pass/fail signal.
package lint

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deixis/autolint/internal/config"
	"github.com/deixis/autolint/internal/discover"
	"github.com/deixis/autolint/internal/ignore"
	"github.com/deixis/autolint/internal/runner"
)

// FileToken in a command template is replaced with the file path.
// Without it the path is appended to the argv.
const FileToken = "%file_path%"

// CommandRunner executes a single linter process.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string) (*runner.Result, error)
}

// Engine holds the dependencies for one autolint run.
type Engine struct {
	Config *config.Config
	Runner CommandRunner
	Target string
	Ignore *ignore.Matcher // nil ignores nothing
	Jobs   int             // max concurrent linter processes; <= 1 is sequential
	Only   []string        // restrict the run to these linter names; empty runs all

	// Report, when set, is called once per completed invocation.
	// Calls are serialized, so one invocation's output is never
	// interleaved with another's.
	Report func(*RunResult)
}

// Spec is one resolved linter invocation plan: a command template and
// the files it applies to.
type Spec struct {
	Name     string
	Language string
	Argv     []string // template; FileToken expanded at dispatch
	Mode     config.RunMode
	Files    []string
}

// Lint discovers and classifies the target's files, dispatches every
// configured linter, and aggregates the exit codes. The returned error
// covers discovery and configuration problems only; linter failures
// are reported through Result.ExitCode.
func (e *Engine) Lint(ctx context.Context) (*Result, error) {
	files, err := discover.Files(e.Target, e.Ignore)
	if err != nil {
		return nil, err
	}
	classified := discover.Classify(e.Config, files)

	specs, err := e.Specs(classified)
	if err != nil {
		return nil, err
	}

	runs := e.Dispatch(ctx, specs)

	return &Result{
		ID:       uuid.New().String(),
		Target:   e.Target,
		Files:    len(files),
		Runs:     runs,
		ExitCode: Aggregate(runs),
	}, nil
}

// Specs builds the invocation plan from classified files. Languages
// are taken in sorted order and linters in configuration list order,
// so the plan is deterministic.
func (e *Engine) Specs(classified map[string][]string) ([]Spec, error) {
	only := make(map[string]bool, len(e.Only))
	for _, name := range e.Only {
		only[name] = true
	}

	var specs []Spec
	for _, lang := range e.Config.LanguageNames() {
		files := classified[lang]
		if len(files) == 0 {
			continue
		}
		for _, name := range e.Config.Langs[lang].Linters {
			if len(only) > 0 && !only[name] {
				continue
			}
			linter, ok := e.Config.Linters[name]
			if !ok {
				return nil, fmt.Errorf("language %s: linter %s is not defined", lang, name)
			}
			argv, err := linter.Argv()
			if err != nil {
				return nil, fmt.Errorf("linter %s: %w", name, err)
			}
			specs = append(specs, Spec{
				Name:     name,
				Language: lang,
				Argv:     argv,
				Mode:     linter.Mode(),
				Files:    files,
			})
		}
	}
	return specs, nil
}

// invocation is one concrete process to run.
type invocation struct {
	linter   string
	language string
	argv     []string
	file     string
	files    int
}

// Dispatch runs every invocation derived from the specs. A failing or
// unlaunchable linter never prevents the others from running: each
// invocation yields exactly one RunResult.
func (e *Engine) Dispatch(ctx context.Context, specs []Spec) []RunResult {
	var invocations []invocation
	for _, spec := range specs {
		invocations = append(invocations, expand(spec)...)
	}

	results := make([]RunResult, len(invocations))

	jobs := e.Jobs
	if jobs < 1 {
		jobs = 1
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, inv := range invocations {
		g.Go(func() error {
			results[i] = e.runOne(ctx, inv)
			if e.Report != nil {
				mu.Lock()
				e.Report(&results[i])
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // runOne never returns an error

	return results
}

// expand turns a spec into concrete invocations: one per file, or a
// single batch invocation with every file appended.
func expand(spec Spec) []invocation {
	if spec.Mode == config.ModeBatch {
		argv := make([]string, 0, len(spec.Argv)+len(spec.Files))
		argv = append(argv, spec.Argv...)
		argv = append(argv, spec.Files...)
		return []invocation{{
			linter:   spec.Name,
			language: spec.Language,
			argv:     argv,
			files:    len(spec.Files),
		}}
	}

	out := make([]invocation, 0, len(spec.Files))
	for _, f := range spec.Files {
		out = append(out, invocation{
			linter:   spec.Name,
			language: spec.Language,
			argv:     expandArgv(spec.Argv, f),
			file:     f,
			files:    1,
		})
	}
	return out
}

// expandArgv substitutes the file token into the template, or appends
// the file path when the template has no token.
func expandArgv(argv []string, file string) []string {
	out := make([]string, len(argv))
	replaced := false
	for i, a := range argv {
		if strings.Contains(a, FileToken) {
			out[i] = strings.ReplaceAll(a, FileToken, file)
			replaced = true
		} else {
			out[i] = a
		}
	}
	if !replaced {
		out = append(out, file)
	}
	return out
}

func (e *Engine) runOne(ctx context.Context, inv invocation) RunResult {
	rr := RunResult{
		Linter:   inv.linter,
		Language: inv.language,
		File:     inv.file,
		Files:    inv.files,
	}

	res, err := e.Runner.Run(ctx, inv.argv)
	if err != nil {
		rr.ExitCode = ExitNotFound
		rr.Err = err.Error()
		return rr
	}

	rr.ExitCode = res.ExitCode
	rr.Stdout = res.Stdout
	rr.Stderr = res.Stderr
	rr.Truncated = res.Truncated
	return rr
}
