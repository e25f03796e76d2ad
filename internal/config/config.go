// Package config loads and validates the .autolint.yml configuration,
// falling back to the built-in default when a target has none.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Well-known file names looked up in the target directory.
const (
	ConfFileName   = ".autolint.yml"
	IgnoreFileName = ".lintignore"
)

// Default values for runner configuration.
const (
	DefaultTimeout   = 2 * time.Minute // per linter invocation
	DefaultMaxOutput = 1 << 20         // 1 MB per captured stream
)

//go:embed default.yml
var defaultConf []byte

// RunMode selects how a linter is dispatched over its files.
type RunMode string

const (
	// ModeFile runs the linter once per file.
	ModeFile RunMode = "file"
	// ModeBatch runs the linter once with all files appended.
	ModeBatch RunMode = "batch"
)

// Config holds the parsed .autolint.yml configuration.
type Config struct {
	Version      int                 `yaml:"version"`
	RawTimeout   string              `yaml:"timeout"`    // e.g. "2m", "30s"
	RawMaxOutput int                 `yaml:"max_output"` // bytes per stream
	Langs        map[string]Language `yaml:"langs"`
	Linters      map[string]Linter   `yaml:"linters"`
}

// Language maps include patterns to the linters that run on matching files.
type Language struct {
	Include []string `yaml:"include"` // doublestar globs, e.g. "**/*.py"
	Linters []string `yaml:"linters"` // keys into Config.Linters
}

// Linter describes how to invoke one external linter binary.
type Linter struct {
	Cmd     string   `yaml:"cmd"`    // binary name or shell-style command string
	Flags   []string `yaml:"flags"`  // extra arguments appended after cmd
	RawMode string   `yaml:"runner"` // "file" (default) or "batch"
}

// Timeout returns the configured per-invocation timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured per-stream output cap or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// LanguageNames returns the configured language names in sorted order,
// so dispatch order is stable across runs.
func (c *Config) LanguageNames() []string {
	names := make([]string, 0, len(c.Langs))
	for name := range c.Langs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mode returns the linter's run mode, defaulting to per-file dispatch.
func (l *Linter) Mode() RunMode {
	if l.RawMode == "" {
		return ModeFile
	}
	return RunMode(l.RawMode)
}

// Argv builds the invocation prefix for the linter: the cmd string split
// with shell quoting rules, followed by the configured flags. File paths
// are substituted or appended later by the dispatcher.
func (l *Linter) Argv() ([]string, error) {
	argv, err := shlex.Split(l.Cmd)
	if err != nil {
		return nil, fmt.Errorf("splitting cmd %q: %w", l.Cmd, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty cmd")
	}
	return append(argv, l.Flags...), nil
}

// Validate checks the configuration for structural problems and reports
// all of them at once. A non-nil error means the run must not dispatch.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.RawTimeout != "" {
		if d, err := time.ParseDuration(c.RawTimeout); err != nil || d <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("invalid timeout %q", c.RawTimeout))
		}
	}
	if c.RawMaxOutput < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max_output must be >= 0, got %d", c.RawMaxOutput))
	}

	for _, name := range c.LanguageNames() {
		lang := c.Langs[name]
		if len(lang.Include) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("language %s: no include patterns", name))
		}
		if len(lang.Linters) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("language %s: no linters specified", name))
		}
		for _, ln := range lang.Linters {
			if _, ok := c.Linters[ln]; !ok {
				errs = multierror.Append(errs, fmt.Errorf("language %s: linter %s is not defined", name, ln))
			}
		}
	}

	linterNames := make([]string, 0, len(c.Linters))
	for name := range c.Linters {
		linterNames = append(linterNames, name)
	}
	sort.Strings(linterNames)
	for _, name := range linterNames {
		linter := c.Linters[name]
		if _, err := linter.Argv(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("linter %s: %w", name, err))
		}
		switch linter.Mode() {
		case ModeFile, ModeBatch:
		default:
			errs = multierror.Append(errs, fmt.Errorf("linter %s: unknown runner %q", name, linter.RawMode))
		}
	}

	return errs.ErrorOrNil()
}

// Default returns the built-in configuration shipped with autolint.
func Default() *Config {
	cfg := &Config{}
	// The embedded file is covered by tests; a parse failure here is a bug.
	if err := yaml.Unmarshal(defaultConf, cfg); err != nil {
		panic(fmt.Sprintf("built-in config: %v", err))
	}
	return cfg
}

// DefaultYAML returns the raw built-in configuration file.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultConf))
	copy(out, defaultConf)
	return out
}

// Load resolves and parses the configuration for a target directory.
// An explicit path must exist; otherwise <target>/.autolint.yml is used
// when present, and the built-in default when not. The returned config
// has been validated.
func Load(target, explicit string) (*Config, error) {
	var cfg *Config
	if explicit != "" {
		data, err := os.ReadFile(explicit)
		if err != nil {
			return nil, fmt.Errorf("reading configuration %s: %w", explicit, err)
		}
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing configuration %s: %w", explicit, err)
		}
	} else {
		path := filepath.Join(target, ConfFileName)
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			cfg = Default()
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		default:
			cfg = &Config{}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
