// Package ignore filters discovered files through a .lintignore file,
// which follows gitignore pattern syntax.
package ignore

import (
	"fmt"
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/deixis/autolint/internal/config"
)

// Matcher reports whether a target-relative path is ignored.
// A nil Matcher ignores nothing.
type Matcher struct {
	spec *gitignore.GitIgnore
}

// Match reports whether relpath is excluded from linting.
func (m *Matcher) Match(relpath string) bool {
	if m == nil || m.spec == nil {
		return false
	}
	return m.spec.MatchesPath(relpath)
}

// Load resolves the ignore file for a target directory.
// An explicit path must exist; otherwise <target>/.lintignore is used
// when present. A nil Matcher is returned when there is nothing to apply.
func Load(target, explicit string) (*Matcher, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(target, config.IgnoreFileName)
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}

	spec, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ignore file %s: %w", path, err)
	}
	return &Matcher{spec: spec}, nil
}
