// Package discover walks a target directory and classifies the files
// found into the languages named by the configuration.
package discover

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/karrick/godirwalk"

	"github.com/deixis/autolint/internal/config"
	"github.com/deixis/autolint/internal/ignore"
)

// Files returns every regular file under target as a target-relative
// slash path, skipping .git and anything the ignore matcher excludes.
func Files(target string, m *ignore.Matcher) ([]string, error) {
	var files []string
	err := godirwalk.Walk(target, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if de.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			if !de.IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(target, osPathname)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if m.Match(rel) {
				return nil
			}
			files = append(files, rel)
			return nil
		},
		Unsorted: true, // sorted below, after filtering
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", target, err)
	}
	sort.Strings(files)
	return files, nil
}

// Classify groups files by language using the configured include globs.
// Languages with no matching files are omitted. File lists keep the
// sorted order of the input and contain no duplicates.
func Classify(cfg *config.Config, files []string) map[string][]string {
	out := make(map[string][]string)
	for _, lang := range cfg.LanguageNames() {
		var matched []string
		for _, f := range files {
			if matchesAny(cfg.Langs[lang].Include, f) {
				matched = append(matched, f)
			}
		}
		if len(matched) > 0 {
			out[lang] = matched
		}
	}
	return out
}

// matchesAny reports whether the path matches one of the patterns.
// Patterns are tried against the full relative path and, for patterns
// without a separator, against the base name, so "*.py" reaches files
// in subdirectories.
func matchesAny(patterns []string, relpath string) bool {
	base := filepath.Base(relpath)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, relpath); err == nil && ok {
			return true
		}
		if !containsSeparator(p) {
			if ok, err := doublestar.Match(p, base); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func containsSeparator(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '/' {
			return true
		}
	}
	return false
}
