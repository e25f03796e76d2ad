package lint

import (
	"fmt"
	"strings"
)

// Tree renders the run as a language → linter → file hierarchy, with
// the captured output of each non-clean invocation indented beneath
// its file, and per-linter and overall tallies.
func (r *Result) Tree() string {
	var b strings.Builder

	lang, linter := "", ""
	linterFiles, linterFindings := 0, 0
	totalFiles, totalFindings := 0, 0

	flushLinter := func() {
		if linter == "" {
			return
		}
		fmt.Fprintf(&b, "\t%s: checked %d files, %d with findings\n", linter, linterFiles, linterFindings)
		totalFiles += linterFiles
		totalFindings += linterFindings
		linterFiles, linterFindings = 0, 0
	}

	for i := range r.Runs {
		run := &r.Runs[i]
		if run.Language != lang {
			flushLinter()
			linter = ""
			lang = run.Language
			fmt.Fprintf(&b, "%s\n", lang)
		}
		if run.Linter != linter {
			flushLinter()
			linter = run.Linter
			fmt.Fprintf(&b, "\t%s\n", linter)
		}

		name := run.File
		if name == "" {
			name = fmt.Sprintf("(%d files)", run.Files)
		}

		switch {
		case run.Err != "":
			fmt.Fprintf(&b, "\t\t%s\n\t\t\t%s\n", name, run.Err)
			linterFindings += run.Files
		case run.ExitCode != 0:
			fmt.Fprintf(&b, "\t\t%s\n", name)
			writeIndented(&b, run.Stdout)
			writeIndented(&b, run.Stderr)
			linterFindings += run.Files
		default:
			fmt.Fprintf(&b, "\t\t%s\n", name)
		}
		linterFiles += run.Files
	}
	flushLinter()

	fmt.Fprintf(&b, "Checked %d files, %d with findings\n", totalFiles, totalFindings)
	return b.String()
}

func writeIndented(b *strings.Builder, out []byte) {
	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(b, "\t\t\t%s\n", line)
	}
}
