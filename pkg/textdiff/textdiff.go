// Package textdiff produces human-readable unified-style diffs for the run
// narration. The output is display-only; nothing ever applies it.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is how many unchanged lines are kept around each change.
const contextLines = 3

// Unified renders the line-level differences between before and after as a
// unified-style patch for path. It returns "" when the inputs are identical.
func Unified(before, after, path string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)

	for i, d := range diffs {
		lines := splitKeepNonEmpty(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			writePrefixed(&sb, "-", lines)
		case diffmatchpatch.DiffInsert:
			writePrefixed(&sb, "+", lines)
		case diffmatchpatch.DiffEqual:
			writePrefixed(&sb, " ", trimContext(lines, i == 0, i == len(diffs)-1))
		}
	}
	return sb.String()
}

// trimContext elides the middle of long unchanged runs, keeping only the
// lines adjacent to changes.
func trimContext(lines []string, atStart, atEnd bool) []string {
	keepBefore, keepAfter := contextLines, contextLines
	if atStart {
		keepBefore = 0
	}
	if atEnd {
		keepAfter = 0
	}
	if len(lines) <= keepBefore+keepAfter+1 {
		return lines
	}

	var out []string
	if keepBefore > 0 {
		out = append(out, lines[:keepBefore]...)
	}
	out = append(out, fmt.Sprintf("... %d unchanged lines ...", len(lines)-keepBefore-keepAfter))
	if keepAfter > 0 {
		out = append(out, lines[len(lines)-keepAfter:]...)
	}
	return out
}

func writePrefixed(sb *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

func splitKeepNonEmpty(text string) []string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}
