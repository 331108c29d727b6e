// Package extract pulls structured fragments out of free-form text: fenced
// code blocks and path-like tokens from LLM output, and error markers from
// execution transcripts. It also validates that extracted Python code parses.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var (
	pythonBlockRe  = regexp.MustCompile("(?s)```python\\s*\\n(.*?)```")
	genericBlockRe = regexp.MustCompile("(?s)```\\w*\\s*\\n(.*?)```")

	// filePathRe matches Python file tokens such as "app/models.py",
	// "django/db/models/fields.py", or "/testbed/django/forms/widgets.py".
	// The optional leading slash keeps absolute sandbox paths in one token so
	// they can be normalized below.
	filePathRe = regexp.MustCompile(`/?[A-Za-z0-9_][A-Za-z0-9_./-]*\.py\b`)

	// exceptionRe matches Python exception headers like
	// "NameError: x is not defined".
	exceptionRe = regexp.MustCompile(`\b[A-Z][A-Za-z]*(?:Error|Exception)\b(?::[^\n]*)?`)
)

// Code returns the contents of the first fenced Python code block in the
// LLM output, or "" when no block is present. Callers must treat "" as
// "nothing extracted", which is distinct from a legitimately empty file.
func Code(output string) string {
	if m := pythonBlockRe.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	if m := genericBlockRe.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	return ""
}

// FilePaths returns path-like Python file tokens from text, in first-seen
// order with duplicates removed. Absolute /testbed paths are normalized to
// repo-relative form.
func FilePaths(text string) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, tok := range filePathRe.FindAllString(text, -1) {
		tok = strings.TrimPrefix(tok, "/testbed/")
		tok = strings.TrimPrefix(tok, "/")
		tok = strings.TrimPrefix(tok, "./")
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		paths = append(paths, tok)
	}
	return paths
}

// ErrorMessages scans a transcript for recognizable failure markers:
// exception headers, assertion failures, traceback banners, and lines
// beginning with "FAILED". The same scanner feeds both the reproduction
// check (markers confirm the bug) and verification (markers reject the fix).
func ErrorMessages(output string) []string {
	var msgs []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Traceback (most recent call last)"):
			msgs = append(msgs, trimmed)
		case strings.HasPrefix(trimmed, "FAILED"):
			msgs = append(msgs, trimmed)
		case exceptionRe.MatchString(trimmed):
			msgs = append(msgs, exceptionRe.FindString(trimmed))
		}
	}
	return msgs
}

// ValidateSyntax parses code as Python without executing it. It returns
// (true, "") for well-formed code, otherwise (false, detail) where detail
// names the line of the first parse error.
func ValidateSyntax(code string) (bool, string) {
	if strings.TrimSpace(code) == "" {
		return false, "empty code"
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(code))
	if err != nil {
		return false, fmt.Sprintf("parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return true, ""
	}
	if bad := firstErrorNode(root); bad != nil {
		return false, fmt.Sprintf("syntax error at line %d", bad.StartPoint().Row+1)
	}
	return false, "syntax error"
}

// firstErrorNode walks the tree depth-first and returns the first ERROR or
// missing node.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		if bad := firstErrorNode(child); bad != nil {
			return bad
		}
	}
	return nil
}
