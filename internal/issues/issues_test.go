package issues

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeIssuesFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "issues.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("writing issues file: %v", err)
	}
	return path
}

func TestFileSource_Get(t *testing.T) {
	path := writeIssuesFile(t,
		`{"instance_id": "repo__a-1", "problem_statement": "first bug", "repo": "owner/a"}`,
		`{"instance_id": "repo__b-2", "problem_statement": "second bug"}`,
	)

	issue, err := NewFileSource(path).Get(context.Background(), "repo__b-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if issue.InstanceID != "repo__b-2" || issue.ProblemStatement != "second bug" {
		t.Errorf("unexpected issue: %+v", issue)
	}
}

func TestFileSource_NotFound(t *testing.T) {
	path := writeIssuesFile(t,
		`{"instance_id": "repo__a-1", "problem_statement": "first bug"}`,
	)

	_, err := NewFileSource(path).Get(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestFileSource_MissingStatement(t *testing.T) {
	path := writeIssuesFile(t,
		`{"instance_id": "repo__a-1"}`,
	)

	_, err := NewFileSource(path).Get(context.Background(), "repo__a-1")
	if err == nil || !strings.Contains(err.Error(), "problem statement") {
		t.Errorf("expected missing-statement error, got %v", err)
	}
}

func TestFileSource_SkipsBlankLines(t *testing.T) {
	path := writeIssuesFile(t,
		``,
		`{"instance_id": "repo__a-1", "problem_statement": "bug"}`,
		``,
	)

	if _, err := NewFileSource(path).Get(context.Background(), "repo__a-1"); err != nil {
		t.Errorf("blank lines should be skipped: %v", err)
	}
}

func TestParseRef(t *testing.T) {
	owner, repo, number, err := parseRef("octocat/hello#42")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if owner != "octocat" || repo != "hello" || number != 42 {
		t.Errorf("got %s/%s#%d", owner, repo, number)
	}

	for _, bad := range []string{"octocat/hello", "hello#42", "octocat/hello#zero", "octocat/hello#-1"} {
		if _, _, _, err := parseRef(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
