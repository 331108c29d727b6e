package textdiff

import (
	"strings"
	"testing"
)

func TestUnified_IdenticalInputs(t *testing.T) {
	if got := Unified("same\n", "same\n", "a.py"); got != "" {
		t.Errorf("expected empty diff, got %q", got)
	}
}

func TestUnified_ShowsChange(t *testing.T) {
	before := "def f():\n    return 1\n"
	after := "def f():\n    return 2\n"

	diff := Unified(before, after, "app/models.py")

	if !strings.Contains(diff, "--- a/app/models.py") || !strings.Contains(diff, "+++ b/app/models.py") {
		t.Errorf("missing header: %q", diff)
	}
	if !strings.Contains(diff, "-    return 1") {
		t.Errorf("missing deletion: %q", diff)
	}
	if !strings.Contains(diff, "+    return 2") {
		t.Errorf("missing insertion: %q", diff)
	}
	if !strings.Contains(diff, " def f():") {
		t.Errorf("missing context line: %q", diff)
	}
}

func TestUnified_ElidesLongUnchangedRuns(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("line\n")
	}
	before := "first\n" + sb.String() + "old\n"
	after := "first\n" + sb.String() + "new\n"

	diff := Unified(before, after, "x.py")

	if !strings.Contains(diff, "unchanged lines") {
		t.Errorf("expected elision marker: %q", diff)
	}
	if strings.Count(diff, " line\n") > 2*contextLines {
		t.Errorf("too many context lines kept:\n%s", diff)
	}
}

func TestUnified_PureFunction(t *testing.T) {
	before, after := "a\nb\n", "a\nc\n"
	first := Unified(before, after, "p.py")
	second := Unified(before, after, "p.py")
	if first != second {
		t.Error("diff output should be deterministic")
	}
}
