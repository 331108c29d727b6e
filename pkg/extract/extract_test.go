package extract

import (
	"reflect"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Code
// ---------------------------------------------------------------------------

func TestCode_PythonBlock(t *testing.T) {
	output := "Here is the fix:\n```python\nprint('hi')\n```\nDone."
	got := Code(output)
	if got != "print('hi')\n" {
		t.Errorf("unexpected code: %q", got)
	}
}

func TestCode_FirstBlockWins(t *testing.T) {
	output := "```python\nfirst = 1\n```\nand\n```python\nsecond = 2\n```"
	got := Code(output)
	if !strings.Contains(got, "first") || strings.Contains(got, "second") {
		t.Errorf("expected first block only, got %q", got)
	}
}

func TestCode_GenericFenceFallback(t *testing.T) {
	output := "```\nx = 1\n```"
	if got := Code(output); got != "x = 1\n" {
		t.Errorf("unexpected code: %q", got)
	}
}

func TestCode_NoBlock(t *testing.T) {
	if got := Code("no code here, sorry"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// FilePaths
// ---------------------------------------------------------------------------

func TestFilePaths_FindsLiteralPath(t *testing.T) {
	text := "The bug is in app/models.py when saving."
	got := FilePaths(text)
	want := []string{"app/models.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilePaths_OrderedUnique(t *testing.T) {
	text := "see a/b.py then c/d.py then a/b.py again"
	got := FilePaths(text)
	want := []string{"a/b.py", "c/d.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilePaths_StripsTestbedPrefix(t *testing.T) {
	got := FilePaths("error in /testbed/django/forms/widgets.py line 12")
	want := []string{"django/forms/widgets.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilePaths_TrimsLeadingSlash(t *testing.T) {
	got := FilePaths("crash in /opt/app/tasks.py during run")
	want := []string{"opt/app/tasks.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilePaths_None(t *testing.T) {
	if got := FilePaths("nothing that looks like a path"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// ErrorMessages
// ---------------------------------------------------------------------------

func TestErrorMessages_Exception(t *testing.T) {
	out := "Traceback (most recent call last):\n  File \"x.py\", line 3\nNameError: name 'x' is not defined"
	msgs := ErrorMessages(out)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 markers, got %v", msgs)
	}
	if !strings.Contains(msgs[1], "NameError") {
		t.Errorf("expected NameError marker, got %q", msgs[1])
	}
}

func TestErrorMessages_FailedLines(t *testing.T) {
	out := "collected 3 items\nFAILED tests/test_api.py::test_save\n2 passed"
	msgs := ErrorMessages(out)
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "FAILED") {
		t.Fatalf("expected one FAILED marker, got %v", msgs)
	}
}

func TestErrorMessages_CleanOutput(t *testing.T) {
	if msgs := ErrorMessages("all checks passed\nbye"); len(msgs) != 0 {
		t.Errorf("expected no markers, got %v", msgs)
	}
}

// ---------------------------------------------------------------------------
// ValidateSyntax
// ---------------------------------------------------------------------------

func TestValidateSyntax_Valid(t *testing.T) {
	ok, detail := ValidateSyntax("def f(x):\n    return x + 1\n")
	if !ok {
		t.Errorf("expected valid, got %q", detail)
	}
}

func TestValidateSyntax_Invalid(t *testing.T) {
	ok, detail := ValidateSyntax("def f(:\n    return\n")
	if ok {
		t.Error("expected invalid")
	}
	if detail == "" {
		t.Error("expected a detail message")
	}
}

func TestValidateSyntax_Empty(t *testing.T) {
	if ok, _ := ValidateSyntax("   \n"); ok {
		t.Error("expected empty code to be invalid")
	}
}
