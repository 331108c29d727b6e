package feedback

import (
	"reflect"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Retry policy
// ---------------------------------------------------------------------------

func TestShouldRetry_Boundary(t *testing.T) {
	loop := NewLoop(3)

	cases := []struct {
		attempt int
		want    bool
	}{
		{0, true},
		{1, true},
		{2, true},
		{3, false},
		{4, false},
	}
	for _, tc := range cases {
		if got := loop.ShouldRetry(tc.attempt); got != tc.want {
			t.Errorf("ShouldRetry(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestNewLoop_DefaultCeiling(t *testing.T) {
	loop := NewLoop(0)
	if loop.ShouldRetry(DefaultMaxAttempts) {
		t.Error("default ceiling should stop at DefaultMaxAttempts")
	}
	if !loop.ShouldRetry(DefaultMaxAttempts - 1) {
		t.Error("default ceiling should allow attempts below the maximum")
	}
}

// ---------------------------------------------------------------------------
// Analysis
// ---------------------------------------------------------------------------

func TestAnalyze_NameError(t *testing.T) {
	loop := NewLoop(3)
	a := loop.Analyze("Traceback...\nNameError: name 'x' is not defined")

	if a.ErrorType != "NameError" {
		t.Errorf("ErrorType = %q, want NameError", a.ErrorType)
	}
	if !strings.Contains(a.ErrorMessage, "not defined") {
		t.Errorf("ErrorMessage = %q", a.ErrorMessage)
	}
	found := false
	for _, s := range a.Suggestions {
		if strings.Contains(s, "undefined variables or missing imports") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing undefined-name suggestion: %v", a.Suggestions)
	}
}

func TestAnalyze_FailedLine(t *testing.T) {
	loop := NewLoop(3)
	a := loop.Analyze("File \"app.py\", line 42, in f\nTypeError: bad operand")
	if a.FailedLine != 42 {
		t.Errorf("FailedLine = %d, want 42", a.FailedLine)
	}
}

func TestAnalyze_DjangoFallbackForUnmappedKind(t *testing.T) {
	loop := NewLoop(3)
	a := loop.Analyze("ImproperlyConfiguredError: Django settings module is missing")

	found := false
	for _, s := range a.Suggestions {
		if strings.Contains(s, "Django settings") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Django fallback suggestion, got %v", a.Suggestions)
	}
}

func TestAnalyze_KindSuggestionSuppressesDjangoFallback(t *testing.T) {
	loop := NewLoop(3)
	a := loop.Analyze("TypeError: Django model got an unexpected keyword argument")

	for _, s := range a.Suggestions {
		if strings.Contains(s, "Django settings") {
			t.Errorf("Django fallback should not fire alongside a kind suggestion: %v", a.Suggestions)
		}
	}
	if len(a.Suggestions) == 0 || !strings.Contains(a.Suggestions[0], "type compatibility") {
		t.Errorf("expected the TypeError suggestion, got %v", a.Suggestions)
	}
}

func TestAnalyze_TestFailureMarker(t *testing.T) {
	loop := NewLoop(3)
	a := loop.Analyze("FAILED tests/test_x.py::test_save")
	if a.ErrorType != "TestFailure" {
		t.Errorf("ErrorType = %q, want TestFailure", a.ErrorType)
	}
}

func TestAnalyze_NoMatchYieldsEmptyAnalysis(t *testing.T) {
	loop := NewLoop(3)
	a := loop.Analyze("everything looks fine")
	if a.ErrorType != "" || a.ErrorMessage != "" || a.FailedLine != 0 || a.Suggestions != nil {
		t.Errorf("expected empty analysis, got %+v", a)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	loop := NewLoop(3)
	transcript := "ValueError: bad value at line 7"
	first := loop.Analyze(transcript)
	second := loop.Analyze(transcript)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("analysis not idempotent: %+v vs %+v", first, second)
	}
}

func TestAnalyze_RepeatedErrorSuggestion(t *testing.T) {
	loop := NewLoop(3)
	loop.RecordAttempt(1, "app.py", "code", "TypeError: unsupported operand", false)

	a := loop.Analyze("TypeError: unsupported operand")

	found := false
	for _, s := range a.Suggestions {
		if strings.Contains(s, "Same error repeating") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected repeated-error suggestion, got %v", a.Suggestions)
	}
}

func TestAnalyze_DifferentErrorNoRepetitionSignal(t *testing.T) {
	loop := NewLoop(3)
	loop.RecordAttempt(1, "app.py", "code", "TypeError: unsupported operand", false)

	a := loop.Analyze("NameError: name 'y' is not defined")

	for _, s := range a.Suggestions {
		if strings.Contains(s, "Same error repeating") {
			t.Errorf("unexpected repetition signal: %v", a.Suggestions)
		}
	}
}

// ---------------------------------------------------------------------------
// Attempt records
// ---------------------------------------------------------------------------

func TestRecordAttempt_TruncatesCodePreview(t *testing.T) {
	loop := NewLoop(3)
	loop.RecordAttempt(1, "a.py", strings.Repeat("x", 2*CodePreviewLen), "err", false)

	history := loop.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(history))
	}
	if len(history[0].CodeApplied) != CodePreviewLen {
		t.Errorf("code preview length = %d, want %d", len(history[0].CodeApplied), CodePreviewLen)
	}
}

func TestSummary(t *testing.T) {
	loop := NewLoop(3)
	if got := loop.Summary(); got != "No attempts made yet" {
		t.Errorf("empty summary = %q", got)
	}

	loop.RecordAttempt(1, "a.py", "code", "err", false)
	loop.RecordAttempt(2, "a.py", "code", "", true)

	summary := loop.Summary()
	if !strings.Contains(summary, "Total attempts: 2") {
		t.Errorf("summary missing total: %q", summary)
	}
	if !strings.Contains(summary, "✗ Attempt 1") || !strings.Contains(summary, "✓ Attempt 2") {
		t.Errorf("summary missing attempt lines: %q", summary)
	}
}

// ---------------------------------------------------------------------------
// Retry prompt
// ---------------------------------------------------------------------------

func TestBuildRetryPrompt_Content(t *testing.T) {
	loop := NewLoop(3)
	loop.RecordAttempt(1, "app.py", "old code", "TypeError: first failure", false)

	issue := strings.Repeat("i", 2*MaxIssuePreview)
	file := strings.Repeat("f", 2*MaxFilePreview)
	errOut := strings.Repeat("e", MaxErrorTail) + "TAIL-MARKER"

	prompt := loop.BuildRetryPrompt(issue, file, "app.py", errOut)

	if strings.Contains(prompt, issue) {
		t.Error("issue text should be truncated")
	}
	if strings.Contains(prompt, file) {
		t.Error("file content should be truncated")
	}
	if !strings.Contains(prompt, "TAIL-MARKER") {
		t.Error("error tail should keep the end of the transcript")
	}
	if !strings.Contains(prompt, "Do NOT repeat the same fix") {
		t.Error("prompt should forbid repeating the fix")
	}
	if !strings.Contains(prompt, "Previous Attempts") {
		t.Error("prompt should digest previous attempts")
	}
	if !strings.Contains(prompt, "app.py") {
		t.Error("prompt should name the file")
	}
}

func TestBuildRetryPrompt_IncludesAnalysis(t *testing.T) {
	loop := NewLoop(3)
	prompt := loop.BuildRetryPrompt("issue", "code", "a.py", "NameError: name 'q' is not defined")

	if !strings.Contains(prompt, "Type: NameError") {
		t.Errorf("prompt missing analysis type:\n%s", prompt)
	}
	if !strings.Contains(prompt, "undefined variables or missing imports") {
		t.Errorf("prompt missing suggestion:\n%s", prompt)
	}
}
