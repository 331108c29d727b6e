// Package feedback tracks fix attempts within a single agent run and turns
// failing transcripts into structured analysis and enriched retry prompts.
package feedback

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultMaxAttempts is the retry ceiling when none is configured.
const DefaultMaxAttempts = 3

// Truncation bounds. Prompt size must stay bounded regardless of file or
// transcript size; these are a deliberate lossy-compression policy.
const (
	// CodePreviewLen bounds the applied-code preview kept per attempt.
	CodePreviewLen = 500
	// MaxIssuePreview bounds the issue text embedded in retry prompts.
	MaxIssuePreview = 1000
	// MaxFilePreview bounds the failing file content embedded in retry prompts.
	MaxFilePreview = 10000
	// MaxErrorTail bounds the error transcript, taken from the end where the
	// relevant diagnostic usually is.
	MaxErrorTail = 1500
	// BriefErrorLen bounds the per-attempt error digest.
	BriefErrorLen = 200
)

// Attempt is one recorded fix attempt. Records are append-only and live only
// for the duration of one run.
type Attempt struct {
	Number      int
	FilePath    string
	CodeApplied string // truncated to CodePreviewLen
	ErrorOutput string
	Success     bool
	At          time.Time
}

// Analysis is the fixed-shape result of classifying one error transcript.
// Empty ErrorType means no rule matched; FailedLine 0 means no line found.
type Analysis struct {
	ErrorType    string
	ErrorMessage string
	FailedLine   int
	Suggestions  []string
}

// rule maps a transcript pattern to an error kind. The first capture group
// supplies the kind when kind is empty; otherwise the kind is fixed and the
// first group supplies the message.
type rule struct {
	pattern *regexp.Regexp
	kind    string
}

// errorRules is the ordered classification table; first match wins.
var errorRules = []rule{
	{pattern: regexp.MustCompile(`(\w+Error): (.+)`)},
	{pattern: regexp.MustCompile(`AssertionError: (.+)`), kind: "AssertionError"},
	{pattern: regexp.MustCompile(`FAILED (.+)`), kind: "TestFailure"},
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// suggestionsByKind maps recognized error kinds to remediation hints.
var suggestionsByKind = map[string]string{
	"NameError":           "Check for undefined variables or missing imports",
	"AttributeError":      "Verify the object has the expected attributes/methods",
	"TypeError":           "Check function arguments and type compatibility",
	"ImportError":         "Verify import paths and module availability",
	"ModuleNotFoundError": "Verify import paths and module availability",
	"SyntaxError":         "Review code syntax and indentation",
	"AssertionError":      "The fix didn't achieve the expected behavior - review the logic",
}

// Loop retains bounded attempt history for one run and decides whether and
// how to retry.
type Loop struct {
	maxAttempts int
	history     []Attempt
}

// NewLoop creates a Loop. maxAttempts <= 0 selects DefaultMaxAttempts.
func NewLoop(maxAttempts int) *Loop {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Loop{maxAttempts: maxAttempts}
}

// RecordAttempt appends one attempt record. The applied code is truncated to
// CodePreviewLen to keep memory and prompt size bounded.
func (l *Loop) RecordAttempt(number int, filePath, codeApplied, errorOutput string, success bool) {
	l.history = append(l.history, Attempt{
		Number:      number,
		FilePath:    filePath,
		CodeApplied: truncate(codeApplied, CodePreviewLen),
		ErrorOutput: errorOutput,
		Success:     success,
		At:          time.Now(),
	})
}

// ShouldRetry reports whether another attempt is allowed after currentAttempt.
func (l *Loop) ShouldRetry(currentAttempt int) bool {
	return currentAttempt < l.maxAttempts
}

// History returns the recorded attempts in order.
func (l *Loop) History() []Attempt { return l.history }

// Analyze classifies an error transcript. It is pure with respect to the
// transcript: the same input always yields the same classification. The only
// history-dependent part is the repeated-error suggestion, which compares the
// new kind against the immediately preceding attempt's transcript.
func (l *Loop) Analyze(errorOutput string) Analysis {
	var a Analysis

	for _, r := range errorRules {
		m := r.pattern.FindStringSubmatch(errorOutput)
		if m == nil {
			continue
		}
		if r.kind == "" {
			a.ErrorType, a.ErrorMessage = m[1], m[2]
		} else {
			a.ErrorType, a.ErrorMessage = r.kind, m[1]
		}
		break
	}

	if m := lineRe.FindStringSubmatch(errorOutput); m != nil {
		fmt.Sscanf(m[1], "%d", &a.FailedLine)
	}

	if a.ErrorType != "" {
		a.Suggestions = l.suggestions(a)
	}
	return a
}

// suggestions derives remediation hints for a classified error, including
// the anti-repetition signal when the same kind showed up in the previous
// attempt's transcript.
func (l *Loop) suggestions(a Analysis) []string {
	var out []string
	if s, ok := suggestionsByKind[a.ErrorType]; ok {
		out = append(out, s)
	} else if strings.Contains(a.ErrorMessage, "Django") {
		// Framework fallback for kinds the table does not cover.
		out = append(out, "Ensure Django settings are properly configured")
	}

	if n := len(l.history); n > 0 {
		prev := l.history[n-1]
		if a.ErrorType != "" && strings.Contains(prev.ErrorOutput, a.ErrorType) {
			out = append(out, "CRITICAL: Same error repeating - try a different approach")
		}
	}
	return out
}

// BuildRetryPrompt composes the enriched prompt for the next fix attempt:
// truncated issue, truncated failing file, the tail of the current error,
// the structured analysis, and a digest of the last two attempts. It
// explicitly steers the model away from resubmitting the same fix.
func (l *Loop) BuildRetryPrompt(issue, fileContent, filePath, currentError string) string {
	analysis := l.Analyze(currentError)

	var sb strings.Builder
	fmt.Fprintf(&sb, `You are debugging a fix that FAILED. Learn from the error and try a different approach.

Original Issue:
%s

File: %s

Current Code (that failed):
`+"```python\n%s\n```"+`

VERIFICATION FAILED with this error:
`+"```\n%s\n```"+`

Error Analysis:
- Type: %s
- Message: %s
`,
		truncate(issue, MaxIssuePreview),
		filePath,
		truncate(fileContent, MaxFilePreview),
		tail(currentError, MaxErrorTail),
		orUnknown(analysis.ErrorType, "Unknown"),
		orUnknown(analysis.ErrorMessage, "See above"),
	)

	if analysis.FailedLine > 0 {
		fmt.Fprintf(&sb, "- Failed at line: %d\n", analysis.FailedLine)
	}

	if len(analysis.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range analysis.Suggestions {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}

	if len(l.history) > 0 {
		fmt.Fprintf(&sb, "\n**Previous Attempts**: %d failed\n", len(l.history))
		start := len(l.history) - 2
		if start < 0 {
			start = 0
		}
		for _, att := range l.history[start:] {
			fmt.Fprintf(&sb, "  Attempt %d: %s\n", att.Number, briefError(att.ErrorOutput))
		}
	}

	sb.WriteString(`
Your Task:
1. Carefully review the error and understand why the previous fix failed
2. Think about what needs to change differently
3. Provide a COMPLETE fixed version of the file

**IMPORTANT:**
- Do NOT repeat the same fix that just failed
- Try a fundamentally different approach if needed
- Ensure all syntax is correct
- Provide the ENTIRE file content

Output Format:
First explain what you're changing differently this time (3-4 sentences).

Then provide the complete fixed code in a ` + "```python" + ` block.
`)

	return sb.String()
}

// Summary returns a one-line-per-attempt digest of the run so far.
func (l *Loop) Summary() string {
	if len(l.history) == 0 {
		return "No attempts made yet"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total attempts: %d\n", len(l.history))
	for _, att := range l.history {
		status := "✗"
		if att.Success {
			status = "✓"
		}
		fmt.Fprintf(&sb, "%s Attempt %d: %s\n", status, att.Number, att.FilePath)
	}
	return sb.String()
}

// briefError reduces a transcript to its most informative short line: the
// last line of the truncated head.
func briefError(errorOutput string) string {
	head := truncate(errorOutput, BriefErrorLen)
	lines := strings.Split(head, "\n")
	return lines[len(lines)-1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// tail keeps the last n bytes of s; diagnostics cluster at the end.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
