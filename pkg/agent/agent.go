// Package agent implements the SudoDev orchestrator: a strictly sequential
// state machine that reproduces a reported bug inside a sandbox, locates the
// files to change, asks an LLM for complete replacement files, and verifies
// the fix by re-running the reproduction script. Verification failures feed
// a bounded retry loop with error analysis.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sudodev-ai/sudodev/pkg/console"
	"github.com/sudodev-ai/sudodev/pkg/extract"
	"github.com/sudodev-ai/sudodev/pkg/feedback"
	"github.com/sudodev-ai/sudodev/pkg/llm"
	"github.com/sudodev-ai/sudodev/pkg/model"
	"github.com/sudodev-ai/sudodev/pkg/sandbox"
	"github.com/sudodev-ai/sudodev/pkg/textdiff"
)

// Phase names the state the run is in. Transitions are strictly sequential;
// a failed phase short-circuits to PhaseFailed.
type Phase string

const (
	PhaseInit      Phase = "init"
	PhaseReproduce Phase = "reproduce"
	PhaseLocate    Phase = "locate"
	PhaseFix       Phase = "fix"
	PhaseVerify    Phase = "verify"
	PhaseSuccess   Phase = "success"
	PhaseFailed    Phase = "failed"
)

// Failure taxonomy. Per-file fix problems are logged skips, not errors.
var (
	// ErrGeneration means the model output was unusable: no code block, or
	// code that does not parse.
	ErrGeneration = errors.New("model output unusable")
	// ErrLocate means no candidate files were found by any method.
	ErrLocate = errors.New("no candidate files found")
	// ErrReproduction means the script ran without recognizable failure.
	ErrReproduction = errors.New("could not reproduce the bug")
	// ErrVerification means the script still fails after the fix.
	ErrVerification = errors.New("fix did not resolve the issue")
)

const (
	// ReproScriptName is the fixed filename of the reproduction script at the
	// sandbox repository root.
	ReproScriptName = "reproduce_issue.py"

	// MaxFileChars is the largest file the single-shot full-file rewrite will
	// attempt; larger files are skipped.
	MaxFileChars = 32000

	// MaxTargetFiles bounds the target file set to keep LLM cost and risk low.
	MaxTargetFiles = 3

	// DefaultCommandTimeout bounds each reproduction/verification run.
	DefaultCommandTimeout = 30 * time.Second

	// fileSampleChars bounds the file listing embedded in the reproduction
	// prompt.
	fileSampleChars = 1000

	// diffPreviewChars bounds the diff printed per fixed file.
	diffPreviewChars = 500
)

// Options configures an Agent. The zero value selects all defaults.
type Options struct {
	// CommandTimeout bounds each sandboxed command; defaults to
	// DefaultCommandTimeout.
	CommandTimeout time.Duration
	// MaxAttempts is the fix/verify retry ceiling; defaults to
	// feedback.DefaultMaxAttempts.
	MaxAttempts int
	// Console receives the step narration; defaults to a stdout logger.
	Console *console.Logger
}

// Agent drives one issue-resolution run. It exclusively owns its sandbox
// session for the run's duration; concurrent use is not supported. Separate
// runs are fully independent and may execute in parallel, each with its own
// Agent and Session.
type Agent struct {
	issue *model.Issue
	llm   llm.Client
	sb    sandbox.Session
	loop  *feedback.Loop
	out   *console.Logger

	timeout     time.Duration
	maxAttempts int

	phase       Phase
	reproOutput string
	lastVerify  string
	targetFiles []string
	fixedFiles  []string
	appliedCode map[string]string
	attempts    int
}

// New creates an Agent for one issue. The session must not be started yet;
// the Agent brackets its lifecycle.
func New(issue *model.Issue, client llm.Client, sb sandbox.Session, opts Options) *Agent {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.Console == nil {
		opts.Console = console.New()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = feedback.DefaultMaxAttempts
	}
	return &Agent{
		issue:       issue,
		llm:         client,
		sb:          sb,
		loop:        feedback.NewLoop(opts.MaxAttempts),
		out:         opts.Console,
		timeout:     opts.CommandTimeout,
		maxAttempts: opts.MaxAttempts,
		phase:       PhaseInit,
		appliedCode: make(map[string]string),
	}
}

// Phase returns the phase the run is currently in (terminal after Run).
func (a *Agent) Phase() Phase { return a.phase }

// Attempts returns the number of fix/verify rounds executed.
func (a *Agent) Attempts() int { return a.attempts }

// Summary returns the feedback loop's attempt digest.
func (a *Agent) Summary() string { return a.loop.Summary() }

// Run executes the full pipeline and reports overall success. It never
// panics past this boundary and never leaves the sandbox running: cleanup is
// deferred before any phase executes.
func (a *Agent) Run(ctx context.Context) (ok bool) {
	a.out.Step("INIT", "Starting run for %s", a.issue.InstanceID)

	defer a.sb.Cleanup()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("CRITICAL: agent panicked: %v\n%s", r, debug.Stack())
			a.phase = PhaseFailed
			ok = false
		}
	}()

	if err := a.sb.Start(ctx); err != nil {
		log.Printf("CRITICAL: %v", err)
		a.out.Failure("Could not start sandbox: %v", err)
		a.phase = PhaseFailed
		return false
	}

	if err := a.reproduceBug(ctx); err != nil {
		a.out.Failure("Failed to reproduce the bug. Aborting: %v", err)
		a.phase = PhaseFailed
		return false
	}

	if err := a.locateFiles(ctx); err != nil {
		a.out.Failure("Failed to locate files to fix. Aborting: %v", err)
		a.phase = PhaseFailed
		return false
	}

	if err := a.generateFix(ctx, false); err != nil {
		a.out.Failure("Failed to generate fix. Aborting: %v", err)
		a.phase = PhaseFailed
		return false
	}

	for {
		a.attempts++
		err := a.verifyFix(ctx)
		if err == nil {
			a.recordRound(true)
			a.out.Success("Fix verified successfully")
			a.phase = PhaseSuccess
			return true
		}
		a.out.Failure("Verification failed (attempt %d): %v", a.attempts, err)
		a.recordRound(false)

		if !a.loop.ShouldRetry(a.attempts) {
			break
		}
		a.out.Step("RETRY", "Attempt %d of %d", a.attempts+1, a.maxAttempts)
		if err := a.generateFix(ctx, true); err != nil {
			a.out.Failure("Retry produced no usable fix: %v", err)
			break
		}
	}

	a.out.Raw(a.loop.Summary())
	a.phase = PhaseFailed
	return false
}

// recordRound appends one attempt record per file written in the last fix
// round. A passing verification records no error output; the transcript is
// only an error when the round failed.
func (a *Agent) recordRound(success bool) {
	errOutput := a.lastVerify
	if success {
		errOutput = ""
	}
	for _, f := range a.fixedFiles {
		a.loop.RecordAttempt(a.attempts, f, a.appliedCode[f], errOutput, success)
	}
}

// fileTree returns a bounded, sorted, source-only file listing from the
// sandbox. Sorting before truncation keeps the sample deterministic across
// retries.
func (a *Agent) fileTree(ctx context.Context, maxFiles int) string {
	cmd := fmt.Sprintf(
		"find . -type f -name '*.py'"+
			" ! -path '*/.git/*'"+
			" ! -path '*/__pycache__/*'"+
			" ! -path '*/venv/*'"+
			" ! -path '*/env/*'"+
			" | sort | head -n %d", maxFiles)

	exitCode, output, err := a.sb.RunCommand(ctx, cmd, a.timeout)
	if err != nil || exitCode != 0 {
		return "Error getting file list"
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimPrefix(strings.TrimSpace(line), "./")
		if line != "" {
			files = append(files, line)
		}
	}
	return strings.Join(files, "\n")
}

// reproduceBug generates and runs the reproduction script. The bug counts as
// reproduced when the script exits non-zero, or when its output carries
// recognizable error markers even on a zero exit.
func (a *Agent) reproduceBug(ctx context.Context) error {
	a.phase = PhaseReproduce
	a.out.Step("REPRODUCE", "Generating reproduction script...")

	fileList := a.fileTree(ctx, 100)
	prompt := buildReproducePrompt(
		a.issue.ProblemStatement,
		"Repository files (sample):\n"+truncate(fileList, fileSampleChars),
	)

	response, err := a.llm.GetCompletion(ctx, SystemPrompt, prompt, 0.3, 0)
	if err != nil {
		return fmt.Errorf("reproduction completion: %w", err)
	}

	code := extract.Code(response)
	if code == "" {
		return fmt.Errorf("%w: no code block in response", ErrGeneration)
	}
	if ok, detail := extract.ValidateSyntax(code); !ok {
		return fmt.Errorf("%w: %s", ErrGeneration, detail)
	}

	if err := a.sb.WriteFile(ctx, ReproScriptName, code); err != nil {
		return fmt.Errorf("writing reproduction script: %w", err)
	}
	a.out.Success("Wrote %s", ReproScriptName)

	exitCode, output, err := a.sb.RunCommand(ctx, "python "+ReproScriptName, a.timeout)
	if err != nil {
		return fmt.Errorf("running reproduction script: %w", err)
	}
	a.out.Raw("\nReproduction output:\n" + output)

	if exitCode != 0 {
		a.out.Success("Bug reproduced successfully")
		a.reproOutput = output
		return nil
	}
	if len(extract.ErrorMessages(output)) > 0 {
		a.out.Success("Bug confirmed from output")
		a.reproOutput = output
		return nil
	}
	return ErrReproduction
}

// locateFiles fills the target file set: path tokens embedded in the issue
// text first, an LLM call over a larger listing only as a fallback. The set
// is capped at MaxTargetFiles.
func (a *Agent) locateFiles(ctx context.Context) error {
	a.phase = PhaseLocate
	a.out.Step("LOCATE", "Identifying files to fix...")

	if paths := a.capTargets(extract.FilePaths(a.issue.ProblemStatement)); len(paths) > 0 {
		a.out.Success("Found file hints in issue: %v", paths)
		a.targetFiles = paths
		return nil
	}

	fileTree := a.fileTree(ctx, 150)
	prompt := buildLocatePrompt(a.issue.ProblemStatement, fileTree)

	response, err := a.llm.GetCompletion(ctx, SystemPrompt, prompt, 0.2, 0)
	if err != nil {
		return fmt.Errorf("locate completion: %w", err)
	}

	if paths := a.capTargets(extract.FilePaths(response)); len(paths) > 0 {
		a.out.Success("Identified files to fix: %v", paths)
		a.targetFiles = paths
		return nil
	}
	return ErrLocate
}

// capTargets drops the reproduction script from a candidate list and caps it
// at MaxTargetFiles.
func (a *Agent) capTargets(paths []string) []string {
	var out []string
	for _, p := range paths {
		if p == ReproScriptName {
			continue
		}
		out = append(out, p)
		if len(out) == MaxTargetFiles {
			break
		}
	}
	return out
}

// generateFix processes each target file independently; one file's problems
// never abort the rest. The phase succeeds when at least one file was
// rewritten. On retry rounds the file set narrows to the files written in
// the previous round and prompts come from the feedback loop.
func (a *Agent) generateFix(ctx context.Context, retry bool) error {
	a.phase = PhaseFix

	files := a.targetFiles
	if retry && len(a.fixedFiles) > 0 {
		files = a.fixedFiles
	}
	a.out.Step("FIX", "Generating fixes for %d file(s)...", len(files))

	var fixed []string
	for _, filePath := range files {
		if a.fixOneFile(ctx, filePath, retry) {
			fixed = append(fixed, filePath)
		}
	}

	if len(fixed) == 0 {
		return fmt.Errorf("%w: no file could be fixed", ErrGeneration)
	}
	a.fixedFiles = fixed
	return nil
}

// fixOneFile runs the read-prompt-extract-validate-write sequence for one
// file. Every failure is a logged skip.
func (a *Agent) fixOneFile(ctx context.Context, filePath string, retry bool) bool {
	a.out.Step("FIX", "Processing %s", filePath)

	original, err := a.sb.ReadFile(ctx, filePath)
	if err != nil {
		a.out.Failure("Could not read %s, skipping: %v", filePath, err)
		return false
	}
	if len(original) > MaxFileChars {
		a.out.Failure("File %s too large (%d chars, max %d), skipping", filePath, len(original), MaxFileChars)
		return false
	}

	var prompt string
	if retry {
		prompt = a.loop.BuildRetryPrompt(a.issue.ProblemStatement, original, filePath, a.lastVerify)
	} else {
		prompt = buildFixPrompt(a.issue.ProblemStatement, original, filePath, a.reproOutput)
	}

	response, err := a.llm.GetCompletion(ctx, SystemPrompt, prompt, 0.2, 8192)
	if err != nil {
		a.out.Failure("Completion failed for %s, skipping: %v", filePath, err)
		return false
	}

	fixedCode := extract.Code(response)
	if fixedCode == "" {
		a.out.Failure("No code extracted from LLM response for %s", filePath)
		return false
	}
	if ok, detail := extract.ValidateSyntax(fixedCode); !ok {
		a.out.Failure("Generated fix has syntax errors: %s", detail)
		return false
	}
	if strings.TrimSpace(fixedCode) == strings.TrimSpace(original) {
		a.out.Failure("LLM returned unchanged file for %s", filePath)
		return false
	}

	if diff := textdiff.Unified(original, fixedCode, filePath); diff != "" {
		a.out.Raw("\nChanges to " + filePath + ":")
		if len(diff) > diffPreviewChars {
			a.out.Raw(diff[:diffPreviewChars] + "...")
		} else {
			a.out.Raw(diff)
		}
	}

	if err := a.sb.WriteFile(ctx, filePath, fixedCode); err != nil {
		a.out.Failure("Could not write %s, skipping: %v", filePath, err)
		return false
	}
	a.appliedCode[filePath] = fixedCode
	a.out.Success("Applied fix to %s", filePath)
	return true
}

// verifyFix re-runs the reproduction script. Success requires a zero exit
// AND no recognized error markers: residual error text on a clean exit still
// counts as a failure.
func (a *Agent) verifyFix(ctx context.Context) error {
	a.phase = PhaseVerify
	a.out.Step("VERIFY", "Verifying the fix...")

	exitCode, output, err := a.sb.RunCommand(ctx, "python "+ReproScriptName, a.timeout)
	if err != nil {
		return fmt.Errorf("running verification: %w", err)
	}
	a.out.Raw("\nVerification output:\n" + output)
	a.lastVerify = output

	if exitCode != 0 {
		return fmt.Errorf("%w: script exited with code %d", ErrVerification, exitCode)
	}
	if markers := extract.ErrorMessages(output); len(markers) > 0 {
		return fmt.Errorf("%w: script passed but output still has %d error marker(s)", ErrVerification, len(markers))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
