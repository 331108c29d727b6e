// Package model defines the core data types shared across SudoDev packages.
package model

import "time"

// Issue is the immutable input for one agent run: a bug report bound to a
// repository instance. It is created once from an issue source and never
// mutated.
type Issue struct {
	// InstanceID uniquely identifies the issue instance (e.g.
	// "django__django-11001"). It also keys the sandbox environment.
	InstanceID string `json:"instance_id"`

	// ProblemStatement is the free-form bug report text.
	ProblemStatement string `json:"problem_statement"`

	// Repo is the repository the issue belongs to ("owner/repo"), when known.
	Repo string `json:"repo,omitempty"`

	// HintsText carries optional extra context (e.g. discussion excerpts).
	HintsText string `json:"hints_text,omitempty"`
}

// RunStatus is the terminal outcome classification of a run.
type RunStatus string

const (
	StatusResolved   RunStatus = "resolved"
	StatusUnresolved RunStatus = "unresolved"
	StatusError      RunStatus = "error"
)

// RunResult records the outcome of a single agent run for observability.
// The agent only ever writes these; nothing feeds them back into later runs.
type RunResult struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Status     RunStatus `json:"status"`
	// Phase is the phase the run ended in ("verify", "fix", ...).
	Phase      string    `json:"phase"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Resolved reports whether the run fixed the issue.
func (r *RunResult) Resolved() bool { return r.Status == StatusResolved }
