// SudoDev
//
// An autonomous issue-resolution agent: point it at a bug report, it
// reproduces the bug in a sandbox, rewrites the offending files with an LLM,
// and verifies the fix.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sudodev-ai/sudodev/internal/config"
	"github.com/sudodev-ai/sudodev/internal/issues"
	"github.com/sudodev-ai/sudodev/internal/notify"
	"github.com/sudodev-ai/sudodev/internal/runstore"
	"github.com/sudodev-ai/sudodev/pkg/agent"
	"github.com/sudodev-ai/sudodev/pkg/llm"
	"github.com/sudodev-ai/sudodev/pkg/llm/anthropic"
	"github.com/sudodev-ai/sudodev/pkg/llm/groq"
	"github.com/sudodev-ai/sudodev/pkg/model"
	"github.com/sudodev-ai/sudodev/pkg/sandbox/docker"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "sudodev",
	Short: "SudoDev - Autonomous Issue Resolution Agent",
	Long: `SudoDev reproduces a reported bug inside a sandbox, asks an LLM to fix the
offending files, and verifies the fix by re-running the reproduction script.

  sudodev run --instance django__django-11001 --issues-file swebench.jsonl
  sudodev run --github owner/repo#123
  sudodev list`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagInstance   string
	flagIssuesFile string
	flagGitHub     string
	flagImage      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve one issue",
	RunE:  runIssue,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE:  listRuns,
}

func init() {
	runCmd.Flags().StringVar(&flagInstance, "instance", "", "issue instance id to resolve")
	runCmd.Flags().StringVar(&flagIssuesFile, "issues-file", envOr("SUDODEV_ISSUES_FILE", ""), "JSONL file with issue instances")
	runCmd.Flags().StringVar(&flagGitHub, "github", "", "GitHub issue reference (owner/repo#number)")
	runCmd.Flags().StringVar(&flagImage, "image", "", "sandbox Docker image (overrides the configured template)")
	rootCmd.AddCommand(runCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runIssue(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issue, err := loadIssue(ctx, cfg)
	if err != nil {
		return err
	}

	image := flagImage
	if image == "" {
		image = cfg.ImageFor(issue.InstanceID)
	}
	session := docker.NewSession(issue.InstanceID, image, cfg.WorkDir, nil)

	ag := agent.New(issue, newLLMClient(cfg), session, agent.Options{
		CommandTimeout: cfg.SandboxTimeout,
		MaxAttempts:    cfg.MaxAttempts,
	})

	started := time.Now()
	resolved := ag.Run(ctx)

	result := &model.RunResult{
		ID:         uuid.NewString(),
		InstanceID: issue.InstanceID,
		Status:     model.StatusUnresolved,
		Phase:      string(ag.Phase()),
		Attempts:   ag.Attempts(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if resolved {
		result.Status = model.StatusResolved
	} else {
		result.Error = fmt.Sprintf("run ended in phase %s after %d attempt(s)", ag.Phase(), ag.Attempts())
	}
	recordResult(ctx, cfg, result)

	if !resolved {
		return fmt.Errorf("run failed for %s (ended in %s)", issue.InstanceID, ag.Phase())
	}
	fmt.Printf("\nResolved %s\n", issue.InstanceID)
	return nil
}

// loadIssue picks the issue source from the flags: a GitHub reference wins,
// otherwise the JSONL file is searched for the instance id.
func loadIssue(ctx context.Context, cfg *config.Config) (*model.Issue, error) {
	if flagGitHub != "" {
		return issues.NewGitHubSource(cfg.GitHubToken).Get(ctx, flagGitHub)
	}
	if flagInstance == "" {
		return nil, fmt.Errorf("either --github or --instance is required")
	}
	if flagIssuesFile == "" {
		return nil, fmt.Errorf("--issues-file is required with --instance")
	}
	return issues.NewFileSource(flagIssuesFile).Get(ctx, flagInstance)
}

// newLLMClient selects the provider: Anthropic for claude models (or when
// only an Anthropic key is configured), Groq otherwise.
func newLLMClient(cfg *config.Config) llm.Client {
	if cfg.AnthropicAPIKey != "" && (strings.HasPrefix(cfg.Model, "claude") || cfg.GroqAPIKey == "") {
		return anthropic.New(cfg.AnthropicAPIKey, cfg.Model)
	}
	return groq.New(cfg.GroqAPIKey, cfg.Model)
}

// recordResult saves the run outcome and fires the optional notification.
// Both are observability; failures are logged and swallowed.
func recordResult(ctx context.Context, cfg *config.Config, result *model.RunResult) {
	store, err := runstore.New(cfg.DatabasePath)
	if err != nil {
		log.Printf("run history unavailable: %v", err)
	} else {
		if err := store.Save(result); err != nil {
			log.Printf("recording run: %v", err)
		}
		store.Close()
	}

	if cfg.SlackWebhookURL != "" {
		if err := notify.NewSlack(cfg.SlackWebhookURL).RunFinished(ctx, result); err != nil {
			log.Printf("notifying slack: %v", err)
		}
	}
}

func listRuns(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := runstore.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("%-38s %-30s %-11s %-10s %8s  %s\n", "RUN", "INSTANCE", "STATUS", "PHASE", "ATTEMPTS", "STARTED")
	for _, r := range runs {
		fmt.Printf("%-38s %-30s %-11s %-10s %8d  %s\n",
			r.ID, r.InstanceID, r.Status, r.Phase, r.Attempts,
			r.StartedAt.Local().Format(time.RFC3339))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
