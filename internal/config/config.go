// Package config provides configuration management for SudoDev.
//
// Configuration is an explicit value object built once at process start and
// passed by reference into the agent and sandbox constructors; nothing in
// the core reads ambient globals.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for a SudoDev run.
type Config struct {
	// GroqAPIKey authenticates against the Groq API (default provider).
	GroqAPIKey string

	// AnthropicAPIKey authenticates against the Anthropic API. When set and
	// Model names a claude model, the Anthropic provider is selected.
	AnthropicAPIKey string

	// Model is the model identifier passed to the provider.
	Model string

	// SandboxImage is the Docker image template for issue sandboxes. A
	// "{instance}" placeholder is replaced with the issue instance id.
	SandboxImage string

	// SandboxTimeout bounds each reproduction/verification command.
	SandboxTimeout time.Duration

	// WorkDir is the repository root inside the sandbox.
	WorkDir string

	// MaxAttempts is the fix/verify retry ceiling.
	MaxAttempts int

	// DataDir is the directory for persistent data (run history DB).
	DataDir string

	// DatabasePath is the full path to the SQLite run-history database.
	DatabasePath string

	// GitHubToken authenticates GitHub issue lookups (optional).
	GitHubToken string

	// SlackWebhookURL receives run-completion notifications (optional).
	SlackWebhookURL string
}

// Load creates a Config from the config file and environment variables.
// Values are resolved in order: environment variable > config file > default.
func Load() (*Config, error) {
	// Load ~/.sudodev/config.env into the environment. Existing env vars take
	// precedence (loadConfigFile only sets unset vars).
	loadConfigFile()

	dataDir := envOr("SUDODEV_DATA_DIR", defaultDataDir())
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	cfg := &Config{
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:           os.Getenv("SUDODEV_MODEL"),
		SandboxImage:    envOr("SUDODEV_SANDBOX_IMAGE", "sweb.eval.x86_64.{instance}"),
		SandboxTimeout:  envOrDuration("SUDODEV_SANDBOX_TIMEOUT", 30*time.Second),
		WorkDir:         envOr("SUDODEV_WORK_DIR", "/testbed"),
		MaxAttempts:     envOrInt("SUDODEV_MAX_ATTEMPTS", 3),
		DataDir:         dataDir,
		DatabasePath:    filepath.Join(dataDir, "sudodev.db"),
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		SlackWebhookURL: os.Getenv("SUDODEV_SLACK_WEBHOOK"),
	}

	return cfg, nil
}

// loadConfigFile reads ~/.sudodev/config.env and sets any values that are
// not already present in the environment. This ensures env vars always win.
func loadConfigFile() {
	path := filepath.Join(defaultDataDir(), "config.env")
	f, err := os.Open(path)
	if err != nil {
		return // file doesn't exist or can't be read — that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]
		// Only set if not already in the environment.
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" && c.AnthropicAPIKey == "" {
		return fmt.Errorf("at least one of GROQ_API_KEY or ANTHROPIC_API_KEY is required")
	}
	return nil
}

// ImageFor resolves the sandbox image for an issue instance id.
func (c *Config) ImageFor(instanceID string) string {
	return strings.ReplaceAll(c.SandboxImage, "{instance}", strings.ToLower(instanceID))
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Bare integers are accepted as seconds, matching the original
		// SANDBOX_TIMEOUT convention.
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sudodev"
	}
	return filepath.Join(home, ".sudodev")
}
