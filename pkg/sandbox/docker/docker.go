// Package docker implements sandbox.Session using Docker containers.
//
// Each session runs one container per issue instance, kept alive with a
// sleep entrypoint; commands are executed through docker exec inside the
// repository working directory.
package docker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sudodev-ai/sudodev/pkg/sandbox"
)

// Session implements sandbox.Session on top of the docker CLI.
type Session struct {
	dockerBin  string
	instanceID string
	image      string
	workDir    string
	env        []string

	containerID string
}

// NewSession creates a Docker-backed session for one issue instance. The
// image is expected to contain the target repository checked out at workDir
// (conventionally /testbed).
func NewSession(instanceID, image, workDir string, env []string) *Session {
	return &Session{
		dockerBin:  findDocker(),
		instanceID: instanceID,
		image:      image,
		workDir:    workDir,
		env:        env,
	}
}

// findDocker locates the docker binary, checking PATH first and then
// well-known install locations.
func findDocker() string {
	if p, err := exec.LookPath("docker"); err == nil {
		return p
	}
	candidates := []string{
		"/Applications/Docker.app/Contents/Resources/bin/docker",
		"/usr/local/bin/docker",
		"/opt/homebrew/bin/docker",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return "docker"
}

func (s *Session) docker(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, s.dockerBin, args...)
}

func (s *Session) containerName() string {
	return "sudodev-" + s.instanceID
}

// Start creates and starts the container. Idempotent on success.
func (s *Session) Start(ctx context.Context) error {
	if s.containerID != "" {
		return nil
	}

	args := []string{
		"run", "-d",
		"--name", s.containerName(),
		"--label", "sudodev.instance=" + s.instanceID,
	}
	for _, e := range s.env {
		args = append(args, "-e", e)
	}
	args = append(args, "--entrypoint", "sleep", s.image, "infinity")

	output, err := s.docker(ctx, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %v\noutput: %s", sandbox.ErrStart, err, string(output))
	}

	s.containerID = strings.TrimSpace(string(output))
	return nil
}

// RunCommand executes a shell command inside the container with a bounded
// timeout. The timeout is reported as sandbox.TimeoutExitCode, never as an
// error; errors are reserved for the docker transport itself failing.
func (s *Session) RunCommand(ctx context.Context, command string, timeout time.Duration) (int, string, error) {
	if s.containerID == "" {
		return 0, "", sandbox.ErrNotStarted
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := s.docker(runCtx, "exec", "-w", s.workDir, s.containerID, "/bin/bash", "-lc", command)
	output, err := cmd.CombinedOutput()

	if runCtx.Err() == context.DeadlineExceeded {
		return sandbox.TimeoutExitCode,
			string(output) + fmt.Sprintf("\n[command timed out after %s]", timeout), nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), string(output), nil
		}
		return 0, "", fmt.Errorf("executing in container: %w", err)
	}
	return 0, string(output), nil
}

// ReadFile returns the content of a file relative to the working directory.
func (s *Session) ReadFile(ctx context.Context, path string) (string, error) {
	if s.containerID == "" {
		return "", sandbox.ErrNotStarted
	}

	cmd := s.docker(ctx, "exec", "-w", s.workDir, s.containerID, "cat", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("reading %s: %v: %s", path, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// WriteFile writes content to a file relative to the working directory,
// streamed through stdin so arbitrary content survives shell quoting.
func (s *Session) WriteFile(ctx context.Context, path string, content string) error {
	if s.containerID == "" {
		return sandbox.ErrNotStarted
	}

	cmd := s.docker(ctx, "exec", "-i", "-w", s.workDir, s.containerID,
		"sh", "-c", "cat > "+shellQuote(path))
	cmd.Stdin = strings.NewReader(content)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("writing %s: %v: %s", path, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Cleanup removes the container. Safe to call multiple times; never panics
// and swallows errors so it can run on every exit path.
func (s *Session) Cleanup() {
	if s.containerID == "" {
		// The run may have failed between docker run and ID capture; remove
		// by name as a best effort.
		_ = s.docker(context.Background(), "rm", "-f", s.containerName()).Run()
		return
	}
	_ = s.docker(context.Background(), "kill", s.containerID).Run()
	_ = s.docker(context.Background(), "rm", "-f", s.containerID).Run()
	s.containerID = ""
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
