// Package issues loads Issue inputs for the agent, either from a
// SWE-bench-style JSONL file or directly from a GitHub issue.
package issues

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	gogh "github.com/google/go-github/v68/github"

	"github.com/sudodev-ai/sudodev/pkg/model"
)

// FileSource reads issues from a JSONL file where each line is one issue
// object with at least instance_id and problem_statement fields.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by a JSONL file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Get returns the issue with the given instance id.
func (s *FileSource) Get(_ context.Context, instanceID string) (*model.Issue, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening issues file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Problem statements can be large; allow lines up to 4 MiB.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var issue model.Issue
		if err := json.Unmarshal([]byte(line), &issue); err != nil {
			return nil, fmt.Errorf("parsing issues file: %w", err)
		}
		if issue.InstanceID == instanceID {
			if issue.ProblemStatement == "" {
				return nil, fmt.Errorf("issue %s has no problem statement", instanceID)
			}
			return &issue, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading issues file: %w", err)
	}
	return nil, fmt.Errorf("issue %s not found in %s", instanceID, s.path)
}

// GitHubSource fetches issues from the GitHub API.
type GitHubSource struct {
	gh *gogh.Client
}

// NewGitHubSource creates a GitHub-backed source. Token may be empty for
// public repositories.
func NewGitHubSource(token string) *GitHubSource {
	client := gogh.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubSource{gh: client}
}

// Get fetches an issue given a "owner/repo#number" reference and converts it
// into the agent's Issue shape.
func (s *GitHubSource) Get(ctx context.Context, ref string) (*model.Issue, error) {
	owner, repo, number, err := parseRef(ref)
	if err != nil {
		return nil, err
	}

	issue, _, err := s.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching issue %s: %w", ref, err)
	}

	statement := issue.GetTitle()
	if body := issue.GetBody(); body != "" {
		statement += "\n\n" + body
	}

	return &model.Issue{
		InstanceID:       fmt.Sprintf("%s__%s-%d", owner, repo, number),
		ProblemStatement: statement,
		Repo:             owner + "/" + repo,
	}, nil
}

// parseRef splits "owner/repo#number".
func parseRef(ref string) (owner, repo string, number int, err error) {
	repoPart, numPart, ok := strings.Cut(ref, "#")
	if !ok {
		return "", "", 0, fmt.Errorf("invalid issue reference %q (want owner/repo#number)", ref)
	}
	owner, repo, ok = strings.Cut(repoPart, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", 0, fmt.Errorf("invalid repository %q (want owner/repo)", repoPart)
	}
	number, err = strconv.Atoi(numPart)
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("invalid issue number %q", numPart)
	}
	return owner, repo, number, nil
}
