package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jayteealao/gitsync/internal/errors"
)

// Repo answers read-only questions about a working tree.
type Repo struct {
	path string
}

// NewRepo creates a Repo for path. An empty path means the current directory.
func NewRepo(path string) *Repo {
	return &Repo{path: path}
}

// Path returns the repository path as given.
func (r *Repo) Path() string {
	return r.path
}

func (r *Repo) git(ctx context.Context, args ...string) *exec.Cmd {
	dir := r.path
	if dir == "" {
		dir = "."
	}
	return exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
}

// LookGit checks that the git executable is on PATH.
func LookGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrGitNotFound, err)
	}
	return nil
}

// IsGitRepo checks if the path is inside a git working tree.
func (r *Repo) IsGitRepo(ctx context.Context) bool {
	cmd := r.git(ctx, "rev-parse", "--is-inside-work-tree")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) == "true"
}

// TopLevel returns the absolute path of the working tree root.
func (r *Repo) TopLevel(ctx context.Context) (string, error) {
	output, err := r.git(ctx, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", errors.ErrNotGitRepo, r.path)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the short name of the checked out branch.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	cmd := r.git(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		if ExitCode(err) == 1 {
			return "", errors.ErrDetachedHead
		}
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// HeadCommit returns the full SHA of HEAD.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	output, err := r.git(ctx, "rev-parse", "--verify", "--quiet", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current commit: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// RemoteURL returns the fetch URL of the named remote.
func (r *Repo) RemoteURL(ctx context.Context, remote string) (string, error) {
	if remote == "" {
		remote = DefaultRemote
	}
	output, err := r.git(ctx, "remote", "get-url", remote).Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", errors.ErrRemoteNotFound, remote)
	}
	return strings.TrimSpace(string(output)), nil
}

// ShortSHA returns the 7-character short SHA.
func ShortSHA(fullSHA string) string {
	if len(fullSHA) < 7 {
		return fullSHA
	}
	return fullSHA[:7]
}
