package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jayteealao/gitsync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), output)
	return strings.TrimSpace(string(output))
}

func commitFile(t *testing.T, repoPath, name, content string) string {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0644))
	runGit(t, repoPath, "add", ".")
	runGit(t, repoPath, "commit", "-m", "update "+name)
	return runGit(t, repoPath, "rev-parse", "HEAD")
}

// setupTestRepo creates a work repo on branch "trunk" with one commit,
// wired to a bare remote named origin.
func setupTestRepo(t *testing.T) (workPath, barePath string) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	tmpDir := t.TempDir()
	barePath = filepath.Join(tmpDir, "remote.git")
	workPath = filepath.Join(tmpDir, "work")

	require.NoError(t, exec.Command("git", "init", "--bare", barePath).Run())
	require.NoError(t, exec.Command("git", "init", workPath).Run())

	runGit(t, workPath, "config", "user.email", "test@test.com")
	runGit(t, workPath, "config", "user.name", "Test")
	commitFile(t, workPath, "README.md", "# Test")
	runGit(t, workPath, "branch", "-M", "trunk")
	runGit(t, workPath, "remote", "add", "origin", barePath)

	return workPath, barePath
}

func TestRepo_Queries(t *testing.T) {
	workPath, barePath := setupTestRepo(t)
	ctx := context.Background()
	repo := NewRepo(workPath)

	t.Run("path", func(t *testing.T) {
		assert.Equal(t, workPath, repo.Path())
	})

	t.Run("valid repo", func(t *testing.T) {
		assert.True(t, repo.IsGitRepo(ctx))
	})

	t.Run("invalid path", func(t *testing.T) {
		assert.False(t, NewRepo("/nonexistent/path").IsGitRepo(ctx))
	})

	t.Run("top level", func(t *testing.T) {
		top, err := repo.TopLevel(ctx)
		require.NoError(t, err)
		expected, err := filepath.EvalSymlinks(workPath)
		require.NoError(t, err)
		actual, err := filepath.EvalSymlinks(top)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	})

	t.Run("top level outside a repo", func(t *testing.T) {
		_, err := NewRepo(t.TempDir()).TopLevel(ctx)
		assert.ErrorIs(t, err, errors.ErrNotGitRepo)
	})

	t.Run("current branch", func(t *testing.T) {
		branch, err := repo.CurrentBranch(ctx)
		require.NoError(t, err)
		assert.Equal(t, "trunk", branch)
	})

	t.Run("head commit", func(t *testing.T) {
		commit, err := repo.HeadCommit(ctx)
		require.NoError(t, err)
		assert.Len(t, commit, 40)
	})

	t.Run("remote url", func(t *testing.T) {
		url, err := repo.RemoteURL(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, barePath, url)
	})

	t.Run("unknown remote", func(t *testing.T) {
		_, err := repo.RemoteURL(ctx, "nowhere")
		assert.ErrorIs(t, err, errors.ErrRemoteNotFound)
	})
}

func TestRepo_DetachedHead(t *testing.T) {
	workPath, _ := setupTestRepo(t)
	ctx := context.Background()

	head := runGit(t, workPath, "rev-parse", "HEAD")
	runGit(t, workPath, "checkout", "--detach", head)

	_, err := NewRepo(workPath).CurrentBranch(ctx)
	assert.ErrorIs(t, err, errors.ErrDetachedHead)
}

func TestRunner_PushAndPull(t *testing.T) {
	workPath, barePath := setupTestRepo(t)
	ctx := context.Background()

	t.Run("push branch to origin", func(t *testing.T) {
		runner := NewRunner(WithDir(workPath))
		_, err := runner.Push(ctx, Options{Branch: "trunk"})
		require.NoError(t, err)

		assert.Equal(t, runGit(t, workPath, "rev-parse", "HEAD"), runGit(t, barePath, "rev-parse", "trunk"))
	})

	t.Run("pull branch from origin", func(t *testing.T) {
		clonePath := filepath.Join(filepath.Dir(workPath), "clone")
		require.NoError(t, exec.Command("git", "clone", "--branch", "trunk", barePath, clonePath).Run())

		newHead := commitFile(t, workPath, "CHANGELOG.md", "v2")
		runGit(t, workPath, "push", "origin", "trunk")

		runner := NewRunner(WithDir(clonePath))
		_, err := runner.Pull(ctx, Options{Branch: "trunk"})
		require.NoError(t, err)

		assert.Equal(t, newHead, runGit(t, clonePath, "rev-parse", "HEAD"))
	})

	t.Run("push to unknown remote fails with exit status", func(t *testing.T) {
		runner := NewRunner(WithDir(workPath))
		out, err := runner.Push(ctx, Options{Branch: "trunk", Remote: "nowhere"})
		require.Error(t, err)
		assert.Empty(t, out)
		assert.Greater(t, ExitCode(err), 0)
	})

	t.Run("outside a repository fails", func(t *testing.T) {
		runner := NewRunner(WithDir(t.TempDir()))
		_, err := runner.Pull(ctx, Options{})
		require.Error(t, err)
		assert.Greater(t, ExitCode(err), 0)
	})
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "abcdef1", ShortSHA("abcdef1234567890"))
	assert.Equal(t, "abc", ShortSHA("abc"))
	assert.Equal(t, "", ShortSHA(""))
}

func TestLookGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	assert.NoError(t, LookGit())

	t.Setenv("PATH", "")
	assert.ErrorIs(t, LookGit(), errors.ErrGitNotFound)
}
