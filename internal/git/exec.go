package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os/exec"
	"strings"
)

// Executor runs a complete command line and returns its standard output.
type Executor interface {
	Exec(ctx context.Context, dir, invocation string) (string, error)
}

// ShellExecutor runs invocations through a POSIX shell.
type ShellExecutor struct {
	// Shell defaults to "sh".
	Shell string
	// Stderr receives the child's standard error. Nil discards it.
	// It is never captured into the returned output or error.
	Stderr io.Writer
}

// Exec runs invocation with "sh -c" in dir. On failure the error from
// os/exec is returned unchanged (usually *exec.ExitError).
func (e *ShellExecutor) Exec(ctx context.Context, dir, invocation string) (string, error) {
	shell := e.Shell
	if strings.TrimSpace(shell) == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", invocation)
	if strings.TrimSpace(dir) != "" {
		cmd.Dir = dir
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if e.Stderr != nil {
		cmd.Stderr = e.Stderr
	}

	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

// ExitCode extracts the process exit status from err, or -1 if there is none.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
