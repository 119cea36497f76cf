// Package git provides git operations via the git CLI.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/jayteealao/gitsync/internal/errors"
	"github.com/jayteealao/gitsync/internal/logging"
)

// DefaultRemote is used when a branch is given without a remote.
const DefaultRemote = "origin"

// Operation is a git synchronization subcommand.
type Operation string

const (
	// Push publishes a local branch to a remote.
	Push Operation = "push"
	// Pull fetches from a remote and merges into the current branch.
	Pull Operation = "pull"
)

// Valid reports whether op is one of the supported operations.
func (op Operation) Valid() bool {
	return op == Push || op == Pull
}

func (op Operation) String() string {
	return string(op)
}

// Options controls how a push or pull invocation is assembled.
// Values are passed to git as-is.
type Options struct {
	Branch string
	Remote string
	// Force is only honoured for Push.
	Force bool
}

// Result is the single outcome delivered by Runner.Start.
type Result struct {
	Output string
	Err    error
}

// Args returns the arguments that follow the operation name.
// The force flag always precedes the remote/branch pair, and the remote
// is only emitted when a branch is set.
func Args(op Operation, opts Options) []string {
	var args []string

	if op == Push && opts.Force {
		args = append(args, "--force")
	}

	if opts.Branch != "" {
		remote := opts.Remote
		if remote == "" {
			remote = DefaultRemote
		}
		args = append(args, remote, opts.Branch)
	}

	return args
}

// Invocation returns the full command line for op, e.g. "git push --force alt master".
func Invocation(op Operation, opts Options) string {
	tokens := append([]string{"git", string(op)}, Args(op, opts)...)
	return strings.Join(tokens, " ")
}

// Runner executes push and pull invocations through an Executor.
type Runner struct {
	executor Executor
	dir      string
	logger   logging.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithExecutor replaces the process executor. Tests use this to avoid spawning git.
func WithExecutor(e Executor) RunnerOption {
	return func(r *Runner) {
		r.executor = e
	}
}

// WithDir sets the working directory for spawned processes.
// An empty dir means the current working directory.
func WithDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner that shells out to git by default.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		executor: &ShellExecutor{},
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the working directory processes are started in.
func (r *Runner) Dir() string {
	return r.dir
}

// Run executes op once and returns git's standard output untouched.
// A process failure is returned exactly as the executor reported it.
func (r *Runner) Run(ctx context.Context, op Operation, opts Options) (string, error) {
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownOperation, string(op))
	}

	invocation := Invocation(op, opts)
	r.logger.Debug("running git", "invocation", invocation, "dir", r.dir)

	output, err := r.executor.Exec(ctx, r.dir, invocation)
	if err != nil {
		r.logger.Debug("git failed", "invocation", invocation, "error", err)
		return "", err
	}

	r.logger.Debug("git finished", "invocation", invocation, "stdout_bytes", len(output))
	return output, nil
}

// Push runs "git push" with opts.
func (r *Runner) Push(ctx context.Context, opts Options) (string, error) {
	return r.Run(ctx, Push, opts)
}

// Pull runs "git pull" with opts. Force is ignored.
func (r *Runner) Pull(ctx context.Context, opts Options) (string, error) {
	return r.Run(ctx, Pull, opts)
}

// Start runs op in the background. The returned channel yields exactly one
// Result and is then closed.
func (r *Runner) Start(ctx context.Context, op Operation, opts Options) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		output, err := r.Run(ctx, op, opts)
		ch <- Result{Output: output, Err: err}
	}()
	return ch
}
