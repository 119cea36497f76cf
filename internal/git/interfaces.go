package git

import "context"

// SyncOperations defines the interface for push and pull.
type SyncOperations interface {
	Dir() string
	Run(ctx context.Context, op Operation, opts Options) (string, error)
	Push(ctx context.Context, opts Options) (string, error)
	Pull(ctx context.Context, opts Options) (string, error)
	Start(ctx context.Context, op Operation, opts Options) <-chan Result
}

// RepoOperations defines the read-only repository queries.
type RepoOperations interface {
	Path() string
	IsGitRepo(ctx context.Context) bool
	TopLevel(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
	HeadCommit(ctx context.Context) (string, error)
	RemoteURL(ctx context.Context, remote string) (string, error)
}

// Ensure Runner implements SyncOperations
var _ SyncOperations = (*Runner)(nil)

// Ensure Repo implements RepoOperations
var _ RepoOperations = (*Repo)(nil)

// Ensure ShellExecutor implements Executor
var _ Executor = (*ShellExecutor)(nil)
