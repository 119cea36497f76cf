// Package errors provides sentinel errors for gitsync operations.
package errors

import "errors"

// Git errors
var (
	// ErrGitNotFound indicates git CLI is not available.
	ErrGitNotFound = errors.New("git command not found")

	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("path is not a git repository")

	// ErrUnknownOperation indicates an operation other than push or pull was requested.
	ErrUnknownOperation = errors.New("unknown sync operation")

	// ErrDetachedHead indicates HEAD does not point at a branch.
	ErrDetachedHead = errors.New("HEAD is detached")

	// ErrRemoteNotFound indicates the named remote is not configured.
	ErrRemoteNotFound = errors.New("remote not found")
)

// Input errors
var (
	// ErrInvalidBranchName indicates the branch name cannot be passed safely to git.
	ErrInvalidBranchName = errors.New("invalid branch name")

	// ErrInvalidRemoteName indicates the remote name cannot be passed safely to git.
	ErrInvalidRemoteName = errors.New("invalid remote name")

	// ErrForcePushDeclined indicates the user declined a force push confirmation.
	ErrForcePushDeclined = errors.New("force push declined")
)

// Lock errors
var (
	// ErrRepoLocked indicates another gitsync process holds the repository lock.
	ErrRepoLocked = errors.New("repository is locked by another sync")
)

// History errors
var (
	// ErrSyncNotFound indicates the requested sync record does not exist.
	ErrSyncNotFound = errors.New("sync not found")
)
