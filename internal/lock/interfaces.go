package lock

import "context"

// LockOperations defines the interface for lock management.
type LockOperations interface {
	Acquire(ctx context.Context, repo string) (*Lock, error)
	TryAcquire(repo string) (*Lock, error)
	IsLocked(repo string) (bool, int, error)
}

// Ensure Manager implements LockOperations
var _ LockOperations = (*Manager)(nil)
