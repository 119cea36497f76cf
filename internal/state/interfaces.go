package state

import "context"

// StateStore defines the interface for sync history operations.
type StateStore interface {
	Close() error
	DataDir() string

	CreateSync(ctx context.Context, rec *Sync) error
	FinishSync(ctx context.Context, rec *Sync) error
	GetSync(ctx context.Context, id string) (*Sync, error)
	ListSyncs(ctx context.Context, repoPath string, limit int) ([]*Sync, error)
	LatestSync(ctx context.Context, repoPath string) (*Sync, error)
	MarkInterrupted(ctx context.Context, alive func(pid int) bool) (int, error)
	PruneSyncs(ctx context.Context, repoPath string, keep int) (int64, error)
}

// Ensure Store implements StateStore
var _ StateStore = (*Store)(nil)
