// Package lock provides per-repository file locking with PID-based stale detection.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jayteealao/gitsync/internal/errors"
)

// repoNamespace scopes lock keys so they never collide with other UUIDv5 users.
var repoNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("gitsync:repository"))

// Lock represents a held lock on a repository.
type Lock struct {
	flock    *flock.Flock
	pidFile  string
	lockPath string
	repo     string
}

// Manager manages repository locks under a data directory.
type Manager struct {
	lockDir string
}

// NewManager creates a new lock manager.
func NewManager(dataDir string) (*Manager, error) {
	lockDir := filepath.Join(dataDir, "locks")
	if err := os.MkdirAll(lockDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return &Manager{lockDir: lockDir}, nil
}

// Key derives the stable lock file name for a repository path.
// The path is made absolute and cleaned first, so "." and its absolute
// form share a lock.
func Key(repoPath string) string {
	if abs, err := filepath.Abs(repoPath); err == nil {
		repoPath = abs
	}
	return uuid.NewSHA1(repoNamespace, []byte(filepath.Clean(repoPath))).String()
}

func (m *Manager) paths(repo string) (lockPath, pidFile string) {
	key := Key(repo)
	return filepath.Join(m.lockDir, key+".lock"), filepath.Join(m.lockDir, key+".pid")
}

// Acquire waits for the lock on repo until ctx is done.
// Stale locks left by dead processes are removed first.
func (m *Manager) Acquire(ctx context.Context, repo string) (*Lock, error) {
	lockPath, pidFile := m.paths(repo)

	m.cleanStaleLock(pidFile, lockPath)

	fl := flock.New(lockPath)

	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		if pid, perr := readPIDFile(pidFile); perr == nil {
			return nil, fmt.Errorf("%w: held by PID %d: %v", errors.ErrRepoLocked, pid, err)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, errors.ErrRepoLocked
	}

	if err := writePIDFile(pidFile); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}

	return &Lock{
		flock:    fl,
		pidFile:  pidFile,
		lockPath: lockPath,
		repo:     repo,
	}, nil
}

// TryAcquire attempts to acquire the lock on repo without waiting.
// It returns ErrRepoLocked if another holder has it.
func (m *Manager) TryAcquire(repo string) (*Lock, error) {
	lockPath, pidFile := m.paths(repo)

	m.cleanStaleLock(pidFile, lockPath)

	fl := flock.New(lockPath)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock: %w", err)
	}
	if !locked {
		if pid, err := readPIDFile(pidFile); err == nil {
			return nil, fmt.Errorf("%w: held by PID %d", errors.ErrRepoLocked, pid)
		}
		return nil, errors.ErrRepoLocked
	}

	if err := writePIDFile(pidFile); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}

	return &Lock{
		flock:    fl,
		pidFile:  pidFile,
		lockPath: lockPath,
		repo:     repo,
	}, nil
}

// IsLocked reports whether repo is locked and, if known, the holder's PID.
func (m *Manager) IsLocked(repo string) (bool, int, error) {
	lockPath, pidFile := m.paths(repo)

	fl := flock.New(lockPath)

	locked, err := fl.TryLock()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check lock: %w", err)
	}

	if locked {
		fl.Unlock()
		return false, 0, nil
	}

	pid, err := readPIDFile(pidFile)
	if err != nil {
		return true, 0, nil
	}

	return true, pid, nil
}

// cleanStaleLock removes lock files whose recorded holder is no longer running.
func (m *Manager) cleanStaleLock(pidFile, lockPath string) {
	pid, err := readPIDFile(pidFile)
	if err != nil {
		return
	}

	if IsProcessRunning(pid) {
		return
	}

	os.Remove(pidFile)
	os.Remove(lockPath)
}

// Release releases the lock.
func (l *Lock) Release() error {
	os.Remove(l.pidFile)

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	os.Remove(l.lockPath)

	return nil
}

// Repo returns the repository path this lock was taken for.
func (l *Lock) Repo() string {
	return l.repo
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, err
	}
	return pid, nil
}

// IsProcessRunning sends signal 0 to pid. Permission errors mean the
// process exists but belongs to someone else.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "process already finished") ||
		strings.Contains(errStr, "no such process") {
		return false
	}

	return true
}
