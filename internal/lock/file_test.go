package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jayteealao/gitsync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestManager(t *testing.T) *Manager {
	t.Helper()

	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return manager
}

func TestKey(t *testing.T) {
	t.Run("stable uuid per path", func(t *testing.T) {
		k1 := Key("/srv/repos/app")
		k2 := Key("/srv/repos/app")
		assert.Equal(t, k1, k2)

		parsed, err := uuid.Parse(k1)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(5), parsed.Version())
	})

	t.Run("cleaned paths share a key", func(t *testing.T) {
		assert.Equal(t, Key("/srv/repos/app"), Key("/srv/repos/app/"))
		assert.Equal(t, Key("/srv/repos/app"), Key("/srv/repos/other/../app"))
	})

	t.Run("relative path resolves against cwd", func(t *testing.T) {
		cwd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, Key(cwd), Key("."))
	})

	t.Run("different repos differ", func(t *testing.T) {
		assert.NotEqual(t, Key("/srv/a"), Key("/srv/b"))
	})
}

func TestManager_AcquireAndRelease(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	t.Run("acquire and release lock", func(t *testing.T) {
		lock, err := manager.Acquire(ctx, "/srv/repos/app")
		require.NoError(t, err)
		require.NotNil(t, lock)
		assert.Equal(t, "/srv/repos/app", lock.Repo())

		locked, _, err := manager.IsLocked("/srv/repos/app")
		require.NoError(t, err)
		assert.True(t, locked)

		require.NoError(t, lock.Release())

		locked, _, err = manager.IsLocked("/srv/repos/app")
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("different repos lock independently", func(t *testing.T) {
		lock1, err := manager.Acquire(ctx, "/srv/a")
		require.NoError(t, err)
		defer lock1.Release()

		lock2, err := manager.Acquire(ctx, "/srv/b")
		require.NoError(t, err)
		defer lock2.Release()

		locked1, _, _ := manager.IsLocked("/srv/a")
		locked2, _, _ := manager.IsLocked("/srv/b")
		assert.True(t, locked1)
		assert.True(t, locked2)
	})
}

func TestManager_TryAcquire(t *testing.T) {
	manager := setupTestManager(t)

	t.Run("succeeds when not locked", func(t *testing.T) {
		lock, err := manager.TryAcquire("/srv/free")
		require.NoError(t, err)
		require.NotNil(t, lock)
		require.NoError(t, lock.Release())
	})

	t.Run("reports holder when locked", func(t *testing.T) {
		lock1, err := manager.Acquire(context.Background(), "/srv/busy")
		require.NoError(t, err)
		defer lock1.Release()

		lock2, err := manager.TryAcquire("/srv/busy")
		assert.ErrorIs(t, err, errors.ErrRepoLocked)
		assert.Nil(t, lock2)
	})
}

func TestManager_IsLocked(t *testing.T) {
	manager := setupTestManager(t)

	t.Run("not locked initially", func(t *testing.T) {
		locked, pid, err := manager.IsLocked("/srv/nothing")
		require.NoError(t, err)
		assert.False(t, locked)
		assert.Equal(t, 0, pid)
	})

	t.Run("locked returns current pid", func(t *testing.T) {
		lock, err := manager.Acquire(context.Background(), "/srv/pid-test")
		require.NoError(t, err)
		defer lock.Release()

		locked, pid, err := manager.IsLocked("/srv/pid-test")
		require.NoError(t, err)
		assert.True(t, locked)
		assert.Equal(t, os.Getpid(), pid)
	})
}

func TestManager_StaleLockDetection(t *testing.T) {
	manager := setupTestManager(t)
	repo := "/srv/stale"

	lockPath, pidFile := manager.paths(repo)
	require.NoError(t, os.WriteFile(lockPath, []byte{}, 0644))
	require.NoError(t, os.WriteFile(pidFile, []byte("999999999"), 0644))

	lock, err := manager.Acquire(context.Background(), repo)
	require.NoError(t, err)
	require.NotNil(t, lock)

	pid, err := readPIDFile(pidFile)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, lock.Release())
}

func TestManager_ContextCancellation(t *testing.T) {
	manager := setupTestManager(t)
	repo := "/srv/ctx"

	lock1, err := manager.TryAcquire(repo)
	require.NoError(t, err)
	defer lock1.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	lock2, err := manager.Acquire(ctx, repo)
	assert.ErrorIs(t, err, errors.ErrRepoLocked)
	assert.Nil(t, lock2)
}

func TestReadWritePIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	t.Run("write and read pid", func(t *testing.T) {
		require.NoError(t, writePIDFile(pidFile))

		pid, err := readPIDFile(pidFile)
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), pid)
	})

	t.Run("read non-existent file", func(t *testing.T) {
		_, err := readPIDFile(filepath.Join(filepath.Dir(pidFile), "nonexistent.pid"))
		assert.Error(t, err)
	})
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(os.Getpid()))
	assert.False(t, IsProcessRunning(999999999))
	assert.False(t, IsProcessRunning(0))
}
