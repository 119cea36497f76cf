// Package state provides SQLite-based sync history for gitsync.
package state

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jayteealao/gitsync/internal/errors"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/001_initial.sql
var initialMigration string

// Sync statuses.
const (
	StatusRunning     = "running"
	StatusSucceeded   = "succeeded"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// Store provides sync history using SQLite.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Sync is one recorded push or pull.
type Sync struct {
	ID           string
	RepoPath     string
	Operation    string // "push" or "pull"
	Remote       string
	Branch       string
	Force        bool
	Invocation   string
	Status       string
	HeadBefore   string
	HeadAfter    string
	Output       string
	ErrorMessage string
	ExitCode     *int
	PID          int
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration returns how long the sync ran, or zero if it has not finished.
func (s *Sync) Duration() time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// New creates a new Store with the given data directory.
// The database file will be created at <dataDir>/gitsync.db.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "gitsync.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't handle concurrent writes well
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{
		db:      db,
		dataDir: dataDir,
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the data directory path.
func (s *Store) DataDir() string {
	return s.dataDir
}

// migrate runs database migrations.
func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(initialMigration); err != nil {
			return fmt.Errorf("failed to run initial migration: %w", err)
		}
	}

	return nil
}

const syncColumns = `id, repo_path, operation, remote, branch, forced, invocation, status,
	head_before, head_after, output, error_message, exit_code, pid, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSync(row rowScanner) (*Sync, error) {
	var s Sync
	var remote, branch, headBefore, headAfter, output, errorMessage sql.NullString
	var exitCode sql.NullInt64
	var finishedAt sql.NullTime

	err := row.Scan(
		&s.ID, &s.RepoPath, &s.Operation, &remote, &branch, &s.Force, &s.Invocation, &s.Status,
		&headBefore, &headAfter, &output, &errorMessage, &exitCode, &s.PID, &s.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Remote = remote.String
	s.Branch = branch.String
	s.HeadBefore = headBefore.String
	s.HeadAfter = headAfter.String
	s.Output = output.String
	s.ErrorMessage = errorMessage.String
	if exitCode.Valid {
		code := int(exitCode.Int64)
		s.ExitCode = &code
	}
	if finishedAt.Valid {
		s.FinishedAt = &finishedAt.Time
	}
	return &s, nil
}

// CreateSync records a sync that is about to start.
// ID, Status, PID and StartedAt are filled in when empty.
func (s *Store) CreateSync(ctx context.Context, rec *Sync) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = StatusRunning
	}
	if rec.PID == 0 {
		rec.PID = os.Getpid()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO syncs (id, repo_path, operation, remote, branch, forced, invocation, status, head_before, pid, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.RepoPath, rec.Operation, nullString(rec.Remote), nullString(rec.Branch),
		rec.Force, rec.Invocation, rec.Status, nullString(rec.HeadBefore), rec.PID, rec.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync: %w", err)
	}

	return nil
}

// FinishSync stores the outcome of a sync and stamps its finish time.
func (s *Store) FinishSync(ctx context.Context, rec *Sync) error {
	finished := time.Now().UTC()

	query := `
		UPDATE syncs
		SET status = ?, head_after = ?, output = ?, error_message = ?, exit_code = ?, finished_at = ?
		WHERE id = ?
	`

	var exitCode sql.NullInt64
	if rec.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*rec.ExitCode), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query,
		rec.Status, nullString(rec.HeadAfter), nullString(rec.Output), nullString(rec.ErrorMessage),
		exitCode, finished, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish sync: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ErrSyncNotFound
	}

	rec.FinishedAt = &finished
	return nil
}

// GetSync returns a sync by full ID or unique ID prefix.
func (s *Store) GetSync(ctx context.Context, id string) (*Sync, error) {
	if id == "" {
		return nil, errors.ErrSyncNotFound
	}

	// Plain substring comparison so '%' and '_' in id are not wildcards.
	query := `SELECT ` + syncColumns + ` FROM syncs WHERE substr(id, 1, ?) = ?
		ORDER BY id = ? DESC, started_at DESC LIMIT 2`

	rows, err := s.db.QueryContext(ctx, query, len(id), id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync: %w", err)
	}
	defer rows.Close()

	var found []*Sync
	for rows.Next() {
		rec, err := scanSync(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync: %w", err)
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, errors.ErrSyncNotFound
	case len(found) > 1 && found[0].ID != id:
		return nil, fmt.Errorf("sync id prefix %q is ambiguous", id)
	}
	return found[0], nil
}

// ListSyncs returns the most recent syncs, newest first.
// An empty repoPath lists every repository.
func (s *Store) ListSyncs(ctx context.Context, repoPath string, limit int) ([]*Sync, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + syncColumns + ` FROM syncs`
	var args []any
	if repoPath != "" {
		query += ` WHERE repo_path = ?`
		args = append(args, repoPath)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list syncs: %w", err)
	}
	defer rows.Close()

	var syncs []*Sync
	for rows.Next() {
		rec, err := scanSync(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync: %w", err)
		}
		syncs = append(syncs, rec)
	}

	return syncs, rows.Err()
}

// LatestSync returns the newest sync recorded for repoPath.
func (s *Store) LatestSync(ctx context.Context, repoPath string) (*Sync, error) {
	query := `SELECT ` + syncColumns + ` FROM syncs WHERE repo_path = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`

	rec, err := scanSync(s.db.QueryRowContext(ctx, query, repoPath))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrSyncNotFound
		}
		return nil, fmt.Errorf("failed to get latest sync: %w", err)
	}
	return rec, nil
}

// MarkInterrupted flags running syncs whose owning process is gone.
// alive reports whether a PID still exists.
func (s *Store) MarkInterrupted(ctx context.Context, alive func(pid int) bool) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, pid FROM syncs WHERE status = ?`, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to list running syncs: %w", err)
	}

	var stale []string
	for rows.Next() {
		var id string
		var pid int
		if err := rows.Scan(&id, &pid); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan sync: %w", err)
		}
		if !alive(pid) {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range stale {
		_, err := s.db.ExecContext(ctx,
			`UPDATE syncs SET status = ?, finished_at = ? WHERE id = ? AND status = ?`,
			StatusInterrupted, time.Now().UTC(), id, StatusRunning,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to mark sync interrupted: %w", err)
		}
	}

	return len(stale), nil
}

// PruneSyncs deletes all but the newest keep records for repoPath.
func (s *Store) PruneSyncs(ctx context.Context, repoPath string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	query := `
		DELETE FROM syncs
		WHERE repo_path = ? AND status != ? AND id NOT IN (
			SELECT id FROM syncs WHERE repo_path = ?
			ORDER BY started_at DESC, rowid DESC LIMIT ?
		)
	`

	result, err := s.db.ExecContext(ctx, query, repoPath, StatusRunning, repoPath, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune syncs: %w", err)
	}
	return result.RowsAffected()
}

// --- Helper Functions ---

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
