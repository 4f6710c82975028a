package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"morph/internal/jobs"
)

// Store manages the terminal-job archive backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Entry is one archived terminal job.
type Entry struct {
	JobID          string
	Status         jobs.Status
	InputFilename  string
	ConversionType string
	Message        string
	ProcessingTime float64
	FileSize       int64
	ArchivedAt     time.Time
}

// Open initializes or connects to the archive database at path and applies
// migrations. The caller owns the returned store and must Close it.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create archive dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("history: acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("history: archive is locked by another morph instance")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("history: open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("history: apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, lock: lock}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS terminal_jobs (
        job_id TEXT PRIMARY KEY,
        status TEXT NOT NULL,
        input_filename TEXT,
        conversion_type TEXT,
        message TEXT,
        processing_time REAL,
        file_size INTEGER,
        archived_at TEXT NOT NULL
    )`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("history: apply schema: %w", err)
	}
	return nil
}

// Record archives one terminal job. Re-recording a job id is a no-op so
// callers do not need their own deduplication.
func (s *Store) Record(ctx context.Context, job jobs.Job) error {
	if s == nil || s.db == nil {
		return nil
	}
	if job.JobID == "" {
		return errors.New("history: record without job id")
	}
	if !job.IsTerminal() {
		return fmt.Errorf("history: refusing to archive non-terminal job %s (%s)", job.JobID, job.Status)
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO terminal_jobs (
            job_id, status, input_filename, conversion_type,
            message, processing_time, file_size, archived_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID,
		string(job.Status),
		job.InputFilename,
		job.ConversionType,
		job.Message,
		job.ProcessingTime,
		job.FileSize,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("history: archive job %s: %w", job.JobID, err)
	}
	return nil
}

// List returns the most recently archived entries, newest first. A limit of
// zero or less returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	query := `SELECT job_id, status, input_filename, conversion_type,
        message, processing_time, file_size, archived_at
        FROM terminal_jobs ORDER BY archived_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			status     string
			archivedAt string
		)
		if err := rows.Scan(
			&entry.JobID, &status, &entry.InputFilename, &entry.ConversionType,
			&entry.Message, &entry.ProcessingTime, &entry.FileSize, &archivedAt,
		); err != nil {
			return nil, fmt.Errorf("history: scan entry: %w", err)
		}
		entry.Status = jobs.Status(status)
		if parsed, err := time.Parse(time.RFC3339Nano, archivedAt); err == nil {
			entry.ArchivedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate archive: %w", err)
	}
	return entries, nil
}

// Close releases the database handle and the archive lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var dbErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	return dbErr
}
