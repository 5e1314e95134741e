package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cucia/job-sentinel/internal/model"
)

// Ensure SQLiteStore implements model.JobStore.
var _ model.JobStore = (*SQLiteStore)(nil)

// SQLiteStore persists job records in a SQLite database, keyed by job_key.
// It is the single source of truth for dedup and status; the pipeline holds
// no job state of its own between cycles.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS jobs (
		job_key     TEXT PRIMARY KEY,
		platform    TEXT NOT NULL DEFAULT '',
		title       TEXT NOT NULL DEFAULT '',
		company     TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		job_url     TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'queued',
		easy_apply  INTEGER,
		score       INTEGER,
		decision    TEXT,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL,
		applied_at  DATETIME
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}

	createIndex := `CREATE INDEX IF NOT EXISTS idx_jobs_status_created
		ON jobs (status, created_at)`
	if _, err := db.Exec(createIndex); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// HasSeen returns true if the given job key has already been recorded.
func (s *SQLiteStore) HasSeen(key string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM jobs WHERE job_key = ?", key).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen status for %s: %w", key, err)
	}
	return true, nil
}

// Enqueue inserts a job as queued with created_at = updated_at = now.
// Re-insertion of a seen key is a no-op, which makes ingestion idempotent.
func (s *SQLiteStore) Enqueue(job model.Job) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO jobs
			(job_key, platform, title, company, location, description, job_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.Key, job.Platform, job.Title, job.Company, job.Location,
		job.Description, job.URL, string(model.StatusQueued), now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueuing job %s: %w", job.Key, err)
	}
	return nil
}

const jobColumns = `job_key, platform, title, company, location, description,
	job_url, status, easy_apply, score, decision, created_at, updated_at, applied_at`

func scanJob(row interface{ Scan(...any) error }) (*model.Job, error) {
	var j model.Job
	var status string
	var easyApply, score sql.NullInt64
	var decision sql.NullString
	var appliedAt sql.NullTime
	err := row.Scan(
		&j.Key, &j.Platform, &j.Title, &j.Company, &j.Location, &j.Description,
		&j.URL, &status, &easyApply, &score, &decision, &j.CreatedAt, &j.UpdatedAt, &appliedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Status = model.Status(status)
	if easyApply.Valid {
		v := int(easyApply.Int64)
		j.EasyApply = &v
	}
	if score.Valid {
		v := int(score.Int64)
		j.Score = &v
	}
	if decision.Valid {
		v := decision.String
		j.Decision = &v
	}
	if appliedAt.Valid {
		t := appliedAt.Time
		j.AppliedAt = &t
	}
	return &j, nil
}

// NextQueued returns the oldest queued job by created_at, or nil when the
// queue is empty. Callers serialize the apply phase, so a popped job is
// expected to be moved off queued before the next call.
func (s *SQLiteStore) NextQueued() (*model.Job, error) {
	row := s.db.QueryRow(
		"SELECT "+jobColumns+" FROM jobs WHERE status = ? ORDER BY created_at, job_key LIMIT 1",
		string(model.StatusQueued),
	)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching next queued job: %w", err)
	}
	return job, nil
}

// Update applies a partial update and stamps updated_at. Setting status to
// applied also stamps applied_at. Rows already in applied status are never
// touched again, and a missing key is a harmless no-op.
func (s *SQLiteStore) Update(key string, fields model.JobUpdate) error {
	now := time.Now().UTC()
	sets := []string{"updated_at = ?"}
	args := []any{now}

	if fields.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*fields.Status))
		if *fields.Status == model.StatusApplied {
			sets = append(sets, "applied_at = ?")
			args = append(args, now)
		}
	}
	if fields.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *fields.Description)
	}
	if fields.Company != nil {
		sets = append(sets, "company = ?")
		args = append(args, *fields.Company)
	}
	if fields.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *fields.Location)
	}
	if fields.EasyApply != nil {
		sets = append(sets, "easy_apply = ?")
		args = append(args, *fields.EasyApply)
	}

	args = append(args, key, string(model.StatusApplied))
	query := "UPDATE jobs SET " + strings.Join(sets, ", ") + " WHERE job_key = ? AND status != ?"
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("updating job %s: %w", key, err)
	}
	return nil
}

// RecordDecision writes the decision reason and score for a job. Applied rows
// are immutable; a missing key is a no-op.
func (s *SQLiteStore) RecordDecision(key string, reason string, score int) error {
	_, err := s.db.Exec(
		"UPDATE jobs SET decision = ?, score = ?, updated_at = ? WHERE job_key = ? AND status != ?",
		reason, score, time.Now().UTC(), key, string(model.StatusApplied),
	)
	if err != nil {
		return fmt.Errorf("recording decision for %s: %w", key, err)
	}
	return nil
}

// DailyApplyCount counts jobs applied on the given UTC calendar day. The
// count is derived from applied_at rather than kept in a counter, so it
// cannot drift across crashes and restarts.
func (s *SQLiteStore) DailyApplyCount(day time.Time) (int, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM jobs WHERE status = ? AND applied_at >= ? AND applied_at < ?",
		string(model.StatusApplied), start, end,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting applies for %s: %w", start.Format("2006-01-02"), err)
	}
	return count, nil
}

// List returns jobs matching the filter, newest first. It is a read-only
// projection; no pipeline logic depends on its result.
func (s *SQLiteStore) List(filter model.ListFilter) ([]model.Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs"
	var conds []string
	var args []any

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(filter.Platforms) > 0 {
		placeholders := make([]string, len(filter.Platforms))
		for i, p := range filter.Platforms {
			placeholders[i] = "?"
			args = append(args, p)
		}
		conds = append(conds, "platform IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, job_key"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// Get returns a single job by key, or nil if absent.
func (s *SQLiteStore) Get(key string) (*model.Job, error) {
	row := s.db.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE job_key = ?", key)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching job %s: %w", key, err)
	}
	return job, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
