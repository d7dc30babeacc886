// Package db provides connection helpers and repositories for the three
// shared stores: SQLite (source of truth), MongoDB (read-optimised mirror)
// and Redis (scrape state).
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"remotejobs/aggregator/internal/model"
)

// SQLiteStore is the repository over the canonical `jobs` table.
// Writes happen only from the scraper pipeline; every other component reads.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path, verifies the
// connection and runs schema migration.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}

	return s, nil
}

// migrate creates the jobs table. source_url uniqueness is enforced here, at
// the store level, with a UNIQUE index; inserts rely on it via INSERT OR
// IGNORE so every deployment gets the same single mechanism.
func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			title                TEXT NOT NULL,
			company              TEXT NOT NULL,
			location             TEXT NOT NULL DEFAULT '',
			salary_min           REAL,
			salary_max           REAL,
			salary_currency      TEXT NOT NULL DEFAULT 'USD',
			salary_period        TEXT NOT NULL DEFAULT 'yearly',
			description          TEXT NOT NULL DEFAULT '',
			requirements         TEXT NOT NULL DEFAULT '',
			benefits             TEXT NOT NULL DEFAULT '',
			job_type             TEXT NOT NULL DEFAULT '',
			experience_level     TEXT NOT NULL DEFAULT '',
			remote_type          TEXT NOT NULL DEFAULT 'remote',
			source_url           TEXT NOT NULL,
			source_platform      TEXT NOT NULL,
			posted_date          TIMESTAMP,
			skills               TEXT NOT NULL DEFAULT '[]',
			ai_generated_summary TEXT NOT NULL DEFAULT '',
			ai_processed         INTEGER NOT NULL DEFAULT 0,
			is_active            INTEGER NOT NULL DEFAULT 1,
			created_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_source_url    ON jobs(source_url);
		CREATE INDEX        IF NOT EXISTS idx_jobs_active_remote ON jobs(is_active, remote_type);
		CREATE INDEX        IF NOT EXISTS idx_jobs_created_at    ON jobs(created_at);
	`)
	return err
}

const jobColumns = `id, title, company, location, salary_min, salary_max,
	salary_currency, salary_period, description, requirements, benefits,
	job_type, experience_level, remote_type, source_url, source_platform,
	posted_date, skills, ai_generated_summary, ai_processed, is_active,
	created_at, updated_at`

// InsertJob inserts a new job record. A source_url collision is a skip, not
// an error: inserted is false and the existing row is left untouched.
func (s *SQLiteStore) InsertJob(ctx context.Context, rec *model.JobRecord) (inserted bool, err error) {
	skills, err := json.Marshal(rec.Skills)
	if err != nil {
		return false, fmt.Errorf("marshal skills: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO jobs (
			title, company, location, salary_min, salary_max,
			salary_currency, salary_period, description, requirements, benefits,
			job_type, experience_level, remote_type, source_url, source_platform,
			posted_date, skills, ai_generated_summary, ai_processed, is_active,
			created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.Title, rec.Company, rec.Location, rec.SalaryMin, rec.SalaryMax,
		orDefault(rec.SalaryCurrency, "USD"), orDefault(rec.SalaryPeriod, "yearly"),
		rec.Description, rec.Requirements, rec.Benefits,
		rec.JobType, rec.ExperienceLevel, orDefault(rec.RemoteType, "remote"),
		rec.SourceURL, rec.SourcePlatform,
		rec.PostedDate, string(skills), rec.AISummary, rec.AIProcessed, true,
		now, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ActiveRemoteJobs returns one page of the active, fully-remote working set
// the sync engine mirrors into MongoDB. Pages are ordered by row id so
// consecutive calls walk the set without gaps or repeats.
func (s *SQLiteStore) ActiveRemoteJobs(ctx context.Context, limit, offset int) ([]model.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE is_active = 1 AND remote_type = 'remote' ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query active remote jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// JobFilter narrows ListJobs results. Zero values mean "no constraint".
type JobFilter struct {
	Search          string
	ExperienceLevel string
	MinSalary       float64
	Limit           int
}

// ListJobs returns active jobs matching the filter, newest first.
func (s *SQLiteStore) ListJobs(ctx context.Context, f JobFilter) ([]model.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE is_active = 1`
	var args []any

	if f.Search != "" {
		query += ` AND (title LIKE ? OR company LIKE ? OR description LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	if f.ExperienceLevel != "" {
		query += ` AND experience_level = ?`
		args = append(args, f.ExperienceLevel)
	}
	if f.MinSalary > 0 {
		query += ` AND salary_min >= ?`
		args = append(args, f.MinSalary)
	}

	query += ` ORDER BY created_at DESC`
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// GetJob returns a single job by row id, or nil when absent.
func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*model.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

// DeactivateOlderThan soft-deletes (is_active = 0) records created before
// cutoff. Rows are never hard-deleted from the source store.
func (s *SQLiteStore) DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET is_active = 0, updated_at = ? WHERE is_active = 1 AND created_at < ?`,
		time.Now().UTC(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate old jobs: %w", err)
	}
	return res.RowsAffected()
}

// CountJobs returns the number of active jobs.
func (s *SQLiteStore) CountJobs(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE is_active = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanJobs(rows *sql.Rows) ([]model.JobRecord, error) {
	var jobs []model.JobRecord
	for rows.Next() {
		var (
			rec        model.JobRecord
			salaryMin  sql.NullFloat64
			salaryMax  sql.NullFloat64
			postedDate sql.NullTime
			skillsJSON string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Company, &rec.Location, &salaryMin, &salaryMax,
			&rec.SalaryCurrency, &rec.SalaryPeriod, &rec.Description, &rec.Requirements,
			&rec.Benefits, &rec.JobType, &rec.ExperienceLevel, &rec.RemoteType,
			&rec.SourceURL, &rec.SourcePlatform, &postedDate, &skillsJSON,
			&rec.AISummary, &rec.AIProcessed, &rec.IsActive,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}

		if salaryMin.Valid {
			rec.SalaryMin = &salaryMin.Float64
		}
		if salaryMax.Valid {
			rec.SalaryMax = &salaryMax.Float64
		}
		if postedDate.Valid {
			t := postedDate.Time
			rec.PostedDate = &t
		}
		if skillsJSON != "" {
			if err := json.Unmarshal([]byte(skillsJSON), &rec.Skills); err != nil {
				// A corrupt skills blob should not lose the whole row.
				rec.Skills = nil
			}
		}

		jobs = append(jobs, rec)
	}
	return jobs, rows.Err()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
