package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Job types understood by the scheduler.
const (
	JobTimeBan          = "timeban"
	JobTimedRestriction = "timed_restriction"
)

// TimedJob is a persisted unit of deferred work. Payload carries the
// type-specific fields serialized as JSON.
type TimedJob struct {
	ID        int64
	JobType   string
	CreatedAt time.Time
	ExpiresAt time.Time
	Payload   string
}

// AddJob persists a timed job and returns its identifier. Timestamps are
// stored as Unix nanoseconds so expiry comparisons stay numeric.
func (s *Store) AddJob(ctx context.Context, job TimedJob) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO timed_jobs (job_type, created_at, expires_at, payload)
		VALUES (?, ?, ?, ?)
	`, job.JobType, job.CreatedAt.UnixNano(), job.ExpiresAt.UnixNano(), job.Payload)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DueJobs returns jobs whose expiry is at or before now, oldest first.
func (s *Store) DueJobs(ctx context.Context, now time.Time) ([]TimedJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_type, created_at, expires_at, payload
		FROM timed_jobs
		WHERE expires_at <= ?
		ORDER BY expires_at, id
	`, now.UnixNano())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

// NextJob returns the job with the earliest expiry, or ok=false when the
// queue is empty.
func (s *Store) NextJob(ctx context.Context) (TimedJob, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, job_type, created_at, expires_at, payload
		FROM timed_jobs
		ORDER BY expires_at, id
		LIMIT 1
	`)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TimedJob{}, false, nil
	}
	if err != nil {
		return TimedJob{}, false, err
	}
	return job, true, nil
}

func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM timed_jobs WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (TimedJob, error) {
	var job TimedJob
	var created, expires int64
	err := row.Scan(&job.ID, &job.JobType, &created, &expires, &job.Payload)
	if err != nil {
		return TimedJob{}, err
	}
	job.CreatedAt = time.Unix(0, created).UTC()
	job.ExpiresAt = time.Unix(0, expires).UTC()
	return job, nil
}

func scanJobs(rows *sql.Rows) ([]TimedJob, error) {
	var jobs []TimedJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
