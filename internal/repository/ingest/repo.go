// Package ingest persists ingest jobs: one per resource, updated by worker
// status/progress callbacks.
package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/repository/relational"
)

const jobColumns = `resource_id, resource_type, title, status, stage,
	total_units, processed_units, error_message, created_at, updated_at`

// Repo implements the ingest job storage contract.
type Repo struct {
	db *sql.DB
}

// New creates an ingest job repository.
func New(store *relational.Store) *Repo {
	return &Repo{db: store.DB()}
}

// CreateTx inserts a queued job for the resource inside the caller's
// transaction. Idempotent: a second insert for the same resource is a no-op.
func CreateTx(ctx context.Context, tx *sql.Tx, resourceID int64, resourceType, title string) error {
	now := relational.Now()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ingest_jobs (resource_id, resource_type, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (resource_id) DO NOTHING`,
		resourceID, resourceType, title, domain.IngestQueued, now, now,
	)
	if err != nil {
		return fmt.Errorf("create ingest job: %w", err)
	}
	return nil
}

// FindByResourceID returns the job for a resource, or domain.ErrNotFound.
func (r *Repo) FindByResourceID(ctx context.Context, resourceID int64) (domain.IngestJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM ingest_jobs WHERE resource_id = ?`, resourceID)
	job, err := scanJob(row)
	if err != nil {
		return domain.IngestJob{}, fmt.Errorf("find ingest job %d: %w", resourceID, err)
	}
	return job, nil
}

// ListRecent returns jobs by last update, newest first.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]domain.IngestJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM ingest_jobs ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list ingest jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.IngestJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list ingest jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ingest jobs: %w", err)
	}
	return jobs, nil
}

// UpdateStatus sets the job status and error message.
func (r *Repo) UpdateStatus(ctx context.Context, resourceID int64, status string, errorMessage *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ingest_jobs
		SET status = ?, error_message = ?, updated_at = ?
		WHERE resource_id = ?`,
		status, errorMessage, relational.Now(), resourceID,
	)
	if err != nil {
		return fmt.Errorf("update ingest status %d: %w", resourceID, err)
	}
	return checkUpdated(res, resourceID)
}

// UpdateProgress sets the job stage and unit counters.
func (r *Repo) UpdateProgress(ctx context.Context, resourceID int64, stage string, totalUnits, processedUnits *int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ingest_jobs
		SET stage = ?, total_units = ?, processed_units = ?, updated_at = ?
		WHERE resource_id = ?`,
		stage, totalUnits, processedUnits, relational.Now(), resourceID,
	)
	if err != nil {
		return fmt.Errorf("update ingest progress %d: %w", resourceID, err)
	}
	return checkUpdated(res, resourceID)
}

func checkUpdated(res sql.Result, resourceID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ingest job %d: %w", resourceID, domain.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (domain.IngestJob, error) {
	var (
		job                  domain.IngestJob
		stage, errMsg        sql.NullString
		total, processed     sql.NullInt64
		createdAt, updatedAt string
	)
	err := s.Scan(
		&job.ResourceID, &job.ResourceType, &job.Title, &job.Status, &stage,
		&total, &processed, &errMsg, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.IngestJob{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.IngestJob{}, err
	}
	if stage.Valid {
		v := stage.String
		job.Stage = &v
	}
	if errMsg.Valid {
		v := errMsg.String
		job.ErrorMessage = &v
	}
	if total.Valid {
		v := int(total.Int64)
		job.TotalUnits = &v
	}
	if processed.Valid {
		v := int(processed.Int64)
		job.ProcessedUnits = &v
	}
	if job.CreatedAt, err = relational.ParseTime(createdAt); err != nil {
		return domain.IngestJob{}, err
	}
	if job.UpdatedAt, err = relational.ParseTime(updatedAt); err != nil {
		return domain.IngestJob{}, err
	}
	return job, nil
}
