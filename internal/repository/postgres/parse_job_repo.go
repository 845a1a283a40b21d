package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"takeoff/internal/domain"
	"takeoff/internal/port"
)

type parseJobRepo struct {
	db *sqlx.DB
}

// NewParseJobRepo creates a new PostgreSQL-backed ParseJobRepository.
func NewParseJobRepo(db *sqlx.DB) port.ParseJobRepository {
	return &parseJobRepo{db: db}
}

func (r *parseJobRepo) Create(ctx context.Context, job *domain.ParseJob) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `INSERT INTO parse_jobs
		(id, file_id, status, max_pages, attempts, strategy_used, confidence,
		 pages_analyzed, duration_ms, result, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.FileID, job.Status, job.MaxPages, job.Attempts,
		job.StrategyUsed, job.Confidence, job.PagesAnalyzed, job.DurationMs,
		job.Result, job.ErrorMessage, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("parseJobRepo.Create: %w", err)
	}
	return nil
}

func (r *parseJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*domain.ParseJob, error) {
	var job domain.ParseJob
	err := r.db.GetContext(ctx, &job, "SELECT * FROM parse_jobs WHERE id = $1", jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("parseJobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *parseJobRepo) ListByFile(ctx context.Context, fileID uuid.UUID, offset, limit int) ([]domain.ParseJob, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM parse_jobs WHERE file_id = $1", fileID)
	if err != nil {
		return nil, 0, fmt.Errorf("parseJobRepo.ListByFile count: %w", err)
	}

	var jobs []domain.ParseJob
	err = r.db.SelectContext(ctx, &jobs,
		`SELECT * FROM parse_jobs
		 WHERE file_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		fileID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("parseJobRepo.ListByFile: %w", err)
	}
	return jobs, total, nil
}

// ClaimQueued atomically flips up to limit queued jobs to processing and
// returns them. SKIP LOCKED keeps concurrent workers from claiming the same
// row.
func (r *parseJobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ParseJob, error) {
	query := `UPDATE parse_jobs SET
			status = $1,
			attempts = attempts + 1,
			updated_at = $2
		WHERE id IN (
			SELECT id FROM parse_jobs
			WHERE status = $3
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	var jobs []domain.ParseJob
	err := r.db.SelectContext(ctx, &jobs, query,
		domain.JobStatusProcessing, time.Now().UTC(), domain.JobStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("parseJobRepo.ClaimQueued: %w", err)
	}
	return jobs, nil
}

func (r *parseJobRepo) Requeue(ctx context.Context, jobID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE parse_jobs SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		domain.JobStatusQueued, time.Now().UTC(), jobID, domain.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("parseJobRepo.Requeue: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrJobNotQueued
	}
	return nil
}

func (r *parseJobRepo) Complete(ctx context.Context, job *domain.ParseJob) error {
	now := time.Now().UTC()
	job.Status = domain.JobStatusCompleted
	job.UpdatedAt = now
	job.CompletedAt = &now

	query := `UPDATE parse_jobs SET
			status = $1, strategy_used = $2, confidence = $3, pages_analyzed = $4,
			duration_ms = $5, result = $6, error_message = '', updated_at = $7,
			completed_at = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		job.Status, job.StrategyUsed, job.Confidence, job.PagesAnalyzed,
		job.DurationMs, job.Result, job.UpdatedAt, job.CompletedAt, job.ID)
	if err != nil {
		return fmt.Errorf("parseJobRepo.Complete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *parseJobRepo) Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE parse_jobs SET status = $1, error_message = $2, updated_at = $3, completed_at = $4
		 WHERE id = $5`,
		domain.JobStatusFailed, errMsg, now, now, jobID)
	if err != nil {
		return fmt.Errorf("parseJobRepo.Fail: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
