package port

import (
	"context"

	"github.com/google/uuid"

	"takeoff/internal/domain"
)

// FileMetaRepository defines the contract for file metadata persistence.
type FileMetaRepository interface {
	Create(ctx context.Context, meta *domain.FileMeta) error
	GetByID(ctx context.Context, fileID uuid.UUID) (*domain.FileMeta, error)
	List(ctx context.Context, offset, limit int) ([]domain.FileMeta, int, error)
	UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus) error
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// ParseJobRepository defines the contract for parse job persistence.
type ParseJobRepository interface {
	Create(ctx context.Context, job *domain.ParseJob) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*domain.ParseJob, error)
	ListByFile(ctx context.Context, fileID uuid.UUID, offset, limit int) ([]domain.ParseJob, int, error)
	// ClaimQueued atomically moves up to limit queued jobs to processing
	// and returns them. Concurrent workers never claim the same job.
	ClaimQueued(ctx context.Context, limit int) ([]domain.ParseJob, error)
	// Requeue returns a claimed job to the queue after a retryable failure.
	Requeue(ctx context.Context, jobID uuid.UUID) error
	Complete(ctx context.Context, job *domain.ParseJob) error
	Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error
}
