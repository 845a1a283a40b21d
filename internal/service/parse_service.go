package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"takeoff/internal/analyzer"
	"takeoff/internal/backend"
	"takeoff/internal/domain"
	"takeoff/internal/port"
	"takeoff/internal/strategy"
)

// ParseService defines the document parsing contract.
type ParseService interface {
	// ParseSync runs the full pipeline inline and returns the result.
	ParseSync(ctx context.Context, fileID uuid.UUID, maxPages int) (*domain.ParseResult, error)
	// Enqueue creates a queued parse job for the background worker.
	Enqueue(ctx context.Context, fileID uuid.UUID, maxPages int) (*domain.ParseJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.ParseJob, error)
	ListJobs(ctx context.Context, fileID uuid.UUID, offset, limit int) ([]domain.ParseJob, int, error)
	// RunJob executes a claimed job and records its outcome. Called by the
	// queue worker; the job must already be in processing status.
	RunJob(ctx context.Context, job *domain.ParseJob, maxAttempts int)
}

type parseService struct {
	fileRepo port.FileMetaRepository
	jobRepo  port.ParseJobRepository
	storage  port.ObjectStorage
	analyzer *analyzer.Analyzer
	selector *strategy.Selector
}

// NewParseService creates a new ParseService implementation.
func NewParseService(
	fileRepo port.FileMetaRepository,
	jobRepo port.ParseJobRepository,
	storage port.ObjectStorage,
	docAnalyzer *analyzer.Analyzer,
	selector *strategy.Selector,
) ParseService {
	return &parseService{
		fileRepo: fileRepo,
		jobRepo:  jobRepo,
		storage:  storage,
		analyzer: docAnalyzer,
		selector: selector,
	}
}

func (s *parseService) ParseSync(ctx context.Context, fileID uuid.UUID, maxPages int) (*domain.ParseResult, error) {
	path, cleanup, err := s.fetchToTemp(ctx, fileID)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return s.runPipeline(ctx, path, maxPages)
}

func (s *parseService) Enqueue(ctx context.Context, fileID uuid.UUID, maxPages int) (*domain.ParseJob, error) {
	meta, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if meta.Status != domain.FileStatusUploaded {
		return nil, fmt.Errorf("file %s is not ready for parsing (status %s): %w",
			fileID, meta.Status, domain.ErrNotFound)
	}

	job := &domain.ParseJob{
		ID:       uuid.New(),
		FileID:   fileID,
		Status:   domain.JobStatusQueued,
		MaxPages: maxPages,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	log.Printf("parseService.Enqueue: job %s queued for file %s", job.ID, fileID)
	return job, nil
}

func (s *parseService) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.ParseJob, error) {
	return s.jobRepo.GetByID(ctx, jobID)
}

func (s *parseService) ListJobs(ctx context.Context, fileID uuid.UUID, offset, limit int) ([]domain.ParseJob, int, error) {
	return s.jobRepo.ListByFile(ctx, fileID, offset, limit)
}

func (s *parseService) RunJob(ctx context.Context, job *domain.ParseJob, maxAttempts int) {
	path, cleanup, err := s.fetchToTemp(ctx, job.FileID)
	if err != nil {
		s.failJob(ctx, job, fmt.Sprintf("fetching file: %v", err))
		return
	}
	defer cleanup()

	result, err := s.runPipeline(ctx, path, job.MaxPages)
	if err != nil {
		s.handleJobError(ctx, job, err, maxAttempts)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.failJob(ctx, job, fmt.Sprintf("encoding result: %v", err))
		return
	}

	job.StrategyUsed = result.StrategyName
	job.Confidence = result.Confidence
	job.PagesAnalyzed = result.PagesAnalyzed
	job.DurationMs = result.ProcessingTimeMs
	job.Result = payload
	if !result.Success {
		s.failJob(ctx, job, result.Error)
		return
	}

	if err := s.jobRepo.Complete(ctx, job); err != nil {
		log.Printf("parseService.RunJob: failed to complete job %s: %v", job.ID, err)
		return
	}
	log.Printf("parseService.RunJob: job %s completed via %s (confidence=%.2f)",
		job.ID, result.StrategyName, result.Confidence)
}

// runPipeline is the analyze/select/execute core shared by the sync and
// queued paths.
func (s *parseService) runPipeline(ctx context.Context, path string, maxPages int) (*domain.ParseResult, error) {
	metrics, err := s.analyzer.Analyze(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("analyzing document: %w", err)
	}
	log.Printf("parseService: document metrics: %d bytes, %d pages, ~%d dpi, complexity=%.2f, scanned=%t",
		metrics.SizeBytes, metrics.PageCount, metrics.EstimatedDPI, metrics.ComplexityScore, metrics.IsScanned)

	chain := s.selector.SelectChain(metrics)
	return s.selector.ExecuteChain(ctx, path, metrics, chain, maxPages)
}

// fetchToTemp downloads the file's bytes from object storage into a temp
// file that the renderer and external tools can address by path.
func (s *parseService) fetchToTemp(ctx context.Context, fileID uuid.UUID) (string, func(), error) {
	meta, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return "", nil, err
	}

	data, err := s.storage.Download(ctx, meta.S3Bucket, meta.S3Key)
	if err != nil {
		return "", nil, fmt.Errorf("downloading file %s: %w", fileID, err)
	}

	dir, err := os.MkdirTemp("", "takeoff-parse-")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	path := filepath.Join(dir, meta.FileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}

	return path, func() { _ = os.RemoveAll(dir) }, nil
}

func (s *parseService) handleJobError(ctx context.Context, job *domain.ParseJob, parseErr error, maxAttempts int) {
	var rlErr *backend.RateLimitError
	if errors.As(parseErr, &rlErr) && job.Attempts < maxAttempts {
		if err := s.jobRepo.Requeue(ctx, job.ID); err != nil {
			log.Printf("parseService.handleJobError: failed to requeue job %s: %v", job.ID, err)
			return
		}
		log.Printf("parseService.handleJobError: job %s rate limited by %s, requeued (attempt %d, retry after %s)",
			job.ID, rlErr.Provider, job.Attempts, rlErr.RetryAfter.Round(time.Second))
		return
	}
	s.failJob(ctx, job, fmt.Sprintf("parsing document: %v", parseErr))
}

func (s *parseService) failJob(ctx context.Context, job *domain.ParseJob, errMsg string) {
	log.Printf("parseService.failJob: job %s failed: %s", job.ID, errMsg)
	if err := s.jobRepo.Fail(ctx, job.ID, errMsg); err != nil {
		log.Printf("parseService.failJob: failed to update job %s: %v", job.ID, err)
	}
}
