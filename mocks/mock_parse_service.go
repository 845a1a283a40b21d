package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"takeoff/internal/domain"
)

// MockParseService is a mock implementation of service.ParseService.
type MockParseService struct {
	mock.Mock
}

func (m *MockParseService) ParseSync(ctx context.Context, fileID uuid.UUID, maxPages int) (*domain.ParseResult, error) {
	args := m.Called(ctx, fileID, maxPages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockParseService) Enqueue(ctx context.Context, fileID uuid.UUID, maxPages int) (*domain.ParseJob, error) {
	args := m.Called(ctx, fileID, maxPages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseJob), args.Error(1)
}

func (m *MockParseService) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.ParseJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseJob), args.Error(1)
}

func (m *MockParseService) ListJobs(ctx context.Context, fileID uuid.UUID, offset, limit int) ([]domain.ParseJob, int, error) {
	args := m.Called(ctx, fileID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParseJob), args.Int(1), args.Error(2)
}

func (m *MockParseService) RunJob(ctx context.Context, job *domain.ParseJob, maxAttempts int) {
	m.Called(ctx, job, maxAttempts)
}
