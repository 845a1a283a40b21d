package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"takeoff/internal/domain"
)

// MockParseJobRepo is a mock implementation of port.ParseJobRepository.
type MockParseJobRepo struct {
	mock.Mock
}

func (m *MockParseJobRepo) Create(ctx context.Context, job *domain.ParseJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockParseJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*domain.ParseJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseJob), args.Error(1)
}

func (m *MockParseJobRepo) ListByFile(ctx context.Context, fileID uuid.UUID, offset, limit int) ([]domain.ParseJob, int, error) {
	args := m.Called(ctx, fileID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParseJob), args.Int(1), args.Error(2)
}

func (m *MockParseJobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ParseJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ParseJob), args.Error(1)
}

func (m *MockParseJobRepo) Requeue(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockParseJobRepo) Complete(ctx context.Context, job *domain.ParseJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockParseJobRepo) Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	args := m.Called(ctx, jobID, errMsg)
	return args.Error(0)
}
