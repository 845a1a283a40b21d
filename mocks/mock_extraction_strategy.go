package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"takeoff/internal/domain"
)

// MockExtractionStrategy is a mock implementation of port.ExtractionStrategy.
type MockExtractionStrategy struct {
	mock.Mock
}

func (m *MockExtractionStrategy) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockExtractionStrategy) Priority() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockExtractionStrategy) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockExtractionStrategy) CanHandle(metrics domain.DocumentMetrics) bool {
	args := m.Called(metrics)
	return args.Bool(0)
}

func (m *MockExtractionStrategy) Parse(ctx context.Context, path string, metrics domain.DocumentMetrics, maxPages int) (*domain.ParseResult, error) {
	args := m.Called(ctx, path, metrics, maxPages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}
