package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"takeoff/internal/port"
)

// MockVisionBackend is a mock implementation of port.VisionBackend.
type MockVisionBackend struct {
	mock.Mock
}

func (m *MockVisionBackend) Extract(ctx context.Context, input port.ExtractInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockVisionBackend) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockVisionBackend) Name() string {
	args := m.Called()
	return args.String(0)
}
