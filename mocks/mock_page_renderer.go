package mocks

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"takeoff/internal/port"
)

// MockPageRenderer is a mock implementation of port.PageRenderer.
type MockPageRenderer struct {
	mock.Mock
}

func (m *MockPageRenderer) RenderPage(ctx context.Context, path string, page, dpi int) (image.Image, error) {
	args := m.Called(ctx, path, page, dpi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}

func (m *MockPageRenderer) PageDims(ctx context.Context, path string) ([]port.PageDims, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.PageDims), args.Error(1)
}
