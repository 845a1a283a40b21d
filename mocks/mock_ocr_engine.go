package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockOCREngine is a mock implementation of port.OCREngine.
type MockOCREngine struct {
	mock.Mock
}

func (m *MockOCREngine) RecognizeImage(imageData []byte) (string, error) {
	args := m.Called(imageData)
	return args.String(0), args.Error(1)
}

func (m *MockOCREngine) Close() error {
	args := m.Called()
	return args.Error(0)
}
