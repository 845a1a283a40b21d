package strategy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"takeoff/internal/domain"
	"takeoff/internal/normalize"
	"takeoff/internal/strategy"
	"takeoff/mocks"
)

func TestFullDocument_CanHandleBounds(t *testing.T) {
	backend := new(mocks.MockVisionBackend)
	s := strategy.NewFullDocument(backend, nil, true, 50, 10)

	cases := []struct {
		name    string
		metrics domain.DocumentMetrics
		want    bool
	}{
		{"small digital doc", domain.DocumentMetrics{SizeBytes: 3 << 20, PageCount: 8}, true},
		{"too many pages", domain.DocumentMetrics{SizeBytes: 3 << 20, PageCount: 150}, false},
		{"too large", domain.DocumentMetrics{SizeBytes: 80 << 20, PageCount: 5}, false},
		{"at page limit", domain.DocumentMetrics{SizeBytes: 1 << 20, PageCount: 10}, true},
		{"at size limit", domain.DocumentMetrics{SizeBytes: 50 << 20, PageCount: 5}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.CanHandle(tc.metrics))
		})
	}
}

func TestFullDocument_Availability(t *testing.T) {
	backend := new(mocks.MockVisionBackend)
	backend.On("Available").Return(true)

	assert.True(t, strategy.NewFullDocument(backend, nil, true, 0, 0).Available())
	assert.False(t, strategy.NewFullDocument(backend, nil, false, 0, 0).Available())
	assert.False(t, strategy.NewFullDocument(nil, nil, true, 0, 0).Available())

	down := new(mocks.MockVisionBackend)
	down.On("Available").Return(false)
	assert.False(t, strategy.NewFullDocument(down, nil, true, 0, 0).Available())
}

func TestFullDocument_Parse(t *testing.T) {
	normalizer, err := normalize.New()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "plans.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 test"), 0o600))

	backend := new(mocks.MockVisionBackend)
	backend.On("Name").Return("anthropic")
	backend.On("Extract", mock.Anything, mock.Anything).
		Return(`{"line_items": [{"item_number": "201", "description": "Unclassified Excavation", "quantity": 4500, "unit": "CY"}], "specifications": [], "project_info": {}, "materials": []}`, nil).Once()

	s := strategy.NewFullDocument(backend, normalizer, true, 50, 10)
	metrics := domain.DocumentMetrics{SizeBytes: 13, PageCount: 3}

	result, err := s.Parse(context.Background(), path, metrics, 0)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StrategyFullDocument, result.StrategyName)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, 3, result.PagesAnalyzed)
	require.Len(t, result.Data.LineItems, 1)
	assert.Equal(t, "201", result.Data.LineItems[0].ItemNumber)
}

func TestFullDocument_ParseFailsFast(t *testing.T) {
	normalizer, err := normalize.New()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "plans.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 test"), 0o600))

	backend := new(mocks.MockVisionBackend)
	backend.On("Extract", mock.Anything, mock.Anything).
		Return("this is not json", nil).Once()

	s := strategy.NewFullDocument(backend, normalizer, true, 50, 10)

	result, err := s.Parse(context.Background(), path, domain.DocumentMetrics{}, 0)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrSchemaViolation)
	backend.AssertNumberOfCalls(t, "Extract", 1)
}
