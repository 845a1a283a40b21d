package analyzer_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff/internal/analyzer"
	"takeoff/internal/domain"
)

// stubRunner returns canned output for pdftotext invocations.
type stubRunner struct {
	stdout []byte
	err    error
}

func (s stubRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return s.stdout, nil, s.err
}

func writePNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, height/2, color.Black)
	}
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestAnalyze_MissingFile(t *testing.T) {
	a := analyzer.New("")

	_, err := a.Analyze(context.Background(), "/nonexistent/file.pdf")

	assert.True(t, errors.Is(err, domain.ErrUnreadableDocument))
}

func TestAnalyze_ImageIsSinglePageScan(t *testing.T) {
	a := analyzer.New("")
	path := writePNG(t, 2550, 3300) // letter sheet at 300 DPI

	metrics, err := a.Analyze(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 1, metrics.PageCount)
	assert.True(t, metrics.IsScanned)
	assert.Equal(t, 300, metrics.EstimatedDPI)
	assert.Greater(t, metrics.SizeBytes, int64(0))
}

func TestAnalyze_LowResImageDPIBucket(t *testing.T) {
	a := analyzer.New("")
	path := writePNG(t, 850, 1100) // ~100 DPI, below the 150 bucket

	metrics, err := a.Analyze(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 72, metrics.EstimatedDPI)
}

func TestAnalyze_CorruptImage(t *testing.T) {
	a := analyzer.New("")
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o600))

	_, err := a.Analyze(context.Background(), path)

	assert.True(t, errors.Is(err, domain.ErrUnreadableDocument))
}

func TestAnalyze_CorruptPDF(t *testing.T) {
	a := analyzer.NewWithRunner("", stubRunner{})
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 truncated garbage"), 0o600))

	_, err := a.Analyze(context.Background(), path)

	assert.True(t, errors.Is(err, domain.ErrUnreadableDocument))
}

func TestComplexity_ScannedScoresHigherThanDigital(t *testing.T) {
	a := analyzer.New("")

	scanned, err := a.Analyze(context.Background(), writePNG(t, 2550, 3300))
	require.NoError(t, err)

	// Scanned raster at 300 DPI: DPI and scanned factors both contribute.
	assert.Greater(t, scanned.ComplexityScore, 0.3)
	assert.LessOrEqual(t, scanned.ComplexityScore, 1.0)

	low, err := a.Analyze(context.Background(), writePNG(t, 850, 1100))
	require.NoError(t, err)
	assert.Less(t, low.ComplexityScore, scanned.ComplexityScore)
}
