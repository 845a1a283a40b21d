// Package analyzer inspects an incoming document and produces the metrics
// that drive strategy selection: size, pages, estimated resolution, a
// complexity score, and whether the document is scanned.
package analyzer

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"takeoff/internal/domain"
	"takeoff/internal/render"
)

// sampledPages caps how many pages are probed for a text layer.
const sampledPages = 3

// minTextChars is the extracted-text length below which a sampled page set
// counts as having no usable text layer.
const minTextChars = 50

// Complexity score weights. Each factor contributes up to its share of 1.0.
const (
	weightSize    = 0.30
	weightPages   = 0.30
	weightDPI     = 0.20
	weightScanned = 0.20
)

// Analyzer computes DocumentMetrics for a document on disk.
type Analyzer struct {
	pdftotext string
	runner    render.Runner
}

// New creates an Analyzer. An empty binary path defaults to "pdftotext".
func New(pdftotext string) *Analyzer {
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	return &Analyzer{pdftotext: pdftotext, runner: render.ExecRunner()}
}

// NewWithRunner creates an Analyzer with a custom command runner (for testing).
func NewWithRunner(pdftotext string, runner render.Runner) *Analyzer {
	a := New(pdftotext)
	a.runner = runner
	return a
}

// Analyze reads the document once and returns its metrics. Returns
// domain.ErrUnreadableDocument if the file cannot be opened as the declared
// format; that is a hard stop, never retried.
func (a *Analyzer) Analyze(ctx context.Context, path string) (domain.DocumentMetrics, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.DocumentMetrics{}, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	var metrics domain.DocumentMetrics
	metrics.SizeBytes = info.Size()

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if err := a.analyzePDF(ctx, path, &metrics); err != nil {
			return domain.DocumentMetrics{}, err
		}
	} else {
		if err := analyzeImage(path, &metrics); err != nil {
			return domain.DocumentMetrics{}, err
		}
	}

	metrics.ComplexityScore = complexityScore(metrics)
	log.Printf("analyzer: %s size=%dB pages=%d dpi=%d scanned=%v complexity=%.2f",
		filepath.Base(path), metrics.SizeBytes, metrics.PageCount,
		metrics.EstimatedDPI, metrics.IsScanned, metrics.ComplexityScore)
	return metrics, nil
}

func (a *Analyzer) analyzePDF(ctx context.Context, path string, m *domain.DocumentMetrics) error {
	if err := api.ValidateFile(path, nil); err != nil {
		return fmt.Errorf("%w: pdf validation: %v", domain.ErrUnreadableDocument, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil || pages == 0 {
		return fmt.Errorf("%w: page count: %v", domain.ErrUnreadableDocument, err)
	}
	m.PageCount = pages

	m.IsScanned = !a.hasTextLayer(ctx, path, pages)
	m.EstimatedDPI = estimatePDFDPI(path, m)
	return nil
}

// hasTextLayer extracts text from a sample of pages and checks whether any
// meaningful amount comes back.
func (a *Analyzer) hasTextLayer(ctx context.Context, path string, pages int) bool {
	sample := sampledPages
	if pages < sample {
		sample = pages
	}
	// pdftotext -f 1 -l <n> -enc UTF-8 <path> -
	out, _, err := a.runner.Run(ctx, a.pdftotext,
		"-f", "1", "-l", strconv.Itoa(sample), "-enc", "UTF-8", path, "-")
	if err != nil {
		// An extraction failure is not a verdict on the document; treat it
		// as scanned so the raster-based strategies take over.
		return false
	}
	return len(strings.TrimSpace(string(out))) >= minTextChars
}

// estimatePDFDPI buckets the document's bytes per page square inch into a
// plausible scan resolution. Digital documents report the 72 DPI baseline.
func estimatePDFDPI(path string, m *domain.DocumentMetrics) int {
	if !m.IsScanned {
		return 72
	}
	dims, err := api.PageDimsFile(path)
	if err != nil || len(dims) == 0 {
		return 150
	}
	sqIn := (dims[0].Width / 72.0) * (dims[0].Height / 72.0)
	if sqIn <= 0 {
		return 150
	}
	bytesPerSqIn := float64(m.SizeBytes) / float64(m.PageCount) / sqIn
	switch {
	case bytesPerSqIn >= 30*1024:
		return 300
	case bytesPerSqIn >= 15*1024:
		return 200
	case bytesPerSqIn >= 6*1024:
		return 150
	default:
		return 72
	}
}

func analyzeImage(path string, m *domain.DocumentMetrics) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%w: image decode: %v", domain.ErrUnreadableDocument, err)
	}

	m.PageCount = 1
	m.IsScanned = true // single raster, no text layer by definition
	// Assume a letter-width sheet; clamp to the supported scan buckets.
	dpi := int(float64(cfg.Width) / 8.5)
	switch {
	case dpi >= 300:
		m.EstimatedDPI = 300
	case dpi >= 200:
		m.EstimatedDPI = 200
	case dpi >= 150:
		m.EstimatedDPI = 150
	default:
		m.EstimatedDPI = 72
	}
	return nil
}

// complexityScore is a weighted sum of bucketed factors, each capped at its
// weight. It is a selection signal, not a pass/fail gate.
func complexityScore(m domain.DocumentMetrics) float64 {
	score := weightSize * bucket(float64(m.SizeBytes), 5<<20, 25<<20, 100<<20)
	score += weightPages * bucket(float64(m.PageCount), 5, 20, 50)
	score += weightDPI * bucket(float64(m.EstimatedDPI), 100, 200, 300)
	if m.IsScanned {
		score += weightScanned
	}
	if score > 1 {
		score = 1
	}
	return score
}

// bucket maps v onto {0, 1/3, 2/3, 1} using three ascending thresholds.
func bucket(v, t1, t2, t3 float64) float64 {
	switch {
	case v >= t3:
		return 1
	case v >= t2:
		return 2.0 / 3
	case v >= t1:
		return 1.0 / 3
	default:
		return 0
	}
}
