package strategy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"takeoff/internal/domain"
	"takeoff/internal/normalize"
	"takeoff/internal/port"
)

// fullDocConfidence is reported on success; a single native upload is the
// highest-fidelity path when the document fits.
const fullDocConfidence = 0.9

// FullDocumentStrategy uploads the whole document in one extraction call.
// It trades robustness for latency: any failure is surfaced immediately and
// resilience comes from the selector's fallback chain, not from this
// strategy.
type FullDocumentStrategy struct {
	backend    port.VisionBackend
	normalizer *normalize.Normalizer
	enabled    bool
	maxBytes   int64
	maxPages   int
}

// NewFullDocument creates the full-document strategy with its size/page bounds.
func NewFullDocument(backend port.VisionBackend, normalizer *normalize.Normalizer, enabled bool, maxSizeMB, maxPages int) *FullDocumentStrategy {
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	if maxPages <= 0 {
		maxPages = 10
	}
	return &FullDocumentStrategy{
		backend:    backend,
		normalizer: normalizer,
		enabled:    enabled,
		maxBytes:   int64(maxSizeMB) << 20,
		maxPages:   maxPages,
	}
}

func (s *FullDocumentStrategy) Name() string { return domain.StrategyFullDocument }

func (s *FullDocumentStrategy) Priority() int { return 10 }

func (s *FullDocumentStrategy) Available() bool {
	return s.enabled && s.backend != nil && s.backend.Available()
}

// CanHandle accepts only documents within the strict native-upload bounds.
func (s *FullDocumentStrategy) CanHandle(metrics domain.DocumentMetrics) bool {
	return metrics.SizeBytes < s.maxBytes && metrics.PageCount <= s.maxPages
}

func (s *FullDocumentStrategy) Parse(ctx context.Context, path string, metrics domain.DocumentMetrics, maxPages int) (*domain.ParseResult, error) {
	start := time.Now()

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	raw, err := s.backend.Extract(ctx, port.ExtractInput{
		Payload:     payload,
		ContentType: contentTypeFor(path),
		Instruction: BuildExtractionPrompt("document"),
	})
	if err != nil {
		return nil, fmt.Errorf("backend extraction: %w", err)
	}

	doc, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing backend output: %w", err)
	}

	return &domain.ParseResult{
		Success:          true,
		Data:             doc,
		StrategyName:     s.Name(),
		Confidence:       fullDocConfidence,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		PagesAnalyzed:    metrics.PageCount,
		Metadata:         map[string]string{"backend": s.backend.Name()},
	}, nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
