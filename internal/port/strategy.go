package port

import (
	"context"

	"takeoff/internal/domain"
)

// ExtractionStrategy is one complete way of turning a document into a
// ParseResult. Implementations are stateless across requests; Parse is a
// full attempt at solving the whole document.
type ExtractionStrategy interface {
	// Name returns the stable strategy identifier reported in results.
	Name() string
	// Priority orders strategies within a chain; lower is tried first.
	Priority() int
	// Available reports whether the strategy's backing service is configured.
	Available() bool
	// CanHandle reports whether this strategy accepts a document with the
	// given metrics.
	CanHandle(metrics domain.DocumentMetrics) bool
	// Parse runs the strategy. maxPages of 0 means no page limit.
	Parse(ctx context.Context, path string, metrics domain.DocumentMetrics, maxPages int) (*domain.ParseResult, error)
}
