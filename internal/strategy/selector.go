// Package strategy implements the extraction strategies and the selector
// that sequences them into a fallback chain for each document.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"takeoff/internal/backend"
	"takeoff/internal/domain"
	"takeoff/internal/port"
)

// Selector builds and executes priority-ordered strategy chains.
type Selector struct {
	strategies []port.ExtractionStrategy
}

// NewSelector creates a Selector over the registered strategies.
func NewSelector(strategies ...port.ExtractionStrategy) *Selector {
	return &Selector{strategies: strategies}
}

// SelectChain filters the registered strategies to those available and able
// to handle the document, orders them by ascending priority, and forces any
// OCR-only strategy to the end: it is the universal fallback and should only
// run after higher-fidelity attempts.
func (s *Selector) SelectChain(metrics domain.DocumentMetrics) []port.ExtractionStrategy {
	var chain []port.ExtractionStrategy
	for _, st := range s.strategies {
		if !st.Available() {
			log.Printf("selector: skipping %s (unavailable)", st.Name())
			continue
		}
		if !st.CanHandle(metrics) {
			log.Printf("selector: skipping %s (cannot handle document)", st.Name())
			continue
		}
		chain = append(chain, st)
	}

	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Priority() < chain[j].Priority()
	})

	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Name() != domain.StrategyOCR && chain[j].Name() == domain.StrategyOCR
	})

	return chain
}

// ExecuteChain runs the chain sequentially: exactly one attempt per strategy,
// first successful schema-valid result wins. Strategies never run
// concurrently for the same request; each is a full attempt at the whole
// document and racing them would burn backend quota for nothing.
//
// On total failure the returned result has Success=false and an error message
// aggregating every strategy's failure reason. The Go error is non-nil when
// the chain itself is empty, or when every strategy failed and at least one
// was rate limited, so the caller can requeue instead of failing the job.
func (s *Selector) ExecuteChain(ctx context.Context, path string, metrics domain.DocumentMetrics, chain []port.ExtractionStrategy, maxPages int) (*domain.ParseResult, error) {
	if len(chain) == 0 {
		return nil, domain.ErrNoStrategyAvailable
	}

	start := time.Now()
	var failures []string
	var rateLimit *backend.RateLimitError

	for _, st := range chain {
		log.Printf("selector: attempting strategy %s", st.Name())
		result, err := st.Parse(ctx, path, metrics, maxPages)

		switch {
		case err != nil:
			log.Printf("selector: strategy %s failed: %v", st.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", st.Name(), err))
			var rl *backend.RateLimitError
			if errors.As(err, &rl) {
				rateLimit = rl
			}
		case result == nil || !result.Success || result.Data == nil:
			reason := "no result"
			if result != nil && result.Error != "" {
				reason = result.Error
			}
			log.Printf("selector: strategy %s returned no usable result: %s", st.Name(), reason)
			failures = append(failures, fmt.Sprintf("%s: %s", st.Name(), reason))
		default:
			log.Printf("selector: strategy %s succeeded (confidence=%.2f, %d line items)",
				st.Name(), result.Confidence, len(result.Data.LineItems))
			return result, nil
		}

		if ctx.Err() != nil {
			failures = append(failures, fmt.Sprintf("chain aborted: %v", ctx.Err()))
			break
		}
	}

	if rateLimit != nil {
		return nil, fmt.Errorf("all strategies failed: %s: %w", strings.Join(failures, "; "), rateLimit)
	}

	return &domain.ParseResult{
		Success:          false,
		StrategyName:     "none",
		Error:            "all strategies failed: " + strings.Join(failures, "; "),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		PagesAnalyzed:    metrics.PageCount,
	}, nil
}
