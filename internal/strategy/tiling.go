package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"takeoff/internal/aggregate"
	"takeoff/internal/domain"
	"takeoff/internal/normalize"
	"takeoff/internal/port"
	"takeoff/internal/render"
)

// coarseQuality is the JPEG quality for Phase 1 page images. At ~100 DPI a
// full page stays well under the payload budget without resizing.
const coarseQuality = 85

// TilingConfig is the policy for the two-phase tiled extraction.
type TilingConfig struct {
	Enabled     bool
	CoarseDPI   int // Phase 1 page render resolution
	DetailDPI   int // Phase 2 region render resolution
	Concurrency int // max in-flight extraction calls
	TileTimeout time.Duration
}

// TilingStrategy handles documents of unbounded size with a two-phase
// map-reduce: a coarse scan detects regions of interest, a detail pass
// extracts each region as overlapping high-resolution tiles, and the
// aggregator merges the per-tile results.
type TilingStrategy struct {
	backend    port.VisionBackend
	renderer   port.PageRenderer
	tiler      *render.Tiler
	normalizer *normalize.Normalizer
	aggregator *aggregate.Aggregator
	cfg        TilingConfig
}

// NewTiling creates the tiling strategy.
func NewTiling(
	backend port.VisionBackend,
	renderer port.PageRenderer,
	tiler *render.Tiler,
	normalizer *normalize.Normalizer,
	aggregator *aggregate.Aggregator,
	cfg TilingConfig,
) *TilingStrategy {
	if cfg.CoarseDPI <= 0 {
		cfg.CoarseDPI = 100
	}
	if cfg.DetailDPI <= 0 {
		cfg.DetailDPI = 300
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.TileTimeout <= 0 {
		cfg.TileTimeout = 2 * time.Minute
	}
	return &TilingStrategy{
		backend:    backend,
		renderer:   renderer,
		tiler:      tiler,
		normalizer: normalizer,
		aggregator: aggregator,
		cfg:        cfg,
	}
}

func (s *TilingStrategy) Name() string { return domain.StrategyTiling }

func (s *TilingStrategy) Priority() int { return 20 }

func (s *TilingStrategy) Available() bool {
	return s.cfg.Enabled && s.backend != nil && s.backend.Available()
}

// CanHandle always returns true: tiling exists precisely for the documents
// the native upload path cannot take.
func (s *TilingStrategy) CanHandle(domain.DocumentMetrics) bool { return true }

func (s *TilingStrategy) Parse(ctx context.Context, path string, metrics domain.DocumentMetrics, maxPages int) (*domain.ParseResult, error) {
	start := time.Now()

	dims, err := s.renderer.PageDims(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading page dimensions: %w", err)
	}
	pages := len(dims)
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}
	if pages == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	rois := s.coarseScan(ctx, path, dims, pages)
	if len(rois) == 0 {
		return nil, fmt.Errorf("coarse scan detected no extractable regions across %d pages", pages)
	}

	partials, total, failed := s.detailPass(ctx, path, rois)
	if len(partials) == 0 {
		return nil, fmt.Errorf("all %d tiles failed extraction", total)
	}

	doc := s.aggregator.Merge(partials)

	confidence := 0.9 * float64(total-failed) / float64(total)
	return &domain.ParseResult{
		Success:          true,
		Data:             doc,
		StrategyName:     s.Name(),
		Confidence:       confidence,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		PagesAnalyzed:    pages,
		Metadata: map[string]string{
			"backend":      s.backend.Name(),
			"rois":         fmt.Sprintf("%d", len(rois)),
			"tiles_total":  fmt.Sprintf("%d", total),
			"tiles_failed": fmt.Sprintf("%d", failed),
		},
	}, nil
}

// roiResponse is the backend's coarse-scan shape. It never leaks past Phase 1.
type roiResponse struct {
	Regions []struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"regions"`
}

// coarseScan runs Phase 1: renders every page at low resolution, asks the
// backend for regions of interest, and concatenates the results. Pages fan
// out under the shared concurrency limit; ROI order across pages is
// irrelevant to later phases. A failed page contributes zero regions.
func (s *TilingStrategy) coarseScan(ctx context.Context, path string, dims []port.PageDims, pages int) []domain.BoundingBox {
	var (
		mu   sync.Mutex
		rois []domain.BoundingBox
		wg   sync.WaitGroup
	)
	sem := make(chan struct{}, s.cfg.Concurrency)

	for page := 1; page <= pages; page++ {
		page := page
		dim := dims[page-1]

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			boxes, err := s.scanPage(ctx, path, page, dim)
			if err != nil {
				log.Printf("tiling: coarse scan of page %d failed: %v", page, err)
				return
			}
			mu.Lock()
			rois = append(rois, boxes...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return rois
}

func (s *TilingStrategy) scanPage(ctx context.Context, path string, page int, dim port.PageDims) ([]domain.BoundingBox, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.TileTimeout)
	defer cancel()

	img, err := s.renderer.RenderPage(callCtx, path, page, s.cfg.CoarseDPI)
	if err != nil {
		return nil, fmt.Errorf("rendering: %w", err)
	}

	payload, err := render.EncodeJPEG(img, coarseQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}

	raw, err := s.backend.Extract(callCtx, port.ExtractInput{
		Payload:     payload,
		ContentType: "image/jpeg",
		Instruction: BuildROIPrompt(dim.Width, dim.Height),
	})
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	text := normalize.ExtractJSON(raw)
	if text == "" {
		return nil, fmt.Errorf("no JSON in ROI response")
	}
	var resp roiResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("decoding ROI response: %w", err)
	}

	boxes := make([]domain.BoundingBox, 0, len(resp.Regions))
	for _, r := range resp.Regions {
		box := domain.BoundingBox{
			X:          r.X,
			Y:          r.Y,
			Width:      r.Width,
			Height:     r.Height,
			PageNumber: page,
			Confidence: clamp01(r.Confidence),
			Label:      r.Label,
		}.Clamp(dim.Width, dim.Height)
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		boxes = append(boxes, box)
	}
	return boxes, nil
}

// detailPass runs Phase 2: renders each ROI's page at high resolution, cuts
// overlapping tiles, and fans out one extraction call per tile under the
// semaphore. A failed tile is simply omitted; the aggregator works with
// whatever succeeded.
func (s *TilingStrategy) detailPass(ctx context.Context, path string, rois []domain.BoundingBox) (partials []*domain.CanonicalDocument, total, failed int) {
	tiles := s.cutTiles(ctx, path, rois)
	total = len(tiles)
	if total == 0 {
		return nil, 0, 0
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, s.cfg.Concurrency)

	for i := range tiles {
		tile := tiles[i]

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			doc, err := s.extractTile(ctx, tile)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				log.Printf("tiling: tile on page %d at (%.0f,%.0f) failed: %v",
					tile.Origin.PageNumber, tile.Origin.X, tile.Origin.Y, err)
				return
			}
			partials = append(partials, doc)
		}()
	}
	wg.Wait()

	return partials, total, failed
}

// cutTiles renders each page with ROIs once and tiles every region on it.
func (s *TilingStrategy) cutTiles(ctx context.Context, path string, rois []domain.BoundingBox) []domain.Tile {
	byPage := make(map[int][]domain.BoundingBox)
	for _, roi := range rois {
		byPage[roi.PageNumber] = append(byPage[roi.PageNumber], roi)
	}

	var tiles []domain.Tile
	for page, regions := range byPage {
		img, err := s.renderer.RenderPage(ctx, path, page, s.cfg.DetailDPI)
		if err != nil {
			log.Printf("tiling: detail render of page %d failed, dropping %d regions: %v",
				page, len(regions), err)
			continue
		}
		for _, region := range regions {
			regionTiles, err := s.tiler.TileRegion(img, region, s.cfg.DetailDPI)
			if err != nil {
				log.Printf("tiling: tiling region on page %d failed: %v", page, err)
				continue
			}
			tiles = append(tiles, regionTiles...)
		}
	}
	return tiles
}

func (s *TilingStrategy) extractTile(ctx context.Context, tile domain.Tile) (*domain.CanonicalDocument, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.TileTimeout)
	defer cancel()

	raw, err := s.backend.Extract(callCtx, port.ExtractInput{
		Payload:     tile.ImageBytes,
		ContentType: tile.ContentType,
		Instruction: BuildExtractionPrompt("region of a page"),
	})
	if err != nil {
		return nil, err
	}
	return s.normalizer.Normalize(raw)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
