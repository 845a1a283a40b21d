package port

import (
	"context"
	"image"

	"takeoff/internal/domain"
)

// PageDims is a page size in points (1/72 inch).
type PageDims struct {
	Width  float64
	Height float64
}

// PageRenderer rasterizes document pages.
type PageRenderer interface {
	// RenderPage rasterizes a single 1-based page at the given DPI.
	RenderPage(ctx context.Context, path string, page, dpi int) (image.Image, error)
	// PageDims returns the page sizes in points, one entry per page.
	PageDims(ctx context.Context, path string) ([]PageDims, error)
}

// Tiler splits a rendered region into payload-bounded, overlapping tiles.
type Tiler interface {
	TileRegion(img image.Image, region domain.BoundingBox, dpi int) ([]domain.Tile, error)
}
