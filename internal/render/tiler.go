package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"takeoff/internal/domain"
)

// TileConfig is the tiling policy. The byte budget margin and the pixel cap
// are conservative defaults; compression ratios at high JPEG quality vary
// enough between drawings that the margin absorbs estimation error.
type TileConfig struct {
	ByteBudget      int64   // hard per-call payload limit
	BudgetMargin    float64 // fraction of the budget to aim for
	OverlapFraction float64 // shared fraction of each tile dimension
	QualityMax      int     // JPEG quality ceiling
	QualityMin      int     // JPEG quality floor; never encode below this
	MaxTilePx       int     // hard cap per tile side
}

// estBytesPerPixel is the assumed JPEG output density at the quality ceiling
// for line drawings. Only used to size the grid; actual encodes are measured.
const estBytesPerPixel = 0.35

// Tiler splits rendered regions into overlapping, payload-bounded tiles.
type Tiler struct {
	cfg TileConfig
}

// NewTiler creates a Tiler, filling unset policy fields with defaults.
func NewTiler(cfg TileConfig) *Tiler {
	if cfg.ByteBudget <= 0 {
		cfg.ByteBudget = 5 * 1024 * 1024
	}
	if cfg.BudgetMargin <= 0 || cfg.BudgetMargin > 1 {
		cfg.BudgetMargin = 0.80
	}
	if cfg.OverlapFraction <= 0 || cfg.OverlapFraction >= 1 {
		cfg.OverlapFraction = 0.10
	}
	if cfg.QualityMax <= 0 {
		cfg.QualityMax = 90
	}
	if cfg.QualityMin <= 0 {
		cfg.QualityMin = 85
	}
	if cfg.MaxTilePx <= 0 {
		cfg.MaxTilePx = 2000
	}
	return &Tiler{cfg: cfg}
}

// Config returns the effective tiling policy.
func (t *Tiler) Config() TileConfig { return t.cfg }

// TileRegion splits a page-space region into overlapping encoded tiles.
// img must be the full page rendered at dpi; region is in page points.
//
// Each tile's encoded payload stays under BudgetMargin*ByteBudget unless the
// quality floor is reached, in which case the floor encoding is returned
// as-is: an oversized legible tile beats a downsampled illegible one.
func (t *Tiler) TileRegion(img image.Image, region domain.BoundingBox, dpi int) ([]domain.Tile, error) {
	scale := float64(dpi) / 72.0
	pageBounds := img.Bounds()

	rect := image.Rect(
		int(math.Floor(region.X*scale)),
		int(math.Floor(region.Y*scale)),
		int(math.Ceil(region.Right()*scale)),
		int(math.Ceil(region.Bottom()*scale)),
	).Intersect(pageBounds)
	if rect.Empty() {
		return nil, fmt.Errorf("region outside page bounds on page %d", region.PageNumber)
	}

	side := t.tileSide()
	xs := tileOffsets(rect.Dx(), side, t.cfg.OverlapFraction)
	ys := tileOffsets(rect.Dy(), side, t.cfg.OverlapFraction)

	tiles := make([]domain.Tile, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			tileRect := image.Rect(rect.Min.X+x, rect.Min.Y+y,
				min(rect.Min.X+x+side, rect.Max.X),
				min(rect.Min.Y+y+side, rect.Max.Y))

			payload, quality, err := t.encodeWithinBudget(crop(img, tileRect))
			if err != nil {
				return nil, fmt.Errorf("encoding tile at (%d,%d): %w", x, y, err)
			}

			tiles = append(tiles, domain.Tile{
				Origin: domain.BoundingBox{
					X:          float64(tileRect.Min.X) / scale,
					Y:          float64(tileRect.Min.Y) / scale,
					Width:      float64(tileRect.Dx()) / scale,
					Height:     float64(tileRect.Dy()) / scale,
					PageNumber: region.PageNumber,
					Confidence: region.Confidence,
					Label:      region.Label,
				},
				Overlap:     t.cfg.OverlapFraction,
				ImageBytes:  payload,
				ContentType: "image/jpeg",
				Quality:     quality,
			})
		}
	}

	return tiles, nil
}

// tileSide picks the tile edge length in pixels: the byte-budget estimate,
// hard-capped at MaxTilePx regardless of what the estimate says.
func (t *Tiler) tileSide() int {
	targetBytes := float64(t.cfg.ByteBudget) * t.cfg.BudgetMargin
	side := int(math.Sqrt(targetBytes / estBytesPerPixel))
	if side > t.cfg.MaxTilePx {
		side = t.cfg.MaxTilePx
	}
	if side < 64 {
		side = 64
	}
	return side
}

// tileOffsets returns tile start offsets along one axis so that adjacent
// tiles overlap by the given fraction of the tile side and the last tile
// ends exactly at length.
func tileOffsets(length, side int, overlap float64) []int {
	if length <= side {
		return []int{0}
	}
	step := int(float64(side) * (1 - overlap))
	if step < 1 {
		step = 1
	}
	var offsets []int
	for x := 0; ; x += step {
		if x+side >= length {
			offsets = append(offsets, length-side)
			break
		}
		offsets = append(offsets, x)
	}
	return offsets
}

// encodeWithinBudget encodes img as JPEG, walking quality down from the
// ceiling until the payload fits the margined budget or the floor is hit.
// The image is never resized to force a fit.
func (t *Tiler) encodeWithinBudget(img image.Image) ([]byte, int, error) {
	targetBytes := int64(float64(t.cfg.ByteBudget) * t.cfg.BudgetMargin)

	var buf bytes.Buffer
	for quality := t.cfg.QualityMax; ; quality-- {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, 0, err
		}
		if int64(buf.Len()) <= targetBytes || quality <= t.cfg.QualityMin {
			return append([]byte(nil), buf.Bytes()...), quality, nil
		}
	}
}

// EncodeJPEG encodes a full image at the given quality. Used by the coarse
// scan, where low-DPI pages comfortably fit the budget without tiling.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes an image losslessly. OCR accuracy degrades on JPEG
// artifacts, so the OCR path prefers PNG despite the larger payloads.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
