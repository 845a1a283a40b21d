package render_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff/internal/domain"
	"takeoff/internal/render"
)

// testPage renders a synthetic page image at the given pixel size with some
// structure so JPEG sizes are realistic rather than flat-color degenerate.
func testPage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/40+y/40)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
			}
		}
	}
	return img
}

func TestTileRegion_PayloadWithinBudget(t *testing.T) {
	tiler := render.NewTiler(render.TileConfig{
		ByteBudget:   256 * 1024,
		BudgetMargin: 0.80,
	})

	// 300 DPI page, letter size region in points
	img := testPage(2550, 3300)
	region := domain.BoundingBox{X: 0, Y: 0, Width: 612, Height: 792, PageNumber: 1}

	tiles, err := tiler.TileRegion(img, region, 300)
	require.NoError(t, err)
	require.NotEmpty(t, tiles)

	cfg := tiler.Config()
	budget := int64(float64(cfg.ByteBudget) * cfg.BudgetMargin)
	for _, tile := range tiles {
		if tile.Quality > tiler.Config().QualityMin {
			assert.LessOrEqual(t, int64(len(tile.ImageBytes)), budget,
				"tile above quality floor must fit the margined budget")
		}
		assert.GreaterOrEqual(t, tile.Quality, tiler.Config().QualityMin)
		assert.LessOrEqual(t, tile.Quality, tiler.Config().QualityMax)
		assert.Equal(t, "image/jpeg", tile.ContentType)
	}
}

func TestTileRegion_TileSideHardCap(t *testing.T) {
	// Huge budget would estimate a giant tile; the pixel cap must win.
	tiler := render.NewTiler(render.TileConfig{
		ByteBudget: 1 << 30,
		MaxTilePx:  2000,
	})

	img := testPage(3000, 3000)
	region := domain.BoundingBox{X: 0, Y: 0, Width: 720, Height: 720, PageNumber: 1}

	tiles, err := tiler.TileRegion(img, region, 300)
	require.NoError(t, err)
	require.NotEmpty(t, tiles)

	for _, tile := range tiles {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(tile.ImageBytes))
		require.NoError(t, err)
		assert.LessOrEqual(t, cfg.Width, 2000)
		assert.LessOrEqual(t, cfg.Height, 2000)
	}
}

func TestTileRegion_FullCoverageWithOverlap(t *testing.T) {
	tiler := render.NewTiler(render.TileConfig{
		ByteBudget:      64 * 1024, // forces several tiles
		OverlapFraction: 0.10,
	})

	img := testPage(2550, 3300)
	region := domain.BoundingBox{X: 36, Y: 36, Width: 540, Height: 720, PageNumber: 2}

	tiles, err := tiler.TileRegion(img, region, 300)
	require.NoError(t, err)
	require.Greater(t, len(tiles), 1, "region should need multiple tiles at this budget")

	// The union of tile origins must cover the region.
	union := tiles[0].Origin
	for _, tile := range tiles[1:] {
		assert.Equal(t, 2, tile.Origin.PageNumber)
		assert.InDelta(t, 0.10, tile.Overlap, 1e-9)
		union = union.Union(tile.Origin)
	}
	assert.LessOrEqual(t, union.X, region.X+1)
	assert.LessOrEqual(t, union.Y, region.Y+1)
	assert.GreaterOrEqual(t, union.Right(), region.Right()-1)
	assert.GreaterOrEqual(t, union.Bottom(), region.Bottom()-1)

	// Adjacent tiles actually share content.
	sorted := tiles
	overlapping := false
	for i := range sorted {
		for j := range sorted {
			if i != j && sorted[i].Origin.Intersects(sorted[j].Origin) {
				overlapping = true
			}
		}
	}
	assert.True(t, overlapping, "adjacent tiles must overlap")
}

func TestTileRegion_OutsidePageBounds(t *testing.T) {
	tiler := render.NewTiler(render.TileConfig{})
	img := testPage(850, 1100)

	region := domain.BoundingBox{X: 5000, Y: 5000, Width: 100, Height: 100, PageNumber: 1}
	tiles, err := tiler.TileRegion(img, region, 100)

	assert.Error(t, err)
	assert.Nil(t, tiles)
}

func TestTileRegion_NeverResizes(t *testing.T) {
	// Tiny budget with a floor: the encode walks down to the floor and stops,
	// returning an oversized payload instead of shrinking pixels.
	tiler := render.NewTiler(render.TileConfig{
		ByteBudget: 512, // below JPEG fixed overhead, floor is guaranteed
		QualityMax: 90,
		QualityMin: 85,
		MaxTilePx:  400,
	})

	img := testPage(800, 800)
	region := domain.BoundingBox{X: 0, Y: 0, Width: 192, Height: 192, PageNumber: 1}

	tiles, err := tiler.TileRegion(img, region, 300)
	require.NoError(t, err)
	require.NotEmpty(t, tiles)

	for _, tile := range tiles {
		assert.Equal(t, 85, tile.Quality, "encode must stop at the quality floor")
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(tile.ImageBytes))
		require.NoError(t, err)

		// Tile pixel dims must match the origin box, proving no downsampling.
		scale := 300.0 / 72.0
		assert.InDelta(t, tile.Origin.Width*scale, float64(cfg.Width), 1.5)
		assert.InDelta(t, tile.Origin.Height*scale, float64(cfg.Height), 1.5)
	}
}

func TestEncodeJPEG(t *testing.T) {
	payload, err := render.EncodeJPEG(testPage(100, 100), 85)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}
