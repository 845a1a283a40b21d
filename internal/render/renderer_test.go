package render_test

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff/internal/domain"
	"takeoff/internal/render"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, testPage(w, h)))
	require.NoError(t, f.Close())
	return path
}

func TestRenderPage_ImageResampledToRequestedDPI(t *testing.T) {
	r := render.NewPDFRenderer("")
	path := writeTestPNG(t, 1000, 800)

	dims, err := r.PageDims(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, dims, 1)
	assert.Equal(t, 1000.0, dims[0].Width)
	assert.Equal(t, 800.0, dims[0].Height)

	// Page dims are points at the 72 DPI baseline, so a 300 DPI render must
	// be dpi/72 times the native pixel size or region math drifts off-page.
	img, err := r.RenderPage(context.Background(), path, 1, 300)
	require.NoError(t, err)
	assert.Equal(t, 4167, img.Bounds().Dx())
	assert.Equal(t, 3333, img.Bounds().Dy())
}

func TestRenderPage_ImageAtBaselineDPIIsNative(t *testing.T) {
	r := render.NewPDFRenderer("")
	path := writeTestPNG(t, 640, 480)

	img, err := r.RenderPage(context.Background(), path, 1, 72)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestRenderPage_ImageRejectsPageBeyondFirst(t *testing.T) {
	r := render.NewPDFRenderer("")
	path := writeTestPNG(t, 100, 100)

	_, err := r.RenderPage(context.Background(), path, 2, 300)
	require.Error(t, err)
}

func TestRenderPage_ImageRegionBeyondFirstQuarterTiles(t *testing.T) {
	r := render.NewPDFRenderer("")
	path := writeTestPNG(t, 1000, 800)

	img, err := r.RenderPage(context.Background(), path, 1, 300)
	require.NoError(t, err)

	// A region in the lower-right of the page sits outside the native pixel
	// bounds; it must still land inside the rendered page.
	tiler := render.NewTiler(render.TileConfig{ByteBudget: 10 << 20, MaxTilePx: 2000})
	region := domain.BoundingBox{X: 500, Y: 400, Width: 400, Height: 300, PageNumber: 1}

	tiles, err := tiler.TileRegion(img, region, 300)
	require.NoError(t, err)
	assert.NotEmpty(t, tiles)
}

func TestScaleToWidth(t *testing.T) {
	img := testPage(2000, 1000)

	scaled := render.ScaleToWidth(img, 500)
	assert.Equal(t, 500, scaled.Bounds().Dx())
	assert.Equal(t, 250, scaled.Bounds().Dy())

	unchanged := render.ScaleToWidth(img, 4000)
	assert.Equal(t, 2000, unchanged.Bounds().Dx())
}

func TestEncodePNG(t *testing.T) {
	data, err := render.EncodePNG(testPage(100, 100))
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}
