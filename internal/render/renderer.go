// Package render rasterizes document pages and splits regions into
// payload-bounded, overlapping tiles for per-tile extraction calls.
package render

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for image uploads
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	xdraw "golang.org/x/image/draw"

	"takeoff/internal/port"
)

// PDFRenderer rasterizes PDF pages by shelling out to pdftoppm, and decodes
// plain image files directly.
type PDFRenderer struct {
	pdftoppm string
	runner   Runner
}

// NewPDFRenderer creates a renderer. An empty binary path defaults to "pdftoppm".
func NewPDFRenderer(pdftoppm string) *PDFRenderer {
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	return &PDFRenderer{pdftoppm: pdftoppm, runner: execRunner{}}
}

// NewPDFRendererWithRunner creates a renderer with a custom command runner (for testing).
func NewPDFRendererWithRunner(pdftoppm string, runner Runner) *PDFRenderer {
	r := NewPDFRenderer(pdftoppm)
	r.runner = runner
	return r
}

// RenderPage rasterizes a single 1-based page at the given DPI.
func (r *PDFRenderer) RenderPage(ctx context.Context, path string, page, dpi int) (image.Image, error) {
	if !isPDF(path) {
		if page != 1 {
			return nil, fmt.Errorf("image file has a single page, requested page %d", page)
		}
		img, err := decodeImageFile(path)
		if err != nil {
			return nil, err
		}
		return resampleToDPI(img, dpi), nil
	}

	tmpDir, err := os.MkdirTemp("", "takeoff-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	prefix := filepath.Join(tmpDir, "page")
	pageArg := strconv.Itoa(page)
	// pdftoppm -png -r <dpi> -f <page> -l <page> -q <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.pdftoppm,
		"-png", "-r", strconv.Itoa(dpi), "-f", pageArg, "-l", pageArg, "-q", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w (stderr: %s)", page, err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no image for page %d", page)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding rendered page %d: %w", page, err)
	}
	return img, nil
}

// PageDims returns page sizes in points. Image files report their pixel
// dimensions as points (1px = 1pt at the 72 DPI baseline).
func (r *PDFRenderer) PageDims(ctx context.Context, path string) ([]port.PageDims, error) {
	if !isPDF(path) {
		img, err := decodeImageFile(path)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		return []port.PageDims{{Width: float64(b.Dx()), Height: float64(b.Dy())}}, nil
	}

	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page dimensions: %w", err)
	}
	out := make([]port.PageDims, len(dims))
	for i, d := range dims {
		out[i] = port.PageDims{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

// resampleToDPI scales an image upload to the requested render DPI. Image
// files are treated as 72 DPI pages (1px = 1pt, matching PageDims), so the
// rendered pixel geometry stays consistent with the PDF path and with the
// tiler's dpi/72 region math.
func resampleToDPI(img image.Image, dpi int) image.Image {
	if dpi <= 0 || dpi == 72 {
		return img
	}
	scale := float64(dpi) / 72.0
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// ScaleToWidth downscales img so its width is at most maxWidth, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func ScaleToWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img
	}
	h := int(float64(b.Dy()) * float64(maxWidth) / float64(b.Dx()))
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// crop copies the given pixel rectangle into a fresh RGBA image.
func crop(img image.Image, rect image.Rectangle) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Copy(dst, image.Point{}, img, rect, xdraw.Over, nil)
	return dst
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
