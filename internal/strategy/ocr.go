package strategy

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"takeoff/internal/domain"
	"takeoff/internal/port"
	"takeoff/internal/render"
)

// ocrConfidence reflects that OCR with heuristic row parsing recovers far
// less structure than a vision backend. It is the floor of the chain.
const ocrConfidence = 0.4

// lineItemRe matches a bid-schedule row in OCR text: an item number, a
// free-text description, a quantity with optional thousands separators, and
// a short uppercase unit code.
var lineItemRe = regexp.MustCompile(`(?m)^\s*([0-9]{1,5}(?:[.\-][0-9A-Za-z]{1,6})?)\s+(.{3,120}?)\s+([0-9][0-9,]*(?:\.[0-9]+)?)\s+([A-Z]{1,4})\s*$`)

// specRe matches referenced standards (ASTM C150, AASHTO M320, section
// numbers like 401.02).
var specRe = regexp.MustCompile(`\b(ASTM\s+[A-Z]\s?[0-9]{2,4}[A-Z]?|AASHTO\s+[A-Z]{1,2}\s?[0-9]{2,4}|(?:SECTION|SEC\.?)\s+[0-9]{3}(?:\.[0-9]{2})?)\b`)

// OCRStrategy is the last-resort path: rasterize each page, run Tesseract,
// and infer line items from the recognized text with regular expressions.
// It needs no vision backend and works on fully scanned documents.
type OCRStrategy struct {
	engine   port.OCREngine
	renderer port.PageRenderer
	enabled  bool
	dpi      int
}

// NewOCR creates the OCR fallback strategy.
func NewOCR(engine port.OCREngine, renderer port.PageRenderer, enabled bool, dpi int) *OCRStrategy {
	if dpi <= 0 {
		dpi = 300
	}
	return &OCRStrategy{engine: engine, renderer: renderer, enabled: enabled, dpi: dpi}
}

func (s *OCRStrategy) Name() string { return domain.StrategyOCR }

func (s *OCRStrategy) Priority() int { return 100 }

func (s *OCRStrategy) Available() bool {
	return s.enabled && s.engine != nil
}

// CanHandle always returns true; OCR is the universal fallback.
func (s *OCRStrategy) CanHandle(domain.DocumentMetrics) bool { return true }

func (s *OCRStrategy) Parse(ctx context.Context, path string, metrics domain.DocumentMetrics, maxPages int) (*domain.ParseResult, error) {
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

	var texts []string
	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		text, err := s.recognizePage(ctx, path, page)
		if err != nil {
			log.Printf("ocr: page %d failed: %v", page, err)
			continue
		}
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("OCR recognized no text on any of %d pages", pages)
	}

	doc := ParseOCRText(strings.Join(texts, "\n"))
	if len(doc.LineItems) == 0 && len(doc.Specifications) == 0 {
		return nil, fmt.Errorf("no structured data recognized in OCR text")
	}

	return &domain.ParseResult{
		Success:          true,
		Data:             doc,
		StrategyName:     s.Name(),
		Confidence:       ocrConfidence,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		PagesAnalyzed:    pages,
		Metadata:         map[string]string{"engine": "tesseract"},
	}, nil
}

func (s *OCRStrategy) recognizePage(ctx context.Context, path string, page int) (string, error) {
	img, err := s.renderer.RenderPage(ctx, path, page, s.dpi)
	if err != nil {
		return "", fmt.Errorf("rendering: %w", err)
	}
	payload, err := render.EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("encoding: %w", err)
	}
	return s.engine.RecognizeImage(payload)
}

// ParseOCRText infers a canonical document from raw OCR text. Exported for
// tests; the heuristics are intentionally conservative so that garbage rows
// are dropped rather than admitted with wrong quantities.
func ParseOCRText(text string) *domain.CanonicalDocument {
	doc := &domain.CanonicalDocument{
		LineItems:      []domain.LineItem{},
		Specifications: []domain.Specification{},
		Materials:      []domain.Material{},
	}

	for _, m := range lineItemRe.FindAllStringSubmatch(text, -1) {
		qty, err := strconv.ParseFloat(strings.ReplaceAll(m[3], ",", ""), 64)
		if err != nil {
			continue
		}
		doc.LineItems = append(doc.LineItems, domain.LineItem{
			ItemNumber:  m[1],
			Description: strings.TrimSpace(m[2]),
			Quantity:    qty,
			Unit:        m[4],
		})
	}

	seen := make(map[string]bool)
	for _, m := range specRe.FindAllString(text, -1) {
		code := strings.Join(strings.Fields(m), " ")
		key := strings.ToUpper(code)
		if seen[key] {
			continue
		}
		seen[key] = true
		doc.Specifications = append(doc.Specifications, domain.Specification{Code: code})
	}

	return doc
}
