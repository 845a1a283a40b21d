package strategy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"takeoff/internal/domain"
	"takeoff/internal/port"
	"takeoff/internal/strategy"
	"takeoff/mocks"
)

func TestParseOCRText_LineItems(t *testing.T) {
	text := `BID SCHEDULE
201   Unclassified Excavation          4,500   CY
202   Borrow Excavation                1,200   CY
401.1 Asphalt Concrete Pavement Type A 2500.5  TON
garbage line that matches nothing
`
	doc := strategy.ParseOCRText(text)

	require.Len(t, doc.LineItems, 3)
	assert.Equal(t, "201", doc.LineItems[0].ItemNumber)
	assert.Equal(t, "Unclassified Excavation", doc.LineItems[0].Description)
	assert.Equal(t, 4500.0, doc.LineItems[0].Quantity)
	assert.Equal(t, "CY", doc.LineItems[0].Unit)
	assert.Equal(t, "401.1", doc.LineItems[2].ItemNumber)
	assert.Equal(t, 2500.5, doc.LineItems[2].Quantity)
}

func TestParseOCRText_Specifications(t *testing.T) {
	text := `All cement shall conform to ASTM C150.
Binder per AASHTO M320. See SECTION 401.02 for placement.
ASTM C150 is referenced twice but listed once.`

	doc := strategy.ParseOCRText(text)

	codes := make([]string, 0, len(doc.Specifications))
	for _, s := range doc.Specifications {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"ASTM C150", "AASHTO M320", "SECTION 401.02"}, codes)
}

func TestParseOCRText_EmptyInput(t *testing.T) {
	doc := strategy.ParseOCRText("")

	assert.NotNil(t, doc.LineItems)
	assert.Empty(t, doc.LineItems)
	assert.Empty(t, doc.Specifications)
}

func TestOCRStrategy_Parse(t *testing.T) {
	renderer := new(mocks.MockPageRenderer)
	renderer.On("PageDims", mock.Anything, "scan.pdf").
		Return([]port.PageDims{{Width: 612, Height: 792}}, nil)
	renderer.On("RenderPage", mock.Anything, "scan.pdf", 1, 300).
		Return(pageImage(200, 200), nil)

	engine := new(mocks.MockOCREngine)
	engine.On("RecognizeImage", mock.Anything).
		Return("201   Unclassified Excavation   4,500   CY", nil).Once()

	s := strategy.NewOCR(engine, renderer, true, 300)

	result, err := s.Parse(context.Background(), "scan.pdf", domain.DocumentMetrics{IsScanned: true}, 0)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StrategyOCR, result.StrategyName)
	assert.Equal(t, 0.4, result.Confidence)
	require.Len(t, result.Data.LineItems, 1)
	assert.Equal(t, "tesseract", result.Metadata["engine"])
}

func TestOCRStrategy_FailsWithoutStructure(t *testing.T) {
	renderer := new(mocks.MockPageRenderer)
	renderer.On("PageDims", mock.Anything, "scan.pdf").
		Return([]port.PageDims{{Width: 612, Height: 792}}, nil)
	renderer.On("RenderPage", mock.Anything, "scan.pdf", 1, 300).
		Return(pageImage(200, 200), nil)

	engine := new(mocks.MockOCREngine)
	engine.On("RecognizeImage", mock.Anything).
		Return("completely unstructured prose with no tabular rows", nil).Once()

	s := strategy.NewOCR(engine, renderer, true, 300)

	result, err := s.Parse(context.Background(), "scan.pdf", domain.DocumentMetrics{}, 0)

	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestOCRStrategy_Availability(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	renderer := new(mocks.MockPageRenderer)

	assert.True(t, strategy.NewOCR(engine, renderer, true, 0).Available())
	assert.False(t, strategy.NewOCR(engine, renderer, false, 0).Available())
	assert.False(t, strategy.NewOCR(nil, renderer, true, 0).Available())
}
