package normalize_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff/internal/domain"
	"takeoff/internal/normalize"
)

func newNormalizer(t *testing.T) *normalize.Normalizer {
	t.Helper()
	n, err := normalize.New()
	require.NoError(t, err)
	return n
}

func TestNormalize_CleanResponse(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(`{
		"line_items": [
			{"item_number": "201", "description": "Unclassified Excavation", "quantity": 4500, "unit": "CY"}
		],
		"specifications": [{"code": "ASTM C150", "description": "Portland Cement"}],
		"project_info": {"name": "SR-12 Widening", "location": "Pierce County, WA", "bid_date": "2026-03-15"},
		"materials": [{"name": "Portland Cement", "quantity": 120, "unit": "TON"}]
	}`)

	require.NoError(t, err)
	require.Len(t, doc.LineItems, 1)
	assert.Equal(t, 4500.0, doc.LineItems[0].Quantity)
	assert.Equal(t, "SR-12 Widening", doc.ProjectInfo.Name)
}

func TestNormalize_StripsCodeFences(t *testing.T) {
	n := newNormalizer(t)

	raw := "```json\n" + `{"line_items": [{"description": "Borrow Excavation", "quantity": 1200, "unit": "CY"}], "specifications": [], "project_info": {}, "materials": []}` + "\n```"
	doc, err := n.Normalize(raw)

	require.NoError(t, err)
	require.Len(t, doc.LineItems, 1)
	assert.Equal(t, "Borrow Excavation", doc.LineItems[0].Description)
}

func TestNormalize_UnwrapsEnvelope(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(`{"data": {"line_items": [], "specifications": [], "project_info": {}, "materials": []}}`)

	require.NoError(t, err)
	assert.Empty(t, doc.LineItems)
}

func TestNormalize_CoercesStringQuantities(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(`{
		"line_items": [
			{"description": "Aggregate Base", "quantity": "1,250.5", "unit": "TON"},
			{"item_number": 201, "description": "Excavation", "quantity": 4500, "unit": "CY"}
		],
		"specifications": [], "project_info": {}, "materials": []
	}`)

	require.NoError(t, err)
	require.Len(t, doc.LineItems, 2)
	assert.Equal(t, 1250.5, doc.LineItems[0].Quantity)
	assert.Equal(t, "201", doc.LineItems[1].ItemNumber, "numeric item codes become strings")
}

func TestNormalize_DefaultsMissingCollections(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(`{"line_items": []}`)

	require.NoError(t, err)
	assert.NotNil(t, doc.Specifications)
	assert.NotNil(t, doc.Materials)
	assert.Empty(t, doc.Specifications)
}

func TestNormalize_ProseAroundJSON(t *testing.T) {
	n := newNormalizer(t)

	raw := `Here is the extracted data you asked for:
{"line_items": [], "specifications": [], "project_info": {}, "materials": []}
Let me know if you need anything else.`
	_, err := n.Normalize(raw)

	assert.NoError(t, err)
}

func TestNormalize_SchemaViolations(t *testing.T) {
	n := newNormalizer(t)

	cases := []struct {
		name string
		raw  string
	}{
		{"no JSON at all", "I could not read this document."},
		{"truncated JSON", `{"line_items": [{"description": "x",`},
		{"wrong type for line_items", `{"line_items": "none", "specifications": [], "project_info": {}, "materials": []}`},
		{"missing required item fields", `{"line_items": [{"item_number": "1"}], "specifications": [], "project_info": {}, "materials": []}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := n.Normalize(tc.raw)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, domain.ErrSchemaViolation), "got: %v", err)
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, normalize.StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, normalize.StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, normalize.StripFences(`{"a":1}`))
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, normalize.ExtractJSON(`noise {"a":1} trailing`))
	assert.Equal(t, "", normalize.ExtractJSON("no braces here"))
}
