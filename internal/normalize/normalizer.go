// Package normalize converges every extraction backend's raw output into the
// canonical document schema. Strategies hand their backend's text response to
// the normalizer and never leak backend-specific shapes past this boundary.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"takeoff/internal/domain"
)

// canonicalSchema is the stable output contract all strategies converge to.
const canonicalSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["line_items", "specifications", "project_info", "materials"],
  "properties": {
    "line_items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["description", "quantity", "unit"],
        "properties": {
          "item_number": {"type": ["string", "null"]},
          "description": {"type": "string"},
          "quantity": {"type": "number"},
          "unit": {"type": "string"},
          "unit_price": {"type": ["number", "null"]}
        }
      }
    },
    "specifications": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["code", "description"],
        "properties": {
          "code": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "project_info": {
      "type": "object",
      "properties": {
        "name": {"type": ["string", "null"]},
        "location": {"type": ["string", "null"]},
        "bid_date": {"type": ["string", "null"]}
      }
    },
    "materials": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "quantity", "unit"],
        "properties": {
          "name": {"type": "string"},
          "quantity": {"type": "number"},
          "unit": {"type": "string"},
          "specification": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

// Normalizer validates and repairs raw backend output into CanonicalDocument.
type Normalizer struct {
	schema *jsonschema.Schema
}

// New compiles the canonical schema and returns a Normalizer.
func New() (*Normalizer, error) {
	schema, err := jsonschema.CompileString("canonical.json", canonicalSchema)
	if err != nil {
		return nil, fmt.Errorf("compiling canonical schema: %w", err)
	}
	return &Normalizer{schema: schema}, nil
}

// Normalize coerces a backend's raw text response into a CanonicalDocument.
// Returns domain.ErrSchemaViolation (wrapped) when the response cannot be
// repaired into the canonical shape.
func (n *Normalizer) Normalize(raw string) (*domain.CanonicalDocument, error) {
	text := ExtractJSON(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: no JSON object in backend response", domain.ErrSchemaViolation)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding backend response: %v", domain.ErrSchemaViolation, err)
	}

	payload = unwrap(payload)
	coerce(payload)

	if err := n.schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err)
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("re-encoding normalized payload: %w", err)
	}
	var doc domain.CanonicalDocument
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err)
	}
	if doc.LineItems == nil {
		doc.LineItems = []domain.LineItem{}
	}
	if doc.Specifications == nil {
		doc.Specifications = []domain.Specification{}
	}
	if doc.Materials == nil {
		doc.Materials = []domain.Material{}
	}
	return &doc, nil
}

// ExtractJSON strips Markdown code fences and returns the outermost JSON
// object in s, or "" if none is present.
func ExtractJSON(s string) string {
	s = StripFences(s)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// StripFences removes Markdown code fences (```json ... ```) around s.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line (e.g. "json")
		first := strings.TrimSpace(s[:nl])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// unwrap peels common envelope keys ("data", "result") when the canonical
// keys live one level down.
func unwrap(payload map[string]interface{}) map[string]interface{} {
	if _, ok := payload["line_items"]; ok {
		return payload
	}
	for _, key := range []string{"data", "result", "document"} {
		if inner, ok := payload[key].(map[string]interface{}); ok {
			if _, ok := inner["line_items"]; ok {
				return inner
			}
		}
	}
	return payload
}

// coerce applies best-effort repairs in place: missing collections default to
// empty, numeric strings become numbers, numeric item codes become strings.
func coerce(payload map[string]interface{}) {
	if _, ok := payload["specifications"]; !ok {
		payload["specifications"] = []interface{}{}
	}
	if _, ok := payload["project_info"]; !ok {
		payload["project_info"] = map[string]interface{}{}
	}
	if _, ok := payload["materials"]; !ok {
		payload["materials"] = []interface{}{}
	}

	coerceItems(payload, "line_items", func(item map[string]interface{}) {
		coerceNumber(item, "quantity")
		coerceNumber(item, "unit_price")
		coerceString(item, "item_number")
		coerceString(item, "description")
		coerceString(item, "unit")
	})
	coerceItems(payload, "materials", func(item map[string]interface{}) {
		coerceNumber(item, "quantity")
		coerceString(item, "name")
		coerceString(item, "unit")
	})
	coerceItems(payload, "specifications", func(item map[string]interface{}) {
		coerceString(item, "code")
		coerceString(item, "description")
	})
}

func coerceItems(payload map[string]interface{}, key string, fn func(map[string]interface{})) {
	items, ok := payload[key].([]interface{})
	if !ok {
		return
	}
	for _, it := range items {
		if m, ok := it.(map[string]interface{}); ok {
			fn(m)
		}
	}
}

// coerceNumber turns a numeric string like "1,250.5" into a JSON number.
func coerceNumber(m map[string]interface{}, key string) {
	s, ok := m[key].(string)
	if !ok {
		return
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		delete(m, key)
		return
	}
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		m[key] = json.Number(strconv.FormatFloat(f, 'f', -1, 64))
	}
}

// coerceString turns a stray number into its string form.
func coerceString(m map[string]interface{}, key string) {
	switch v := m[key].(type) {
	case json.Number:
		m[key] = v.String()
	case float64:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "%g", v)
		m[key] = buf.String()
	}
}
