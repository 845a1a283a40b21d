package strategy

import "strconv"

// BuildExtractionPrompt returns the extraction prompt for construction
// documents. scope describes what the payload shows ("document", "page", or
// "region of a page") so the model does not invent content outside it.
func BuildExtractionPrompt(scope string) string {
	return `You are a construction document data extraction assistant. Analyze the provided ` + scope + ` from a construction plan or specification and extract ALL structured data into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- Extract EVERY line item visible: bid items, pay items, quantity takeoff rows, schedule entries. Do not skip, summarize, or omit any items.
- Quantities must be numbers. Strip thousands separators and unit suffixes from the quantity field; put the unit in "unit" (e.g., "LF", "SY", "CY", "EA", "LS", "TON").
- "specifications" lists referenced standards and spec sections (e.g., ASTM, AASHTO, DOT section numbers) with their descriptions.
- "materials" lists called-out materials with quantities where stated.
- Include project name, location, and bid date in "project_info" when visible.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation — just the raw JSON object with this schema:
{
  "line_items": [
    {
      "item_number": "",
      "description": "",
      "quantity": 0,
      "unit": "",
      "unit_price": null
    }
  ],
  "specifications": [
    { "code": "", "description": "" }
  ],
  "project_info": {
    "name": null, "location": null, "bid_date": null
  },
  "materials": [
    { "name": "", "quantity": 0, "unit": "", "specification": null }
  ]
}

If a field is not present, use null for optional fields, empty string for text, and 0 for numbers. If the ` + scope + ` contains no extractable data, return the schema with empty arrays.`
}

// BuildROIPrompt returns the coarse-scan prompt asking for bounding boxes of
// regions worth extracting at high resolution.
func BuildROIPrompt(pageWidth, pageHeight float64) string {
	return `You are analyzing one page of a construction plan or specification rendered as an image. Identify regions of the page likely to contain extractable structured content.

Region labels:
- "line_items": bid schedules, quantity tables, pay item tables
- "specifications": specification text blocks, referenced standards
- "project_info": title blocks, project name/location/date stamps

Coordinates are in page points: the page is ` + formatFloat(pageWidth) + ` wide and ` + formatFloat(pageHeight) + ` tall, origin at the top-left corner.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation:
{
  "regions": [
    { "x": 0, "y": 0, "width": 0, "height": 0, "label": "", "confidence": 0.0 }
  ]
}

Confidence is between 0.0 and 1.0. Return an empty "regions" array if the page has no extractable content. Prefer fewer, larger regions over many small fragments.`
}

func formatFloat(f float64) string {
	// page dims are points; whole numbers read better in the prompt
	n := int(f + 0.5)
	if n <= 0 {
		n = 612 // letter width fallback
	}
	return strconv.Itoa(n)
}
