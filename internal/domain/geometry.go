package domain

import "math"

// BoundingBox is a rectangle in page coordinates with detection metadata.
// Confidence is always in [0,1]. Label is the region class reported by the
// coarse scan ("line_items", "specifications", "project_info") and may be
// empty for geometry-only boxes such as tile origins.
type BoundingBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PageNumber int     `json:"page_number"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label,omitempty"`
}

// Left returns the left edge X coordinate.
func (b BoundingBox) Left() float64 { return b.X }

// Right returns the right edge X coordinate.
func (b BoundingBox) Right() float64 { return b.X + b.Width }

// Top returns the top edge Y coordinate.
func (b BoundingBox) Top() float64 { return b.Y }

// Bottom returns the bottom edge Y coordinate.
func (b BoundingBox) Bottom() float64 { return b.Y + b.Height }

// Area returns the box area.
func (b BoundingBox) Area() float64 { return b.Width * b.Height }

// Intersects reports whether two boxes on the same page overlap.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	if b.PageNumber != other.PageNumber {
		return false
	}
	return b.Left() < other.Right() && b.Right() > other.Left() &&
		b.Top() < other.Bottom() && b.Bottom() > other.Top()
}

// Intersection returns the overlapping region of two boxes. The zero box is
// returned when they do not intersect.
func (b BoundingBox) Intersection(other BoundingBox) BoundingBox {
	if !b.Intersects(other) {
		return BoundingBox{PageNumber: b.PageNumber}
	}
	x := math.Max(b.Left(), other.Left())
	y := math.Max(b.Top(), other.Top())
	return BoundingBox{
		X:          x,
		Y:          y,
		Width:      math.Min(b.Right(), other.Right()) - x,
		Height:     math.Min(b.Bottom(), other.Bottom()) - y,
		PageNumber: b.PageNumber,
	}
}

// Union returns the smallest box containing both boxes.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Top(), other.Top())
	return BoundingBox{
		X:          x,
		Y:          y,
		Width:      math.Max(b.Right(), other.Right()) - x,
		Height:     math.Max(b.Bottom(), other.Bottom()) - y,
		PageNumber: b.PageNumber,
		Confidence: math.Min(b.Confidence, other.Confidence),
		Label:      b.Label,
	}
}

// Clamp constrains the box to the given page bounds.
func (b BoundingBox) Clamp(pageWidth, pageHeight float64) BoundingBox {
	out := b
	out.X = math.Max(0, math.Min(out.X, pageWidth))
	out.Y = math.Max(0, math.Min(out.Y, pageHeight))
	out.Width = math.Min(out.Width, pageWidth-out.X)
	out.Height = math.Min(out.Height, pageHeight-out.Y)
	return out
}

// ToTileSpace converts a page-space box into the local coordinate space of a
// tile whose page-space origin is tileOrigin. Confidence and label carry over.
func (b BoundingBox) ToTileSpace(tileOrigin BoundingBox) BoundingBox {
	out := b
	out.X = b.X - tileOrigin.X
	out.Y = b.Y - tileOrigin.Y
	return out
}

// FromTileSpace converts a tile-local box back into page coordinates using
// the tile's page-space origin.
func (b BoundingBox) FromTileSpace(tileOrigin BoundingBox) BoundingBox {
	out := b
	out.X = b.X + tileOrigin.X
	out.Y = b.Y + tileOrigin.Y
	out.PageNumber = tileOrigin.PageNumber
	return out
}
