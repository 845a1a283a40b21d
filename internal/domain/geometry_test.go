package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"takeoff/internal/domain"
)

func TestBoundingBox_Edges(t *testing.T) {
	b := domain.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}

	assert.Equal(t, 10.0, b.Left())
	assert.Equal(t, 110.0, b.Right())
	assert.Equal(t, 20.0, b.Top())
	assert.Equal(t, 70.0, b.Bottom())
	assert.Equal(t, 5000.0, b.Area())
}

func TestBoundingBox_Intersects(t *testing.T) {
	a := domain.BoundingBox{X: 0, Y: 0, Width: 100, Height: 100, PageNumber: 1}

	overlapping := domain.BoundingBox{X: 50, Y: 50, Width: 100, Height: 100, PageNumber: 1}
	assert.True(t, a.Intersects(overlapping))

	touching := domain.BoundingBox{X: 100, Y: 0, Width: 50, Height: 50, PageNumber: 1}
	assert.False(t, a.Intersects(touching), "edge contact is not overlap")

	otherPage := domain.BoundingBox{X: 50, Y: 50, Width: 100, Height: 100, PageNumber: 2}
	assert.False(t, a.Intersects(otherPage))
}

func TestBoundingBox_Intersection(t *testing.T) {
	a := domain.BoundingBox{X: 0, Y: 0, Width: 100, Height: 100, PageNumber: 1}
	b := domain.BoundingBox{X: 60, Y: 40, Width: 100, Height: 100, PageNumber: 1}

	got := a.Intersection(b)
	assert.Equal(t, 60.0, got.X)
	assert.Equal(t, 40.0, got.Y)
	assert.Equal(t, 40.0, got.Width)
	assert.Equal(t, 60.0, got.Height)

	disjoint := domain.BoundingBox{X: 500, Y: 500, Width: 10, Height: 10, PageNumber: 1}
	assert.Equal(t, 0.0, a.Intersection(disjoint).Area())
}

func TestBoundingBox_Union(t *testing.T) {
	a := domain.BoundingBox{X: 0, Y: 0, Width: 50, Height: 50, PageNumber: 3, Confidence: 0.9}
	b := domain.BoundingBox{X: 100, Y: 100, Width: 50, Height: 50, PageNumber: 3, Confidence: 0.6}

	got := a.Union(b)
	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, 150.0, got.Width)
	assert.Equal(t, 150.0, got.Height)
	assert.Equal(t, 3, got.PageNumber)
	assert.Equal(t, 0.6, got.Confidence, "union carries the weaker confidence")
}

func TestBoundingBox_Clamp(t *testing.T) {
	b := domain.BoundingBox{X: -10, Y: 700, Width: 1000, Height: 200}

	got := b.Clamp(612, 792)
	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, 612.0, got.Width)
	assert.Equal(t, 92.0, got.Height)
	assert.LessOrEqual(t, got.Right(), 612.0)
	assert.LessOrEqual(t, got.Bottom(), 792.0)
}

func TestBoundingBox_TileSpaceRoundTrip(t *testing.T) {
	tileOrigin := domain.BoundingBox{X: 200, Y: 300, Width: 400, Height: 400, PageNumber: 2}
	pageBox := domain.BoundingBox{X: 250, Y: 350, Width: 80, Height: 40, PageNumber: 2, Confidence: 0.75, Label: "line_items"}

	local := pageBox.ToTileSpace(tileOrigin)
	assert.Equal(t, 50.0, local.X)
	assert.Equal(t, 50.0, local.Y)
	assert.Equal(t, 0.75, local.Confidence)
	assert.Equal(t, "line_items", local.Label)

	back := local.FromTileSpace(tileOrigin)
	assert.Equal(t, pageBox, back)
}
