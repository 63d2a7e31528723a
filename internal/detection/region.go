package detection

import "image"

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Region is a candidate answer slot on the sheet. The two concrete shapes are
// Circle (shape-strategy bubbles) and Cell (grid-strategy cells). Downstream
// consumers, the fill scorer in particular, only need the uniform interior
// test, which keeps them agnostic to how the region was located.
//
// Regions are immutable once produced; stages hand them downstream read-only.
type Region interface {
	// Bounds returns the axis-aligned bounding box enclosing the region.
	Bounds() image.Rectangle

	// Contains reports whether the pixel at (x, y) lies inside the region.
	Contains(x, y int) bool

	// Center returns the region's center point.
	Center() Point
}

// Circle is a circular bubble located by the Hough transform.
type Circle struct {
	// X, Y is the detected center of the bubble.
	X int `json:"x"`
	Y int `json:"y"`

	// Radius is the detected radius in pixels.
	Radius int `json:"radius"`

	// Votes is the Hough accumulator count supporting this detection.
	// Higher values indicate a more complete circular boundary.
	Votes int `json:"votes"`
}

// Bounds returns the bounding square of the circle.
func (c Circle) Bounds() image.Rectangle {
	return image.Rect(c.X-c.Radius, c.Y-c.Radius, c.X+c.Radius+1, c.Y+c.Radius+1)
}

// Contains reports whether (x, y) lies strictly inside the circle.
func (c Circle) Contains(x, y int) bool {
	dx := x - c.X
	dy := y - c.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// Center returns the circle's center point.
func (c Circle) Center() Point {
	return Point{X: c.X, Y: c.Y}
}

// Cell is a rectangular answer cell produced by grid partitioning.
type Cell struct {
	Rect image.Rectangle `json:"rect"`
}

// Bounds returns the cell rectangle.
func (c Cell) Bounds() image.Rectangle {
	return c.Rect
}

// Contains reports whether (x, y) lies inside the cell.
func (c Cell) Contains(x, y int) bool {
	return image.Pt(x, y).In(c.Rect)
}

// Center returns the cell's center point.
func (c Cell) Center() Point {
	return Point{
		X: (c.Rect.Min.X + c.Rect.Max.X) / 2,
		Y: (c.Rect.Min.Y + c.Rect.Max.Y) / 2,
	}
}

// Row is an ordered run of regions believed to belong to one question.
// Regions are ordered left to right. Index is the 0-based detection order;
// the orchestrator maps it to a 1-based question number.
type Row struct {
	Index   int      `json:"index"`
	Regions []Region `json:"regions"`
}

// Bounds returns the union of all region bounding boxes in the row.
// A row with no regions returns the zero rectangle.
func (r Row) Bounds() image.Rectangle {
	var u image.Rectangle
	for i, reg := range r.Regions {
		if i == 0 {
			u = reg.Bounds()
			continue
		}
		u = u.Union(reg.Bounds())
	}
	return u
}
