package treemap

import "math"

// Rect is an axis-aligned rectangle with X growing right and Y growing down.
// X0 <= X1 and Y0 <= Y1 for every rectangle Layout returns.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns Width * Height.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Valid reports whether r has finite coordinates and a positive width and
// height.
func (r Rect) Valid() bool {
	for _, v := range [...]float64{r.X0, r.Y0, r.X1, r.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width() > 0 && r.Height() > 0 && !math.IsInf(r.Width(), 0) && !math.IsInf(r.Height(), 0)
}

// Overlaps reports whether the interiors of r and o intersect. Rectangles
// that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return min(r.X1, o.X1) > max(r.X0, o.X0) && min(r.Y1, o.Y1) > max(r.Y0, o.Y0)
}

// Scale maps r from the coordinate space of from into the space of into.
func (r Rect) Scale(into, from Rect) Rect {
	sx := into.Width() / from.Width()
	sy := into.Height() / from.Height()
	return Rect{
		X0: into.X0 + (r.X0-from.X0)*sx,
		Y0: into.Y0 + (r.Y0-from.Y0)*sy,
		X1: into.X0 + (r.X1-from.X0)*sx,
		Y1: into.Y0 + (r.Y1-from.Y0)*sy,
	}
}
