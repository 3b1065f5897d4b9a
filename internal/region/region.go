// Package region provides rectangles and rectangle unions in the global
// compositor coordinate space.
package region

// Rect is an axis-aligned rectangle. The right and bottom edges are exclusive.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// X2 returns the exclusive right edge.
func (r Rect) X2() int32 { return r.X + r.Width }

// Y2 returns the exclusive bottom edge.
func (r Rect) Y2() int32 { return r.Y + r.Height }

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains checks if a point is within this rectangle
func (r Rect) Contains(x, y int32) bool {
	return x >= r.X && x < r.X2() && y >= r.Y && y < r.Y2()
}

// Intersects reports whether two rectangles share at least one pixel.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X2() && o.X < r.X2() && r.Y < o.Y2() && o.Y < r.Y2()
}

// Clamp restricts a point to the pixels covered by the rectangle, each axis
// independently.
func (r Rect) Clamp(x, y int32) (int32, int32) {
	return clamp(x, r.X, r.X2()-1), clamp(y, r.Y, r.Y2()-1)
}

// Region is a union of rectangles.
type Region struct {
	rects []Rect
}

// New returns a region covering the given rectangles.
func New(rects ...Rect) Region {
	var r Region
	for _, rect := range rects {
		r.Union(rect)
	}
	return r
}

// Union adds a rectangle to the region. Empty rectangles are ignored.
func (r *Region) Union(rect Rect) {
	if rect.Empty() {
		return
	}
	r.rects = append(r.rects, rect)
}

// Copy returns an independent copy of the region.
func (r Region) Copy() Region {
	return Region{rects: append([]Rect(nil), r.rects...)}
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return len(r.rects) == 0
}

// Rects returns the rectangles making up the region.
func (r Region) Rects() []Rect {
	return append([]Rect(nil), r.rects...)
}

// Contains reports whether the point lies inside the region.
func (r Region) Contains(x, y int32) bool {
	_, ok := r.BoxAt(x, y)
	return ok
}

// BoxAt returns the first rectangle of the region containing the point.
func (r Region) BoxAt(x, y int32) (Rect, bool) {
	for _, rect := range r.rects {
		if rect.Contains(x, y) {
			return rect, true
		}
	}
	return Rect{}, false
}

// Nearest returns the rectangle with the smallest distance to the point.
// It is false only for an empty region.
func (r Region) Nearest(x, y int32) (Rect, bool) {
	var best Rect
	found := false
	var bestDist int64
	for _, rect := range r.rects {
		cx, cy := rect.Clamp(x, y)
		dx, dy := int64(cx-x), int64(cy-y)
		dist := dx*dx + dy*dy
		if !found || dist < bestDist {
			best, bestDist, found = rect, dist, true
		}
	}
	return best, found
}

// Extents returns the bounding box of the region.
func (r Region) Extents() Rect {
	if len(r.rects) == 0 {
		return Rect{}
	}
	x1, y1 := r.rects[0].X, r.rects[0].Y
	x2, y2 := r.rects[0].X2(), r.rects[0].Y2()
	for _, rect := range r.rects[1:] {
		x1 = min(x1, rect.X)
		y1 = min(y1, rect.Y)
		x2 = max(x2, rect.X2())
		y2 = max(y2, rect.Y2())
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func clamp(v, lo, hi int32) int32 {
	return max(min(v, hi), lo)
}
