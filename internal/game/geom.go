package game

import "math"

// Vec2 is a screen-space point.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Vec3 is a world-space position. Z is the height axis.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Distance returns the euclidean distance between two world positions.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// PlanarDistanceSq returns the squared distance on the horizontal plane.
func (v Vec3) PlanarDistanceSq(o Vec3) float64 {
	dx, dy := v.X-o.X, v.Y-o.Y
	return dx*dx + dy*dy
}

// Rect is an axis-aligned screen rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) TopLeft() Vec2 { return Vec2{X: r.X, Y: r.Y} }

func (r Rect) Center() Vec2 {
	return Vec2{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Inflate grows the rectangle by dx/dy on every side. Negative values shrink it.
func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, W: r.W + 2*dx, H: r.H + 2*dy}
}

// ContainsStrict reports whether p lies strictly inside r; points on the edge are outside.
func (r Rect) ContainsStrict(p Vec2) bool {
	return p.X > r.Left() && p.X < r.Right() && p.Y > r.Top() && p.Y < r.Bottom()
}

// Intersects reports whether the rectangles overlap. Shared edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.Left() < o.Right() && o.Left() < r.Right() &&
		r.Top() < o.Bottom() && o.Top() < r.Bottom()
}
