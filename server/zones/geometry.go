package zones

import (
	"github.com/arguscam/argus/pkg/nn"
)

// Pure geometry for zone containment. Nothing in this file touches engine
// state or any rendering surface, so it can be tested standalone.

// PointInPolygon is the standard ray-casting test: cast a horizontal ray from
// p and count edge crossings. An odd count means p is inside. Points exactly
// on an edge fall on whichever side the arithmetic puts them, but the answer
// is stable across calls.
func PointInPolygon(p nn.Point, polygon []nn.Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		a := polygon[i]
		b := polygon[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			crossX := float64(b.X-a.X)*float64(p.Y-a.Y)/float64(b.Y-a.Y) + float64(a.X)
			if float64(p.X) < crossX {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PointInRect is a direct bounds comparison. corner1/corner2 are any two
// opposing corners of the rectangle.
func PointInRect(p nn.Point, corner1, corner2 nn.Point) bool {
	x1 := min(corner1.X, corner2.X)
	x2 := max(corner1.X, corner2.X)
	y1 := min(corner1.Y, corner2.Y)
	y2 := max(corner1.Y, corner2.Y)
	return p.X >= x1 && p.X <= x2 && p.Y >= y1 && p.Y <= y2
}

// BoundsOf returns the axis-aligned bounding box of a point list
func BoundsOf(points []nn.Point) nn.Rect {
	if len(points) == 0 {
		return nn.Rect{}
	}
	x1, y1 := points[0].X, points[0].Y
	x2, y2 := x1, y1
	for _, p := range points[1:] {
		x1 = min(x1, p.X)
		y1 = min(y1, p.Y)
		x2 = max(x2, p.X)
		y2 = max(y2, p.Y)
	}
	return nn.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
