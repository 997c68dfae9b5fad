// Package engine implements the frame-by-frame cell tracking core.
// This file contains the region descriptor handed in by the segmentation stage
// and the box geometry shared by the other passes.
package engine

import (
	"image"
	"math"
)

// Point is a sub-pixel position in image coordinates.
type Point struct {
	X float64
	Y float64
}

// Add returns p shifted by v.
func (p Point) Add(v Vector) Point {
	return Point{p.X + v.DX, p.Y + v.DY}
}

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Vector {
	return Vector{p.X - q.X, p.Y - q.Y}
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Vector is a per-frame displacement in pixels.
type Vector struct {
	DX float64
	DY float64
}

// Scale returns v multiplied by k.
func (v Vector) Scale(k float64) Vector {
	return Vector{v.DX * k, v.DY * k}
}

// Plus returns the sum of v and w.
func (v Vector) Plus(w Vector) Vector {
	return Vector{v.DX + w.DX, v.DY + w.DY}
}

// Norm returns the length of v.
func (v Vector) Norm() float64 {
	return math.Hypot(v.DX, v.DY)
}

// Region is one blob found by the upstream segmentation stage for a single frame.
// Area and Perimeter describe the blob shape, not its bounding box.
type Region struct {
	Box       image.Rectangle
	Centroid  Point
	Area      float64
	Perimeter float64
	// Contour is an optional reference to the blob outline. The engine never reads it.
	Contour []image.Point
}

// RegionFromBox builds a region whose shape is its own bounding box. It is used
// when the upstream stage only reports boxes.
func RegionFromBox(box image.Rectangle) Region {
	box = box.Canon()
	w, h := float64(box.Dx()), float64(box.Dy())
	return Region{
		Box:       box,
		Centroid:  boxCenter(box),
		Area:      w * h,
		Perimeter: 2 * (w + h),
	}
}

// Compactness returns 4π·area/perimeter², or 0 when the perimeter is not positive.
func (r Region) Compactness() float64 {
	if r.Perimeter <= 0 {
		return 0
	}
	return 4 * math.Pi * r.Area / (r.Perimeter * r.Perimeter)
}

// AspectRatio returns width/height of the bounding box and false when the height is zero.
func (r Region) AspectRatio() (float64, bool) {
	if r.Box.Dy() <= 0 {
		return 0, false
	}
	return float64(r.Box.Dx()) / float64(r.Box.Dy()), true
}

func boxArea(r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	return float64(r.Dx()) * float64(r.Dy())
}

func boxCenter(r image.Rectangle) Point {
	return Point{
		X: float64(r.Min.X) + float64(r.Dx())/2,
		Y: float64(r.Min.Y) + float64(r.Dy())/2,
	}
}

// IntersectionArea returns the area shared by two boxes.
func IntersectionArea(r1, r2 image.Rectangle) float64 {
	return boxArea(r1.Intersect(r2))
}

// IOU returns the intersection over union of 2 rectangles
func IOU(r1, r2 image.Rectangle) float64 {
	inter := IntersectionArea(r1, r2)
	if inter == 0 {
		return 0
	}
	union := boxArea(r1) + boxArea(r2) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// contains reports whether inner lies entirely inside outer.
func contains(outer, inner image.Rectangle) bool {
	return inner.Min.X >= outer.Min.X && inner.Min.Y >= outer.Min.Y &&
		inner.Max.X <= outer.Max.X && inner.Max.Y <= outer.Max.Y
}

// pointIn reports whether p lies inside r, edges included.
func pointIn(p Point, r image.Rectangle) bool {
	return p.X >= float64(r.Min.X) && p.X <= float64(r.Max.X) &&
		p.Y >= float64(r.Min.Y) && p.Y <= float64(r.Max.Y)
}

// centeredBox returns a box of the given size centered on c.
func centeredBox(c Point, size image.Point) image.Rectangle {
	x0 := int(math.Round(c.X - float64(size.X)/2))
	y0 := int(math.Round(c.Y - float64(size.Y)/2))
	return image.Rect(x0, y0, x0+size.X, y0+size.Y)
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
