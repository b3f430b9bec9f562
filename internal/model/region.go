package model

import "image"

// Region is an axis-aligned rectangle in image pixel coordinates.
// X1,Y1 is the top-left corner and X2,Y2 the bottom-right one.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewRegion builds a Region from an image.Rectangle.
func NewRegion(r image.Rectangle) Region {
	return Region{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect returns the region as an image.Rectangle (X2,Y2 exclusive), the form
// used for cropping.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Width returns the horizontal extent in pixels.
func (r Region) Width() int {
	return r.X2 - r.X1
}

// Height returns the vertical extent in pixels.
func (r Region) Height() int {
	return r.Y2 - r.Y1
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

// Clip returns the part of the region that lies within bounds.
func (r Region) Clip(bounds image.Rectangle) Region {
	return NewRegion(r.Rect().Intersect(bounds))
}

// Detection is a single region emitted by a detector, with the detector's
// class label and confidence when it provides them.
type Detection struct {
	Region     Region  `json:"region"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
