package tracking

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBox is returned for detections whose geometry is unusable.
var ErrInvalidBox = errors.New("tracking: invalid bounding box")

// NumFingers is the number of finger landmarks carried by a detection.
const NumFingers = 4

// Point is a 2D position in normalised image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FingerLandmarks holds the x-coordinates of the index, middle, ring and
// pinky fingertips.
type FingerLandmarks [NumFingers]float64

// Slice returns the landmarks as a fresh slice.
func (f FingerLandmarks) Slice() []float64 {
	out := make([]float64, NumFingers)
	copy(out, f[:])
	return out
}

// Detection is a single hand observation. It is immutable once built by
// NewDetection.
type Detection struct {
	tlbr    [4]float64
	anchor  *Point
	fingers *FingerLandmarks
}

// NewDetection validates and builds a detection from a box in
// (x_min, y_min, x_max, y_max) order. anchor and fingers are optional and
// copied, so the caller may reuse them.
//
// The box must be finite with x_max >= x_min and y_max > y_min; a
// zero-height box has no aspect ratio and is rejected.
func NewDetection(tlbr [4]float64, anchor *Point, fingers *FingerLandmarks) (*Detection, error) {
	for i, v := range tlbr {
		if !finite(v) {
			return nil, fmt.Errorf("%w: coordinate %d is %v", ErrInvalidBox, i, v)
		}
	}
	if tlbr[2] < tlbr[0] {
		return nil, fmt.Errorf("%w: x_max %g < x_min %g", ErrInvalidBox, tlbr[2], tlbr[0])
	}
	if tlbr[3] <= tlbr[1] {
		return nil, fmt.Errorf("%w: y_max %g <= y_min %g", ErrInvalidBox, tlbr[3], tlbr[1])
	}

	d := &Detection{tlbr: tlbr}
	if anchor != nil {
		if !finite(anchor.X) || !finite(anchor.Y) {
			return nil, fmt.Errorf("%w: anchor (%v, %v) is not finite", ErrInvalidBox, anchor.X, anchor.Y)
		}
		a := *anchor
		d.anchor = &a
	}
	if fingers != nil {
		for i, v := range fingers {
			if !finite(v) {
				return nil, fmt.Errorf("%w: finger landmark %d is %v", ErrInvalidBox, i, v)
			}
		}
		f := *fingers
		d.fingers = &f
	}
	return d, nil
}

// TLBRFromTLWH converts (x_min, y_min, width, height) back to
// (x_min, y_min, x_max, y_max).
func TLBRFromTLWH(tlwh [4]float64) [4]float64 {
	return [4]float64{tlwh[0], tlwh[1], tlwh[0] + tlwh[2], tlwh[1] + tlwh[3]}
}

// TLBR returns the box as (x_min, y_min, x_max, y_max).
func (d *Detection) TLBR() [4]float64 { return d.tlbr }

// TLWH returns the box as (x_min, y_min, width, height).
func (d *Detection) TLWH() [4]float64 {
	return [4]float64{d.tlbr[0], d.tlbr[1], d.tlbr[2] - d.tlbr[0], d.tlbr[3] - d.tlbr[1]}
}

// XYAH returns the box as (center_x, center_y, width/height, height).
func (d *Detection) XYAH() [4]float64 {
	w := d.tlbr[2] - d.tlbr[0]
	h := d.tlbr[3] - d.tlbr[1]
	return [4]float64{d.tlbr[0] + w/2, d.tlbr[1] + h/2, w / h, h}
}

// Center returns the box center.
func (d *Detection) Center() Point {
	xyah := d.XYAH()
	return Point{X: xyah[0], Y: xyah[1]}
}

// XYIndex returns the primary track measurement
// (center_x, center_y, anchor_x, anchor_y). Without an anchor the box
// center stands in for it.
func (d *Detection) XYIndex() []float64 {
	c := d.Center()
	a := c
	if d.anchor != nil {
		a = *d.anchor
	}
	return []float64{c.X, c.Y, a.X, a.Y}
}

// Anchor returns the anchor point and whether one is present.
func (d *Detection) Anchor() (Point, bool) {
	if d.anchor == nil {
		return Point{}, false
	}
	return *d.anchor, true
}

// Fingers returns the finger landmarks and whether they are present.
func (d *Detection) Fingers() (FingerLandmarks, bool) {
	if d.fingers == nil {
		return FingerLandmarks{}, false
	}
	return *d.fingers, true
}

// HasFingers reports whether finger landmarks are attached.
func (d *Detection) HasFingers() bool { return d.fingers != nil }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
