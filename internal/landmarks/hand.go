// Package landmarks turns the 21 hand keypoints produced by an external
// hand-pose detector into tracker detections.
//
// Keypoint indices follow the MediaPipe hand topology: 0 is the wrist, and
// each finger contributes four points running from the knuckle to the tip.
package landmarks

import (
	"errors"
	"fmt"

	"github.com/banshee-data/handtrack/internal/tracking"
	"gonum.org/v1/gonum/floats"
)

// NumLandmarks is the number of keypoints in a hand.
const NumLandmarks = 21

// Keypoint indices used by the adapter.
const (
	Wrist = 0

	IndexPIP = 6
	IndexDIP = 7
	IndexTip = 8

	MiddlePIP = 10
	MiddleDIP = 11
	MiddleTip = 12

	RingPIP = 14
	RingDIP = 15
	RingTip = 16

	PinkyPIP = 18
	PinkyDIP = 19
	PinkyTip = 20
)

// fingertips lists the tips whose x-coordinates form the finger measurement.
var fingertips = [tracking.NumFingers]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// ErrLandmarkCount is returned when a hand does not have exactly 21 points.
var ErrLandmarkCount = errors.New("landmarks: hand must have 21 points")

// Landmark is one keypoint in normalised image coordinates, with y growing
// downwards.
type Landmark = tracking.Point

// Hand is a full set of hand keypoints.
type Hand [NumLandmarks]Landmark

// FromPoints builds a Hand from [x, y] pairs, as found in replay files.
func FromPoints(points [][]float64) (Hand, error) {
	var h Hand
	if len(points) != NumLandmarks {
		return h, fmt.Errorf("%w: got %d", ErrLandmarkCount, len(points))
	}
	for i, p := range points {
		if len(p) < 2 {
			return h, fmt.Errorf("landmarks: point %d has %d coordinates, want 2", i, len(p))
		}
		h[i] = Landmark{X: p[0], Y: p[1]}
	}
	return h, nil
}

// BoundingBox returns the tight box around all keypoints as
// (x_min, y_min, x_max, y_max).
func (h Hand) BoundingBox() [4]float64 {
	xs := make([]float64, NumLandmarks)
	ys := make([]float64, NumLandmarks)
	for i, p := range h {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return [4]float64{floats.Min(xs), floats.Min(ys), floats.Max(xs), floats.Max(ys)}
}

// Anchor returns the index fingertip, which the tracker follows alongside
// the box center.
func (h Hand) Anchor() tracking.Point {
	return h[IndexTip]
}

// FingerXs returns the x-coordinates of the index, middle, ring and pinky
// tips.
func (h Hand) FingerXs() tracking.FingerLandmarks {
	var f tracking.FingerLandmarks
	for i, idx := range fingertips {
		f[i] = h[idx].X
	}
	return f
}

// Detection converts the hand into a tracker detection. Finger landmarks are
// attached only when the hand is an open palm, since only a palm swipe is a
// gesture.
func (h Hand) Detection() (*tracking.Detection, Gesture, error) {
	gesture := h.Classify()
	anchor := h.Anchor()
	var fingers *tracking.FingerLandmarks
	if gesture == GesturePalm {
		f := h.FingerXs()
		fingers = &f
	}
	det, err := tracking.NewDetection(h.BoundingBox(), &anchor, fingers)
	if err != nil {
		return nil, gesture, fmt.Errorf("landmarks: %w", err)
	}
	return det, gesture, nil
}
