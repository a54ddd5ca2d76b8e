// Package session replays recorded hand frames through a tracker and hands
// the per-frame outcome to a recorder.
package session

import (
	"errors"
	"fmt"

	"github.com/banshee-data/handtrack/internal/landmarks"
	"github.com/banshee-data/handtrack/internal/tracking"
)

// ErrMalformedFrame is returned for replay lines that cannot describe a
// frame.
var ErrMalformedFrame = errors.New("session: malformed frame")

// DetectionRecord is a pre-computed detection in a replay file.
type DetectionRecord struct {
	TLBR    []float64 `json:"tlbr"`
	Anchor  []float64 `json:"anchor,omitempty"`
	Fingers []float64 `json:"fingers,omitempty"`
}

// Frame is one line of a replay file. A frame carries raw hand landmarks,
// a detection, or neither when no hand was found.
type Frame struct {
	Frame     *int             `json:"frame,omitempty"`
	TSMillis  *int64           `json:"ts_ms,omitempty"`
	Landmarks [][]float64      `json:"landmarks,omitempty"`
	Detection *DetectionRecord `json:"detection,omitempty"`
}

// ToDetection converts the frame into a tracker detection. It returns nil
// for an empty frame. The gesture is only known for landmark frames.
func (f Frame) ToDetection() (*tracking.Detection, landmarks.Gesture, error) {
	switch {
	case f.Landmarks != nil && f.Detection != nil:
		return nil, "", fmt.Errorf("%w: both landmarks and detection set", ErrMalformedFrame)
	case f.Landmarks != nil:
		hand, err := landmarks.FromPoints(f.Landmarks)
		if err != nil {
			return nil, "", err
		}
		return hand.Detection()
	case f.Detection != nil:
		det, err := f.Detection.toDetection()
		return det, "", err
	}
	return nil, "", nil
}

func (r *DetectionRecord) toDetection() (*tracking.Detection, error) {
	if len(r.TLBR) != 4 {
		return nil, fmt.Errorf("%w: tlbr has %d values, want 4", ErrMalformedFrame, len(r.TLBR))
	}
	tlbr := [4]float64{r.TLBR[0], r.TLBR[1], r.TLBR[2], r.TLBR[3]}

	var anchor *tracking.Point
	if r.Anchor != nil {
		if len(r.Anchor) != 2 {
			return nil, fmt.Errorf("%w: anchor has %d values, want 2", ErrMalformedFrame, len(r.Anchor))
		}
		anchor = &tracking.Point{X: r.Anchor[0], Y: r.Anchor[1]}
	}

	var fingers *tracking.FingerLandmarks
	if r.Fingers != nil {
		if len(r.Fingers) != tracking.NumFingers {
			return nil, fmt.Errorf("%w: fingers has %d values, want %d", ErrMalformedFrame, len(r.Fingers), tracking.NumFingers)
		}
		var f tracking.FingerLandmarks
		copy(f[:], r.Fingers)
		fingers = &f
	}
	return tracking.NewDetection(tlbr, anchor, fingers)
}
