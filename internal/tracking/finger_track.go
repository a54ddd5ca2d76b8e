package tracking

import (
	"fmt"

	"github.com/banshee-data/handtrack/internal/kalman"
)

// FingerTrack follows the four fingertip x-coordinates of an open palm.
// It is spawned only under a stable hand track, so it starts confirmed and
// can only be deleted.
type FingerTrack struct {
	State           TrackState
	TimeSinceUpdate int
	Estimate        kalman.State

	maxAge int
}

// NewFingerTrack creates a confirmed finger track from an initial state.
func NewFingerTrack(estimate kalman.State, maxAge int) *FingerTrack {
	return &FingerTrack{
		State:    TrackConfirmed,
		Estimate: estimate,
		maxAge:   maxAge,
	}
}

// Predict propagates the state one frame forward.
func (f *FingerTrack) Predict(kf *kalman.Filter) {
	f.Estimate = kf.Predict(f.Estimate)
	f.TimeSinceUpdate++
}

// Update corrects the state with a landmark measurement.
func (f *FingerTrack) Update(kf *kalman.Filter, fingers FingerLandmarks) error {
	next, err := kf.Update(f.Estimate, fingers.Slice())
	if err != nil {
		return fmt.Errorf("update finger track: %w", err)
	}
	f.Estimate = next
	f.TimeSinceUpdate = 0
	return nil
}

// MarkMissed deletes the track once it has gone more than maxAge frames
// without an update.
func (f *FingerTrack) MarkMissed() {
	if f.TimeSinceUpdate > f.maxAge {
		f.State = TrackDeleted
	}
}

func (f *FingerTrack) IsDeleted() bool { return f.State == TrackDeleted }

// Landmarks returns the smoothed fingertip x-coordinates.
func (f *FingerTrack) Landmarks() FingerLandmarks {
	var out FingerLandmarks
	for i := range out {
		out[i] = f.Estimate.Mean.AtVec(i)
	}
	return out
}
