package tracking

import (
	"fmt"

	"github.com/banshee-data/handtrack/internal/kalman"
	"github.com/google/uuid"
)

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	TrackTentative TrackState = "tentative" // New track, needs confirmation
	TrackConfirmed TrackState = "confirmed" // Stable track with sufficient history
	TrackDeleted   TrackState = "deleted"   // Track marked for removal
)

// Track is the primary hand track. Its measurement space is
// (center_x, center_y, anchor_x, anchor_y).
type Track struct {
	TrackID string
	State   TrackState

	// Lifecycle counters
	Hits            int // Successful updates, including the initiating detection
	TimeSinceUpdate int // Predictions since the last update

	Estimate kalman.State

	nInit  int
	maxAge int
}

// NewTrack creates a tentative track from an initial state.
func NewTrack(estimate kalman.State, nInit, maxAge int) *Track {
	return &Track{
		TrackID:  fmt.Sprintf("trk_%s", uuid.NewString()),
		State:    TrackTentative,
		Hits:     1,
		Estimate: estimate,
		nInit:    nInit,
		maxAge:   maxAge,
	}
}

// Predict propagates the state one frame forward.
func (t *Track) Predict(kf *kalman.Filter) {
	t.Estimate = kf.Predict(t.Estimate)
	t.TimeSinceUpdate++
}

// Update corrects the state with det and promotes a tentative track once
// it has nInit hits.
func (t *Track) Update(kf *kalman.Filter, det *Detection) error {
	next, err := kf.Update(t.Estimate, det.XYIndex())
	if err != nil {
		return fmt.Errorf("update track %s: %w", t.TrackID, err)
	}
	t.Estimate = next
	t.Hits++
	t.TimeSinceUpdate = 0
	if t.State == TrackTentative && t.Hits >= t.nInit {
		t.State = TrackConfirmed
	}
	return nil
}

// MarkMissed records a frame without a usable association. Tentative tracks
// do not survive a miss; confirmed tracks coast until they exceed maxAge.
func (t *Track) MarkMissed() {
	switch {
	case t.State == TrackTentative:
		t.State = TrackDeleted
	case t.TimeSinceUpdate > t.maxAge:
		t.State = TrackDeleted
	}
}

func (t *Track) IsTentative() bool { return t.State == TrackTentative }
func (t *Track) IsConfirmed() bool { return t.State == TrackConfirmed }
func (t *Track) IsDeleted() bool   { return t.State == TrackDeleted }

// Position returns the smoothed box center, usable as a pointer.
func (t *Track) Position() Point {
	return Point{X: t.Estimate.Mean.AtVec(0), Y: t.Estimate.Mean.AtVec(1)}
}

// Anchor returns the smoothed anchor point.
func (t *Track) Anchor() Point {
	return Point{X: t.Estimate.Mean.AtVec(2), Y: t.Estimate.Mean.AtVec(3)}
}
