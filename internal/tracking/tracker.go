package tracking

import (
	"fmt"

	"github.com/banshee-data/handtrack/internal/kalman"
	"github.com/banshee-data/handtrack/internal/monitoring"
	"gonum.org/v1/gonum/floats"
)

// Event is the gesture outcome of a single Update.
type Event string

const (
	EventNone       Event = "none"
	EventSwipeLeft  Event = "swipe_left"
	EventSwipeRight Event = "swipe_right"
)

// IsSwipe reports whether e is a swipe.
func (e Event) IsSwipe() bool {
	return e == EventSwipeLeft || e == EventSwipeRight
}

// fingerDoF is the dimensionality of the swipe gate.
const fingerDoF = NumFingers

// Result describes what a single Update did.
type Result struct {
	Event Event

	// Gated is true when the detection was tested against an existing
	// track; Distance and Moved are only meaningful then.
	Gated    bool
	Distance float64
	Moved    bool

	// FingerDistance is the swipe gate distance, set when swipe detection ran.
	FingerDistance float64

	// Track state after the update.
	TrackID   string
	Confirmed bool
	Pointer   Point // Smoothed hand center, valid when Confirmed
}

// Tracker follows one hand and at most one finger sub-track per session.
type Tracker struct {
	Config TrackerConfig

	// FramesSinceLastSwipe is the swipe cooldown counter. It increments on
	// every Predict and resets to 0 when a swipe fires.
	FramesSinceLastSwipe int

	kf       *kalman.Filter
	fingerKF *kalman.Filter

	track       *Track
	fingerTrack *FingerTrack

	// Thresholds derived once from Config.
	gatingThreshold float64
	movedThreshold  float64
	fingerThreshold float64
	onlyPosition    bool
}

// NewTracker creates a tracker with the specified configuration.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model := kalman.Model{
		NDim:              4,
		StdWeightPosition: cfg.StdWeightPosition,
		StdWeightVelocity: cfg.StdWeightVelocity,
		ScaleIndex:        -1,
	}
	kf, err := kalman.NewFilter(model, cfg.ChiSq)
	if err != nil {
		return nil, fmt.Errorf("primary filter: %w", err)
	}
	model.NDim = NumFingers
	fingerKF, err := kalman.NewFilter(model, cfg.FingerChiSq)
	if err != nil {
		return nil, fmt.Errorf("finger filter: %w", err)
	}
	gate, err := kf.Threshold(cfg.PrimaryGatingDoF)
	if err != nil {
		return nil, fmt.Errorf("gating threshold: %w", err)
	}
	moved, err := kalman.Quantile(cfg.MovedChiSq, cfg.PrimaryGatingDoF)
	if err != nil {
		return nil, fmt.Errorf("moved threshold: %w", err)
	}
	finger, err := fingerKF.Threshold(fingerDoF)
	if err != nil {
		return nil, fmt.Errorf("finger threshold: %w", err)
	}

	return &Tracker{
		Config:               cfg,
		FramesSinceLastSwipe: cfg.InitialFramesSinceSwipe,
		kf:                   kf,
		fingerKF:             fingerKF,
		gatingThreshold:      gate,
		movedThreshold:       moved,
		fingerThreshold:      finger,
		onlyPosition:         cfg.PrimaryGatingDoF == 2,
	}, nil
}

// Reset drops both tracks and restores the cooldown counter, so the
// tracker can start a new session.
func (t *Tracker) Reset() {
	t.track = nil
	t.fingerTrack = nil
	t.FramesSinceLastSwipe = t.Config.InitialFramesSinceSwipe
}

// Track returns the active hand track, or nil.
func (t *Tracker) Track() *Track { return t.track }

// FingerTrack returns the active finger track, or nil.
func (t *Tracker) FingerTrack() *FingerTrack { return t.fingerTrack }

// HasConfirmedTrack reports whether a confirmed hand track exists.
func (t *Tracker) HasConfirmedTrack() bool {
	return t.track != nil && t.track.IsConfirmed()
}

// Pointer returns the smoothed hand center when a confirmed track exists.
func (t *Tracker) Pointer() (Point, bool) {
	if !t.HasConfirmedTrack() {
		return Point{}, false
	}
	return t.track.Position(), true
}

// GatingThreshold returns the primary chi-square gate.
func (t *Tracker) GatingThreshold() float64 { return t.gatingThreshold }

// MovedThreshold returns the gate above which the hand counts as moved.
func (t *Tracker) MovedThreshold() float64 { return t.movedThreshold }

// FingerThreshold returns the swipe gate.
func (t *Tracker) FingerThreshold() float64 { return t.fingerThreshold }

// Predict propagates track state distributions one frame forward.
// It must be called exactly once per frame, before Update.
func (t *Tracker) Predict() {
	if t.track != nil {
		t.track.Predict(t.kf)
	}
	if t.fingerTrack != nil {
		t.fingerTrack.Predict(t.fingerKF)
	}
	t.FramesSinceLastSwipe++
}

// Update performs measurement update and track management for one frame.
// det is nil when the detector found no hand.
func (t *Tracker) Update(det *Detection) Result {
	res := Result{Event: EventNone}

	if det == nil {
		if t.track != nil {
			t.track.MarkMissed()
			if t.track.IsDeleted() {
				monitoring.Debugf("track %s lost after %d missed frames", t.track.TrackID, t.track.TimeSinceUpdate)
				t.dropTrack()
			}
		}
		return t.finish(res)
	}

	fingers, hasFingers := det.Fingers()

	if t.track == nil {
		t.initiateTrack(det)
		return t.finish(res)
	}
	if t.fingerTrack == nil && hasFingers && t.FramesSinceLastSwipe > t.Config.SwipeDebounceFrames {
		t.initiateFingerTrack(fingers)
	}

	dist, err := t.kf.Distance(t.track.Estimate, det.XYIndex(), t.onlyPosition)
	if err != nil {
		monitoring.Logf("tracking: gating track %s: %v; deleting track", t.track.TrackID, err)
		t.track.State = TrackDeleted
	} else {
		res.Gated = true
		res.Distance = dist
		// A failed gate is a soft miss: it only deletes tentative or
		// long-coasting tracks and does not block the update below.
		if dist > t.gatingThreshold {
			t.track.MarkMissed()
		}
		res.Moved = dist > t.movedThreshold
	}

	switch {
	case t.track.IsDeleted():
		if res.Gated {
			monitoring.Debugf("track %s deleted at gate (d²=%.3f)", t.track.TrackID, dist)
		}
		t.dropTrack()
	case t.fingerTrack != nil && t.fingerTrack.IsDeleted():
		t.fingerTrack = nil
	default:
		if err := t.track.Update(t.kf, det); err != nil {
			monitoring.Logf("tracking: %v; deleting track", err)
			t.dropTrack()
			break
		}
		if t.fingerTrack == nil {
			break
		}
		if hasFingers {
			res.Event, res.FingerDistance = t.detectSwipe(fingers, res.Moved)
		} else {
			t.fingerTrack.MarkMissed()
		}
	}
	return t.finish(res)
}

// detectSwipe tests a landmark measurement against the finger track. A
// measurement outside the gate while the hand itself has not jumped is a
// swipe; anything else is ordinary finger motion.
func (t *Tracker) detectSwipe(fingers FingerLandmarks, moved bool) (Event, float64) {
	measurement := fingers.Slice()
	dist, err := t.fingerKF.Distance(t.fingerTrack.Estimate, measurement, false)
	if err != nil {
		monitoring.Logf("tracking: gating finger track: %v; dropping finger track", err)
		t.fingerTrack = nil
		return EventNone, 0
	}

	if !moved && dist > t.fingerThreshold {
		prev := t.fingerTrack.Landmarks()
		delta := make([]float64, NumFingers)
		floats.SubTo(delta, prev[:], measurement)

		event := EventSwipeRight
		if floats.Sum(delta) > 0 {
			event = EventSwipeLeft
		}
		monitoring.Debugf("%s (d²=%.3f > %.3f)", event, dist, t.fingerThreshold)
		t.fingerTrack = nil
		t.FramesSinceLastSwipe = 0
		return event, dist
	}

	if err := t.fingerTrack.Update(t.fingerKF, fingers); err != nil {
		monitoring.Logf("tracking: %v; dropping finger track", err)
		t.fingerTrack = nil
	}
	return EventNone, dist
}

func (t *Tracker) initiateTrack(det *Detection) {
	estimate, err := t.kf.Initiate(det.XYIndex())
	if err != nil {
		monitoring.Logf("tracking: initiate track: %v", err)
		return
	}
	t.track = NewTrack(estimate, t.Config.NInit, t.Config.MaxAge)
	monitoring.Debugf("track %s initiated", t.track.TrackID)
	if fingers, ok := det.Fingers(); ok {
		t.initiateFingerTrack(fingers)
	}
}

func (t *Tracker) initiateFingerTrack(fingers FingerLandmarks) {
	estimate, err := t.fingerKF.Initiate(fingers.Slice())
	if err != nil {
		monitoring.Logf("tracking: initiate finger track: %v", err)
		return
	}
	t.fingerTrack = NewFingerTrack(estimate, t.Config.FingerMaxAge)
}

// dropTrack removes the hand track and, with it, any finger track.
func (t *Tracker) dropTrack() {
	t.track = nil
	t.fingerTrack = nil
}

func (t *Tracker) finish(res Result) Result {
	if t.track != nil {
		res.TrackID = t.track.TrackID
		res.Confirmed = t.track.IsConfirmed()
		if res.Confirmed {
			res.Pointer = t.track.Position()
		}
	}
	return res
}
