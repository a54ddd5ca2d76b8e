package tracking

import (
	"fmt"

	"github.com/banshee-data/handtrack/internal/config"
)

// TrackerConfig holds configuration parameters for the tracker. It is fixed
// for the lifetime of a Tracker.
type TrackerConfig struct {
	ChiSq       float64 // Primary gate confidence, (0,1)
	FingerChiSq float64 // Swipe gate confidence on the finger track, (0,1)
	MovedChiSq  float64 // Confidence above which the hand counts as moved, (0,1)

	// PrimaryGatingDoF is 4 to gate on box center plus anchor, or 2 to gate
	// on the box center only. The chi-square thresholds use the same dof.
	PrimaryGatingDoF int

	MaxAge       int // Missed frames a confirmed track survives
	NInit        int // Consecutive hits needed for confirmation
	FingerMaxAge int // Missed frames a finger track survives

	SwipeDebounceFrames     int // Frames after a swipe before a new finger track may start
	InitialFramesSinceSwipe int // Cooldown counter value at session start

	StdWeightPosition float64 // Kalman position noise weight
	StdWeightVelocity float64 // Kalman velocity noise weight
}

// DefaultTrackerConfig returns the built-in tracker defaults.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfigFromTuning(config.EmptyTuningConfig())
}

// TrackerConfigFromTuning builds a TrackerConfig from a loaded TuningConfig.
func TrackerConfigFromTuning(cfg *config.TuningConfig) TrackerConfig {
	return TrackerConfig{
		ChiSq:                   cfg.GetChiSq(),
		FingerChiSq:             cfg.GetFingerChiSq(),
		MovedChiSq:              cfg.GetMovedChiSq(),
		PrimaryGatingDoF:        cfg.GetPrimaryGatingDoF(),
		MaxAge:                  cfg.GetMaxAge(),
		NInit:                   cfg.GetNInit(),
		FingerMaxAge:            cfg.GetFingerMaxAge(),
		SwipeDebounceFrames:     cfg.GetSwipeDebounceFrames(),
		InitialFramesSinceSwipe: cfg.GetInitialFramesSinceSwipe(),
		StdWeightPosition:       cfg.GetStdWeightPosition(),
		StdWeightVelocity:       cfg.GetStdWeightVelocity(),
	}
}

// Validate reports the first out-of-range field.
func (c TrackerConfig) Validate() error {
	for name, v := range map[string]float64{
		"ChiSq":       c.ChiSq,
		"FingerChiSq": c.FingerChiSq,
		"MovedChiSq":  c.MovedChiSq,
	} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("tracker config: %s must be in (0, 1), got %g", name, v)
		}
	}
	if c.PrimaryGatingDoF != 2 && c.PrimaryGatingDoF != 4 {
		return fmt.Errorf("tracker config: PrimaryGatingDoF must be 2 or 4, got %d", c.PrimaryGatingDoF)
	}
	if c.MaxAge < 0 || c.FingerMaxAge < 0 || c.SwipeDebounceFrames < 0 {
		return fmt.Errorf("tracker config: ages must be non-negative (max_age=%d finger_max_age=%d debounce=%d)",
			c.MaxAge, c.FingerMaxAge, c.SwipeDebounceFrames)
	}
	if c.NInit < 1 {
		return fmt.Errorf("tracker config: NInit must be at least 1, got %d", c.NInit)
	}
	if c.StdWeightPosition <= 0 || c.StdWeightVelocity <= 0 {
		return fmt.Errorf("tracker config: noise weights must be positive (pos=%g vel=%g)",
			c.StdWeightPosition, c.StdWeightVelocity)
	}
	return nil
}
