// Package tracking owns the single-hand tracking and swipe gating engine.
//
// Responsibilities: per-frame detections, the primary hand track
// (tentative → confirmed → deleted), the finger sub-track used for swipe
// detection, and the Tracker that gates detections against both.
// Key types: Detection, Track, FingerTrack, Tracker, Result.
//
// The engine is synchronous and frame-sequential: call Predict once per
// frame, then Update with the frame's detection or nil. A Tracker is owned
// by one session and is not safe for concurrent use.
package tracking
