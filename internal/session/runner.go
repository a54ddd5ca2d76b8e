package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/handtrack/internal/landmarks"
	"github.com/banshee-data/handtrack/internal/monitoring"
	"github.com/banshee-data/handtrack/internal/timeutil"
	"github.com/banshee-data/handtrack/internal/tracking"
	"github.com/google/uuid"
)

// maxLineBytes bounds a single replay line.
const maxLineBytes = 1 << 20

// Info describes a session when it starts.
type Info struct {
	SessionID  string
	StartedAt  time.Time
	Source     string
	ConfigJSON string
}

// FrameSample is the tracker outcome for one frame.
type FrameSample struct {
	SessionID    string            `json:"session_id"`
	Frame        int               `json:"frame"`
	TSMillis     int64             `json:"ts_ms"`
	HasDetection bool              `json:"has_detection"`
	Gesture      landmarks.Gesture `json:"gesture,omitempty"`
	TrackID      string            `json:"track_id,omitempty"`
	Confirmed    bool              `json:"confirmed"`
	PointerX     float64           `json:"pointer_x"`
	PointerY     float64           `json:"pointer_y"`
	Moved        bool              `json:"moved"`
	Distance     float64           `json:"distance"`
}

// SwipeSample is one emitted swipe.
type SwipeSample struct {
	SessionID      string         `json:"session_id"`
	Frame          int            `json:"frame"`
	TSMillis       int64          `json:"ts_ms"`
	Direction      tracking.Event `json:"direction"`
	FingerDistance float64        `json:"finger_distance"`
}

// Recorder receives session output. Implementations must be safe to call
// from the goroutine running the session.
type Recorder interface {
	CreateSession(ctx context.Context, info Info) error
	RecordFrame(ctx context.Context, s FrameSample) error
	RecordSwipe(ctx context.Context, s SwipeSample) error
}

// Summary collects everything a run produced.
type Summary struct {
	SessionID       string
	Frames          int
	Detections      int
	Rejected        int // Frames whose detection failed validation
	ConfirmedFrames int
	Samples         []FrameSample
	Swipes          []SwipeSample
}

// RunnerConfig contains configuration for a Runner.
type RunnerConfig struct {
	// Tracker is required. It is reset at the start of every run.
	Tracker *tracking.Tracker
	// Recorder is optional.
	Recorder Recorder
	// FrameInterval synthesises timestamps for frames without ts_ms.
	FrameInterval time.Duration
	// Source and ConfigJSON are stored with the session.
	Source     string
	ConfigJSON string
	// Clock stamps the session start. Defaults to the wall clock.
	Clock timeutil.Clock
}

// Runner drives a tracker from a replay stream.
type Runner struct {
	cfg RunnerConfig
}

// NewRunner creates a new Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Tracker == nil {
		return nil, errors.New("session: tracker is required")
	}
	if cfg.FrameInterval <= 0 {
		return nil, fmt.Errorf("session: frame interval must be positive, got %s", cfg.FrameInterval)
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Runner{cfg: cfg}, nil
}

// Run replays JSON Lines frames from r. Each frame runs Predict then Update
// exactly once. Cancellation is checked between frames; the partial summary
// is returned with the context error.
func (r *Runner) Run(ctx context.Context, in io.Reader) (*Summary, error) {
	tr := r.cfg.Tracker
	tr.Reset()

	sum := &Summary{SessionID: fmt.Sprintf("ses_%s", uuid.NewString())}
	if rec := r.cfg.Recorder; rec != nil {
		info := Info{
			SessionID:  sum.SessionID,
			StartedAt:  r.cfg.Clock.Now().UTC(),
			Source:     r.cfg.Source,
			ConfigJSON: r.cfg.ConfigJSON,
		}
		if err := rec.CreateSession(ctx, info); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}
	monitoring.Logf("session %s: replaying %s", sum.SessionID, r.cfg.Source)

	scan := bufio.NewScanner(in)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scan.Scan() {
		line++
		raw := scan.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			return sum, fmt.Errorf("line %d: %w: %v", line, ErrMalformedFrame, err)
		}
		if err := r.step(ctx, sum, f); err != nil {
			return sum, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scan.Err(); err != nil {
		return sum, fmt.Errorf("read replay: %w", err)
	}

	monitoring.Logf("session %s: %d frames, %d detections, %d confirmed, %d swipes",
		sum.SessionID, sum.Frames, sum.Detections, sum.ConfirmedFrames, len(sum.Swipes))
	return sum, nil
}

func (r *Runner) step(ctx context.Context, sum *Summary, f Frame) error {
	seq := sum.Frames
	frame := seq
	if f.Frame != nil {
		frame = *f.Frame
	}
	tsMillis := timeutil.FrameMillis(seq, r.cfg.FrameInterval)
	if f.TSMillis != nil {
		tsMillis = *f.TSMillis
	}

	det, gesture, err := f.ToDetection()
	if err != nil {
		if !errors.Is(err, tracking.ErrInvalidBox) {
			return err
		}
		// The detector produced unusable geometry; the frame counts as
		// having no hand.
		monitoring.Logf("session %s: frame %d: %v", sum.SessionID, frame, err)
		sum.Rejected++
		det = nil
	}

	tr := r.cfg.Tracker
	tr.Predict()
	res := tr.Update(det)

	sum.Frames++
	if det != nil {
		sum.Detections++
	}
	if res.Confirmed {
		sum.ConfirmedFrames++
	}

	sample := FrameSample{
		SessionID:    sum.SessionID,
		Frame:        frame,
		TSMillis:     tsMillis,
		HasDetection: det != nil,
		Gesture:      gesture,
		TrackID:      res.TrackID,
		Confirmed:    res.Confirmed,
		PointerX:     res.Pointer.X,
		PointerY:     res.Pointer.Y,
		Moved:        res.Moved,
		Distance:     res.Distance,
	}
	sum.Samples = append(sum.Samples, sample)

	rec := r.cfg.Recorder
	if rec != nil {
		if err := rec.RecordFrame(ctx, sample); err != nil {
			return fmt.Errorf("record frame: %w", err)
		}
	}
	if !res.Event.IsSwipe() {
		return nil
	}

	swipe := SwipeSample{
		SessionID:      sum.SessionID,
		Frame:          frame,
		TSMillis:       tsMillis,
		Direction:      res.Event,
		FingerDistance: res.FingerDistance,
	}
	sum.Swipes = append(sum.Swipes, swipe)
	monitoring.Logf("session %s: frame %d: %s", sum.SessionID, frame, res.Event)
	if rec != nil {
		if err := rec.RecordSwipe(ctx, swipe); err != nil {
			return fmt.Errorf("record swipe: %w", err)
		}
	}
	return nil
}
