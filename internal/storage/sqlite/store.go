// Package sqlite persists tracking sessions in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/handtrack/internal/landmarks"
	"github.com/banshee-data/handtrack/internal/session"
	"github.com/banshee-data/handtrack/internal/tracking"
	_ "modernc.org/sqlite"
)

// pragmas are applied to every pooled connection.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"

// Store implements session.Recorder on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ session.Recorder = (*Store)(nil)

// Open opens (or creates) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &Store{db: db, path: path}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CreateSession inserts a session row.
func (s *Store) CreateSession(ctx context.Context, info session.Info) error {
	cfg := info.ConfigJSON
	if cfg == "" {
		cfg = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, started_at, source, config_json)
		VALUES (?, ?, ?, ?)
	`, info.SessionID, info.StartedAt.UTC().Format(time.RFC3339Nano), info.Source, cfg)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// RecordFrame inserts one frame sample. The pointer is stored as NULL
// while the track is unconfirmed.
func (s *Store) RecordFrame(ctx context.Context, f session.FrameSample) error {
	var px, py sql.NullFloat64
	if f.Confirmed {
		px = sql.NullFloat64{Float64: f.PointerX, Valid: true}
		py = sql.NullFloat64{Float64: f.PointerY, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO frames (
			session_id, frame, ts_ms, has_detection, gesture, track_id,
			confirmed, pointer_x, pointer_y, moved, distance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		f.SessionID,
		f.Frame,
		f.TSMillis,
		f.HasDetection,
		string(f.Gesture),
		f.TrackID,
		f.Confirmed,
		px,
		py,
		f.Moved,
		f.Distance,
	)
	if err != nil {
		return fmt.Errorf("insert frame %d: %w", f.Frame, err)
	}
	return nil
}

// RecordSwipe inserts one swipe event.
func (s *Store) RecordSwipe(ctx context.Context, w session.SwipeSample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO swipes (session_id, frame, ts_ms, direction, finger_distance)
		VALUES (?, ?, ?, ?, ?)
	`, w.SessionID, w.Frame, w.TSMillis, string(w.Direction), w.FingerDistance)
	if err != nil {
		return fmt.Errorf("insert swipe at frame %d: %w", w.Frame, err)
	}
	return nil
}

// SessionSummary is one row of the session_summary view.
type SessionSummary struct {
	SessionID       string    `json:"session_id"`
	StartedAt       time.Time `json:"started_at"`
	Source          string    `json:"source"`
	Frames          int       `json:"frames"`
	Detections      int       `json:"detections"`
	ConfirmedFrames int       `json:"confirmed_frames"`
	Swipes          int       `json:"swipes"`
}

// Sessions lists sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, started_at, source, frames, detections, confirmed_frames, swipes
		FROM session_summary
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			ss      SessionSummary
			started string
		)
		if err := rows.Scan(&ss.SessionID, &started, &ss.Source, &ss.Frames, &ss.Detections, &ss.ConfirmedFrames, &ss.Swipes); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ss.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Frames returns the frame samples of a session in frame order.
func (s *Store) Frames(ctx context.Context, sessionID string) ([]session.FrameSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT frame, ts_ms, has_detection, gesture, track_id, confirmed,
		       pointer_x, pointer_y, moved, distance
		FROM frames
		WHERE session_id = ?
		ORDER BY frame
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []session.FrameSample
	for rows.Next() {
		var (
			f       = session.FrameSample{SessionID: sessionID}
			gesture string
			px, py  sql.NullFloat64
		)
		if err := rows.Scan(&f.Frame, &f.TSMillis, &f.HasDetection, &gesture, &f.TrackID, &f.Confirmed,
			&px, &py, &f.Moved, &f.Distance); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.Gesture = landmarks.Gesture(gesture)
		f.PointerX = px.Float64
		f.PointerY = py.Float64
		out = append(out, f)
	}
	return out, rows.Err()
}

// Swipes returns the swipes of a session in frame order.
func (s *Store) Swipes(ctx context.Context, sessionID string) ([]session.SwipeSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT frame, ts_ms, direction, finger_distance
		FROM swipes
		WHERE session_id = ?
		ORDER BY frame
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query swipes: %w", err)
	}
	defer rows.Close()

	var out []session.SwipeSample
	for rows.Next() {
		var (
			w   = session.SwipeSample{SessionID: sessionID}
			dir string
		)
		if err := rows.Scan(&w.Frame, &w.TSMillis, &dir, &w.FingerDistance); err != nil {
			return nil, fmt.Errorf("scan swipe: %w", err)
		}
		w.Direction = tracking.Event(dir)
		out = append(out, w)
	}
	return out, rows.Err()
}
