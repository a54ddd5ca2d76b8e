package sqlite

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/banshee-data/handtrack/internal/httputil"
	"github.com/banshee-data/handtrack/internal/session"
	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// AttachAdminRoutes mounts the debug pages for the store under /debug/:
// a live SQL console, a JSON session listing and per-session detail.
func (s *Store) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(s.path), s.db, &tailsql.DBOptions{
		Label: "Hand tracking sessions",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("sessions", "Recorded tracking sessions (JSON)", http.HandlerFunc(s.handleSessions))
	debug.Handle("session", "Frames and swipes of one session (?id=)", http.HandlerFunc(s.handleSession))
	return nil
}

func (s *Store) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	sessions, err := s.Sessions(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []SessionSummary{}
	}
	httputil.WriteJSON(w, http.StatusOK, sessions)
}

// sessionDetail is the body served for a single session.
type sessionDetail struct {
	SessionID string                `json:"session_id"`
	Frames    []session.FrameSample `json:"frames"`
	Swipes    []session.SwipeSample `json:"swipes"`
}

func (s *Store) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.WriteJSONError(w, http.StatusBadRequest, "missing id parameter")
		return
	}
	frames, err := s.Frames(r.Context(), id)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load frames: %v", err))
		return
	}
	swipes, err := s.Swipes(r.Context(), id)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load swipes: %v", err))
		return
	}
	if len(frames) == 0 && len(swipes) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "unknown session "+id)
		return
	}
	if swipes == nil {
		swipes = []session.SwipeSample{}
	}
	httputil.WriteJSON(w, http.StatusOK, sessionDetail{SessionID: id, Frames: frames, Swipes: swipes})
}
