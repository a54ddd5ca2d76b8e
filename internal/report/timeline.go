package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/handtrack/internal/security"
	"github.com/banshee-data/handtrack/internal/session"
	"github.com/banshee-data/handtrack/internal/tracking"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Thresholds are drawn as flat reference series on the timeline.
type Thresholds struct {
	Gating float64
	Moved  float64
	Finger float64
}

// WriteTimeline renders an HTML page with the per-frame gating distance and
// the swipe events of a session.
func WriteTimeline(w io.Writer, sum *session.Summary, th Thresholds) error {
	frames := make([]int, 0, len(sum.Samples))
	dist := make([]opts.LineData, 0, len(sum.Samples))
	gate := make([]opts.LineData, 0, len(sum.Samples))
	moved := make([]opts.LineData, 0, len(sum.Samples))
	for _, s := range sum.Samples {
		frames = append(frames, s.Frame)
		if s.HasDetection && s.TrackID != "" {
			dist = append(dist, opts.LineData{Value: s.Distance})
		} else {
			dist = append(dist, opts.LineData{Value: "-"})
		}
		gate = append(gate, opts.LineData{Value: th.Gating})
		moved = append(moved, opts.LineData{Value: th.Moved})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Hand tracking session", Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Hand gate distance", Subtitle: fmt.Sprintf("session=%s frames=%d", sum.SessionID, sum.Frames)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "d²", NameLocation: "middle", NameGap: 30}),
	)
	line.SetXAxis(frames).
		AddSeries("distance", dist).
		AddSeries("gate", gate).
		AddSeries("moved", moved)

	left := make([]opts.ScatterData, 0, len(sum.Swipes))
	right := make([]opts.ScatterData, 0, len(sum.Swipes))
	for _, sw := range sum.Swipes {
		pt := opts.ScatterData{Value: []interface{}{sw.Frame, sw.FingerDistance}}
		if sw.Direction == tracking.EventSwipeLeft {
			left = append(left, pt)
		} else {
			right = append(right, pt)
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Swipes", Subtitle: fmt.Sprintf("count=%d finger gate=%.3f", len(sum.Swipes), th.Finger)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "finger d²", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("swipe left", left, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12})).
		AddSeries("swipe right", right, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))

	page := components.NewPage()
	page.AddCharts(line, scatter)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render timeline: %w", err)
	}
	return nil
}

// Files lists the reports written for a session.
type Files struct {
	Trajectory string
	Path       string
	Timeline   string
}

// WriteSessionReport writes every report for sum into dir. The PNG plots
// are skipped when the session never confirmed a track.
func WriteSessionReport(dir string, sum *session.Summary, th Thresholds) (Files, error) {
	var files Files
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return files, fmt.Errorf("create report dir: %w", err)
	}

	prefix := security.SanitizeFilename(sum.SessionID)
	traj := filepath.Join(dir, prefix+"_trajectory.png")
	switch err := PlotTrajectory(traj, sum.Samples, sum.Swipes); {
	case err == nil:
		files.Trajectory = traj
	case !errors.Is(err, ErrNoPointer):
		return files, err
	}

	path := filepath.Join(dir, prefix+"_path.png")
	switch err := PlotPath(path, sum.Samples); {
	case err == nil:
		files.Path = path
	case !errors.Is(err, ErrNoPointer):
		return files, err
	}

	timeline := filepath.Join(dir, prefix+"_timeline.html")
	f, err := os.Create(timeline)
	if err != nil {
		return files, fmt.Errorf("create timeline: %w", err)
	}
	if err := WriteTimeline(f, sum, th); err != nil {
		f.Close()
		return files, err
	}
	if err := f.Close(); err != nil {
		return files, fmt.Errorf("close timeline: %w", err)
	}
	files.Timeline = timeline
	return files, nil
}
