// Package report renders session output as plots and HTML charts.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"github.com/banshee-data/handtrack/internal/security"
	"github.com/banshee-data/handtrack/internal/session"
	"github.com/banshee-data/handtrack/internal/tracking"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoPointer is returned when a session never had a confirmed track, so
// there is no pointer to plot.
var ErrNoPointer = errors.New("report: no confirmed pointer samples")

var (
	colorX     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorY     = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	colorLeft  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorRight = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// PlotTrajectory writes the pointer x and y over frames to file, with swipe
// events marked on the x trace.
func PlotTrajectory(file string, samples []session.FrameSample, swipes []session.SwipeSample) error {
	xs := make(plotter.XYs, 0, len(samples))
	ys := make(plotter.XYs, 0, len(samples))
	pointerX := make(map[int]float64, len(samples))
	for _, s := range samples {
		if !s.Confirmed {
			continue
		}
		xs = append(xs, plotter.XY{X: float64(s.Frame), Y: s.PointerX})
		ys = append(ys, plotter.XY{X: float64(s.Frame), Y: s.PointerY})
		pointerX[s.Frame] = s.PointerX
	}
	if len(xs) == 0 {
		return ErrNoPointer
	}

	p := plot.New()
	p.Title.Text = "Pointer trajectory"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Normalised position"

	for _, series := range []struct {
		label string
		pts   plotter.XYs
		c     color.Color
	}{
		{"x", xs, colorX},
		{"y", ys, colorY},
	} {
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return err
		}
		line.Color = series.c
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(series.label, line)
	}

	var left, right plotter.XYs
	for _, w := range swipes {
		x, ok := pointerX[w.Frame]
		if !ok {
			continue
		}
		pt := plotter.XY{X: float64(w.Frame), Y: x}
		if w.Direction == tracking.EventSwipeLeft {
			left = append(left, pt)
		} else {
			right = append(right, pt)
		}
	}
	if err := addMarkers(p, "swipe left", left, colorLeft, draw.TriangleGlyph{}); err != nil {
		return err
	}
	if err := addMarkers(p, "swipe right", right, colorRight, draw.CircleGlyph{}); err != nil {
		return err
	}

	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save trajectory plot: %w", err)
	}
	return nil
}

// PlotPath writes the pointer path in image space to file. Image y grows
// downwards, so the plot shows 1-y to keep the picture upright.
func PlotPath(file string, samples []session.FrameSample) error {
	pts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		if s.Confirmed {
			pts = append(pts, plotter.XY{X: s.PointerX, Y: 1 - s.PointerY})
		}
	}
	if len(pts) == 0 {
		return ErrNoPointer
	}

	p := plot.New()
	p.Title.Text = "Pointer path"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "1 - y"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = colorX
	line.Width = vg.Points(1)
	points.GlyphStyle.Color = colorX
	points.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(line, points)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save path plot: %w", err)
	}
	return nil
}

func addMarkers(p *plot.Plot, label string, pts plotter.XYs, c color.Color, shape draw.GlyphDrawer) error {
	if len(pts) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Radius = vg.Points(4)
	sc.GlyphStyle.Shape = shape
	p.Add(sc)
	p.Legend.Add(label, sc)
	return nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakeOutputDir returns a timestamped directory for a session's reports.
// For replay files: <base>/<replay basename>/<timestamp>
// Otherwise: <base>/live_<timestamp>
func MakeOutputDir(baseDir, source string, now time.Time) string {
	ts := FormatTimestamp(now)
	if source != "" && source != "-" {
		base := filepath.Base(source)
		name := base[:len(base)-len(filepath.Ext(base))]
		return filepath.Join(baseDir, security.SanitizeFilename(name), ts)
	}
	return filepath.Join(baseDir, "live_"+ts)
}
