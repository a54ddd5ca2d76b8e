// Command handtrack replays recorded hand frames through the tracker,
// stores the session and writes reports.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/handtrack/internal/config"
	"github.com/banshee-data/handtrack/internal/monitoring"
	"github.com/banshee-data/handtrack/internal/report"
	"github.com/banshee-data/handtrack/internal/session"
	"github.com/banshee-data/handtrack/internal/storage/sqlite"
	"github.com/banshee-data/handtrack/internal/tracking"
	"github.com/banshee-data/handtrack/internal/version"
)

var (
	configPath  = flag.String("config", "", "Tuning config, .json or .yaml (defaults built in)")
	input       = flag.String("input", "-", "Replay file in JSON Lines, or - for stdin")
	dbPath      = flag.String("db", "", "SQLite database to record the session in (optional)")
	plotDir     = flag.String("plot-dir", "", "Directory for trajectory plots and the timeline (optional)")
	listen      = flag.String("listen", "", "Serve debug routes on this address after the replay (requires -db)")
	verbose     = flag.Bool("verbose", false, "Log per-frame tracker decisions")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options is the parsed command line.
type options struct {
	ConfigPath string
	Input      string
	DBPath     string
	PlotDir    string
	Listen     string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("handtrack"))
		return
	}
	monitoring.SetVerbose(*verbose)

	if *listen != "" && *dbPath == "" {
		log.Fatal("-listen requires -db")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		ConfigPath: *configPath,
		Input:      *input,
		DBPath:     *dbPath,
		PlotDir:    *plotDir,
		Listen:     *listen,
	}
	if err := run(ctx, opts, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("handtrack: %v", err)
	}
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func run(ctx context.Context, opts options, stdin io.Reader) error {
	tuning, err := loadTuning(opts.ConfigPath)
	if err != nil {
		return err
	}
	tr, err := tracking.NewTracker(tracking.TrackerConfigFromTuning(tuning))
	if err != nil {
		return err
	}
	cfgJSON, err := json.Marshal(tuning)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	in := stdin
	if opts.Input != "-" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return fmt.Errorf("open replay: %w", err)
		}
		defer f.Close()
		in = f
	}

	var (
		store *sqlite.Store
		rec   session.Recorder
	)
	if opts.DBPath != "" {
		store, err = sqlite.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		rec = store
	}

	runner, err := session.NewRunner(session.RunnerConfig{
		Tracker:       tr,
		Recorder:      rec,
		FrameInterval: tuning.GetFrameInterval(),
		Source:        opts.Input,
		ConfigJSON:    string(cfgJSON),
	})
	if err != nil {
		return err
	}

	sum, err := runner.Run(ctx, in)
	if err != nil {
		return err
	}
	for _, sw := range sum.Swipes {
		fmt.Printf("frame %d\t%s\n", sw.Frame, sw.Direction)
	}

	if opts.PlotDir != "" {
		dir := report.MakeOutputDir(opts.PlotDir, opts.Input, time.Now())
		files, err := report.WriteSessionReport(dir, sum, report.Thresholds{
			Gating: tr.GatingThreshold(),
			Moved:  tr.MovedThreshold(),
			Finger: tr.FingerThreshold(),
		})
		if err != nil {
			return err
		}
		log.Printf("reports written to %s (timeline %s)", dir, files.Timeline)
	}

	if opts.Listen == "" || store == nil {
		return nil
	}
	return serve(ctx, opts.Listen, store)
}

// serve exposes the store's debug routes until ctx is cancelled.
func serve(ctx context.Context, addr string, store *sqlite.Store) error {
	mux := http.NewServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving debug routes on %s/debug/", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	return nil
}
