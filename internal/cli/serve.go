package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasecal/pkg/buildinfo"
	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/observability"
	"github.com/matzehuels/releasecal/pkg/pipeline"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/render"
	"github.com/matzehuels/releasecal/pkg/source"
)

const (
	// reloadDebounce collapses bursts of file events into one reload.
	reloadDebounce = 500 * time.Millisecond

	shutdownTimeout = 5 * time.Second
)

// serveCommand creates the preview server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		data  datasetFlags
		rf    renderFlags
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered quarters and days over HTTP",
		Long: `Serve the release calendar over HTTP.

Routes:
  GET /health                       liveness and dataset version
  GET /                             redirect to the first quarter
  GET /quarters/{quarter}.{format}  quarter heatmap (svg, json, png, pdf)
  GET /days/{day}.{format}          day details (svg, json, png, pdf)
  GET /api/stats/{quarter}          category counts of a quarter

With --watch a file source is reloaded whenever it changes; requests in
flight keep the snapshot they started with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg().Server.Addr
			}
			return c.runServe(cmd.Context(), data, rf, addr, watch)
		},
	}

	data.register(cmd)
	cmd.Flags().Float64Var(&rf.hue, "hue", -1, "heat hue in degrees 0-360 (default from config)")
	cmd.Flags().StringVar(&rf.scheme, "scheme", "", "heat scheme: hue, blue, green, purple, rainbow")
	cmd.Flags().Float64Var(&rf.cellSize, "cell-size", 0, "day cell size in pixels")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the source file when it changes")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, data datasetFlags, rf renderFlags, addr string, watch bool) error {
	opts, err := c.loadOptions(data)
	if err != nil {
		return err
	}
	if err := c.applyRender(&opts, rf); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	store, loaded, err := c.load(ctx, runner, opts)
	if err != nil {
		return err
	}
	reportLoad(loaded)

	srv := newServer(store, runner, opts, c.Logger)
	if watch {
		src, err := pipeline.OpenSource(opts)
		if err != nil {
			return err
		}
		w, ok := src.(source.Watchable)
		if !ok {
			return errors.New(errors.ErrCodeUnsupported, "--watch needs a file source, got %s", src.Name())
		}
		go func() {
			if err := srv.watch(ctx, w.Path()); err != nil {
				c.Logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 15 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	printSuccess("Serving %s", StyleLink.Render("http://"+addr+"/"))
	if watch {
		printDetail("Watching %s for changes", opts.Source)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	printInfo("Server stopped")
	return nil
}

// server serves views of the current snapshot of store.
type server struct {
	store  *release.Store
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger
}

func newServer(store *release.Store, runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) *server {
	opts.DayLinks = "/days/"
	return &server{store: store, runner: runner, opts: opts, logger: logger}
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/quarters/{quarter}.{format}", s.handleQuarter)
	r.Get("/days/{day}.{format}", s.handleDay)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats/{quarter}", s.handleStats)
	})
	return r
}

// instrument attaches a request logger and reports requests to the server hooks.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)

		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), logger)))

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.Server().OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", time.Since(start))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":      "healthy",
		"service":     appName,
		"version":     buildinfo.Version,
		"records":     snap.Len(),
		"dataset":     snap.Version(),
		"fingerprint": snap.Fingerprint(),
	})
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := calendar.FirstQuarter(s.store.Snapshot().YearRange())
	http.Redirect(w, r, "/quarters/"+q.String()+".svg", http.StatusFound)
}

func (s *server) handleQuarter(w http.ResponseWriter, r *http.Request) {
	q, err := calendar.ParseQuarter(chi.URLParam(r, "quarter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.serveArtifact(w, r, func(opts pipeline.Options) (*pipeline.Result, error) {
		return s.runner.RenderQuarter(r.Context(), s.store.Snapshot(), q, opts)
	})
}

func (s *server) handleDay(w http.ResponseWriter, r *http.Request) {
	d, err := release.ParseDay(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.serveArtifact(w, r, func(opts pipeline.Options) (*pipeline.Result, error) {
		return s.runner.RenderDay(r.Context(), s.store.Snapshot(), d, opts)
	})
}

// serveArtifact renders the {format} URL parameter with fn and writes it.
func (s *server) serveArtifact(w http.ResponseWriter, r *http.Request, fn func(pipeline.Options) (*pipeline.Result, error)) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, r, err)
		return
	}

	opts := s.opts
	opts.Formats = []string{format}
	opts.Logger = loggerFromContext(r.Context())
	res, err := fn(opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(format))
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Artifacts[format]); err != nil {
		loggerFromContext(r.Context()).Debug("write response", "error", err)
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	q, err := calendar.ParseQuarter(chi.URLParam(r, "quarter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, calendar.NewIndex(s.store.Snapshot()).QuarterStats(q))
}

// watch reloads the dataset when path changes. The directory is watched so
// that editors replacing the file by rename are noticed.
func (s *server) watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	base := filepath.Base(path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() { s.reload(ctx) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)
		}
	}
}

// reload loads the source again and swaps the store. A failed reload keeps
// serving the previous snapshot.
func (s *server) reload(ctx context.Context) {
	res, err := s.runner.Load(ctx, s.store, s.opts)
	if err != nil {
		observability.Server().OnReload(ctx, 0, err)
		s.logger.Error("reload failed, keeping previous dataset", "error", err)
		return
	}
	observability.Server().OnReload(ctx, res.Snapshot.Len(), nil)
	s.logger.Info("dataset reloaded", "records", res.Snapshot.Len(), "version", res.Snapshot.Version())
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		loggerFromContext(r.Context()).Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		loggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, r, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
