// Package server exposes a Recommender over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
)

// Recommender is the subset of *recgo.Recommender the server needs.
type Recommender interface {
	Recommend(ctx context.Context, in *model.Intent) (*recgo.Result, error)
	Reindex(ctx context.Context, kind index.Kind, cfgFns ...func(c *index.Config)) error
	IndexStats() (index.Stats, error)
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address.
	Addr string
	// MaxInFlight bounds concurrent recommend requests; excess requests get 503.
	MaxInFlight int64
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Logger *recgo.Logger
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// DefaultOptions for a Server.
var DefaultOptions = Options{
	Addr:            ":8080",
	MaxInFlight:     64,
	MaxBodyBytes:    1 << 20,
	ReadTimeout:     10 * time.Second,
	WriteTimeout:    30 * time.Second,
	ShutdownTimeout: 15 * time.Second,
}

// Server serves the recommend, reindex, health and metrics endpoints.
type Server struct {
	rec    Recommender
	sem    *semaphore.Weighted
	opts   Options
	router chi.Router
}

// New creates a Server.
func New(rec Recommender, optFns ...func(o *Options)) *Server {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = recgo.NoopLogger()
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultOptions.MaxInFlight
	}

	s := &Server{
		rec:  rec,
		sem:  semaphore.NewWeighted(opts.MaxInFlight),
		opts: opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/recommend", s.handleRecommend)
		r.Post("/admin/reindex", s.handleReindex)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.InfoContext(ctx, "http server listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.opts.Logger.InfoContext(ctx, "http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.DebugContext(r.Context(), "http request",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
		)
	})
}
