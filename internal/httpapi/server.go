// Package httpapi exposes the service over HTTP with chi and render.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/scoreloom-cli/internal/service"
)

// DefaultMaxUpload caps import bodies.
const DefaultMaxUpload = 32 << 20

// Options configures a Server.
type Options struct {
	Logger    zerolog.Logger
	Metrics   *Metrics
	MaxUpload int64
	Now       func() time.Time
}

// Server routes HTTP requests to a service.Service.
type Server struct {
	svc       *service.Service
	log       zerolog.Logger
	metrics   *Metrics
	maxUpload int64
	now       func() time.Time
}

func New(svc *service.Service, opt Options) *Server {
	if opt.Metrics == nil {
		opt.Metrics = NewMetrics()
	}
	if opt.MaxUpload <= 0 {
		opt.MaxUpload = DefaultMaxUpload
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Server{
		svc:       svc,
		log:       opt.Logger.With().Str("component", "httpapi").Logger(),
		metrics:   opt.Metrics,
		maxUpload: opt.MaxUpload,
		now:       opt.Now,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.health)
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.listRecords)
			r.Post("/", s.addRecord)
			r.Delete("/", s.resetAll)
			r.Delete("/{id}", s.deleteRecord)
		})
		r.Delete("/students/{name}", s.deleteStudent)
		r.Get("/students", s.listStudents)
		r.Post("/import", s.importFile)
		r.Get("/summary", s.summary)
		r.Get("/insights/{name}", s.insights)
		r.Get("/stats", s.stats)
	})
	r.Get("/export", s.export)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// fail logs err at a level matching its kind and renders it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := errorFor(err)
	ev := s.log.Debug()
	switch {
	case apiErr.StatusCode >= http.StatusInternalServerError:
		ev = s.log.Error()
	case apiErr.StatusCode == http.StatusConflict:
		ev = s.log.Warn()
	}
	ev.Err(err).Str("request_id", middleware.GetReqID(r.Context())).Str("path", r.URL.Path).
		Int("status", apiErr.StatusCode).Msg("request failed")
	_ = render.Render(w, r, apiErr)
}
