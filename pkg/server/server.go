package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mindgraph/pkg/store"
)

// Defaults for [Options].
const (
	DefaultAddr         = ":8081"
	DefaultMaxBodyBytes = 4 << 20
	shutdownTimeout     = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Store          store.Store // required
	Logger         *log.Logger // nil discards log output
	AllowedOrigins []string    // CORS and websocket origins; empty allows any
	MaxBodyBytes   int64       // zero selects DefaultMaxBodyBytes
}

// Server serves the mindgraph REST API and the live update feed.
type Server struct {
	store   store.Store
	logger  *log.Logger
	origins []string
	maxBody int64
	live    *hub
	router  chi.Router
}

// New builds a server around opts.Store.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	s := &Server{
		store:   opts.Store,
		logger:  logger,
		origins: opts.AllowedOrigins,
		maxBody: maxBody,
	}
	s.live = newHub(logger, s.originAllowed)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/mindgraph", func(r chi.Router) {
		r.Get("/getSimpleGraph", s.getSimpleGraph)
		r.Post("/saveSimpleGraph", s.saveSimpleGraph)
		r.Get("/getLinkDataGraph", s.getLinkDataGraph)
		r.Post("/saveLinkDataGraph", s.saveLinkDataGraph)
		r.Get("/graphs", s.listGraphs)
		r.Get("/render/{name}.svg", s.renderSVG)
		r.Get("/live", s.live.serve)
	})
	r.Post("/api/diagram", s.generateDiagram)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, s.logger, notFoundRoute(r))
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
// If the store can report outside edits, they are pushed to live clients.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if w, ok := s.store.(watcher); ok {
		go s.watch(ctx, w)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		s.live.close()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.live.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// watcher is implemented by stores that notice edits made by other
// processes, such as [store.File].
type watcher interface {
	Watch(ctx context.Context, fn func(name string)) error
}

func (s *Server) watch(ctx context.Context, w watcher) {
	err := w.Watch(ctx, func(name string) {
		doc, err := s.store.Get(ctx, name)
		if err != nil {
			s.logger.Warn("reload changed graph", "name", name, "err", err)
			return
		}
		s.logger.Debug("graph changed on disk", "name", name, "revision", doc.Revision)
		s.live.broadcast(doc)
	})
	if err != nil {
		s.logger.Warn("store watch stopped", "err", err)
	}
}
