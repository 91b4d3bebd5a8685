package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/invopop/jsonschema"

	"github.com/monitoria/schedconv/internal/schedule"
)

const (
	greeting        = "Olá"
	shutdownTimeout = 10 * time.Second
)

// Options configures the feed server.
type Options struct {
	// AllowedOrigins for CORS; empty allows every origin.
	AllowedOrigins []string
	// Schema is served on /schema when set.
	Schema *jsonschema.Schema
	Logger *slog.Logger
}

// Server serves one feed over HTTP. The feed is encoded once in New.
type Server struct {
	feed   []byte
	schema []byte
	logger *slog.Logger

	Mux *chi.Mux
}

func New(feed schedule.Feed, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	body, err := schedule.EncodeString(feed, 0)
	if err != nil {
		return nil, fmt.Errorf("encoding feed: %w", err)
	}

	s := &Server{
		feed:   []byte(body),
		logger: logger,
		Mux:    chi.NewRouter(),
	}

	if opts.Schema != nil {
		s.schema, err = json.Marshal(opts.Schema)
		if err != nil {
			return nil, fmt.Errorf("encoding schema: %w", err)
		}
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.Mux.Use(s.requestLogger)
	s.Mux.Use(middleware.Recoverer)
	s.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.Mux.Get("/", s.handleRoot)
	s.Mux.Get("/monitores", s.handleFeed)
	if s.schema != nil {
		s.Mux.Get("/schema", s.handleSchema)
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Mux.ServeHTTP(w, r)
}

// Run listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, greeting)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.feed)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.schema)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("writing response", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("handled request",
			"status", ww.Status(),
			"ip", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
