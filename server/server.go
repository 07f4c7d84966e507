// Package server exposes uploads and conversions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/meshconv/logging"
	"github.com/notargets/meshconv/session"
)

type Config struct {
	Addr            string
	MaxUpload       string // humanized, e.g. "64MB"
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // must cover the longest conversion
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		MaxUpload:       "64MB",
		ReadTimeout:     time.Minute,
		WriteTimeout:    10 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}

type Server struct {
	cfg       Config
	maxUpload int64
	conv      session.Converter
	logger    *zap.Logger
	mux       *http.ServeMux
}

func New(cfg Config, conv session.Converter, logger *zap.Logger) (*Server, error) {
	limit, err := humanize.ParseBytes(cfg.MaxUpload)
	if err != nil {
		return nil, fmt.Errorf("invalid upload limit %q: %w", cfg.MaxUpload, err)
	}
	if limit == 0 {
		return nil, fmt.Errorf("upload limit must be positive")
	}
	s := &Server{
		cfg:       cfg,
		maxUpload: int64(limit),
		conv:      conv,
		logger:    logging.OrNop(logger),
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/uploads", s.handleUpload)
	s.mux.HandleFunc("POST /api/v1/convert", s.handleConvert)
}

func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on cfg.Addr until ctx is canceled
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully, waiting up to ShutdownTimeout for in-flight requests
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("max_upload", humanize.Bytes(uint64(s.maxUpload))))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", zap.Error(err))
			return err
		}
		return nil
	})
	return g.Wait()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(started)))
	})
}
