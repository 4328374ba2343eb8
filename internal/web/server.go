package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/pipeline"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Runner executes one upload through the pipeline.
type Runner interface {
	Run(ctx context.Context, upload pipeline.Upload, template string, observers ...pipeline.Observer) (pipeline.Result, error)
}

// HealthFunc reports dependency and credential readiness.
type HealthFunc func(ctx context.Context) Health

// Options configures the web server.
type Options struct {
	Bind           string
	MaxUploadBytes int64
	DefaultPrompt  string
	Runner         Runner
	Health         HealthFunc
	Logger         *slog.Logger
}

// Server serves the upload form, the result page and the JSON API.
type Server struct {
	bind     string
	logger   *slog.Logger
	engine   *gin.Engine
	server   *http.Server
	listener net.Listener
}

// NewServer builds the router. Only the header read is bounded by a timeout:
// uploads and model calls may legitimately take minutes.
func NewServer(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("web: runner required")
	}
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		return nil, errors.New("web: bind address required")
	}
	logger := logging.NewComponentLogger(opts.Logger, "web")

	engine := gin.New()
	engine.Use(gin.Recovery(), requestContext(logger))
	if err := loadTemplates(engine); err != nil {
		return nil, err
	}
	handler := newHandler(opts, logger)
	handler.RegisterRoutes(engine)

	return &Server{
		bind:   bind,
		logger: logger,
		engine: engine,
		server: &http.Server{
			Handler:           engine,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the listening address once Serve has bound it.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}
	s.listener = listener
	return nil
}

// Serve handles requests until ctx is cancelled, then shuts down gracefully.
// Listen is called first when it has not been.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("web server listening", logging.String("address", s.Addr()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web shutdown: %w", err)
	}
	s.logger.Info("web server stopped")
	return nil
}
