package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/okamoto/oracle-hr-api/internal/config"
	"github.com/okamoto/oracle-hr-api/internal/handler"
	"go.uber.org/zap"
)

// HTTPServer serves the HR API
type HTTPServer struct {
	config   *config.ServerConfig
	echo     *echo.Echo
	listener net.Listener
	logger   *zap.Logger
	wg       sync.WaitGroup
	errCh    chan error
}

// NewHTTPServer creates an echo instance with the standard middleware chain
// and lets mount register routes on it.
func NewHTTPServer(cfg *config.ServerConfig, logger *zap.Logger, mount func(*echo.Echo)) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.RequestID())
	e.Use(AccessLog(logger))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				zap.String("path", c.Path()),
				zap.Error(err),
				zap.ByteString("stack", stack))
			return err
		},
	}))

	mount(e)

	return &HTTPServer{
		config: cfg,
		echo:   e,
		logger: logger,
		errCh:  make(chan error, 1),
	}
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

// Start binds the listen address and serves in the background.
func (s *HTTPServer) Start() error {
	addr := s.config.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server on %s: %w", addr, err)
	}

	s.listener = listener
	s.echo.Listener = listener
	s.logger.Info("HTTP server started", zap.String("address", listener.Addr().String()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
			s.errCh <- err
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *HTTPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Errors reports a serve loop that exited on its own.
func (s *HTTPServer) Errors() <-chan error {
	return s.errCh
}

// Stop gracefully stops the HTTP server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *HTTPServer) Stop() error {
	s.logger.Info("stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	err := s.echo.Shutdown(ctx)
	s.wg.Wait()

	if err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// AccessLog writes one zap line per request.
func AccessLog(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let the error handler commit the response so the status is final
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			logger.Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("bytes_out", res.Size),
				zap.String("remote_ip", c.RealIP()),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)))

			return nil
		}
	}
}
