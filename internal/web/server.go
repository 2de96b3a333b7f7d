// Package web serves the HTTP control API for a running engine.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studyfocus/internal/core/model"
	"studyfocus/internal/logging"
)

// Timer is the control surface the API drives.
type Timer interface {
	State() model.TimerState
	Settings() model.Settings
	Start(goal string)
	Pause()
	Reset()
	ChangeMode(mode model.Mode) error
}

// SessionLister lists recorded sessions, newest first.
type SessionLister interface {
	List(ctx context.Context, userID string, limit int) ([]model.SessionRecord, error)
}

// Foreground accepts foreground reports from clients.
type Foreground interface {
	Set(active bool)
	Active() bool
}

// Options wires the server. Sessions, Foreground and Metrics may be nil;
// their routes then answer 501.
type Options struct {
	Timer      Timer
	Sessions   SessionLister
	Foreground Foreground
	Metrics    http.Handler
	UserID     string
	Logger     *zap.Logger
}

// Server is the HTTP control API.
type Server struct {
	opts   Options
	router *gin.Engine
	logger *zap.Logger
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	router := gin.New()
	s := &Server{
		opts:   opts,
		router: router,
		logger: logging.OrNop(opts.Logger),
	}
	router.Use(gin.Recovery(), s.accessLog())

	api := router.Group("/api")
	{
		api.GET("/state", s.handleState)
		api.POST("/start", s.handleStart)
		api.POST("/pause", s.handlePause)
		api.POST("/reset", s.handleReset)
		api.POST("/mode", s.handleMode)
		api.POST("/foreground", s.handleForeground)
		api.GET("/sessions", s.handleSessions)
	}
	router.GET("/metrics", s.handleMetrics)

	return s
}

// Handler exposes the router for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("control api listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("serve control api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown control api: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve control api: %w", err)
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
