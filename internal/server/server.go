// Package server exposes the ingest pipeline and channel webhooks over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskorg/internal/channels"
	"github.com/colonyops/taskorg/internal/core/logging"
)

// HeaderRequestID carries the request ID on responses.
const HeaderRequestID = "X-Request-ID"

// Options wires the handlers. Email and Chat are optional; their routes are
// only registered when set.
type Options struct {
	Organizer channels.Organizer
	Email     *channels.EmailHandler
	Chat      *channels.ChatHandler
}

// Server is the HTTP entry point.
type Server struct {
	opts       Options
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	addr       string
	log        zerolog.Logger
}

// New creates a Server that will listen on addr.
func New(addr string, opts Options, log zerolog.Logger) *Server {
	s := &Server{
		opts: opts,
		addr: addr,
		log:  log.With().Str("component", "server").Logger(),
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log), limitBody(maxBodySize))

	router.GET("/healthz", s.handleHealth)
	router.POST("/tasks", s.handleCreateTask)

	ch := router.Group("/channels")
	{
		if opts.Email != nil {
			ch.POST("/email", s.handleEmail)
		}
		if opts.Chat != nil {
			ch.POST("/chat", s.handleChat)
		}
	}

	s.router = router
	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens and serves in the background. It returns once the listener
// is up or serving fails immediately.
func (s *Server) Start(ctx context.Context) error {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.log.Info().Str("addr", listener.Addr().String()).Msg("starting http server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))

		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Ctx(c.Request.Context()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
