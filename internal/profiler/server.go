// Package profiler exposes runtime pprof data on its own listener, apart from
// the task API.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server serves /debug/pprof on a dedicated address.
type Server struct {
	addr string
	srv  *http.Server
	ln   net.Listener
	log  zerolog.Logger
}

// New returns a profiler bound to addr once started. Use "host:0" for an
// ephemeral port.
func New(addr string, log zerolog.Logger) *Server {
	return &Server{
		addr: addr,
		srv: &http.Server{
			Handler:           Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log.With().Str("component", "profiler").Logger(),
	}
}

// Handler routes the pprof endpoints. Named profiles (heap, goroutine, ...)
// are served by the index handler.
func Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	g := r.Group("/debug/pprof")
	g.GET("/", gin.WrapF(pprof.Index))
	g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	g.GET("/profile", gin.WrapF(pprof.Profile))
	g.GET("/symbol", gin.WrapF(pprof.Symbol))
	g.POST("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/trace", gin.WrapF(pprof.Trace))
	g.GET("/:profile", gin.WrapF(pprof.Index))

	return r
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly.
func (s *Server) Start(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("profiler listen on %s: %w", s.addr, err)
	}
	s.ln = ln

	s.log.Info().Str("addr", ln.Addr().String()).Msg("profiler listening")
	go func() {
		err := s.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("profiler stopped")
		}
	}()
	return nil
}

// Addr is the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
