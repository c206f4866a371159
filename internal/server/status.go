package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nixkryption/server/internal/bootstrap"
	"github.com/nixkryption/server/pkg/infra/launcher"
	"github.com/nixkryption/server/pkg/infra/middleware"
	statusopts "github.com/nixkryption/server/pkg/options/status"
)

// supervisorView is the part of the Supervisor the status server reads.
type supervisorView interface {
	State() bootstrap.State
	Handles() []launcher.Handle
}

// subsystemStatus is one entry of GET /subsystems.
type subsystemStatus struct {
	Name    string `json:"name"`
	ID      int    `json:"id"`
	Running bool   `json:"running"`
}

// StatusServer exposes health, subsystem identities and metrics over HTTP.
type StatusServer struct {
	opts   *statusopts.Options
	sup    supervisorView
	engine *gin.Engine
	srv    *http.Server
	ln     net.Listener
}

// NewStatusServer builds the router. gatherer serves /metrics.
func NewStatusServer(opts *statusopts.Options, sup supervisorView, gatherer prometheus.Gatherer) *StatusServer {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &StatusServer{opts: opts, sup: sup}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(), middleware.Logger())
	r.GET("/healthz", s.healthz)
	r.GET("/subsystems", s.subsystems)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	s.engine = r

	return s
}

// Handler returns the HTTP handler.
func (s *StatusServer) Handler() http.Handler {
	return s.engine
}

func (s *StatusServer) healthz(c *gin.Context) {
	state := s.sup.State()
	healthy := state == bootstrap.StateAllLaunched
	for _, h := range s.sup.Handles() {
		select {
		case <-h.Done():
			healthy = false
		default:
		}
	}

	code, status := http.StatusOK, "ok"
	if !healthy {
		code, status = http.StatusServiceUnavailable, "unavailable"
	}
	c.JSON(code, gin.H{"status": status, "state": state.String()})
}

func (s *StatusServer) subsystems(c *gin.Context) {
	handles := s.sup.Handles()
	out := make([]subsystemStatus, 0, len(handles))
	for _, h := range handles {
		running := true
		select {
		case <-h.Done():
			running = false
		default:
		}
		out = append(out, subsystemStatus{Name: h.Name(), ID: h.ID(), Running: running})
	}
	c.JSON(http.StatusOK, out)
}

// Start listens on the configured address and serves in the background.
func (s *StatusServer) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("status server stopped", "error", err)
		}
	}()
	logger.Infow("status server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address once started.
func (s *StatusServer) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
