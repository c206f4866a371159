package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixkryption/server/internal/bootstrap"
	"github.com/nixkryption/server/pkg/infra/launcher"
	statusopts "github.com/nixkryption/server/pkg/options/status"
)

type stubHandle struct {
	name string
	id   int
	done chan struct{}
}

func newStubHandle(name string, id int) *stubHandle {
	return &stubHandle{name: name, id: id, done: make(chan struct{})}
}

func (h *stubHandle) Name() string               { return h.name }
func (h *stubHandle) ID() int                    { return h.id }
func (h *stubHandle) Stop(context.Context) error { return nil }
func (h *stubHandle) Done() <-chan struct{}      { return h.done }
func (h *stubHandle) Err() error                 { return nil }

type stubSupervisor struct {
	state   bootstrap.State
	handles []launcher.Handle
}

func (s *stubSupervisor) State() bootstrap.State     { return s.state }
func (s *stubSupervisor) Handles() []launcher.Handle { return s.handles }

func newTestStatus(sup supervisorView) *StatusServer {
	reg := prometheus.NewRegistry()
	bootstrap.NewMetrics(reg)
	return NewStatusServer(statusopts.NewOptions(), sup, reg)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	order := newStubHandle("order-management", 32576)
	data := newStubHandle("data-management", 32577)
	sup := &stubSupervisor{
		state:   bootstrap.StateAllLaunched,
		handles: []launcher.Handle{order, data},
	}
	s := newTestStatus(sup)

	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","state":"AllLaunched"}`, rec.Body.String())

	close(data.done)
	rec = get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	sup.state = bootstrap.StateStopped
	sup.handles = nil
	rec = get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubsystemsEndpoint(t *testing.T) {
	data := newStubHandle("data-management", 32577)
	close(data.done)
	sup := &stubSupervisor{
		state:   bootstrap.StateAllLaunched,
		handles: []launcher.Handle{newStubHandle("order-management", 32576), data},
	}

	rec := get(t, newTestStatus(sup).Handler(), "/subsystems")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []subsystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []subsystemStatus{
		{Name: "order-management", ID: 32576, Running: true},
		{Name: "data-management", ID: 32577, Running: false},
	}, got)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := bootstrap.NewMetrics(reg)
	sup := bootstrap.NewSupervisor(func(context.Context) (launcher.Config, error) {
		return nil, nil
	}, bootstrap.WithMetrics(m))
	_, err := sup.Bootstrap(context.Background())
	require.NoError(t, err)

	rec := get(t, NewStatusServer(statusopts.NewOptions(), sup, reg).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "nixkryption_bootstrap_state"))
}

func TestStatusServerStartShutdown(t *testing.T) {
	opts := statusopts.NewOptions()
	opts.Addr = "127.0.0.1:0"
	s := NewStatusServer(opts, &stubSupervisor{state: bootstrap.StateAllLaunched}, prometheus.NewRegistry())

	require.NoError(t, s.Start())
	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestStatusSetsRequestID(t *testing.T) {
	s := newTestStatus(&stubSupervisor{state: bootstrap.StateAllLaunched})
	rec := get(t, s.Handler(), "/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
