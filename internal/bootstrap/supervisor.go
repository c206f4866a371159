package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/nixkryption/server/pkg/errors"
	"github.com/nixkryption/server/pkg/id"
	"github.com/nixkryption/server/pkg/infra/launcher"
	"github.com/nixkryption/server/pkg/infra/pool"
)

// DefaultStopTimeout bounds the cleanup of launched subsystems after a
// partial failure.
const DefaultStopTimeout = 10 * time.Second

// SupervisorName is the Initializer name of a Supervisor.
const SupervisorName = "supervisor"

// ConfigLoader resolves the configuration passed to every launcher.
type ConfigLoader func(ctx context.Context) (launcher.Config, error)

// Supervisor loads configuration once, then launches every registered
// subsystem concurrently and tracks the resulting handles.
type Supervisor struct {
	loadConfig  ConfigLoader
	metrics     *Metrics
	stopTimeout time.Duration

	mu          sync.Mutex
	state       State
	descriptors []launcher.Descriptor
	names       map[string]struct{}
	cfg         launcher.Config
	handles     []launcher.Handle
	report      *Report
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithMetrics records launch outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// WithStopTimeout bounds cleanup after a partial failure.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// NewSupervisor creates a Supervisor in StateInit.
func NewSupervisor(loader ConfigLoader, opts ...Option) *Supervisor {
	s := &Supervisor{
		loadConfig:  loader,
		stopTimeout: DefaultStopTimeout,
		names:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register appends desc. Launch results are reported in registration order.
func (s *Supervisor) Register(desc launcher.Descriptor) error {
	if desc.Name == "" || desc.Launcher == nil {
		return errors.ErrInvalidParam.WithMessage("descriptor requires a name and a launcher")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInit {
		return errors.ErrBootstrapState.WithMessagef("cannot register %q in state %s", desc.Name, s.state)
	}
	if _, ok := s.names[desc.Name]; ok {
		return errors.ErrSubsystemDuplicate.WithMessagef("subsystem %q already registered", desc.Name)
	}
	s.names[desc.Name] = struct{}{}
	s.descriptors = append(s.descriptors, desc)
	return nil
}

// State returns the current lifecycle stage.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the configuration loaded by Bootstrap, or nil.
func (s *Supervisor) Config() launcher.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Handles returns the running handles in registration order.
func (s *Supervisor) Handles() []launcher.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]launcher.Handle(nil), s.handles...)
}

// Report returns the report of a finished Bootstrap, or nil before one
// finishes.
func (s *Supervisor) Report() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Name implements Initializer.
func (s *Supervisor) Name() string {
	return SupervisorName
}

// Initialize implements Initializer by running Bootstrap. The report stays
// available through Report.
func (s *Supervisor) Initialize(ctx context.Context) error {
	_, err := s.Bootstrap(ctx)
	return err
}

func (s *Supervisor) transition(to State, kv ...interface{}) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()

	s.metrics.setState(to)
	logger.Infow("bootstrap state changed", append([]interface{}{"from", from.String(), "to", to.String()}, kv...)...)
}

// Bootstrap loads configuration and launches every registered subsystem.
//
// A configuration failure is returned unchanged and no launcher is invoked.
// Otherwise all launches run concurrently and Bootstrap waits for every
// outcome. If any launch failed, the subsystems that did start are stopped
// and an aggregate of one StartupError per failure is returned together
// with the report.
func (s *Supervisor) Bootstrap(ctx context.Context) (*Report, error) {
	// claim the run before releasing the lock
	s.mu.Lock()
	if s.state != StateInit {
		state := s.state
		s.mu.Unlock()
		return nil, errors.ErrBootstrapState.WithMessagef("bootstrap already ran (state %s)", state)
	}
	s.state = StateConfigLoading
	descriptors := append([]launcher.Descriptor(nil), s.descriptors...)
	report := &Report{ID: id.NewULID(), StartedAt: time.Now()}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.report = report
		s.mu.Unlock()
	}()

	runID := report.ID.String()
	s.metrics.setState(StateConfigLoading)
	logger.Infow("bootstrap state changed", "from", StateInit.String(), "to", StateConfigLoading.String(), "run", runID)

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		s.transition(StateConfigFailed, "run", runID, "error", err)
		report.State = StateConfigFailed
		return nil, err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.transition(StateConfigLoaded, "run", runID)

	s.transition(StateLaunching, "run", runID, "subsystems", len(descriptors))
	report.Outcomes = s.launchAll(ctx, cfg, descriptors)

	var errs []error
	for _, o := range report.Outcomes {
		if o.OK() {
			report.Handles = append(report.Handles, o.Handle)
		} else {
			errs = append(errs, o.Err)
		}
	}

	if len(errs) == 0 {
		s.mu.Lock()
		s.handles = report.Handles
		s.mu.Unlock()
		s.transition(StateAllLaunched, "run", runID)
		report.State = StateAllLaunched
		return report, nil
	}

	for _, o := range report.Failed() {
		logger.Errorw("subsystem failed to start", "run", runID, "subsystem", o.Name, "error", o.Err)
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()
	if err := s.stopAll(stopCtx, report.Handles); err != nil {
		logger.Warnw("cleanup after failed bootstrap incomplete", "run", runID, "error", err)
	}
	report.Handles = nil
	s.transition(StatePartialFailure, "run", runID, "failed", len(errs))
	report.State = StatePartialFailure
	return report, utilerrors.NewAggregate(errs)
}

// launchAll runs every launcher on a worker pool sized to start them all at
// once, and collects one outcome per descriptor.
func (s *Supervisor) launchAll(ctx context.Context, cfg launcher.Config, descriptors []launcher.Descriptor) []Outcome {
	outcomes := make([]Outcome, len(descriptors))
	if len(descriptors) == 0 {
		return outcomes
	}

	p, err := pool.NewPool("launch", pool.LaunchConfig(len(descriptors)))
	if err != nil {
		for i, d := range descriptors {
			outcomes[i] = Outcome{Name: d.Name, Err: launcher.NewStartupError(d.Name, err)}
		}
		return outcomes
	}
	defer p.Release()

	var wg sync.WaitGroup
	for i, d := range descriptors {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			outcomes[i] = s.launch(ctx, cfg, d)
		}); err != nil {
			outcomes[i] = Outcome{Name: d.Name, Err: launcher.NewStartupError(d.Name, err)}
			wg.Done()
		}
	}
	wg.Wait()

	st := p.Stats()
	logger.Debugw("launch pool drained",
		"capacity", p.Cap(),
		"submitted", st.Submitted,
		"completed", st.Completed,
		"rejected", st.Rejected,
		"panics", st.Panics,
	)
	return outcomes
}

func (s *Supervisor) launch(ctx context.Context, cfg launcher.Config, d launcher.Descriptor) (o Outcome) {
	o.Name = d.Name
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.Handle = nil
			o.Err = launcher.NewStartupError(d.Name, fmt.Errorf("launcher panicked: %v", r))
		}
		o.Duration = time.Since(start)
		s.metrics.observeLaunch(d.Name, o.Duration, o.Err)
	}()

	logger.Debugw("launching subsystem", "subsystem", d.Name)
	h, err := d.Launcher.Launch(ctx, cfg)
	switch {
	case err != nil:
		o.Err = launcher.NewStartupError(d.Name, err)
	case h == nil:
		o.Err = launcher.NewStartupError(d.Name, fmt.Errorf("launcher returned no handle"))
	default:
		o.Handle = h
		logger.Infow("subsystem started", "subsystem", d.Name, "id", h.ID(), "elapsed", time.Since(start).String())
	}
	return o
}

// stopAll stops handles in reverse order and aggregates the errors.
func (s *Supervisor) stopAll(ctx context.Context, handles []launcher.Handle) error {
	var errs []error
	for i := len(handles) - 1; i >= 0; i-- {
		h := handles[i]
		if err := h.Stop(ctx); err != nil {
			logger.Warnw("failed to stop subsystem", "subsystem", h.Name(), "id", h.ID(), "error", err)
			errs = append(errs, fmt.Errorf("stop %s: %w", h.Name(), err))
		} else {
			logger.Infow("subsystem stopped", "subsystem", h.Name(), "id", h.ID())
		}
		s.metrics.setDown(h.Name())
	}
	return utilerrors.NewAggregate(errs)
}

// Wait blocks until ctx ends or a running subsystem exits. A subsystem exit
// is returned as an error naming it; ctx ending returns nil.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAllLaunched {
		state := s.state
		s.mu.Unlock()
		return errors.ErrBootstrapState.WithMessagef("nothing to wait for in state %s", state)
	}
	handles := append([]launcher.Handle(nil), s.handles...)
	s.mu.Unlock()

	exited := make(chan launcher.Handle, len(handles))
	stop := make(chan struct{})
	defer close(stop)
	for _, h := range handles {
		go func() {
			select {
			case <-h.Done():
				exited <- h
			case <-stop:
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case h := <-exited:
		s.metrics.setDown(h.Name())
		err := errors.ErrSubsystemExited.
			WithMessagef("subsystem %q (id %d) exited unexpectedly", h.Name(), h.ID()).
			WithCause(h.Err())
		logger.Errorw("subsystem exited", "subsystem", h.Name(), "id", h.ID(), "error", h.Err())
		return err
	}
}

// Shutdown stops running subsystems in reverse registration order. It
// implements Shutdowner and may be called more than once.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAllLaunched {
		s.mu.Unlock()
		return nil
	}
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	err := s.stopAll(ctx, handles)
	s.transition(StateStopped)
	return err
}
