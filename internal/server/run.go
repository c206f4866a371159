package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/nixkryption/server/internal/bootstrap"
	"github.com/nixkryption/server/internal/config"
	"github.com/nixkryption/server/pkg/errors"
	"github.com/nixkryption/server/pkg/infra/app"
	infraconfig "github.com/nixkryption/server/pkg/infra/config"
	"github.com/nixkryption/server/pkg/infra/launcher"
)

// Run resolves configuration, launches every subsystem as a child process,
// prints "<name> <id>" per subsystem to out, and supervises them until ctx
// is cancelled or one exits. Only the report is written to out; child
// output goes to errOut.
func Run(ctx context.Context, opts *Options, configFile string, out, errOut io.Writer) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	loader := &configLoader{path: configFile, opts: opts}
	sup := bootstrap.NewSupervisor(loader.load,
		bootstrap.WithMetrics(bootstrap.NewMetrics(reg)),
		bootstrap.WithStopTimeout(opts.Supervisor.ShutdownTimeout),
	)
	for _, name := range SubsystemNames() {
		l := launcher.NewProcessLauncher(name,
			launcher.WithExecutable(exe),
			launcher.WithArgs(childArgs(name, configFile, opts)...),
			launcher.WithReadyTimeout(opts.Supervisor.ReadyTimeout),
			launcher.WithOutput(errOut, errOut),
		)
		if err := sup.Register(launcher.Descriptor{Name: name, Launcher: l}); err != nil {
			return err
		}
	}

	b := bootstrap.NewAppBootstrapper(
		bootstrap.NewLoggingInitializer(opts.Log, appName, app.GetVersion()),
		sup,
	)
	defer func() { _ = logger.Flush() }()
	if err := b.Initialize(ctx); err != nil {
		return describeBootstrapError(configFile, err)
	}

	report := sup.Report()
	logger.Infow("all subsystems launched", "run", report.ID.String(), "subsystems", len(report.Handles))
	for _, line := range report.Lines() {
		fmt.Fprintln(out, line)
	}

	if opts.Status.Enabled() {
		status := NewStatusServer(opts.Status, sup, reg)
		if err := status.Start(); err != nil {
			logger.Errorw("status server failed to start", "addr", opts.Status.Addr, "error", err)
		} else {
			b.AddShutdowner(status)
		}
	}

	watcher := loader.watch()
	defer watcher.Stop()

	waitErr := sup.Wait(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.Supervisor.ShutdownTimeout)
	defer cancel()
	errs := []error{waitErr, b.Shutdown(shutdownCtx)}
	logger.Infow("server stopped", "run", report.ID.String())
	return utilerrors.NewAggregate(errs)
}

// configLoader resolves Configuration for the Supervisor and keeps the
// viper instance for drift detection.
type configLoader struct {
	path string
	opts *Options

	mu  sync.Mutex
	cfg *config.Config
	v   *viper.Viper
}

func (l *configLoader) load(context.Context) (launcher.Config, error) {
	cfg, v, err := config.LoadWithViper(l.path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cfg, l.v = cfg, v
	l.mu.Unlock()

	if cfg.Debug {
		l.opts.Log.ApplyDebug(true)
		if err := l.opts.Log.Init(); err != nil {
			logger.Warnw("failed to raise log level for debug", "error", err)
		}
	}
	logger.Infow("configuration loaded", "file", l.path, "debug", cfg.Debug, "fixversion", cfg.FixVersion)
	return cfg, nil
}

// watch warns when the configuration file changes in a way that would
// produce a different Configuration. Configuration is fixed for the life of
// the process, so a restart is needed to apply it.
func (l *configLoader) watch() *infraconfig.Watcher {
	l.mu.Lock()
	cfg, v := l.cfg, l.v
	l.mu.Unlock()

	w := infraconfig.NewWatcher(v)
	w.Subscribe("drift", func(v *viper.Viper) error {
		if cfg.Drifted(v) {
			logger.Warnw("configuration file changed; restart to apply", "file", l.path)
		}
		return nil
	})
	w.Start()
	return w
}

// childArgs builds the command line of a subsystem child process.
func childArgs(name, configFile string, opts *Options) []string {
	args := []string{
		"subsystem", name,
		"--ready-fd", strconv.Itoa(launcher.ReadyFD),
		"--config", configFile,
		"--log.format", opts.Log.Format,
		"--log.engine", opts.Log.Engine,
	}
	if len(opts.Log.OutputPaths) > 0 {
		args = append(args, "--log.output-paths", strings.Join(opts.Log.OutputPaths, ","))
	}
	// an inherited explicit level must keep overriding debug in the child
	if opts.Log.LevelSet() {
		args = append(args, "--log.level", opts.Log.Level)
	}
	return args
}

// describeBootstrapError distinguishes configuration failures from
// subsystem startup failures. Failures of other initializers are returned
// as they are.
func describeBootstrapError(configFile string, err error) error {
	var initErr *bootstrap.InitError
	if errors.As(err, &initErr) {
		if initErr.Initializer != bootstrap.SupervisorName {
			return err
		}
		err = initErr.Err
	}
	if errors.IsConfig(err) {
		return fmt.Errorf("could not read configuration from %s: %w", configFile, err)
	}
	return fmt.Errorf("subsystem startup failed: %w", err)
}
