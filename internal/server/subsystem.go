package server

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kart-io/logger"
	"github.com/spf13/cobra"

	"github.com/nixkryption/server/internal/bootstrap"
	"github.com/nixkryption/server/internal/config"
	"github.com/nixkryption/server/pkg/errors"
	"github.com/nixkryption/server/pkg/infra/app"
	"github.com/nixkryption/server/pkg/infra/launcher"
)

// NewSubsystemCommand returns the "subsystem <name>" command, the body of
// each child process. configFile yields the value of --config at run time.
func NewSubsystemCommand(configFile func() string) *cobra.Command {
	opts := NewSubsystemOptions()

	cmd := &cobra.Command{
		Use:       "subsystem <name>",
		Short:     "Run a single subsystem (started by the supervisor)",
		Long:      "Run a single subsystem in the foreground.\n\nSubsystems: " + strings.Join(SubsystemNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: SubsystemNames(),
		Hidden:    true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Complete(); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return RunSubsystem(cmd.Context(), args[0], configFile(), opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

// RunSubsystem resolves configuration and runs the named subsystem until
// ctx is cancelled.
//
// Under a supervisor (opts.ReadyFD > 0) the configuration is the one the
// supervisor resolved and passed as APP_ variables; configFile is not read.
// Run by hand, the subsystem resolves configFile itself.
func RunSubsystem(ctx context.Context, name, configFile string, opts *SubsystemOptions) error {
	run, ok := lookupSubsystem(name)
	if !ok {
		return errors.ErrInvalidParam.WithMessagef("unknown subsystem %q (known: %s)",
			name, strings.Join(SubsystemNames(), ", "))
	}

	cfg, err := resolveSubsystemConfig(configFile, opts)
	if err != nil {
		return err
	}

	li := bootstrap.NewLoggingInitializer(opts.Log, appName, app.GetVersion(), "subsystem", name).
		WithDebug(cfg.Debug)
	if err := li.Initialize(ctx); err != nil {
		return err
	}
	defer func() { _ = logger.Flush() }()

	return run(ctx, cfg, func() error {
		return launcher.NotifyReady(opts.ReadyFD)
	})
}

func resolveSubsystemConfig(configFile string, opts *SubsystemOptions) (*config.Config, error) {
	if opts.ReadyFD > 0 {
		cfg, err := config.FromEnviron(os.Environ())
		if err != nil {
			return nil, fmt.Errorf("configuration from supervisor environment: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("could not read configuration from %s: %w", configFile, err)
	}
	return cfg, nil
}
