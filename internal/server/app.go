// Package server wires the nixkryption command line: the supervising root
// command, the subsystem child command and configuration inspection.
package server

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixkryption/server/internal/config"
	"github.com/nixkryption/server/pkg/infra/app"
)

const (
	appName        = "nixkryption"
	appDescription = `nixkryption hosts the order management and data management subsystems.

On start it resolves configuration, launches every subsystem as a child
process, prints one "<name> <id>" line per subsystem and supervises them
until interrupted or until one exits.

Configuration:
  TOML file (default env.toml, see --config) with required keys
    debug      boolean
    fixversion number
  Environment variables APP_DEBUG and APP_FIXVERSION override the file.

Examples:
  # Start with ./env.toml
  nixkryption

  # Use another file and expose status endpoints
  nixkryption -c /etc/nixkryption/env.toml --status.addr=127.0.0.1:9090

  # Print the resolved configuration
  nixkryption config`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	var a *app.App
	configFile := func() string { return a.ConfigFile() }

	a = app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("Order and data management server"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithArgs(cobra.NoArgs),
		app.WithRunFunc(func(ctx context.Context) error {
			return Run(ctx, opts, a.ConfigFile(), a.Command().OutOrStdout(), a.Command().ErrOrStderr())
		}),
		app.WithCommands(
			NewSubsystemCommand(configFile),
			newConfigCommand(configFile),
		),
	)
	return a
}

func newConfigCommand(configFile func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile())
			if err != nil {
				return fmt.Errorf("could not read configuration from %s: %w", configFile(), err)
			}
			data, err := cfg.TOML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
