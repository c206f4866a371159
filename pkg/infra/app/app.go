// Package app provides application bootstrapping with Cobra and Pflag.
//
// Usage:
//
//	app := app.NewApp(
//	    app.WithName("nixkryption"),
//	    app.WithDescription("Order and data management server"),
//	    app.WithOptions(opts),
//	    app.WithRunFunc(run),
//	)
//	app.Run()
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"
)

// DefaultConfigFile is the value of --config when not given.
const DefaultConfigFile = "env.toml"

// App is the main application structure.
type App struct {
	name        string
	shortDesc   string
	description string
	options     CliOptions
	runFunc     RunFunc
	commands    []*cobra.Command
	cmd         *cobra.Command
	args        cobra.PositionalArgs
	noVersion   bool
	configFile  string
}

// RunFunc is the application's run function. ctx is cancelled on SIGINT or
// SIGTERM.
type RunFunc func(ctx context.Context) error

// Option configures an App.
type Option func(*App)

// WithName sets the application name.
func WithName(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

// WithShortDescription sets the short description.
func WithShortDescription(desc string) Option {
	return func(a *App) {
		a.shortDesc = desc
	}
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithOptions sets the CLI options.
func WithOptions(opts CliOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the run function.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithArgs sets the positional args validation.
func WithArgs(args cobra.PositionalArgs) Option {
	return func(a *App) {
		a.args = args
	}
}

// WithCommands adds subcommands. They inherit --config and the version
// flags.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) {
		a.commands = append(a.commands, cmds...)
	}
}

// WithNoVersion disables version flag.
func WithNoVersion() Option {
	return func(a *App) {
		a.noVersion = true
	}
}

// NewApp creates a new application instance.
func NewApp(opts ...Option) *App {
	a := &App{
		name:       filepath.Base(os.Args[0]),
		configFile: DefaultConfigFile,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:   a.name,
		Short: a.shortDesc,
		Long:  a.description,
		RunE:  a.runCommand,
		Args:  a.args,
		// usage on every error buries the message; --help is there for that
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", a.configFile, "Path to the TOML configuration file")
	if !a.noVersion {
		version.AddFlags(cmd.PersistentFlags())
		cmd.PersistentPreRun = func(*cobra.Command, []string) {
			version.PrintAndExitIfRequested()
		}
	}

	if a.options != nil {
		a.options.AddFlags(cmd.Flags())
	}

	cmd.AddCommand(a.commands...)
	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.runFunc != nil {
		return a.runFunc(cmd.Context())
	}
	return nil
}

// ConfigFile returns the value of --config.
func (a *App) ConfigFile() string {
	return a.configFile
}

// Execute runs the command with args and reports the error instead of
// exiting. ctx is passed to RunFunc.
func (a *App) Execute(ctx context.Context, args []string) error {
	a.cmd.SetArgs(args)
	return a.cmd.ExecuteContext(ctx)
}

// SetOutput redirects command output.
func (a *App) SetOutput(out, errOut io.Writer) {
	a.cmd.SetOut(out)
	a.cmd.SetErr(errOut)
}

// Run executes the application and exits non-zero on error.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// Command returns the cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}
