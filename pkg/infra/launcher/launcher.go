// Package launcher defines how supervised subsystems are started and
// tracked, and provides a launcher that runs each subsystem as a child
// process.
package launcher

import (
	"context"
	"fmt"

	"github.com/nixkryption/server/pkg/errors"
)

// Config is the resolved configuration handed to every launch. Environ
// returns the variables that reproduce it in a child process.
type Config interface {
	Environ() []string
}

// Launcher starts one subsystem. Launch returns once the subsystem is ready
// or has failed to become ready.
type Launcher interface {
	Launch(ctx context.Context, cfg Config) (Handle, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, cfg Config) (Handle, error)

// Launch calls f(ctx, cfg).
func (f LauncherFunc) Launch(ctx context.Context, cfg Config) (Handle, error) {
	return f(ctx, cfg)
}

// Descriptor names a subsystem and the launcher that starts it.
type Descriptor struct {
	Name     string
	Launcher Launcher
}

// Handle tracks a running subsystem.
type Handle interface {
	// Name returns the subsystem name.
	Name() string
	// ID identifies the running unit, e.g. a process id.
	ID() int
	// Stop asks the unit to exit and waits until it has, or until ctx ends.
	Stop(ctx context.Context) error
	// Done is closed when the unit has exited.
	Done() <-chan struct{}
	// Err returns the exit cause once Done is closed.
	Err() error
}

// StartupError reports that a subsystem failed to start.
type StartupError struct {
	Subsystem string
	Cause     error
}

// NewStartupError labels cause with the subsystem name. A cause that is
// already a StartupError is relabelled rather than nested.
func NewStartupError(subsystem string, cause error) *StartupError {
	if se, ok := cause.(*StartupError); ok {
		cause = se.Cause
	}
	return &StartupError{Subsystem: subsystem, Cause: cause}
}

func (e *StartupError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("subsystem %q failed to start", e.Subsystem)
	}
	return fmt.Sprintf("subsystem %q failed to start: %v", e.Subsystem, e.Cause)
}

func (e *StartupError) Unwrap() error { return e.Cause }

// Is matches errors.ErrSubsystemStartup.
func (e *StartupError) Is(target error) bool {
	return errors.ErrSubsystemStartup.Is(target)
}
