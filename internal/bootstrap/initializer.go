// Package bootstrap loads configuration and supervises the subsystems of a
// nixkryption process.
package bootstrap

import "context"

// Initializer sets up one process-wide facility before subsystems launch.
type Initializer interface {
	// Name returns the name of the initializer for logging purposes.
	Name() string

	// Initialize performs the initialization logic.
	Initialize(ctx context.Context) error
}

// Shutdowner defines the interface for components that need graceful shutdown.
type Shutdowner interface {
	// Shutdown performs graceful shutdown of the component.
	// The context may contain a deadline for shutdown timeout.
	Shutdown(ctx context.Context) error
}

var (
	_ Initializer = (*LoggingInitializer)(nil)
	_ Initializer = (*Supervisor)(nil)
	_ Shutdowner  = (*Supervisor)(nil)
)
