package bootstrap

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// InitError reports which initializer failed.
type InitError struct {
	Initializer string
	Err         error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Initializer, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// AppBootstrapper runs initializers in order and shuts down the ones that
// need it in reverse order.
type AppBootstrapper struct {
	initializers []Initializer
	shutdowners  []Shutdowner
}

// NewAppBootstrapper creates an AppBootstrapper running inits in the given
// order.
func NewAppBootstrapper(inits ...Initializer) *AppBootstrapper {
	return &AppBootstrapper{initializers: inits}
}

// Initialize runs every initializer in order and stops at the first error.
// Initializers that also implement Shutdowner are registered for Shutdown
// once they succeed.
func (b *AppBootstrapper) Initialize(ctx context.Context) error {
	for _, in := range b.initializers {
		logger.Debugw("initializing", "component", in.Name())
		if err := in.Initialize(ctx); err != nil {
			return &InitError{Initializer: in.Name(), Err: err}
		}
		if sd, ok := in.(Shutdowner); ok {
			b.shutdowners = append(b.shutdowners, sd)
		}
	}
	return nil
}

// AddShutdowner registers a component started outside Initialize.
func (b *AppBootstrapper) AddShutdowner(sd Shutdowner) {
	b.shutdowners = append(b.shutdowners, sd)
}

// Shutdown gracefully shuts down all components in reverse order.
func (b *AppBootstrapper) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(b.shutdowners) - 1; i >= 0; i-- {
		if err := b.shutdowners[i].Shutdown(ctx); err != nil {
			logger.Errorw("error during shutdown", "error", err)
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}
