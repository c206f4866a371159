// Package supervisor provides options for subsystem supervision.
package supervisor

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/nixkryption/server/pkg/validator"
)

// Options bounds the time spent starting and stopping subsystems.
type Options struct {
	ReadyTimeout    time.Duration `json:"ready-timeout" mapstructure:"ready-timeout" flag:"supervisor.ready-timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout" flag:"supervisor.shutdown-timeout" validate:"gt=0"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		ReadyTimeout:    5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// AddFlags adds flags for supervisor options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.ReadyTimeout, "supervisor.ready-timeout", o.ReadyTimeout, "How long a subsystem may take to report ready")
	fs.DurationVar(&o.ShutdownTimeout, "supervisor.shutdown-timeout", o.ShutdownTimeout, "How long subsystems get to exit after SIGTERM")
}

// Validate validates the supervisor options.
func (o *Options) Validate() error {
	return validator.Struct(o)
}

// Complete completes the supervisor options.
func (o *Options) Complete() error {
	return nil
}
