// Package status provides options for the HTTP status endpoint.
package status

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/nixkryption/server/pkg/validator"
)

// Options configures the status server. An empty Addr disables it.
type Options struct {
	Addr         string        `json:"addr" mapstructure:"addr" flag:"status.addr" validate:"omitempty,hostname_port"`
	ReadTimeout  time.Duration `json:"read-timeout" mapstructure:"read-timeout" flag:"status.read-timeout" validate:"gt=0"`
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout" flag:"status.write-timeout" validate:"gt=0"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// AddFlags adds flags for status options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, "status.addr", o.Addr, "Status server listen address, e.g. 127.0.0.1:9090 (empty disables it)")
	fs.DurationVar(&o.ReadTimeout, "status.read-timeout", o.ReadTimeout, "Status server read timeout")
	fs.DurationVar(&o.WriteTimeout, "status.write-timeout", o.WriteTimeout, "Status server write timeout")
}

// Validate validates the status options.
func (o *Options) Validate() error {
	return validator.Struct(o)
}

// Complete completes the status options.
func (o *Options) Complete() error {
	return nil
}

// Enabled reports whether the status server should run.
func (o *Options) Enabled() bool {
	return o.Addr != ""
}
