package server

import (
	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/nixkryption/server/pkg/errors"
	logopts "github.com/nixkryption/server/pkg/options/logger"
	statusopts "github.com/nixkryption/server/pkg/options/status"
	supervisoropts "github.com/nixkryption/server/pkg/options/supervisor"
)

// Options contains all root command options.
type Options struct {
	Log        *logopts.Options        `json:"log" mapstructure:"log"`
	Status     *statusopts.Options     `json:"status" mapstructure:"status"`
	Supervisor *supervisoropts.Options `json:"supervisor" mapstructure:"supervisor"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Log:        logopts.NewOptions(),
		Status:     statusopts.NewOptions(),
		Supervisor: supervisoropts.NewOptions(),
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Status.AddFlags(fs)
	o.Supervisor.AddFlags(fs)
}

// Complete completes the options.
func (o *Options) Complete() error {
	return o.Log.Complete()
}

// Validate validates every option group and reports all failures together.
func (o *Options) Validate() error {
	errs := []error{
		o.Log.Validate(),
		o.Status.Validate(),
		o.Supervisor.Validate(),
	}
	if agg := utilerrors.NewAggregate(errs); agg != nil {
		return errors.ErrInvalidParam.WithCause(agg)
	}
	return nil
}

// SubsystemOptions contains the options of the subsystem command.
type SubsystemOptions struct {
	Log     *logopts.Options
	ReadyFD int
}

// NewSubsystemOptions creates new SubsystemOptions with defaults.
func NewSubsystemOptions() *SubsystemOptions {
	return &SubsystemOptions{Log: logopts.NewOptions()}
}

// AddFlags adds flags to the flagset.
func (o *SubsystemOptions) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	fs.IntVar(&o.ReadyFD, "ready-fd", 0, "Descriptor on which to report readiness (0 disables)")
}

// Complete completes the options.
func (o *SubsystemOptions) Complete() error {
	return o.Log.Complete()
}

// Validate validates the options.
func (o *SubsystemOptions) Validate() error {
	if o.ReadyFD < 0 {
		return errors.ErrInvalidParam.WithMessagef("--ready-fd must not be negative, got %d", o.ReadyFD)
	}
	if err := o.Log.Validate(); err != nil {
		return errors.ErrInvalidParam.WithCause(err)
	}
	return nil
}
