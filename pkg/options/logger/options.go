// Package logger provides logger configuration options.
package logger

import (
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"
)

// LevelDebug is the level forced by ApplyDebug.
const LevelDebug = "DEBUG"

// Options wraps option.LogOption.
type Options struct {
	*option.LogOption

	levelSet bool
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		LogOption: option.DefaultLogOption(),
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Engine, "log.engine", o.Engine, "Logging engine (zap|slog)")
	fs.Var(&levelValue{o}, "log.level", "Log level (DEBUG|INFO|WARN|ERROR|FATAL)")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log format (json|console)")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Output paths for logs")
	fs.BoolVar(&o.Development, "log.development", o.Development, "Enable development mode")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Disable caller detection")
	fs.BoolVar(&o.DisableStacktrace, "log.disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture")

	if o.Rotation == nil {
		o.Rotation = &option.RotationOption{}
	}
	fs.IntVar(&o.Rotation.MaxSize, "log.rotation.max-size", 100, "Maximum size in MB of the log file before rotation")
	fs.IntVar(&o.Rotation.MaxBackups, "log.rotation.max-backups", 10, "Maximum number of old log files to retain")
	fs.BoolVar(&o.Rotation.Compress, "log.rotation.compress", true, "Compress rotated log files using gzip")
}

// Validate validates the logger options.
func (o *Options) Validate() error {
	return o.LogOption.Validate()
}

// Complete normalizes the level spelling.
func (o *Options) Complete() error {
	o.Level = strings.ToUpper(o.Level)
	return nil
}

// ApplyDebug raises the level to DEBUG when debug is set and no level was
// chosen explicitly on the command line.
func (o *Options) ApplyDebug(debug bool) {
	if debug && !o.levelSet {
		o.Level = LevelDebug
	}
}

// LevelSet reports whether --log.level was given.
func (o *Options) LevelSet() bool {
	return o.levelSet
}

// CreateLogger creates a new logger instance based on the options.
func (o *Options) CreateLogger() (core.Logger, error) {
	return logger.New(o.LogOption)
}

// Init initializes the global logger with the options.
func (o *Options) Init() error {
	log, err := o.CreateLogger()
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}

// levelValue records whether --log.level was given.
type levelValue struct{ o *Options }

func (v *levelValue) String() string {
	if v.o == nil {
		return ""
	}
	return v.o.Level
}

func (v *levelValue) Set(s string) error {
	v.o.Level = s
	v.o.levelSet = true
	return nil
}

func (v *levelValue) Type() string { return "string" }
