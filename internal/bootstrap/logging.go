package bootstrap

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	logopts "github.com/nixkryption/server/pkg/options/logger"
)

// LoggingInitializer installs the global logger.
type LoggingInitializer struct {
	opts       *logopts.Options
	appName    string
	appVersion string
	fields     []interface{}
	debug      bool
}

// NewLoggingInitializer creates a new LoggingInitializer. fields are extra
// key/value pairs attached to every entry.
func NewLoggingInitializer(opts *logopts.Options, appName, appVersion string, fields ...interface{}) *LoggingInitializer {
	return &LoggingInitializer{
		opts:       opts,
		appName:    appName,
		appVersion: appVersion,
		fields:     fields,
	}
}

// WithDebug raises the level to DEBUG unless one was set explicitly.
func (li *LoggingInitializer) WithDebug(debug bool) *LoggingInitializer {
	li.debug = debug
	return li
}

// Name returns the name of the initializer.
func (li *LoggingInitializer) Name() string {
	return "logging"
}

// Initialize initializes the logging system.
func (li *LoggingInitializer) Initialize(_ context.Context) error {
	li.opts.AddInitialField("service.name", li.appName)
	li.opts.AddInitialField("service.version", li.appVersion)
	for i := 0; i+1 < len(li.fields); i += 2 {
		li.opts.AddInitialField(fmt.Sprint(li.fields[i]), li.fields[i+1])
	}
	li.opts.ApplyDebug(li.debug)

	if err := li.opts.Complete(); err != nil {
		return err
	}
	if err := li.opts.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Debugw("logger initialized", "level", li.opts.Level, "engine", li.opts.Engine)
	return nil
}
