// Package config resolves layered configuration from a file and the process
// environment.
//
// A Loader reads one configuration file, overlays environment variables
// carrying a prefix, checks required keys and decodes the result into a
// struct with strict typing:
//
//	l := config.NewLoader("env.toml",
//	    config.WithEnvPrefix("APP"),
//	    config.WithRequired("debug", "fixversion"),
//	)
//	var cfg Settings
//	v, err := l.Load(&cfg)
//
// Every failure returned by Load carries one of the configuration error
// codes from pkg/errors, so callers can branch with errors.Is.
//
// A Watcher notifies subscribers when the file changes on disk.
package config
