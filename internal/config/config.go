// Package config resolves the process-wide Configuration record.
package config

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/nixkryption/server/pkg/errors"
	infraconfig "github.com/nixkryption/server/pkg/infra/config"
)

const (
	// DefaultPath is the configuration file read when none is given.
	DefaultPath = "env.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "APP"

	KeyDebug      = "debug"
	KeyFixVersion = "fixversion"
)

// Config is produced once per process and shared read-only afterwards.
type Config struct {
	Debug      bool    `mapstructure:"debug" toml:"debug"`
	FixVersion float64 `mapstructure:"fixversion" toml:"fixversion"`
}

// Load resolves Config from the TOML file at path and APP_ environment
// variables. Environment values take precedence over the file.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithViper(path)
	return cfg, err
}

// LoadWithViper is Load but also returns the viper instance holding the
// merged sources, for watching the file afterwards.
func LoadWithViper(path string) (*Config, *viper.Viper, error) {
	if path == "" {
		path = DefaultPath
	}
	return load(infraconfig.NewLoader(path, loaderOptions()...))
}

// FromEnviron resolves Config from APP_ variables in environ alone, as
// produced by Environ. No file is read.
func FromEnviron(environ []string) (*Config, error) {
	opts := append(loaderOptions(), infraconfig.WithEnviron(func() []string { return environ }))
	cfg, _, err := load(infraconfig.NewEnvLoader(opts...))
	return cfg, err
}

func loaderOptions() []infraconfig.Option {
	return []infraconfig.Option{
		infraconfig.WithEnvPrefix(EnvPrefix),
		infraconfig.WithRequired(KeyDebug, KeyFixVersion),
	}
}

func load(loader *infraconfig.Loader) (*Config, *viper.Viper, error) {
	cfg := &Config{}
	v, err := loader.Load(cfg)
	if err != nil {
		return nil, nil, err
	}
	if math.IsNaN(cfg.FixVersion) || math.IsInf(cfg.FixVersion, 0) {
		return nil, nil, errors.ErrConfigTypeMismatch.
			WithMessagef("%s must be a finite number, got %v", KeyFixVersion, cfg.FixVersion)
	}
	return cfg, v, nil
}

// Environ returns the environment overrides that reproduce c exactly when
// resolved by Load, regardless of the file contents.
func (c *Config) Environ() []string {
	return []string{
		fmt.Sprintf("%s_DEBUG=%s", EnvPrefix, strconv.FormatBool(c.Debug)),
		fmt.Sprintf("%s_FIXVERSION=%s", EnvPrefix, strconv.FormatFloat(c.FixVersion, 'g', -1, 64)),
	}
}

// TOML renders c in the file format Load accepts.
func (c *Config) TOML() ([]byte, error) {
	return toml.Marshal(c)
}

// Drifted reports whether the values currently held by v differ from c.
// Undecodable values count as drift.
func (c *Config) Drifted(v *viper.Viper) bool {
	var next Config
	if err := v.Unmarshal(&next); err != nil {
		return true
	}
	return next != *c
}
