package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/nixkryption/server/pkg/errors"
)

const (
	// fileFormat is the file format assumed regardless of extension.
	fileFormat = "toml"

	// DefaultEnvPrefix is the prefix of environment overrides.
	DefaultEnvPrefix = "APP"
)

// Loader reads a configuration file and environment overrides into a struct.
type Loader struct {
	path      string
	envOnly   bool
	envPrefix string
	required  []string
	environ   func() []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix. The separator "_" is
// appended automatically.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = strings.TrimSuffix(prefix, "_")
	}
}

// WithRequired declares keys that must be present in at least one source.
// They are checked in the order given.
func WithRequired(keys ...string) Option {
	return func(l *Loader) {
		for _, k := range keys {
			l.required = append(l.required, strings.ToLower(k))
		}
	}
}

// WithEnviron replaces os.Environ as the source of environment variables.
func WithEnviron(fn func() []string) Option {
	return func(l *Loader) {
		l.environ = fn
	}
}

// NewLoader creates a Loader for the file at path.
func NewLoader(path string, opts ...Option) *Loader {
	l := &Loader{
		path:      path,
		envPrefix: DefaultEnvPrefix,
		environ:   os.Environ,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewEnvLoader creates a Loader that reads environment variables only. It
// never returns ErrConfigSourceUnavailable or ErrConfigParse.
func NewEnvLoader(opts ...Option) *Loader {
	l := NewLoader("", opts...)
	l.envOnly = true
	return l
}

// Load resolves the configuration into target, which must be a pointer to a
// struct tagged with `mapstructure`. The viper instance holding the merged
// sources is returned for watching.
//
// Precedence, highest first: environment variable, file value.
func (l *Loader) Load(target interface{}) (*viper.Viper, error) {
	v := viper.New()
	if !l.envOnly {
		if err := l.readFile(v); err != nil {
			return nil, err
		}
	}

	l.bindEnv(v)

	for _, key := range l.required {
		if !v.IsSet(key) {
			return nil, errors.ErrConfigMissingField.
				WithMessagef("missing required field %q", key)
		}
	}

	if err := v.Unmarshal(target, strictDecoding); err != nil {
		return nil, errors.ErrConfigTypeMismatch.WithCause(err)
	}

	return v, nil
}

func (l *Loader) readFile(v *viper.Viper) error {
	if _, err := os.Stat(l.path); err != nil {
		return errors.ErrConfigSourceUnavailable.WithCause(err)
	}

	v.SetConfigFile(l.path)
	v.SetConfigType(fileFormat)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if stderrors.As(err, &pathErr) || stderrors.Is(err, fs.ErrNotExist) {
			return errors.ErrConfigSourceUnavailable.WithCause(err)
		}
		return errors.ErrConfigParse.WithCause(err)
	}
	return nil
}

// bindEnv overlays every environment variable whose name starts with the
// prefix, compared case-insensitively, onto the lower-cased remainder of its
// name. Empty values are ignored. When several variables map to the same key
// the lexically smallest name wins.
func (l *Loader) bindEnv(v *viper.Viper) {
	if l.envPrefix == "" {
		return
	}
	prefix := strings.ToUpper(l.envPrefix) + "_"

	type envVar struct{ name, value string }
	vars := make(map[string][]envVar)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || len(name) <= len(prefix) {
			continue
		}
		if !strings.EqualFold(name[:len(prefix)], prefix) {
			continue
		}
		key := strings.ToLower(name[len(prefix):])
		vars[key] = append(vars[key], envVar{name, value})
	}

	for key, candidates := range vars {
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].name < candidates[j].name
		})
		v.Set(key, candidates[0].value)
	}
}

// strictDecoding disables weak typing so that, for example, an integer is
// never accepted for a boolean field. Strings are still converted when they
// parse cleanly, since environment values always arrive as strings.
func strictDecoding(c *mapstructure.DecoderConfig) {
	c.WeaklyTypedInput = false
	c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToBasicTypeHookFunc(),
	)
}
