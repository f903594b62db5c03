package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by configs that check their own invariants.
type Validator interface {
	Validate() error
}

type loadOptions struct {
	files       []string
	prefix      string
	environment map[string]string
}

type Option func(*loadOptions)

// WithEnvFiles replaces the default ".env" file list. Missing files are skipped.
func WithEnvFiles(files ...string) Option {
	return func(o *loadOptions) { o.files = files }
}

// WithPrefix only reads variables starting with prefix, e.g. "QUOTEKIT_".
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) { o.prefix = prefix }
}

// WithEnvironment parses from the given map instead of the process environment.
// Env files are not read in that case.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) { o.environment = vars }
}

// Load parses a T from the environment.
func Load[T any](opts ...Option) (T, error) {
	o := loadOptions{files: []string{".env"}}
	for _, opt := range opts {
		opt(&o)
	}

	var cfg T
	if o.environment == nil {
		for _, f := range o.files {
			if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return cfg, errors.Join(ErrLoadingEnv, err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}

	if v, ok := any(&cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return cfg, errors.Join(ErrInvalidConfig, err)
		}
	}
	return cfg, nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
