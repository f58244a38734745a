package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	GoogleConfig
	StorageConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Google
	Storage
}

var _ Config = (*mainConfig)(nil)

// Load reads the configuration from the process environment and validates it.
func Load() (Config, error) {
	return parse(env.Options{})
}

// FromMap builds a validated configuration from an explicit variable set instead
// of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	c := &mainConfig{}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return nil, fmt.Errorf("[config Load] parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *mainConfig) Validate() error {
	if err := c.Security.validate(c.IsDev()); err != nil {
		return fmt.Errorf("[config Validate] %w", err)
	}
	if err := c.Google.validate(); err != nil {
		return fmt.Errorf("[config Validate] %w", err)
	}
	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("[config Validate] %w", err)
	}
	return nil
}
