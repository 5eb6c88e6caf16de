package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. HEALTHDASH_SERVER_ADDRESS.
const EnvPrefix = "HEALTHDASH_"

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Duration is a time.Duration that unmarshals from a string like "30s",
// both in YAML and in environment variables.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
}

func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Address, validation.Required, validation.By(validateHostPort)),
	)
}

// ServicesConfig says where the services document lives.
type ServicesConfig struct {
	// Source is a file path or an http(s) URL.
	Source string `yaml:"source" env:"SOURCE"`
	// Timeout bounds a single fetch of the document.
	Timeout Duration `yaml:"timeout" env:"TIMEOUT"`
}

func (c ServicesConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Source, validation.Required),
		validation.Field(&c.Timeout, validation.By(positiveDuration)),
	)
}

// CheckConfig holds health check settings shared by every service.
type CheckConfig struct {
	Timeout         Duration `yaml:"timeout" env:"TIMEOUT"`
	RefreshInterval Duration `yaml:"refresh_interval" env:"REFRESH_INTERVAL"`
}

func (c CheckConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.By(positiveDuration)),
		validation.Field(&c.RefreshInterval, validation.By(nonNegativeDuration)),
	)
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

func (c LoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
	)
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Services ServicesConfig `yaml:"services" envPrefix:"SERVICES_"`
	Check    CheckConfig    `yaml:"check" envPrefix:"CHECK_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOGGING_"`
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Services),
		validation.Field(&c.Check),
		validation.Field(&c.Logging),
	)
}

// Default returns the configuration used when no file or override is present.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Address: ":8080"},
		Services: ServicesConfig{Source: "config.json", Timeout: Duration{10 * time.Second}},
		Check:    CheckConfig{Timeout: Duration{5 * time.Second}},
		Logging:  LoggingConfig{Level: LogLevelInfo},
	}
}

// Load reads the settings file at path, applies environment overrides and
// validates the result. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}
	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}
	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}
	return nil
}

func positiveDuration(value interface{}) error {
	d, ok := value.(Duration)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a duration")
	}
	if d.Duration <= 0 {
		return validation.NewError("validation_duration_positive", "must be greater than zero")
	}
	return nil
}

func nonNegativeDuration(value interface{}) error {
	d, ok := value.(Duration)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a duration")
	}
	if d.Duration < 0 {
		return validation.NewError("validation_duration_negative", "must not be negative")
	}
	return nil
}
