package diskor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/viant/diskor/backend/shell"
	"github.com/viant/diskor/bus"
	"github.com/viant/diskor/service/runner"
	"github.com/viant/diskor/service/storage"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, for example DISKOR_RUNNER_WORKERS
const EnvPrefix = "DISKOR"

// Backend kinds
const (
	BackendMemory = "memory"
	BackendShell  = "shell"
)

// Bus addresses
const (
	BusSystem  = "system"
	BusSession = "session"
)

// Config is a serialisable representation of the daemon configuration. It can
// be populated from YAML, JSON or DISKOR_ environment variables. The zero value
// of a nested field inherits its package default.
type Config struct {
	Runner  runner.Config `json:"runner" yaml:"runner" mapstructure:"runner"`
	Sysroot string        `json:"sysroot" yaml:"sysroot" mapstructure:"sysroot"`
	Backend BackendConfig `json:"backend" yaml:"backend" mapstructure:"backend"`
	Journal JournalConfig `json:"journal" yaml:"journal" mapstructure:"journal"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Bus     BusConfig     `json:"bus" yaml:"bus" mapstructure:"bus"`
}

// BackendConfig selects the storage and zFCP backends
type BackendConfig struct {
	// Kind is memory or shell
	Kind  string       `json:"kind" yaml:"kind" mapstructure:"kind"`
	Shell shell.Config `json:"shell" yaml:"shell" mapstructure:"shell"`
}

// JournalConfig enables the task journal when URL is set
type JournalConfig struct {
	URL string `json:"url,omitempty" yaml:"url" mapstructure:"url"`
}

// LogConfig controls containerd/log level and format
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// TracingConfig controls the OpenTelemetry stdout exporter
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Service    string `json:"service" yaml:"service" mapstructure:"service"`
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile" mapstructure:"outputFile"`
}

// MetricsConfig exposes prometheus metrics on Address when set
type MetricsConfig struct {
	Address string `json:"address,omitempty" yaml:"address" mapstructure:"address"`
	Runtime bool   `json:"runtime" yaml:"runtime" mapstructure:"runtime"`
}

// BusConfig selects the message bus and the requested name
type BusConfig struct {
	Address string `json:"address" yaml:"address" mapstructure:"address"`
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
}

// DefaultConfig returns a Config populated with the package defaults. Callers
// may modify the returned struct before passing it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Runner:  runner.DefaultConfig(),
		Sysroot: storage.DefaultSysroot,
		Backend: BackendConfig{Kind: BackendShell, Shell: shell.DefaultConfig()},
		Log:     LogConfig{Level: "info", Format: string(log.TextFormat)},
		Tracing: TracingConfig{Service: "diskor"},
		Metrics: MetricsConfig{Runtime: true},
		Bus:     BusConfig{Address: BusSystem, Name: bus.ServiceName},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.Runner.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Sysroot == "" {
		errs = append(errs, fmt.Errorf("sysroot was empty"))
	}
	switch c.Backend.Kind {
	case BackendMemory:
	case BackendShell:
		if err := c.Backend.Shell.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("backend.kind: unsupported %q", c.Backend.Kind))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch log.OutputFormat(c.Log.Format) {
	case log.TextFormat, log.JSONFormat:
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}
	switch c.Bus.Address {
	case BusSystem, BusSession:
	default:
		errs = append(errs, fmt.Errorf("bus.address: unsupported %q", c.Bus.Address))
	}
	return errors.Join(errs...)
}

// ApplyLogging configures the global containerd/log logger
func (c *Config) ApplyLogging() error {
	if err := log.SetLevel(c.Log.Level); err != nil {
		return err
	}
	return log.SetFormat(log.OutputFormat(c.Log.Format))
}

// LoadConfig reads defaults, then the optional file at path, then DISKOR_
// environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	defaults, err := EncodeConfig(DefaultConfig())
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")
	// defaults register every key so that environment overrides apply
	if err = v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to read default config: %w", err)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err = v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %v: %w", path, err)
		}
	}
	cfg := &Config{}
	if err = v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DecodeConfig decodes YAML over the defaults
func DecodeConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// EncodeConfig encodes cfg as YAML
func EncodeConfig(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
