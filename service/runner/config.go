package runner

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// DefaultPathPrefix is the object path prefix of task handles
const DefaultPathPrefix = "/org/viant/Diskor/Task"

// Config represents runner configuration
type Config struct {
	// Workers is the number of goroutines running tasks
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
	// QueueBuffer is the capacity of the start queue
	QueueBuffer int `json:"queueBuffer" yaml:"queueBuffer" mapstructure:"queueBuffer"`
	// PathPrefix is prepended to task handles
	PathPrefix string `json:"pathPrefix,omitempty" yaml:"pathPrefix,omitempty" mapstructure:"pathPrefix"`
}

// DefaultConfig returns the default runner configuration
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		QueueBuffer: 64,
		PathPrefix:  DefaultPathPrefix,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("runner: workers must be positive, got %d: %w", c.Workers, errdefs.ErrInvalidArgument)
	}
	if c.QueueBuffer <= 0 {
		return fmt.Errorf("runner: queue buffer must be positive, got %d: %w", c.QueueBuffer, errdefs.ErrInvalidArgument)
	}
	if c.PathPrefix == "" || c.PathPrefix[0] != '/' {
		return fmt.Errorf("runner: invalid path prefix %q: %w", c.PathPrefix, errdefs.ErrInvalidArgument)
	}
	return nil
}
