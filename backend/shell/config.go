package shell

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// LocalHost selects local execution
const LocalHost = "localhost"

// Config configures command execution
type Config struct {
	// Host is localhost or host[:port] reached over ssh
	Host string `json:"host,omitempty" yaml:"host,omitempty" mapstructure:"host"`
	// Credentials names the scy secret holding ssh credentials
	Credentials string            `json:"credentials,omitempty" yaml:"credentials,omitempty" mapstructure:"credentials"`
	TimeoutMs   int               `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty" mapstructure:"timeoutMs"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty" mapstructure:"env"`
}

// DefaultConfig runs commands locally with a one minute timeout
func DefaultConfig() Config {
	return Config{Host: LocalHost, TimeoutMs: 60000}
}

// Validate checks the config
func (c Config) Validate() error {
	if c.TimeoutMs < 0 {
		return fmt.Errorf("shell: negative timeout %d: %w", c.TimeoutMs, errdefs.ErrInvalidArgument)
	}
	return nil
}

// IsLocal returns true for local execution
func (c Config) IsLocal() bool {
	return c.Host == "" || c.Host == LocalHost
}
