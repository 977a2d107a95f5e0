// Package shell implements the backends with system commands executed through
// gosh, locally or over ssh.
package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/containerd/log"
	"github.com/viant/diskor/backend"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
)

// Runner executes one command and returns its output and exit status
type Runner interface {
	Run(ctx context.Context, command string, options ...runner.Option) (string, int, error)
}

// Service executes backend commands
type Service struct {
	config Config
	runner Runner
	closer func() error
}

// New opens a gosh session for config
func New(ctx context.Context, config Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var options []runner.Option
	if len(config.Env) > 0 {
		options = append(options, runner.WithEnvironment(config.Env))
	}
	var (
		session *gosh.Service
		err     error
	)
	if config.IsLocal() {
		session, err = gosh.New(ctx, local.New(options...))
	} else {
		var clientConfig *ssh.ClientConfig
		if clientConfig, err = sshConfig(ctx, config.Credentials); err != nil {
			return nil, fmt.Errorf("failed to get ssh config: %w", err)
		}
		host := config.Host
		if !strings.Contains(host, ":") {
			host += ":22"
		}
		session, err = gosh.New(ctx, rssh.New(host, clientConfig, options...))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open shell on %v: %w", config.Host, err)
	}
	return &Service{config: config, runner: session, closer: session.Close}, nil
}

// NewWithRunner creates a service on top of an existing runner
func NewWithRunner(config Config, aRunner Runner) *Service {
	return &Service{config: config, runner: aRunner}
}

func sshConfig(ctx context.Context, credentials string) (*ssh.ClientConfig, error) {
	if credentials == "" {
		credentials = LocalHost
	}
	generic, err := secret.New().GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// Close releases the session
func (s *Service) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// run executes command and fails on a non zero exit status
func (s *Service) run(ctx context.Context, command string) (string, error) {
	var options []runner.Option
	if s.config.TimeoutMs > 0 {
		options = append(options, runner.WithTimeout(s.config.TimeoutMs))
	}
	log.G(ctx).WithField("command", command).Debug("running")
	output, status, err := s.runner.Run(ctx, command, options...)
	if err != nil {
		return "", fmt.Errorf("%w: %v: %v", backend.ErrCommand, command, err)
	}
	if status != 0 {
		return "", fmt.Errorf("%w: %v exited with %d: %v", backend.ErrCommand, command, status, strings.TrimSpace(output))
	}
	return output, nil
}
