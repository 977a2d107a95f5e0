// Package command implements the diskord command line.
package command

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/viant/diskor"
)

// Version is set at build time
var Version = "dev"

type rootOptions struct {
	configPath string
	out        io.Writer
}

func (o *rootOptions) config() (*diskor.Config, error) {
	cfg, err := diskor.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if err = cfg.ApplyLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New returns the diskord root command writing its output to out
func New(out io.Writer) *cobra.Command {
	options := &rootOptions{out: out}
	cmd := &cobra.Command{
		Use:           "diskord",
		Short:         "Storage configuration service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVarP(&options.configPath, "config", "c", "", "configuration file (YAML)")
	cmd.AddCommand(
		newServeCommand(options),
		newProbeCommand(options),
		newConfigCommand(options),
	)
	return cmd
}
