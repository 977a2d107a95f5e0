package command

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/diskor"
	"gopkg.in/yaml.v3"
)

func newProbeCommand(root *rootOptions) *cobra.Command {
	timeout := time.Minute
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe storage and print the device model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			return probe(cmd.Context(), root, cfg, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "probe timeout")
	return cmd
}

func probe(ctx context.Context, root *rootOptions, cfg *diskor.Config, timeout time.Duration, options ...diskor.Option) error {
	srv, err := diskor.NewFromConfig(ctx, cfg, options...)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Shutdown(ctx) }()
	if err = srv.Start(ctx); err != nil {
		return err
	}
	model, err := srv.Reset(ctx, timeout)
	if err != nil {
		return err
	}
	encoder := yaml.NewEncoder(root.out)
	encoder.SetIndent(2)
	if err = encoder.Encode(model); err != nil {
		return err
	}
	return encoder.Close()
}
