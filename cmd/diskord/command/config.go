package command

import (
	"github.com/spf13/cobra"
	"github.com/viant/diskor"
)

func newConfigCommand(root *rootOptions) *cobra.Command {
	effective := false
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := diskor.DefaultConfig()
			if effective {
				var err error
				if cfg, err = diskor.LoadConfig(root.configPath); err != nil {
					return err
				}
			}
			data, err := diskor.EncodeConfig(cfg)
			if err != nil {
				return err
			}
			_, err = root.out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&effective, "effective", false, "print the loaded configuration instead of the defaults")
	return cmd
}
