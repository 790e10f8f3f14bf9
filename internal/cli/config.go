package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/cannonbot/internal/config"
)

func newConfigCmd() *cobra.Command {
	var validateOnly bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Prints the configuration after applying defaults, the --config file and
CANNONBOT_* environment overrides. With --validate only reports whether it
is valid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load has already validated; flags may have changed the log settings.
			if err := config.Validate(cfg); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if validateOnly {
				fmt.Fprintln(w, "config OK")
				return nil
			}
			data, err := config.YAML(cfg)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&validateOnly, "validate", false, "Only validate the configuration")

	return cmd
}
