package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPressCmd() *cobra.Command {
	var release bool

	cmd := &cobra.Command{
		Use:   "press <button>",
		Short: "Press (or release) a gamepad button on a running simulated robot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			act := "press"
			if release {
				act = "release"
			}
			if err := client.Post(cmd.Context(), "/api/v1/input/buttons/"+args[0], map[string]string{"action": act}, nil); err != nil {
				return fmt.Errorf("%s %s: %w", act, args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], act)
			return nil
		},
	}

	cmd.Flags().BoolVar(&release, "release", false, "Release instead of press")

	return cmd
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <handle>",
		Short: "Cancel an active action on a running robot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseUint(args[0], 10, 64); err != nil {
				return fmt.Errorf("invalid handle %q", args[0])
			}
			var data struct {
				Action string `json:"action"`
			}
			if err := client.Post(cmd.Context(), "/api/v1/actions/"+args[0]+"/cancel", nil, &data); err != nil {
				return fmt.Errorf("cancel action: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Action %s (%s): cancelled\n", args[0], data.Action)
			return nil
		},
	}
}
