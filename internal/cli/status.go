package cli

import (
	"fmt"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/me/cannonbot/internal/scheduler"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show resource owners and active actions of a running robot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var resources []scheduler.ResourceStatus
			if err := client.Get(ctx, "/api/v1/resources", &resources); err != nil {
				return fmt.Errorf("get resources: %w", err)
			}
			var actions []scheduler.ActionStatus
			if err := client.Get(ctx, "/api/v1/actions", &actions); err != nil {
				return fmt.Errorf("get actions: %w", err)
			}

			w := cmd.OutOrStdout()
			out := []string{"RESOURCE | OWNER | HANDLE | FALLBACK"}
			for _, rs := range resources {
				owner := rs.Owner
				if owner == "" {
					owner = "-"
				}
				fb := rs.Fallback
				if rs.InFallback {
					fb += " (active)"
				}
				out = append(out, fmt.Sprintf("%s | %s | %d | %s", rs.ID, owner, rs.OwnerHandle, fb))
			}
			fmt.Fprintf(w, "%s\n\n", columnize.SimpleFormat(out))

			out = []string{"HANDLE | ACTION | KIND | STATE | SINCE TICK | DETAIL"}
			for _, a := range actions {
				out = append(out, fmt.Sprintf("%d | %s | %s | %s | %d | %s",
					a.Handle, a.Tree.Name, a.Tree.Kind, a.Tree.State, a.StartedTick, a.Tree.Detail))
			}
			fmt.Fprintf(w, "%s\n", columnize.SimpleFormat(out))
			return nil
		},
	}
}
