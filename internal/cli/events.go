package cli

import (
	"fmt"
	"strings"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/me/cannonbot/pkg/model"
)

func newEventsCmd() *cobra.Command {
	var runID, kind, resource string
	var limit int
	var runs bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query the event journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openJournal(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			w := cmd.OutOrStdout()

			if runs {
				list, err := st.Runs(ctx)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				if len(list) == 0 {
					fmt.Fprintln(w, "No runs found.")
					return nil
				}
				out := []string{"RUN | SOURCE | LABEL | PERIOD | STARTED | EVENTS"}
				for _, r := range list {
					out = append(out, fmt.Sprintf("%s | %s | %s | %s | %s | %d",
						r.ID, r.Source, r.Label, r.Period, r.StartedAt.Format("2006-01-02 15:04:05"), r.Events))
				}
				fmt.Fprintf(w, "%s\n", columnize.SimpleFormat(out))
				return nil
			}

			filter := model.EventFilter{
				RunID:    runID,
				Kind:     model.EventKind(kind),
				Resource: model.ResourceID(resource),
				Limit:    limit,
			}
			if filter.Kind != "" && !filter.Kind.Valid() {
				return fmt.Errorf("unknown event kind %q", kind)
			}
			records, err := st.List(ctx, filter)
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(w, "No events found.")
				return nil
			}

			out := []string{"SEQ | RUN | TICK | CLOCK | KIND | ACTION | RESOURCES | DETAIL"}
			for _, rec := range records {
				res := make([]string, len(rec.Resources))
				for i, id := range rec.Resources {
					res[i] = string(id)
				}
				out = append(out, fmt.Sprintf("%d | %s | %d | %s | %s | %s | %s | %s",
					rec.Seq, rec.RunID, rec.Tick, rec.Clock, rec.Kind, rec.Action, strings.Join(res, ","), rec.Detail))
			}
			fmt.Fprintf(w, "%s\n", columnize.SimpleFormat(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only events of this run")
	cmd.Flags().StringVar(&kind, "kind", "", "Only events of this kind")
	cmd.Flags().StringVar(&resource, "resource", "", "Only events touching this resource")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of events (newest kept)")
	cmd.Flags().BoolVar(&runs, "runs", false, "List runs instead of events")

	return cmd
}
