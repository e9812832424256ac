package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

const timeLayout = time.RFC3339

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Reservation string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the event journal",
		Long: `Show recorded workflow events in order.

Every reservation, approval, rejection and refused attempt is journaled
next to the snapshot. Only the sqlite driver keeps a journal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if a.journal == nil {
					_ = a.out.Error("COMMAND", "history requires the sqlite storage driver", nil)
					return NewExitError(ExitCommandError, "no journal for driver "+a.cfg.Storage.Driver)
				}
				entries, err := a.journal.ReadEvents(ctx, opts.Reservation)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.out.Success(newEventViews(entries), func(out io.Writer) {
					if len(entries) == 0 {
						fmt.Fprintln(out, "No events")
						return
					}
					for _, e := range entries {
						id := e.ReservationID
						if id == "" {
							id = "-"
						}
						fmt.Fprintf(out, "#%d  %-8s  %s  %s  [%s]  %s  %s\n",
							e.Seq, e.Kind, id, e.HolderID,
							joinNumbers(e.Numbers, " "), e.Amount, e.At.UTC().Format(timeLayout))
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Reservation, "reservation", "", "only events of this reservation")

	return cmd
}
