package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bookclub/raffle/internal/raffle"
)

// NewFreeCommand creates the free command.
func NewFreeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "free",
		Short: "List free numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkflow(cmd, opts, func(ctx context.Context, a *app, w *raffle.Workflow) error {
				free := w.ListFree()
				data := map[string]any{"free": free, "total": w.Size()}
				return a.out.Success(data, func(out io.Writer) {
					if len(free) == 0 {
						fmt.Fprintf(out, "No free numbers (0/%d)\n", w.Size())
						return
					}
					fmt.Fprintf(out, "Free numbers (%d/%d): %s\n", len(free), w.Size(), joinNumbers(free, ", "))
				})
			})
		},
	}
}

// NewTicketCommand creates the ticket command.
func NewTicketCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ticket <number>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseNumbers(args)
			if err != nil {
				return err
			}
			return withWorkflow(cmd, opts, func(ctx context.Context, a *app, w *raffle.Workflow) error {
				t, err := w.Ticket(numbers[0])
				if err != nil {
					return a.out.Fail(err)
				}
				return a.out.Success(newTicketView(t), func(out io.Writer) {
					if t.Status == raffle.TicketFree {
						fmt.Fprintf(out, "Ticket %d: free\n", t.Number)
						return
					}
					fmt.Fprintf(out, "Ticket %d: %s, reservation %s, holder %s (%s)\n",
						t.Number, t.Status, t.ReservationID, t.HolderName, t.HolderID)
				})
			})
		},
	}
}
