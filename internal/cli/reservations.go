package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookclub/raffle/internal/raffle"
)

// ReserveOptions holds flags for the reserve command.
type ReserveOptions struct {
	*RootOptions
	Holder string
	Name   string
}

// NewReserveCommand creates the reserve command.
func NewReserveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReserveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reserve <number>...",
		Short: "Reserve numbers for a holder",
		Long: `Reserve one or more free numbers for a holder.

The reservation is created Pending and its numbers are held until it is
approved or rejected. If any number is not free, nothing is reserved.

Example:
  raffle reserve --holder u1 --name "Ana" 7 13 21`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseNumbers(args)
			if err != nil {
				return err
			}
			return withWorkflow(cmd, rootOpts, func(ctx context.Context, a *app, w *raffle.Workflow) error {
				id, err := w.CreateReservation(ctx, opts.Holder, opts.Name, numbers)
				if err != nil {
					// A persistence error still carries the new id.
					return a.out.Fail(err)
				}
				r, err := w.Reservation(id)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.out.Success(newReservationView(r), func(out io.Writer) {
					fmt.Fprintf(out, "Reserved %s for %s (%s): numbers %s, amount %s (%s)\n",
						r.ID, r.HolderName, r.HolderID, joinNumbers(r.Numbers, ", "), a.plainAmount(r.Amount), r.Status)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Holder, "holder", "", "holder id (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "holder display name")
	_ = cmd.MarkFlagRequired("holder")

	return cmd
}

// NewApproveCommand creates the approve command.
func NewApproveCommand(opts *RootOptions) *cobra.Command {
	return newSettleCommand(opts, "approve", "Approve a pending reservation and sell its numbers",
		func(ctx context.Context, w *raffle.Workflow, id string) error {
			return w.ApproveReservation(ctx, id)
		})
}

// NewRejectCommand creates the reject command.
func NewRejectCommand(opts *RootOptions) *cobra.Command {
	return newSettleCommand(opts, "reject", "Reject a pending reservation and free its numbers",
		func(ctx context.Context, w *raffle.Workflow, id string) error {
			return w.RejectReservation(ctx, id)
		})
}

func newSettleCommand(opts *RootOptions, use, short string, settle func(context.Context, *raffle.Workflow, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <reservation-id>",
		Short: short,
		Long: short + `.

Settling a reservation that is already approved or rejected changes
nothing and succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return withWorkflow(cmd, opts, func(ctx context.Context, a *app, w *raffle.Workflow) error {
				if err := settle(ctx, w, id); err != nil {
					return a.out.Fail(err)
				}
				r, err := w.Reservation(id)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.out.Success(newReservationView(r), func(out io.Writer) {
					fmt.Fprintf(out, "Reservation %s: %s\n", r.ID, r.Status)
				})
			})
		},
	}
}

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Holder string
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reject every pending reservation of a holder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkflow(cmd, rootOpts, func(ctx context.Context, a *app, w *raffle.Workflow) error {
				ids, err := w.ResetPendingForHolder(ctx, opts.Holder)
				if err != nil {
					return a.out.Fail(err)
				}
				data := map[string]any{"holder_id": strings.TrimSpace(opts.Holder), "rejected": ids}
				return a.out.Success(data, func(out io.Writer) {
					if len(ids) == 0 {
						fmt.Fprintf(out, "No pending reservations for %s\n", opts.Holder)
						return
					}
					fmt.Fprintf(out, "Rejected %d pending reservation(s) of %s: %s\n",
						len(ids), opts.Holder, strings.Join(ids, ", "))
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Holder, "holder", "", "holder id (required)")
	_ = cmd.MarkFlagRequired("holder")

	return cmd
}

// ListOptions holds flags for the reservations command.
type ListOptions struct {
	*RootOptions
	Holder string
	Status string
}

// NewReservationsCommand creates the reservations command.
func NewReservationsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "List reservations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				status    raffle.ReservationStatus
				hasStatus bool
			)
			if opts.Status != "" {
				s, err := raffle.ParseReservationStatus(opts.Status)
				if err != nil {
					return fmt.Errorf("invalid --status: %w", err)
				}
				status, hasStatus = s, true
			}

			return withWorkflow(cmd, rootOpts, func(ctx context.Context, a *app, w *raffle.Workflow) error {
				var list []raffle.Reservation
				if opts.Holder != "" {
					list = w.ReservationsByHolder(opts.Holder)
				} else {
					list = w.Reservations()
				}
				if hasStatus {
					filtered := list[:0]
					for _, r := range list {
						if r.Status == status {
							filtered = append(filtered, r)
						}
					}
					list = filtered
				}

				return a.out.Success(newReservationViews(list), func(out io.Writer) {
					if len(list) == 0 {
						fmt.Fprintln(out, "No reservations")
						return
					}
					for _, r := range list {
						fmt.Fprintf(out, "%s  %-8s  %s  %s  [%s]  %s  %s\n",
							r.ID, r.Status, r.HolderID, r.HolderName,
							joinNumbers(r.Numbers, " "), r.Amount, r.CreatedAt.UTC().Format(timeLayout))
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Holder, "holder", "", "only this holder's reservations")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only reservations in this status (pending|approved|rejected)")

	return cmd
}
