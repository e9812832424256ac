package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bookclub/raffle/internal/persist"
	"github.com/bookclub/raffle/internal/raffle"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Textfile string
}

type statsView struct {
	Total         int          `json:"total"`
	Free          int          `json:"free"`
	Pending       int          `json:"pending"`
	Sold          int          `json:"sold"`
	PendingAmount raffle.Money `json:"pending_amount"`
	SoldAmount    raffle.Money `json:"sold_amount"`
	Currency      string       `json:"currency"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the pool",
		Long: `Summarize ticket counts and reserved amounts.

With --textfile the metrics are also written in the Prometheus text
format, for the node_exporter textfile collector. Outcome counters are
rebuilt from the event journal, or from the ledger when the store keeps
no journal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkflow(cmd, rootOpts, func(ctx context.Context, a *app, w *raffle.Workflow) error {
				s := w.Stats()
				a.recorder.SetPool(s)
				if opts.Textfile != "" {
					if err := a.replayCounters(ctx, w); err != nil {
						_ = a.out.Error("COMMAND", err.Error(), nil)
						return WrapExitError(ExitCommandError, "failed to read events", err)
					}
					if err := prometheus.WriteToTextfile(opts.Textfile, a.registry); err != nil {
						_ = a.out.Error("COMMAND", err.Error(), nil)
						return WrapExitError(ExitCommandError, "failed to write textfile", err)
					}
					a.logger.Debug("metrics written", "path", opts.Textfile)
				}

				view := statsView{
					Total:         s.Free + s.Pending + s.Sold,
					Free:          s.Free,
					Pending:       s.Pending,
					Sold:          s.Sold,
					PendingAmount: s.PendingAmount,
					SoldAmount:    s.SoldAmount,
					Currency:      a.cfg.Currency.String(),
				}
				return a.out.Success(view, func(out io.Writer) {
					fmt.Fprintf(out, "Tickets: %d\n", view.Total)
					fmt.Fprintf(out, "Free:    %d\n", s.Free)
					fmt.Fprintf(out, "Pending: %d (%s)\n", s.Pending, a.formatAmount(s.PendingAmount))
					fmt.Fprintf(out, "Sold:    %d (%s)\n", s.Sold, a.formatAmount(s.SoldAmount))
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Textfile, "textfile", "", "write Prometheus metrics to this file")

	return cmd
}

// replayCounters feeds the recorded outcomes to the metrics recorder.
// Each command runs in its own process, so the counters only exist once
// rebuilt from the store.
func (a *app) replayCounters(ctx context.Context, w *raffle.Workflow) error {
	if a.journal == nil {
		a.recorder.ObserveLedger(ctx, w.Reservations())
		return nil
	}
	entries, err := a.journal.ReadEvents(ctx, "")
	if err != nil {
		return err
	}
	for _, e := range entries {
		a.recorder.Observe(ctx, e.Event)
	}
	a.logger.Debug("counters replayed", "events", len(entries))
	return nil
}

type checkView struct {
	Stored       bool     `json:"stored"`
	Consistent   bool     `json:"consistent"`
	Tickets      int      `json:"tickets"`
	Reservations int      `json:"reservations"`
	Revision     int64    `json:"revision,omitempty"`
	Problems     []string `json:"problems,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the stored snapshot",
		Long: `Verify that the stored snapshot is readable and consistent.

Other commands silently start from a fresh pool when the stored snapshot
cannot be used. check reports why instead.

Exit codes:
  0 - Snapshot consistent, or nothing stored yet
  1 - Snapshot unreadable or inconsistent
  2 - Command error (bad config, store cannot open)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				return runCheck(ctx, a)
			})
		},
	}
}

func runCheck(ctx context.Context, a *app) error {
	size := a.cfg.TotalNumbers
	doc, ok, err := a.kv.Get(ctx, a.adapter.Key())
	if err != nil {
		_ = a.out.Error("COMMAND", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}
	if !ok {
		view := checkView{Consistent: true, Tickets: size}
		return a.out.Success(view, func(out io.Writer) {
			fmt.Fprintf(out, "✓ No stored snapshot; a fresh pool of %d will be used\n", size)
		})
	}

	rev, err := a.revision(ctx)
	if err != nil {
		_ = a.out.Error("COMMAND", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read snapshot revision", err)
	}

	snap, err := persist.Decode(doc)
	if err != nil {
		return reportProblems(a, checkView{Stored: true, Revision: rev}, "✗ Snapshot unreadable", []string{err.Error()})
	}

	view := checkView{Stored: true, Tickets: len(snap.Tickets), Reservations: len(snap.Reservations), Revision: rev}
	if err := raffle.Verify(snap, size); err != nil {
		return reportProblems(a, view, "✗ Snapshot inconsistent", splitJoined(err))
	}

	view.Consistent = true
	return a.out.Success(view, func(out io.Writer) {
		fmt.Fprintf(out, "✓ Snapshot consistent (%d tickets, %d reservations, revision %d)\n", view.Tickets, view.Reservations, view.Revision)
	})
}

// revisioner is implemented by stores that count writes per key.
type revisioner interface {
	Revision(ctx context.Context, key string) (int64, error)
}

// revision returns how often the snapshot was written, or 0 when the
// store does not track it.
func (a *app) revision(ctx context.Context) (int64, error) {
	r, ok := a.kv.(revisioner)
	if !ok {
		return 0, nil
	}
	return r.Revision(ctx, a.adapter.Key())
}

func reportProblems(a *app, view checkView, headline string, problems []string) error {
	view.Problems = problems
	if a.out.Format == "json" {
		_ = a.out.Success(view, nil)
	} else {
		fmt.Fprintln(a.out.Writer, headline)
		for _, p := range problems {
			fmt.Fprintf(a.out.Writer, "  - %s\n", p)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d problem(s)", len(problems)))
}

// splitJoined flattens an errors.Join result into one message per error.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return strings.Split(err.Error(), "\n")
}
