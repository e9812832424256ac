package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bookclub/raffle/internal/config"
	"github.com/bookclub/raffle/internal/metrics"
	"github.com/bookclub/raffle/internal/persist"
	"github.com/bookclub/raffle/internal/raffle"
	"github.com/bookclub/raffle/internal/store"
	"github.com/bookclub/raffle/internal/store/redisstore"
)

// app is the per-command wiring: config, store, adapter and metrics.
type app struct {
	opts     *RootOptions
	cfg      config.Config
	logger   *slog.Logger
	out      *OutputFormatter
	kv       persist.KV
	journal  *store.Store // nil unless the sqlite driver is used
	closer   io.Closer
	adapter  *persist.Adapter
	registry *prometheus.Registry
	recorder *metrics.Recorder
}

// newLogger builds the text logger on w. Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// openApp loads config and opens the configured store.
// Failures are command errors.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	logWriter := opts.LogWriter
	if logWriter == nil {
		logWriter = cmd.ErrOrStderr()
	}
	logger := newLogger(logWriter, opts.Verbose)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		_ = out.Fail(err)
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DB != "" {
		cfg.Storage.Path = opts.DB
	}

	a := &app{
		opts:     opts,
		cfg:      cfg,
		logger:   logger,
		out:      out,
		registry: prometheus.NewRegistry(),
	}
	a.recorder = metrics.New(a.registry)

	ctx := commandContext(cmd)
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		logger.Debug("connecting to redis", "addr", cfg.Storage.RedisAddr)
		rs, err := redisstore.Dial(ctx, cfg.Storage.RedisAddr)
		if err != nil {
			_ = out.Error("COMMAND", err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "failed to open store", err)
		}
		a.kv, a.closer = rs, rs
	default:
		logger.Debug("opening database", "path", cfg.Storage.Path)
		st, err := store.Open(cfg.Storage.Path, store.WithLogger(logger))
		if err != nil {
			_ = out.Error("COMMAND", err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "failed to open store", err)
		}
		a.kv, a.closer, a.journal = st, st, st
	}

	a.adapter = persist.New(a.kv, cfg.TotalNumbers,
		persist.WithKey(cfg.Storage.Key),
		persist.WithLogger(logger),
	)
	return a, nil
}

// Close releases the store.
func (a *app) Close() {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		a.logger.Error("error closing store", "error", err)
	}
}

// workflow loads the stored snapshot and builds a Workflow that reports
// to the metrics recorder and, with sqlite, the journal.
func (a *app) workflow(ctx context.Context) (*raffle.Workflow, error) {
	snap, err := a.adapter.Load(ctx)
	if err != nil {
		_ = a.out.Error("COMMAND", err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}

	opts := []raffle.Option{
		raffle.WithLogger(a.logger),
		raffle.WithObserver(a.recorder),
	}
	if a.journal != nil {
		opts = append(opts, raffle.WithObserver(a.journal))
	}
	if a.opts.IDs != nil {
		opts = append(opts, raffle.WithIDGenerator(a.opts.IDs))
	}
	if a.opts.Clock != nil {
		opts = append(opts, raffle.WithClock(a.opts.Clock))
	}

	w, err := raffle.New(a.cfg.Raffle(), snap, a.adapter, opts...)
	if err != nil {
		return nil, a.out.Fail(err)
	}
	a.logger.Debug("workflow ready", "size", w.Size(), "reservations", len(snap.Reservations))
	return w, nil
}

// formatAmount renders m in the configured locale and currency.
func (a *app) formatAmount(m raffle.Money) string {
	return m.Format(a.cfg.Locale, a.cfg.Currency)
}

// plainAmount renders m with two decimals and the currency code.
func (a *app) plainAmount(m raffle.Money) string {
	return fmt.Sprintf("%s %s", m, a.cfg.Currency)
}

// withApp opens the app, runs fn and closes the store.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(commandContext(cmd), a)
}

// withWorkflow is withApp plus a loaded Workflow.
func withWorkflow(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app, w *raffle.Workflow) error) error {
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		w, err := a.workflow(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, a, w)
	})
}

// commandContext returns the command's context, or Background if unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
