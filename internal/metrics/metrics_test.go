package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookclub/raffle/internal/raffle"
)

func TestRecorder_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)
	ctx := context.Background()

	rec.Observe(ctx, raffle.Event{Kind: raffle.EventReserved, Numbers: []int{1, 2, 3}})
	rec.Observe(ctx, raffle.Event{Kind: raffle.EventReserved, Numbers: []int{4}})
	rec.Observe(ctx, raffle.Event{Kind: raffle.EventRefused, Numbers: []int{4}})
	rec.Observe(ctx, raffle.Event{Kind: raffle.EventApproved, Numbers: []int{1, 2, 3}})

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.reservations.WithLabelValues("reserved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.reservations.WithLabelValues("refused")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.reservations.WithLabelValues("approved")))
	assert.Equal(t, 4.0, testutil.ToFloat64(rec.numbers.WithLabelValues("reserved")))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.numbers.WithLabelValues("approved")))
}

func TestRecorder_ObserveLedger(t *testing.T) {
	rec := New(prometheus.NewRegistry())

	rec.ObserveLedger(context.Background(), []raffle.Reservation{
		{ID: "r3", Numbers: []int{5}, Status: raffle.ReservationPending},
		{ID: "r2", Numbers: []int{3, 4}, Status: raffle.ReservationRejected},
		{ID: "r1", Numbers: []int{1, 2}, Status: raffle.ReservationApproved},
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(rec.reservations.WithLabelValues("reserved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.reservations.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.reservations.WithLabelValues("rejected")))
	assert.Equal(t, 5.0, testutil.ToFloat64(rec.numbers.WithLabelValues("reserved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.numbers.WithLabelValues("rejected")))
	assert.Equal(t, 3, testutil.CollectAndCount(rec.reservations), "no refused series")
}

func TestRecorder_SetPool(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.SetPool(raffle.Stats{Free: 7, Pending: 2, Sold: 1, PendingAmount: 400, SoldAmount: 200})
	rec.SetPool(raffle.Stats{Free: 6, Pending: 3, Sold: 1, PendingAmount: 600, SoldAmount: 200})

	assert.Equal(t, 6.0, testutil.ToFloat64(rec.tickets.WithLabelValues("free")))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.tickets.WithLabelValues("pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.tickets.WithLabelValues("sold")))
	assert.Equal(t, 600.0, testutil.ToFloat64(rec.amount.WithLabelValues("pending")))
	assert.Equal(t, 200.0, testutil.ToFloat64(rec.amount.WithLabelValues("sold")))
}

func TestRecorder_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

// Driving a real workflow keeps the gauges in line with Stats.
func TestRecorder_WithWorkflow(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	rec := New(reg)

	snap, err := raffle.FreshSnapshot(4)
	require.NoError(t, err)
	w, err := raffle.New(
		raffle.Config{TotalNumbers: 4, PricePerNumber: raffle.MustParseMoney("1.00")},
		snap, nil,
		raffle.WithClock(raffle.FixedClock{T: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}),
		raffle.WithObserver(rec),
	)
	require.NoError(t, err)

	id, err := w.CreateReservation(ctx, "u1", "Ana", []int{1, 2})
	require.NoError(t, err)
	_, err = w.CreateReservation(ctx, "u2", "Bia", []int{2})
	require.Error(t, err)
	require.NoError(t, w.ApproveReservation(ctx, id))
	rec.SetPool(w.Stats())

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.reservations.WithLabelValues("refused")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.tickets.WithLabelValues("free")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.tickets.WithLabelValues("sold")))
	assert.Equal(t, 200.0, testutil.ToFloat64(rec.amount.WithLabelValues("sold")))
}

func TestRecorder_Textfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)
	rec.SetPool(raffle.Stats{Free: 10})

	path := filepath.Join(t.TempDir(), "raffle.prom")
	require.NoError(t, prometheus.WriteToTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `raffle_tickets{status="free"} 10`))
}
