// Package metrics exposes raffle activity as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bookclub/raffle/internal/raffle"
)

// Recorder counts workflow events and tracks pool gauges.
// It implements raffle.Observer.
type Recorder struct {
	reservations *prometheus.CounterVec
	numbers      *prometheus.CounterVec
	tickets      *prometheus.GaugeVec
	amount       *prometheus.GaugeVec
}

// New registers the raffle metrics with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		reservations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "raffle_reservations_total",
			Help: "Reservation outcomes by kind (reserved, approved, rejected, refused).",
		}, []string{"outcome"}),
		numbers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "raffle_numbers_total",
			Help: "Ticket numbers involved in reservation outcomes.",
		}, []string{"outcome"}),
		tickets: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "raffle_tickets",
			Help: "Tickets in the pool by status.",
		}, []string{"status"}),
		amount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "raffle_amount_cents",
			Help: "Reserved amount in cents by ticket status.",
		}, []string{"status"}),
	}
}

// Observe counts one workflow event.
func (r *Recorder) Observe(_ context.Context, ev raffle.Event) {
	outcome := string(ev.Kind)
	r.reservations.WithLabelValues(outcome).Inc()
	r.numbers.WithLabelValues(outcome).Add(float64(len(ev.Numbers)))
}

// ObserveLedger counts the outcomes recorded in a ledger: one reserved
// event per reservation plus its approval or rejection. Refused attempts
// leave no ledger entry and are not counted.
func (r *Recorder) ObserveLedger(ctx context.Context, reservations []raffle.Reservation) {
	for _, res := range reservations {
		r.Observe(ctx, raffle.Event{Kind: raffle.EventReserved, ReservationID: res.ID, Numbers: res.Numbers})
		switch res.Status {
		case raffle.ReservationApproved:
			r.Observe(ctx, raffle.Event{Kind: raffle.EventApproved, ReservationID: res.ID, Numbers: res.Numbers})
		case raffle.ReservationRejected:
			r.Observe(ctx, raffle.Event{Kind: raffle.EventRejected, ReservationID: res.ID, Numbers: res.Numbers})
		}
	}
}

// SetPool refreshes the pool gauges from s.
func (r *Recorder) SetPool(s raffle.Stats) {
	r.tickets.WithLabelValues(raffle.TicketFree.String()).Set(float64(s.Free))
	r.tickets.WithLabelValues(raffle.TicketPending.String()).Set(float64(s.Pending))
	r.tickets.WithLabelValues(raffle.TicketSold.String()).Set(float64(s.Sold))
	r.amount.WithLabelValues(raffle.TicketPending.String()).Set(float64(s.PendingAmount))
	r.amount.WithLabelValues(raffle.TicketSold.String()).Set(float64(s.SoldAmount))
}
