package raffle

import (
	"context"
	"time"
)

// EventKind names a Workflow outcome.
type EventKind string

const (
	EventReserved EventKind = "reserved"
	EventApproved EventKind = "approved"
	EventRejected EventKind = "rejected"
	// EventRefused is emitted when a reservation fails because numbers are taken.
	EventRefused EventKind = "refused"
)

// Event describes one applied (or refused) Workflow operation.
// ReservationID is empty for refused events.
type Event struct {
	Kind          EventKind
	ReservationID string
	HolderID      string
	Numbers       []int
	Amount        Money
	At            time.Time
}

// Observer receives Workflow events after the state change is applied.
//
// Observe is called with the Workflow lock held, so implementations must
// not call back into the Workflow. Observers cannot fail an operation;
// they log their own errors.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) {
	f(ctx, ev)
}
