package raffle

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Persister stores the combined Pool and Ledger state after each transition.
type Persister interface {
	Save(ctx context.Context, snap Snapshot) error
}

// Config holds the process-wide raffle constants.
type Config struct {
	// TotalNumbers is the pool size N (TOTAL_NUMBERS).
	TotalNumbers int

	// PricePerNumber is charged per reserved number (PRICE_PER_NUMBER).
	PricePerNumber Money
}

// Workflow applies reservation transitions to a Pool and a Ledger together.
//
// Every operation runs under a single mutex: the availability check and the
// ticket update in CreateReservation happen in one critical section, so two
// callers in the same process can never both claim a number.
//
// The Workflow owns its Pool and Ledger. Reads return copies.
type Workflow struct {
	mu        sync.Mutex
	pool      *Pool
	ledger    *Ledger
	price     Money
	persister Persister
	ids       IDGenerator
	clock     Clock
	logger    *slog.Logger
	observers []Observer
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithIDGenerator overrides the reservation id generator (default UUIDv7).
func WithIDGenerator(g IDGenerator) Option {
	return func(w *Workflow) {
		if g != nil {
			w.ids = g
		}
	}
}

// WithClock overrides the clock used for CreatedAt and event times.
func WithClock(c Clock) Option {
	return func(w *Workflow) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithObserver registers an observer. Observers are called in
// registration order.
func WithObserver(o Observer) Option {
	return func(w *Workflow) {
		if o != nil {
			w.observers = append(w.observers, o)
		}
	}
}

// New creates a Workflow from a snapshot.
//
// The snapshot must pass Verify for cfg.TotalNumbers; use FreshSnapshot
// for a new raffle. A nil persister keeps the state in memory only.
func New(cfg Config, snap Snapshot, p Persister, opts ...Option) (*Workflow, error) {
	if cfg.TotalNumbers <= 0 {
		return nil, NewConfigError("pool size must be positive, got %d", cfg.TotalNumbers)
	}
	if cfg.PricePerNumber < 0 {
		return nil, NewConfigError("price per number must not be negative, got %s", cfg.PricePerNumber)
	}
	if err := Verify(snap, cfg.TotalNumbers); err != nil {
		return nil, &Error{Code: CodeConfig, Message: "snapshot is inconsistent", Err: err}
	}
	pool, ledger, err := restore(snap, cfg.TotalNumbers)
	if err != nil {
		return nil, err
	}

	w := &Workflow{
		pool:      pool,
		ledger:    ledger,
		price:     cfg.PricePerNumber,
		persister: p,
		ids:       UUIDv7Generator{},
		clock:     SystemClock{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// CreateReservation claims numbers for a holder.
//
// Numbers are sorted and deduplicated. If any of them is not Free the call
// fails with NUMBERS_UNAVAILABLE and nothing changes. On success the
// reservation is Pending, its tickets are Pending, and the new id is
// returned. A PERSISTENCE error is returned together with the id when the
// snapshot write fails.
func (w *Workflow) CreateReservation(ctx context.Context, holderID, holderName string, numbers []int) (string, error) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return "", newInvalidRequest("holder id is required")
	}
	if len(numbers) == 0 {
		return "", newInvalidRequest("at least one number is required")
	}
	nums := slices.Clone(numbers)
	slices.Sort(nums)
	nums = slices.Compact(nums)
	holderName = norm.NFC.String(strings.TrimSpace(holderName))

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	taken, err := w.pool.unavailable(nums)
	if err != nil {
		return "", err
	}
	if len(taken) > 0 {
		w.logger.Warn("reservation refused", "holder_id", holderID, "numbers", nums, "taken", taken)
		w.emit(ctx, Event{Kind: EventRefused, HolderID: holderID, Numbers: taken, At: now})
		return "", newUnavailable(taken)
	}

	r := Reservation{
		ID:         w.ids.Generate(),
		HolderID:   holderID,
		HolderName: holderName,
		Numbers:    nums,
		Amount:     w.price.Times(len(nums)),
		Status:     ReservationPending,
		CreatedAt:  now,
	}
	if err := w.ledger.Append(r); err != nil {
		return "", err
	}
	w.pool.hold(r)
	w.logger.Debug("reservation created", "reservation_id", r.ID, "holder_id", holderID, "numbers", nums, "amount", r.Amount.String())

	saveErr := w.save(ctx, r.ID)
	w.emit(ctx, Event{
		Kind:          EventReserved,
		ReservationID: r.ID,
		HolderID:      r.HolderID,
		Numbers:       slices.Clone(nums),
		Amount:        r.Amount,
		At:            now,
	})
	if saveErr != nil {
		return r.ID, saveErr
	}
	return r.ID, nil
}

// ApproveReservation marks a Pending reservation Approved and its tickets
// Sold. It is a no-op for reservations that are already Approved or
// Rejected.
func (w *Workflow) ApproveReservation(ctx context.Context, id string) error {
	return w.settle(ctx, id, ReservationApproved)
}

// RejectReservation marks a Pending reservation Rejected and frees its
// tickets. It is a no-op for reservations that are already Approved or
// Rejected.
func (w *Workflow) RejectReservation(ctx context.Context, id string) error {
	return w.settle(ctx, id, ReservationRejected)
}

// ResetPendingForHolder rejects every Pending reservation of holderID and
// frees their tickets. Returns the rejected ids, most recent first.
// Reservations of other holders are untouched.
func (w *Workflow) ResetPendingForHolder(ctx context.Context, holderID string) ([]string, error) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return nil, newInvalidRequest("holder id is required")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	var rejected []Reservation
	for _, r := range w.ledger.ByHolder(holderID) {
		if r.Status != ReservationPending {
			continue
		}
		rejected = append(rejected, w.apply(r, ReservationRejected))
	}
	if len(rejected) == 0 {
		return []string{}, nil
	}

	ids := make([]string, len(rejected))
	for i, r := range rejected {
		ids[i] = r.ID
	}
	w.logger.Debug("pending reservations reset", "holder_id", holderID, "reservations", ids)

	saveErr := w.save(ctx, "")
	for _, r := range rejected {
		w.emit(ctx, w.event(EventRejected, r, now))
	}
	if saveErr != nil {
		return ids, saveErr
	}
	return ids, nil
}

func (w *Workflow) settle(ctx context.Context, id string, to ReservationStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, ok := w.ledger.FindByID(id)
	if !ok {
		return newReservationNotFound(id)
	}
	if r.Status.Terminal() {
		w.logger.Debug("reservation already settled", "reservation_id", id, "status", r.Status.String(), "requested", to.String())
		return nil
	}

	now := w.clock.Now()
	r = w.apply(r, to)
	w.logger.Debug("reservation settled", "reservation_id", id, "status", to.String(), "numbers", r.Numbers)

	saveErr := w.save(ctx, id)
	kind := EventApproved
	if to == ReservationRejected {
		kind = EventRejected
	}
	w.emit(ctx, w.event(kind, r, now))
	return saveErr
}

// apply moves a Pending reservation to a terminal status and updates its
// tickets in the same step. Caller holds w.mu.
func (w *Workflow) apply(r Reservation, to ReservationStatus) Reservation {
	updated, err := w.ledger.Update(r.ID, func(res *Reservation) {
		res.Status = to
	})
	if err != nil {
		// r came from this ledger under the same lock.
		panic(err)
	}
	switch to {
	case ReservationApproved:
		w.pool.sell(r.Numbers)
	case ReservationRejected:
		w.pool.release(r.Numbers)
	}
	return updated
}

func (w *Workflow) event(kind EventKind, r Reservation, at time.Time) Event {
	return Event{
		Kind:          kind,
		ReservationID: r.ID,
		HolderID:      r.HolderID,
		Numbers:       slices.Clone(r.Numbers),
		Amount:        r.Amount,
		At:            at,
	}
}

func (w *Workflow) emit(ctx context.Context, ev Event) {
	for _, o := range w.observers {
		o.Observe(ctx, ev)
	}
}

// save writes the current state. Caller holds w.mu.
func (w *Workflow) save(ctx context.Context, reservationID string) error {
	if w.persister == nil {
		return nil
	}
	if err := w.persister.Save(ctx, w.snapshotLocked()); err != nil {
		w.logger.Warn("snapshot not saved", "reservation_id", reservationID, "error", err)
		return newPersistenceError(reservationID, err)
	}
	return nil
}

func (w *Workflow) snapshotLocked() Snapshot {
	return Snapshot{
		Tickets:      w.pool.Tickets(),
		Reservations: w.ledger.List(),
	}
}

// Snapshot returns a copy of the full state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Price returns the configured price per number.
func (w *Workflow) Price() Money {
	return w.price
}

// Size returns the pool size.
func (w *Workflow) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pool.Size()
}

// ListFree returns the Free numbers, ascending.
func (w *Workflow) ListFree() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pool.ListFree()
}

// Ticket returns the ticket for number n.
func (w *Workflow) Ticket(n int) (Ticket, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pool.Get(n)
}

// Reservation returns the reservation with the given id.
func (w *Workflow) Reservation(id string) (Reservation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.ledger.FindByID(id)
	if !ok {
		return Reservation{}, newReservationNotFound(id)
	}
	return r, nil
}

// Reservations returns every reservation, most recent first.
func (w *Workflow) Reservations() []Reservation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.List()
}

// ReservationsByHolder returns one holder's reservations, most recent first.
func (w *Workflow) ReservationsByHolder(holderID string) []Reservation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.ByHolder(holderID)
}

// Stats returns ticket counts and the amounts held by Pending and Approved
// reservations.
func (w *Workflow) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	var s Stats
	s.Free, s.Pending, s.Sold = w.pool.Counts()
	for _, r := range w.ledger.List() {
		switch r.Status {
		case ReservationPending:
			s.PendingAmount += r.Amount
		case ReservationApproved:
			s.SoldAmount += r.Amount
		}
	}
	return s
}
