package raffle

// Ledger stores every reservation, including rejected ones.
//
// Entries are kept in creation order internally and exposed most recent
// first. Reservations are never removed.
type Ledger struct {
	entries []Reservation  // creation order
	index   map[string]int // id -> position in entries
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Len returns the number of reservations.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Append records r as the most recent reservation.
// Returns a CONFLICT error if a reservation with the same id exists.
func (l *Ledger) Append(r Reservation) error {
	if _, ok := l.index[r.ID]; ok {
		return &Error{Code: CodeConflict, Message: "duplicate reservation id", ReservationID: r.ID}
	}
	l.index[r.ID] = len(l.entries)
	l.entries = append(l.entries, r.clone())
	return nil
}

// FindByID returns a copy of the reservation with the given id.
func (l *Ledger) FindByID(id string) (Reservation, bool) {
	i, ok := l.index[id]
	if !ok {
		return Reservation{}, false
	}
	return l.entries[i].clone(), true
}

// Update applies mutate to the stored reservation and returns a copy of
// the result. Returns a NOT_FOUND error if id is absent.
func (l *Ledger) Update(id string, mutate func(*Reservation)) (Reservation, error) {
	i, ok := l.index[id]
	if !ok {
		return Reservation{}, newReservationNotFound(id)
	}
	mutate(&l.entries[i])
	return l.entries[i].clone(), nil
}

// List returns every reservation, most recent first.
func (l *Ledger) List() []Reservation {
	return l.filter(func(Reservation) bool { return true })
}

// ByHolder returns the holder's reservations, most recent first.
func (l *Ledger) ByHolder(holderID string) []Reservation {
	return l.filter(func(r Reservation) bool { return r.HolderID == holderID })
}

func (l *Ledger) filter(keep func(Reservation) bool) []Reservation {
	out := make([]Reservation, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		if keep(l.entries[i]) {
			out = append(out, l.entries[i].clone())
		}
	}
	return out
}
