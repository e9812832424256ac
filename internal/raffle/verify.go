package raffle

import (
	"errors"
	"fmt"
	"slices"
)

// Verify checks that snap is a complete, consistent pool of size tickets.
//
// It reports every violation it finds, joined with errors.Join:
//   - each number 1..size appears exactly once
//   - Free tickets carry no ownership fields
//   - reservation ids are unique and numbers ascending, unique, in range
//   - each Pending/Sold ticket points at a reservation that lists it and
//     whose status agrees (Pending/Pending, Sold/Approved)
//   - each Pending/Approved reservation owns all of its tickets
func Verify(snap Snapshot, size int) error {
	if size <= 0 {
		return NewConfigError("pool size must be positive, got %d", size)
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(snap.Tickets) != size {
		fail("pool has %d tickets, want %d", len(snap.Tickets), size)
	}
	byNumber := make(map[int]Ticket, len(snap.Tickets))
	for _, t := range snap.Tickets {
		if t.Number < 1 || t.Number > size {
			fail("ticket %d out of range [1,%d]", t.Number, size)
			continue
		}
		if _, dup := byNumber[t.Number]; dup {
			fail("ticket %d appears more than once", t.Number)
			continue
		}
		byNumber[t.Number] = t
	}

	reservations := make(map[string]Reservation, len(snap.Reservations))
	for _, r := range snap.Reservations {
		if r.ID == "" {
			fail("reservation with empty id")
			continue
		}
		if _, dup := reservations[r.ID]; dup {
			fail("reservation %s appears more than once", r.ID)
			continue
		}
		reservations[r.ID] = r
		if len(r.Numbers) == 0 {
			fail("reservation %s has no numbers", r.ID)
		}
		for i, n := range r.Numbers {
			if n < 1 || n > size {
				fail("reservation %s number %d out of range", r.ID, n)
			}
			if i > 0 && n <= r.Numbers[i-1] {
				fail("reservation %s numbers not ascending and unique", r.ID)
				break
			}
		}
		if r.Amount < 0 {
			fail("reservation %s has negative amount", r.ID)
		}
	}

	for n, t := range byNumber {
		switch t.Status {
		case TicketFree:
			if t.ReservationID != "" || t.HolderID != "" || t.HolderName != "" {
				fail("free ticket %d still has an owner", n)
			}
		case TicketPending, TicketSold:
			r, ok := reservations[t.ReservationID]
			if !ok {
				fail("ticket %d references unknown reservation %q", n, t.ReservationID)
				continue
			}
			if !slices.Contains(r.Numbers, n) {
				fail("ticket %d not listed by reservation %s", n, r.ID)
			}
			want := ReservationPending
			if t.Status == TicketSold {
				want = ReservationApproved
			}
			if r.Status != want {
				fail("ticket %d is %s but reservation %s is %s", n, t.Status, r.ID, r.Status)
			}
			if t.HolderID != r.HolderID || t.HolderName != r.HolderName {
				fail("ticket %d holder does not match reservation %s", n, r.ID)
			}
		default:
			fail("ticket %d has invalid status %d", n, uint8(t.Status))
		}
	}

	for _, r := range reservations {
		var want TicketStatus
		switch r.Status {
		case ReservationPending:
			want = TicketPending
		case ReservationApproved:
			want = TicketSold
		default:
			continue
		}
		for _, n := range r.Numbers {
			t, ok := byNumber[n]
			if !ok {
				continue
			}
			if t.Status != want || t.ReservationID != r.ID {
				fail("reservation %s is %s but ticket %d is %s (reservation=%q)", r.ID, r.Status, n, t.Status, t.ReservationID)
			}
		}
	}

	return errors.Join(errs...)
}

// FreshSnapshot returns a pool of size Free tickets and an empty ledger.
func FreshSnapshot(size int) (Snapshot, error) {
	pool, err := NewPool(size)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Tickets: pool.Tickets(), Reservations: []Reservation{}}, nil
}

// restore builds a Pool and Ledger from a snapshot that passed Verify.
func restore(snap Snapshot, size int) (*Pool, *Ledger, error) {
	pool, err := NewPool(size)
	if err != nil {
		return nil, nil, err
	}
	for _, t := range snap.Tickets {
		pool.tickets[t.Number-1] = t
	}

	ledger := NewLedger()
	// Snapshot order is most recent first; the ledger appends oldest first.
	for i := len(snap.Reservations) - 1; i >= 0; i-- {
		if err := ledger.Append(snap.Reservations[i]); err != nil {
			return nil, nil, err
		}
	}
	return pool, ledger, nil
}
