package raffle

import (
	"fmt"
	"slices"
	"time"
)

// TicketStatus is the state of a single raffle number.
type TicketStatus uint8

const (
	TicketFree TicketStatus = iota
	TicketPending
	TicketSold
)

var ticketStatusNames = [...]string{
	TicketFree:    "free",
	TicketPending: "pending",
	TicketSold:    "sold",
}

func (s TicketStatus) String() string {
	if int(s) < len(ticketStatusNames) {
		return ticketStatusNames[s]
	}
	return fmt.Sprintf("TicketStatus(%d)", uint8(s))
}

// ParseTicketStatus parses the lowercase wire name of a ticket status.
func ParseTicketStatus(s string) (TicketStatus, error) {
	for i, name := range ticketStatusNames {
		if name == s {
			return TicketStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown ticket status %q", s)
}

func (s TicketStatus) MarshalText() ([]byte, error) {
	if int(s) >= len(ticketStatusNames) {
		return nil, fmt.Errorf("invalid ticket status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *TicketStatus) UnmarshalText(text []byte) error {
	v, err := ParseTicketStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ReservationStatus is the state of a reservation.
// Approved and Rejected are terminal.
type ReservationStatus uint8

const (
	ReservationPending ReservationStatus = iota
	ReservationApproved
	ReservationRejected
)

var reservationStatusNames = [...]string{
	ReservationPending:  "pending",
	ReservationApproved: "approved",
	ReservationRejected: "rejected",
}

func (s ReservationStatus) String() string {
	if int(s) < len(reservationStatusNames) {
		return reservationStatusNames[s]
	}
	return fmt.Sprintf("ReservationStatus(%d)", uint8(s))
}

// Terminal reports whether no further transition is allowed.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationApproved || s == ReservationRejected
}

// ParseReservationStatus parses the lowercase wire name of a reservation status.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	for i, name := range reservationStatusNames {
		if name == s {
			return ReservationStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown reservation status %q", s)
}

func (s ReservationStatus) MarshalText() ([]byte, error) {
	if int(s) >= len(reservationStatusNames) {
		return nil, fmt.Errorf("invalid reservation status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *ReservationStatus) UnmarshalText(text []byte) error {
	v, err := ParseReservationStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Ticket is one raffle number and its current owner.
// ReservationID, HolderID and HolderName are empty while the ticket is Free.
type Ticket struct {
	Number        int
	Status        TicketStatus
	ReservationID string
	HolderID      string
	HolderName    string
}

// Reservation is a holder's claim over a set of numbers.
// Numbers are ascending and unique. Amount is fixed at creation.
type Reservation struct {
	ID         string
	HolderID   string
	HolderName string
	Numbers    []int
	Amount     Money
	Status     ReservationStatus
	CreatedAt  time.Time
}

func (r Reservation) clone() Reservation {
	r.Numbers = slices.Clone(r.Numbers)
	return r
}

// Snapshot is the combined Pool and Ledger state.
// Tickets are ordered by number, Reservations most recent first.
type Snapshot struct {
	Tickets      []Ticket
	Reservations []Reservation
}

// Stats summarizes the pool for reporting.
type Stats struct {
	Free          int
	Pending       int
	Sold          int
	PendingAmount Money
	SoldAmount    Money
}
