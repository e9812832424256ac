package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bookclub/raffle/internal/raffle"
	"github.com/bookclub/raffle/internal/store"
)

type ticketView struct {
	Number        int                 `json:"number"`
	Status        raffle.TicketStatus `json:"status"`
	ReservationID string              `json:"reservation_id,omitempty"`
	HolderID      string              `json:"holder_id,omitempty"`
	HolderName    string              `json:"holder_name,omitempty"`
}

func newTicketView(t raffle.Ticket) ticketView {
	return ticketView{
		Number:        t.Number,
		Status:        t.Status,
		ReservationID: t.ReservationID,
		HolderID:      t.HolderID,
		HolderName:    t.HolderName,
	}
}

type reservationView struct {
	ID         string                   `json:"id"`
	HolderID   string                   `json:"holder_id"`
	HolderName string                   `json:"holder_name"`
	Numbers    []int                    `json:"numbers"`
	Amount     raffle.Money             `json:"amount"`
	Status     raffle.ReservationStatus `json:"status"`
	CreatedAt  time.Time                `json:"created_at"`
}

func newReservationView(r raffle.Reservation) reservationView {
	return reservationView{
		ID:         r.ID,
		HolderID:   r.HolderID,
		HolderName: r.HolderName,
		Numbers:    r.Numbers,
		Amount:     r.Amount,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func newReservationViews(rs []raffle.Reservation) []reservationView {
	views := make([]reservationView, len(rs))
	for i, r := range rs {
		views[i] = newReservationView(r)
	}
	return views
}

type eventView struct {
	Seq           int64            `json:"seq"`
	Kind          raffle.EventKind `json:"kind"`
	ReservationID string           `json:"reservation_id,omitempty"`
	HolderID      string           `json:"holder_id"`
	Numbers       []int            `json:"numbers"`
	Amount        raffle.Money     `json:"amount"`
	At            time.Time        `json:"at"`
}

func newEventViews(entries []store.JournalEntry) []eventView {
	views := make([]eventView, len(entries))
	for i, e := range entries {
		views[i] = eventView{
			Seq:           e.Seq,
			Kind:          e.Kind,
			ReservationID: e.ReservationID,
			HolderID:      e.HolderID,
			Numbers:       e.Numbers,
			Amount:        e.Amount,
			At:            e.At.UTC(),
		}
	}
	return views
}

// joinNumbers renders numbers separated by sep.
func joinNumbers(numbers []int, sep string) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, sep)
}

// parseNumbers converts ticket number arguments.
func parseNumbers(args []string) ([]int, error) {
	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("invalid ticket number %q", arg)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}
