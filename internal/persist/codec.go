package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bookclub/raffle/internal/raffle"
)

// document is the stored JSON layout. Field names are shared with the
// portal front-end, which reads the same document.
type document struct {
	Tickets      []ticketDoc      `json:"tickets"`
	Reservations []reservationDoc `json:"reservations"`
}

type ticketDoc struct {
	N             int                 `json:"n"`
	Status        raffle.TicketStatus `json:"status"`
	ReservationID string              `json:"reservationId,omitempty"`
	UserID        string              `json:"userId,omitempty"`
	UserName      string              `json:"userName,omitempty"`
}

type reservationDoc struct {
	ID        string                   `json:"id"`
	UserID    string                   `json:"userId"`
	UserName  string                   `json:"userName"`
	Numbers   []int                    `json:"numbers"`
	Amount    raffle.Money             `json:"amount"`
	Status    raffle.ReservationStatus `json:"status"`
	CreatedAt time.Time                `json:"createdAt"`
}

// Encode serializes a snapshot as an indented JSON document.
func Encode(snap raffle.Snapshot) ([]byte, error) {
	doc := document{
		Tickets:      make([]ticketDoc, len(snap.Tickets)),
		Reservations: make([]reservationDoc, len(snap.Reservations)),
	}
	for i, t := range snap.Tickets {
		doc.Tickets[i] = ticketDoc{
			N:             t.Number,
			Status:        t.Status,
			ReservationID: t.ReservationID,
			UserID:        t.HolderID,
			UserName:      t.HolderName,
		}
	}
	for i, r := range snap.Reservations {
		numbers := r.Numbers
		if numbers == nil {
			numbers = []int{}
		}
		doc.Reservations[i] = reservationDoc{
			ID:        r.ID,
			UserID:    r.HolderID,
			UserName:  r.HolderName,
			Numbers:   numbers,
			Amount:    r.Amount,
			Status:    r.Status,
			CreatedAt: r.CreatedAt.UTC(),
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a stored document. Fields it does not know are ignored
// and amounts are rounded to whole cents. It does not check consistency;
// see raffle.Verify.
func Decode(data []byte) (raffle.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return raffle.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Tickets == nil {
		return raffle.Snapshot{}, fmt.Errorf("decode snapshot: missing tickets")
	}

	snap := raffle.Snapshot{
		Tickets:      make([]raffle.Ticket, len(doc.Tickets)),
		Reservations: make([]raffle.Reservation, len(doc.Reservations)),
	}
	for i, t := range doc.Tickets {
		snap.Tickets[i] = raffle.Ticket{
			Number:        t.N,
			Status:        t.Status,
			ReservationID: t.ReservationID,
			HolderID:      t.UserID,
			HolderName:    t.UserName,
		}
	}
	for i, r := range doc.Reservations {
		snap.Reservations[i] = raffle.Reservation{
			ID:         r.ID,
			HolderID:   r.UserID,
			HolderName: r.UserName,
			Numbers:    r.Numbers,
			Amount:     r.Amount,
			Status:     r.Status,
			CreatedAt:  r.CreatedAt.UTC(),
		}
	}
	return snap, nil
}
