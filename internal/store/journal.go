package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/bookclub/raffle/internal/raffle"
)

// JournalEntry is one stored workflow event.
type JournalEntry struct {
	Seq int64
	raffle.Event
}

// AppendEvent records ev at the next sequence number and returns it.
//
// Another process writing the same database may have taken the number;
// in that case the sequence is moved past the stored maximum and the
// insert is retried once.
func (s *Store) AppendEvent(ctx context.Context, ev raffle.Event) (int64, error) {
	numbers := ev.Numbers
	if numbers == nil {
		numbers = []int{}
	}
	numbersJSON, err := json.Marshal(numbers)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	insert := func(seq int64) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO events (seq, kind, reservation_id, holder_id, numbers, amount_cents, at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			seq,
			string(ev.Kind),
			ev.ReservationID,
			ev.HolderID,
			string(numbersJSON),
			int64(ev.Amount),
			ev.At.UTC().Format(time.RFC3339Nano),
		)
		return err
	}

	seq := s.seq.next()
	err = insert(seq)
	if isConstraint(err) {
		last, qerr := s.maxSeq(ctx)
		if qerr != nil {
			return 0, qerr
		}
		s.seq.advance(last)
		seq = s.seq.next()
		err = insert(seq)
	}
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return seq, nil
}

// ReadEvents returns journal entries ordered by seq. An empty
// reservationID returns the whole journal.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEvents(ctx context.Context, reservationID string) ([]JournalEntry, error) {
	query := `
		SELECT seq, kind, reservation_id, holder_id, numbers, amount_cents, at
		FROM events
		ORDER BY seq ASC
	`
	var args []any
	if reservationID != "" {
		query = `
			SELECT seq, kind, reservation_id, holder_id, numbers, amount_cents, at
			FROM events
			WHERE reservation_id = ?
			ORDER BY seq ASC
		`
		args = append(args, reservationID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		var (
			e           JournalEntry
			kind        string
			numbersJSON string
			amount      int64
			at          string
		)
		if err := rows.Scan(&e.Seq, &kind, &e.ReservationID, &e.HolderID, &numbersJSON, &amount, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(numbersJSON), &e.Numbers); err != nil {
			return nil, fmt.Errorf("event %d numbers: %w", e.Seq, err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("event %d time: %w", e.Seq, err)
		}
		e.Kind = raffle.EventKind(kind)
		e.Amount = raffle.Money(amount)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return entries, nil
}

// Observe appends ev to the journal. A failed write is logged; the
// workflow operation that produced ev is not affected.
func (s *Store) Observe(ctx context.Context, ev raffle.Event) {
	if _, err := s.AppendEvent(ctx, ev); err != nil {
		s.logger.Warn("journal write failed",
			"kind", ev.Kind,
			"reservation_id", ev.ReservationID,
			"error", err,
		)
	}
}

// maxSeq returns the highest stored seq, or 0 for an empty journal.
func (s *Store) maxSeq(ctx context.Context) (int64, error) {
	var last int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&last); err != nil {
		return 0, fmt.Errorf("read max seq: %w", err)
	}
	return last, nil
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
