package raffle

// Pool holds the authoritative status of every ticket number.
//
// Tickets are stored by index (number-1) and are never added or removed
// after construction. Only the Workflow mutates a Pool.
type Pool struct {
	tickets []Ticket
}

// NewPool creates size tickets numbered 1..size, all Free.
// Returns a CONFIG error if size <= 0.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, NewConfigError("pool size must be positive, got %d", size)
	}
	tickets := make([]Ticket, size)
	for i := range tickets {
		tickets[i] = Ticket{Number: i + 1, Status: TicketFree}
	}
	return &Pool{tickets: tickets}, nil
}

// Size returns the number of tickets in the pool.
func (p *Pool) Size() int {
	return len(p.tickets)
}

// ListFree returns all Free numbers in ascending order.
func (p *Pool) ListFree() []int {
	free := make([]int, 0, len(p.tickets))
	for _, t := range p.tickets {
		if t.Status == TicketFree {
			free = append(free, t.Number)
		}
	}
	return free
}

// Get returns a copy of the ticket for number n.
// Returns a NOT_FOUND error if n is outside [1, Size()].
func (p *Pool) Get(n int) (Ticket, error) {
	if !p.contains(n) {
		return Ticket{}, newTicketNotFound(n)
	}
	return p.tickets[n-1], nil
}

// Tickets returns a copy of every ticket, ordered by number.
func (p *Pool) Tickets() []Ticket {
	out := make([]Ticket, len(p.tickets))
	copy(out, p.tickets)
	return out
}

// Counts returns how many tickets are in each status.
func (p *Pool) Counts() (free, pending, sold int) {
	for _, t := range p.tickets {
		switch t.Status {
		case TicketFree:
			free++
		case TicketPending:
			pending++
		case TicketSold:
			sold++
		}
	}
	return free, pending, sold
}

func (p *Pool) contains(n int) bool {
	return n >= 1 && n <= len(p.tickets)
}

// unavailable returns the numbers that are in range but not Free, or a
// NOT_FOUND error listing every out-of-range number.
func (p *Pool) unavailable(numbers []int) ([]int, error) {
	var missing, taken []int
	for _, n := range numbers {
		switch {
		case !p.contains(n):
			missing = append(missing, n)
		case p.tickets[n-1].Status != TicketFree:
			taken = append(taken, n)
		}
	}
	if len(missing) > 0 {
		return nil, newTicketNotFound(missing...)
	}
	return taken, nil
}

func (p *Pool) hold(r Reservation) {
	for _, n := range r.Numbers {
		p.tickets[n-1] = Ticket{
			Number:        n,
			Status:        TicketPending,
			ReservationID: r.ID,
			HolderID:      r.HolderID,
			HolderName:    r.HolderName,
		}
	}
}

func (p *Pool) sell(numbers []int) {
	for _, n := range numbers {
		p.tickets[n-1].Status = TicketSold
	}
}

func (p *Pool) release(numbers []int) {
	for _, n := range numbers {
		p.tickets[n-1] = Ticket{Number: n, Status: TicketFree}
	}
}
