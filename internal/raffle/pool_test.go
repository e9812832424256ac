package raffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_AllFree(t *testing.T) {
	for _, size := range []int{1, 2, 10, 100, 1000} {
		pool, err := NewPool(size)
		require.NoError(t, err)
		require.Equal(t, size, pool.Size())

		free := pool.ListFree()
		require.Len(t, free, size)
		for i, n := range free {
			assert.Equal(t, i+1, n)
		}
	}
}

func TestNewPool_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1, -100} {
		_, err := NewPool(size)
		require.Error(t, err)
		assert.True(t, IsConfigError(err), "size %d", size)
	}
}

func TestPool_Get(t *testing.T) {
	pool, err := NewPool(5)
	require.NoError(t, err)

	ticket, err := pool.Get(3)
	require.NoError(t, err)
	assert.Equal(t, Ticket{Number: 3, Status: TicketFree}, ticket)

	for _, n := range []int{0, 6, -1} {
		_, err := pool.Get(n)
		assert.True(t, IsNotFound(err), "number %d", n)
	}
}

func TestPool_HoldSellRelease(t *testing.T) {
	pool, err := NewPool(5)
	require.NoError(t, err)

	r := Reservation{ID: "r1", HolderID: "u1", HolderName: "Ana", Numbers: []int{2, 4}}
	pool.hold(r)
	assert.Equal(t, []int{1, 3, 5}, pool.ListFree())

	ticket, _ := pool.Get(2)
	assert.Equal(t, TicketPending, ticket.Status)
	assert.Equal(t, "r1", ticket.ReservationID)
	assert.Equal(t, "u1", ticket.HolderID)
	assert.Equal(t, "Ana", ticket.HolderName)

	pool.sell([]int{2})
	ticket, _ = pool.Get(2)
	assert.Equal(t, TicketSold, ticket.Status)
	assert.Equal(t, "r1", ticket.ReservationID, "sold ticket keeps its owner")

	pool.release([]int{4})
	ticket, _ = pool.Get(4)
	assert.Equal(t, Ticket{Number: 4, Status: TicketFree}, ticket)

	free, pending, sold := pool.Counts()
	assert.Equal(t, 4, free)
	assert.Equal(t, 0, pending)
	assert.Equal(t, 1, sold)
}

func TestPool_Unavailable(t *testing.T) {
	pool, err := NewPool(5)
	require.NoError(t, err)
	pool.hold(Reservation{ID: "r1", HolderID: "u1", Numbers: []int{2}})

	taken, err := pool.unavailable([]int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, taken)

	_, err = pool.unavailable([]int{1, 7, 9})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []int{7, 9}, e.Numbers)
}

func TestPool_TicketsIsCopy(t *testing.T) {
	pool, err := NewPool(3)
	require.NoError(t, err)

	tickets := pool.Tickets()
	tickets[0].Status = TicketSold

	ticket, _ := pool.Get(1)
	assert.Equal(t, TicketFree, ticket.Status)
}
