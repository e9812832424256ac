package persist

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookclub/raffle/internal/raffle"
	"github.com/bookclub/raffle/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdapter_LoadAbsentIsFresh(t *testing.T) {
	kv := testutil.NewMemoryKV()
	a := New(kv, 4, WithLogger(quietLogger()))

	snap, err := a.Load(context.Background())
	require.NoError(t, err)

	want, err := raffle.FreshSnapshot(4)
	require.NoError(t, err)
	assert.Equal(t, want, snap)
	assert.Zero(t, kv.Puts(), "load never writes")
}

func TestAdapter_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	a := New(kv, 5, WithLogger(quietLogger()))
	snap := sampleSnapshot(t)

	require.NoError(t, a.Save(ctx, snap))
	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestAdapter_Key(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()

	assert.Equal(t, DefaultKey, New(kv, 5).Key())
	assert.Equal(t, DefaultKey, New(kv, 5, WithKey("")).Key())

	a := New(kv, 5, WithKey("raffle:spring"))
	require.NoError(t, a.Save(ctx, sampleSnapshot(t)))

	_, ok, err := kv.Get(ctx, "raffle:spring")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = kv.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdapter_LoadRecoversFromBadDocuments(t *testing.T) {
	valid, err := Encode(sampleSnapshot(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  []byte
		size int
		log  string
	}{
		{name: "unparsable", doc: []byte("{not json"), size: 5, log: "unreadable"},
		{name: "empty", doc: []byte{}, size: 5, log: "unreadable"},
		{name: "size changed", doc: valid, size: 8, log: "inconsistent"},
		{
			name: "ticket points at missing reservation",
			doc:  []byte(`{"tickets":[{"n":1,"status":"sold","reservationId":"r9","userId":"u","userName":"U"}],"reservations":[]}`),
			size: 1,
			log:  "inconsistent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := testutil.NewMemoryKV()
			kv.Set(DefaultKey, tt.doc)

			var logs bytes.Buffer
			a := New(kv, tt.size, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

			snap, err := a.Load(context.Background())
			require.NoError(t, err)

			want, err := raffle.FreshSnapshot(tt.size)
			require.NoError(t, err)
			assert.Equal(t, want, snap)
			assert.Contains(t, logs.String(), tt.log)
			assert.Contains(t, logs.String(), "level=WARN")

			kept, ok, err := kv.Get(context.Background(), a.CorruptKey())
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.doc, kept)
		})
	}
}

func TestAdapter_UnusableDocumentSurvivesNextSave(t *testing.T) {
	ctx := context.Background()
	valid, err := Encode(sampleSnapshot(t))
	require.NoError(t, err)

	kv := testutil.NewMemoryKV()
	kv.Set(DefaultKey, valid)

	// The pool grew, so the stored ledger no longer fits.
	a := New(kv, 8, WithLogger(quietLogger()))
	snap, err := a.Load(ctx)
	require.NoError(t, err)

	w, err := raffle.New(raffle.Config{TotalNumbers: 8, PricePerNumber: 200}, snap, a,
		raffle.WithIDGenerator(raffle.NewSequenceGenerator("r")),
		raffle.WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	_, err = w.CreateReservation(ctx, "u2", "Bia", []int{1})
	require.NoError(t, err)

	kept, ok, err := kv.Get(ctx, "raffle:state:corrupt")
	require.NoError(t, err)
	require.True(t, ok)
	old, err := Decode(kept)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(t), old)
}

func TestAdapter_LoadKeepsDocumentWhenCopyFails(t *testing.T) {
	kv := testutil.NewMemoryKV()
	kv.Set(DefaultKey, []byte("{not json"))
	kv.PutErr = errors.New("read-only replica")

	_, err := New(kv, 5, WithLogger(quietLogger())).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "raffle:state:corrupt")

	doc, ok, err := kv.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("{not json"), doc)
}

func TestAdapter_BackendErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	t.Run("get", func(t *testing.T) {
		kv := testutil.NewMemoryKV()
		kv.GetErr = boom
		_, err := New(kv, 5).Load(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), DefaultKey)
	})

	t.Run("put", func(t *testing.T) {
		kv := testutil.NewMemoryKV()
		kv.PutErr = boom
		err := New(kv, 5).Save(ctx, sampleSnapshot(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})
}

// The workflow reports a failed save as a persistence error but keeps the
// in-memory change, and the next successful save carries it to the store.
func TestAdapter_WorkflowIntegration(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	a := New(kv, 5, WithLogger(quietLogger()))
	cfg := raffle.Config{TotalNumbers: 5, PricePerNumber: raffle.MustParseMoney("2.00")}

	snap, err := a.Load(ctx)
	require.NoError(t, err)
	w, err := raffle.New(cfg, snap, a,
		raffle.WithIDGenerator(raffle.NewSequenceGenerator("r")),
		raffle.WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	r1, err := w.CreateReservation(ctx, "u1", "Ana", []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, kv.Puts())

	kv.PutErr = errors.New("disk full")
	err = w.ApproveReservation(ctx, r1)
	require.Error(t, err)
	assert.True(t, raffle.IsPersistence(err))
	assert.Equal(t, 1, kv.Puts())

	kv.PutErr = nil
	_, err = w.CreateReservation(ctx, "u2", "Bia", []int{5})
	require.NoError(t, err)
	assert.Equal(t, 2, kv.Puts())

	// A second process sees both changes.
	reloaded, err := New(kv, 5, WithLogger(quietLogger())).Load(ctx)
	require.NoError(t, err)
	w2, err := raffle.New(cfg, reloaded, nil)
	require.NoError(t, err)

	got, err := w2.Reservation(r1)
	require.NoError(t, err)
	assert.Equal(t, raffle.ReservationApproved, got.Status)
	assert.Equal(t, []int{3, 4}, w2.ListFree())
}
