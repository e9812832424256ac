package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocuments_GetMissing(t *testing.T) {
	s := createTestStore(t)

	doc, ok, err := s.Get(context.Background(), "raffle:state")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, doc)

	rev, err := s.Revision(context.Background(), "raffle:state")
	require.NoError(t, err)
	assert.Zero(t, rev)
}

func TestDocuments_PutOverwritesAndBumpsRevision(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.Put(ctx, "raffle:state", []byte("v1")))
	rev, err := s.Revision(ctx, "raffle:state")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	require.NoError(t, s.Put(ctx, "raffle:state", []byte("v2")))
	rev, err = s.Revision(ctx, "raffle:state")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	doc, ok, err := s.Get(ctx, "raffle:state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", string(doc))
}

func TestDocuments_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.Put(ctx, "a", []byte("one")))
	require.NoError(t, s.Put(ctx, "b", []byte("two")))

	a, _, err := s.Get(ctx, "a")
	require.NoError(t, err)
	b, _, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "one", string(a))
	assert.Equal(t, "two", string(b))
}

func TestDocuments_ClosedStore(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())

	_, _, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, s.Put(context.Background(), "k", []byte("v")))
}
