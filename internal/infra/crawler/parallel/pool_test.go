package parallel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct{ id int }

func TestAcquireCreatesOnEmptySlot(t *testing.T) {
	pool := make(chan *slot, 1)
	pool <- nil

	got, err := acquire(context.Background(), pool, func() (*slot, error) { return &slot{id: 7}, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got.id)
	assert.Len(t, pool, 0)
}

func TestAcquireReusesExisting(t *testing.T) {
	pool := make(chan *slot, 1)
	pool <- &slot{id: 1}

	got, err := acquire(context.Background(), pool, func() (*slot, error) {
		t.Fatal("create must not be called")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.id)
}

func TestAcquireReturnsSlotOnCreateError(t *testing.T) {
	pool := make(chan *slot, 1)
	pool <- nil
	boom := errors.New("boom")

	_, err := acquire(context.Background(), pool, func() (*slot, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	require.Len(t, pool, 1)
	assert.Nil(t, <-pool)
}

func TestAcquireHonorsContext(t *testing.T) {
	pool := make(chan *slot, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := acquire(ctx, pool, func() (*slot, error) { return &slot{}, nil })
	assert.ErrorIs(t, err, context.Canceled)
}
