package harvest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollWaiter(t *testing.T) {
	w := NewPollWaiter(time.Millisecond)
	ctx := context.Background()

	t.Run("immediately true", func(t *testing.T) {
		ok, err := w.WaitUntil(ctx, time.Second, func(context.Context) (bool, error) { return true, nil })
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("eventually true", func(t *testing.T) {
		calls := 0
		ok, err := w.WaitUntil(ctx, time.Second, func(context.Context) (bool, error) {
			calls++
			return calls >= 3, nil
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3, calls)
	})

	t.Run("times out", func(t *testing.T) {
		start := time.Now()
		ok, err := w.WaitUntil(ctx, 10*time.Millisecond, func(context.Context) (bool, error) { return false, nil })
		require.NoError(t, err)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("predicate error stops polling", func(t *testing.T) {
		boom := errors.New("boom")
		ok, err := w.WaitUntil(ctx, time.Second, func(context.Context) (bool, error) { return false, boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, ok)
	})

	t.Run("context cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		ok, err := w.WaitUntil(cctx, time.Second, func(context.Context) (bool, error) { return false, nil })
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ok)
	})

	t.Run("zero interval uses default", func(t *testing.T) {
		assert.Equal(t, DefaultPollInterval, NewPollWaiter(0).interval)
	})
}
