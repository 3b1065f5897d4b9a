package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop(t *testing.T) {
	t.Run("idle tasks run before posted work", func(t *testing.T) {
		l := New()
		var order []string

		require.NoError(t, l.Post(func() { order = append(order, "task") }))
		l.AddIdle(func() { order = append(order, "idle") })

		l.DispatchPending()
		assert.Equal(t, []string{"idle", "task"}, order)
	})

	t.Run("idle added by idle waits for next iteration", func(t *testing.T) {
		l := New()
		count := 0
		l.AddIdle(func() {
			count++
			l.AddIdle(func() { count++ })
		})

		l.dispatchIdle()
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, l.PendingIdle())
		l.dispatchIdle()
		assert.Equal(t, 2, count)
	})

	t.Run("idle added by a posted task runs in the same dispatch", func(t *testing.T) {
		l := New()
		ran := false
		require.NoError(t, l.Post(func() {
			l.AddIdle(func() { ran = true })
		}))

		l.DispatchPending()
		assert.True(t, ran)
	})

	t.Run("run stops on context cancel", func(t *testing.T) {
		l := New()
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- l.Run(ctx) }()

		executed := make(chan struct{})
		require.NoError(t, l.Post(func() { close(executed) }))

		select {
		case <-executed:
		case <-time.After(time.Second):
			t.Fatal("posted task did not run")
		}

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("loop did not stop")
		}
	})

	t.Run("post after close fails", func(t *testing.T) {
		l := New()
		l.Close()
		assert.ErrorIs(t, l.Post(func() {}), ErrClosed)
	})

	t.Run("post with full queue gives up on cancel", func(t *testing.T) {
		l := New()
		for range cap(l.tasks) {
			require.NoError(t, l.Post(func() {}))
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- l.PostContext(ctx, func() {}) }()

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("post did not return after cancel")
		}
	})

	t.Run("post with cancelled context", func(t *testing.T) {
		l := New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, l.PostContext(ctx, func() {}), context.Canceled)
		assert.Empty(t, l.tasks)
	})
}
