package input

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/swc/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFunc func(ctx context.Context, fn func()) error

func (f postFunc) PostContext(ctx context.Context, fn func()) error { return f(ctx, fn) }

func TestSourceStartMissingDevice(t *testing.T) {
	target := &recordingTarget{}
	post := postFunc(func(ctx context.Context, fn func()) error { fn(); return nil })
	src := NewSource([]string{filepath.Join(t.TempDir(), "event99")}, false, post, target, target, logger.Discard())

	err := src.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event99")
	assert.Empty(t, src.Devices())

	// Stop without a successful start is a no-op.
	src.Stop()
}

func TestSourcePost(t *testing.T) {
	motion := []Action{{Type: ActionMotion}}

	t.Run("dispatches on the loop", func(t *testing.T) {
		target := &recordingTarget{}
		post := postFunc(func(ctx context.Context, fn func()) error { fn(); return nil })
		src := NewSource(nil, false, post, target, target, logger.Discard())

		require.NoError(t, src.post(context.Background(), motion))
		assert.Equal(t, []string{"motion"}, target.calls)
	})

	t.Run("nothing to post", func(t *testing.T) {
		post := postFunc(func(ctx context.Context, fn func()) error {
			t.Fatal("empty batch was posted")
			return nil
		})
		src := NewSource(nil, false, post, nil, nil, logger.Discard())

		assert.NoError(t, src.post(context.Background(), nil))
	})

	t.Run("stopped reader does not post", func(t *testing.T) {
		target := &recordingTarget{}
		post := postFunc(func(ctx context.Context, fn func()) error { fn(); return nil })
		src := NewSource(nil, false, post, target, target, logger.Discard())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, src.post(ctx, motion), context.Canceled)
		assert.Empty(t, target.calls)
	})

	t.Run("stalled loop releases the reader on cancel", func(t *testing.T) {
		// A loop that stopped running never drains its queue.
		post := postFunc(func(ctx context.Context, fn func()) error {
			<-ctx.Done()
			return ctx.Err()
		})
		src := NewSource(nil, false, post, nil, nil, logger.Discard())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- src.post(ctx, motion) }()

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("reader stayed blocked after cancel")
		}
	})
}
