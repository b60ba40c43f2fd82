package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroadcaster_Subscribe(t *testing.T) {
	t.Run("subscribe creates active subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx, "k")
		require.NotNil(t, sub)
		require.NotNil(t, sub.Receive(ctx))
		assert.Equal(t, 1, b.Subscribers("k"))
	})

	t.Run("subscribe after close returns closed subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background(), "k")
		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx, "k")
		cancel()

		assert.Eventually(t, func() bool {
			return b.Subscribers("k") == 0
		}, time.Second, 5*time.Millisecond)

		_, ok := <-sub.Receive(ctx)
		assert.False(t, ok)
	})

	t.Run("close unsubscribes", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		defer b.Close()

		sub := b.Subscribe(context.Background(), "k")
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		assert.Equal(t, 0, b.Subscribers("k"))
	})
}

func TestMemoryBroadcaster_Broadcast(t *testing.T) {
	t.Run("routes by key", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](10)
		defer b.Close()

		ctx := context.Background()
		a := b.Subscribe(ctx, "a")
		other := b.Subscribe(ctx, "b")

		require.NoError(t, b.Broadcast(ctx, Message[int]{Key: "a", Data: 1}))

		msg := <-a.Receive(ctx)
		assert.Equal(t, 1, msg.Data)
		assert.Equal(t, "a", msg.Key)

		select {
		case <-other.Receive(ctx):
			t.Fatal("message leaked to another key")
		default:
		}
	})

	t.Run("preserves order", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](100)
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx, "k")
		for i := range 50 {
			require.NoError(t, b.Broadcast(ctx, Message[int]{Key: "k", Data: i}))
		}

		for i := range 50 {
			assert.Equal(t, i, (<-sub.Receive(ctx)).Data)
		}
	})

	t.Run("full buffer keeps the newest value", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](2)
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx, "k")
		for i := 1; i <= 5; i++ {
			require.NoError(t, b.Broadcast(ctx, Message[int]{Key: "k", Data: i}))
		}

		assert.Equal(t, 4, (<-sub.Receive(ctx)).Data)
		assert.Equal(t, 5, (<-sub.Receive(ctx)).Data)
		assert.Equal(t, uint64(3), b.Dropped())
		assert.Equal(t, 1, b.Subscribers("k"), "slow subscriber stays subscribed")
	})

	t.Run("broadcast after close", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](1)
		require.NoError(t, b.Close())
		assert.ErrorIs(t, b.Broadcast(context.Background(), Message[int]{Key: "k"}), ErrBroadcasterClosed)
	})
}

func TestMemoryBroadcaster_Close(t *testing.T) {
	b := NewMemoryBroadcaster[int](1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subs := []Subscriber[int]{b.Subscribe(ctx, "a"), b.Subscribe(ctx, "a"), b.Subscribe(ctx, "b")}
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	for _, sub := range subs {
		_, ok := <-sub.Receive(ctx)
		assert.False(t, ok)
	}
}

func TestMemoryBroadcaster_Concurrent(t *testing.T) {
	b := NewMemoryBroadcaster[int](4)
	defer b.Close()

	ctx := context.Background()
	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe(ctx, "k")
			defer sub.Close()
			for range 10 {
				select {
				case <-sub.Receive(ctx):
				case <-time.After(time.Millisecond):
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := range 100 {
				_ = b.Broadcast(ctx, Message[int]{Key: "k", Data: i*100 + j})
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, b.Subscribers("k"))
}
