package subscription_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

func TestPipe(t *testing.T) {
	t.Parallel()

	t.Run("delivers in order then closes", func(t *testing.T) {
		t.Parallel()
		p := subscription.NewPipe(4, nil)
		ctx := context.Background()

		go func() {
			defer p.Finish()
			for _, owner := range []string{"a", "b", "c"} {
				p.Send(ctx, subscription.Event{OwnerID: owner})
			}
		}()

		var got []string
		for ev := range p.Events() {
			got = append(got, ev.OwnerID)
		}
		assert.Equal(t, []string{"a", "b", "c"}, got)
		assert.NoError(t, p.Err())
	})

	t.Run("reports producer failure", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection reset")
		p := subscription.NewPipe(0, nil)
		go p.Fail(boom)

		_, open := <-p.Events()
		assert.False(t, open)
		assert.ErrorIs(t, p.Err(), boom)
	})

	t.Run("close stops a blocked producer", func(t *testing.T) {
		t.Parallel()
		closed := 0
		p := subscription.NewPipe(0, func() error {
			closed++
			return nil
		})

		sent := make(chan bool, 1)
		go func() {
			defer p.Finish()
			sent <- p.Send(context.Background(), subscription.Event{OwnerID: "x"})
		}()

		require.NoError(t, p.Close())
		require.NoError(t, p.Close())

		select {
		case ok := <-sent:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("producer still blocked after close")
		}

		for range p.Events() {
		}
		assert.NoError(t, p.Err())
		assert.Equal(t, 1, closed)
	})
}
