package subscription

import (
	"context"
	"errors"
	"sync"
)

// Pipe is a Feed driven by a single producer goroutine.
//
// The producer calls Send for every change and exactly one of Finish or Fail
// when it stops. Close may be called by the consumer at any time; the
// producer observes it through Done.
type Pipe struct {
	events chan Event
	done   chan struct{}

	closeOnce sync.Once
	endOnce   sync.Once
	onClose   func() error

	mu  sync.Mutex
	err error
}

// NewPipe creates a Pipe with the given channel buffer.
// onClose, if not nil, runs once when the consumer closes the feed.
func NewPipe(buffer int, onClose func() error) *Pipe {
	return &Pipe{
		events:  make(chan Event, max(buffer, 0)),
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

// Events implements Feed.
func (p *Pipe) Events() <-chan Event {
	return p.events
}

// Err implements Feed.
func (p *Pipe) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close implements Feed.
func (p *Pipe) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.onClose != nil {
			err = p.onClose()
		}
	})
	return err
}

// Done is closed once the consumer has closed the feed.
func (p *Pipe) Done() <-chan struct{} {
	return p.done
}

// Send delivers ev, blocking until it is consumed into the buffer, the feed
// is closed or ctx is done. It reports whether the event was delivered.
func (p *Pipe) Send(ctx context.Context, ev Event) bool {
	select {
	case <-p.done:
		return false
	case <-ctx.Done():
		return false
	default:
	}

	select {
	case p.events <- ev:
		return true
	case <-p.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Finish ends the feed without an error.
func (p *Pipe) Finish() {
	p.Fail(nil)
}

// Fail ends the feed with err. A context cancellation or a consumer Close
// is not reported as an error.
func (p *Pipe) Fail(err error) {
	p.endOnce.Do(func() {
		select {
		case <-p.done:
			err = nil
		default:
		}
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.events)
	})
}
