package entitlement_test

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/tillkit/pkg/rbac"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

var epoch = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return epoch }

func staffActor(staffID, principalID string, role rbac.Role) rbac.Actor {
	sess, err := rbac.NewDelegatedSession(staffID, principalID, role, rbac.LoginMethodCredential, epoch)
	if err != nil {
		panic(err)
	}
	return rbac.DelegatedActor(sess)
}

// fakeSource serves a single record and hands out pipes the test can break.
// It logs "watch:<owner>" and "close:<owner>" in call order.
type fakeSource struct {
	mu       sync.Mutex
	rec      *subscription.Record
	watchErr error
	getErr   error
	pipes    []*subscription.Pipe
	calls    []string
}

func (f *fakeSource) Get(_ context.Context, ownerID string) (*subscription.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.rec == nil || f.rec.OwnerID != ownerID {
		return nil, subscription.ErrRecordNotFound
	}
	return f.rec.Clone(), nil
}

func (f *fakeSource) Watch(_ context.Context, ownerID string) (subscription.Feed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "watch:"+ownerID)
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	var p *subscription.Pipe
	p = subscription.NewPipe(1, func() error {
		f.mu.Lock()
		f.calls = append(f.calls, "close:"+ownerID)
		f.mu.Unlock()
		p.Finish()
		return nil
	})
	f.pipes = append(f.pipes, p)
	return p, nil
}

func (f *fakeSource) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSource) setWatchErr(err error) {
	f.mu.Lock()
	f.watchErr = err
	f.mu.Unlock()
}

func (f *fakeSource) setGetErr(err error) {
	f.mu.Lock()
	f.getErr = err
	f.mu.Unlock()
}

func (f *fakeSource) lastPipe() *subscription.Pipe {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pipes) == 0 {
		return nil
	}
	return f.pipes[len(f.pipes)-1]
}
