package cart

import (
	"context"
	"sync"
)

// Sync tracks one best-effort remote mirror call. A nil *Sync means no call
// was made; waiting on it returns at once.
type Sync struct {
	done chan struct{}
	err  error
}

func newSync() *Sync {
	return &Sync{done: make(chan struct{})}
}

func (s *Sync) finish(err error) {
	s.err = err
	close(s.done)
}

// Wait blocks until the mirror call finished or ctx ends. The returned error
// is the mirror's own failure, which the cart has already logged and ignored.
func (s *Sync) Wait(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done reports whether the mirror call has finished.
func (s *Sync) Done() bool {
	if s == nil {
		return true
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// waitGroup waits on a sync.WaitGroup with a context.
func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
