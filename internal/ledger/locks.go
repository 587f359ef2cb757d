package ledger

import (
	"context"
	"sync"
	"time"
)

// accountLocks hands out one slot per account number so that read-modify-write
// sequences on the same account are serialized while different accounts never
// contend. Slots are channel-based so acquisition can be bounded by the
// caller's context and a hard timeout instead of blocking forever.
type accountLocks struct {
	mu    sync.Mutex // protects slots
	slots map[string]chan struct{}
}

func newAccountLocks() *accountLocks {
	return &accountLocks{slots: make(map[string]chan struct{})}
}

func (l *accountLocks) slot(accountNumber string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[accountNumber]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[accountNumber] = s
	}
	return s
}

// acquire blocks until the account's slot is free, the context is done, or
// the timeout elapses. On success it returns the release func; otherwise
// ErrBusy.
func (l *accountLocks) acquire(ctx context.Context, accountNumber string, timeout time.Duration) (func(), error) {
	s := l.slot(accountNumber)

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case s <- struct{}{}:
		return func() { <-s }, nil
	case <-ctx.Done():
		return nil, ErrBusy
	case <-t.C:
		return nil, ErrBusy
	}
}
