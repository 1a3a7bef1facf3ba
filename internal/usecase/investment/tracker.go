package investment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker runs attempts in the background for the HTTP API and keeps them
// readable by id until they have been finished for longer than the retention.
type Tracker struct {
	uc        *Usecase
	retention time.Duration
	window    time.Duration
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	attempts map[string]*Attempt
	now      func() time.Time
}

// NewTracker builds a tracker. A zero window leaves the checkout open until
// the browser reports back or the tracker closes.
func NewTracker(uc *Usecase, retention, window time.Duration, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		uc:        uc,
		retention: retention,
		window:    window,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		attempts:  map[string]*Attempt{},
		now:       time.Now,
	}
}

// Begin validates synchronously and then runs the attempt in its own goroutine.
func (t *Tracker) Begin(in SubmitInput) (*Attempt, error) {
	if _, err := t.uc.Validate(in.Bond, in.Amount, in.Investor); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTrackerClosed
	}
	t.pruneLocked()
	a := NewAttempt(in)
	t.attempts[a.ID] = a
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		ctx, cancel := t.ctx, context.CancelFunc(func() {})
		if t.window > 0 {
			ctx, cancel = context.WithTimeout(t.ctx, t.window)
		}
		defer cancel()
		if _, err := t.uc.Submit(ctx, a); err != nil {
			t.log.Info("investment attempt failed",
				zap.String("attempt_id", a.ID),
				zap.String("kind", Kind(err)),
				zap.Error(err))
		}
	}()
	return a, nil
}

func (t *Tracker) Get(id string) (*Attempt, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()
	a, ok := t.attempts[id]
	return a, ok
}

// OwnerOf reports which investor the checkout for orderID belongs to.
func (t *Tracker) OwnerOf(orderID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range t.attempts {
		if uid, ok := a.investorFor(orderID); ok {
			return uid, true
		}
	}
	return "", false
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.attempts)
}

func (t *Tracker) pruneLocked() {
	if t.retention <= 0 {
		return
	}
	cutoff := t.now().Add(-t.retention)
	for id, a := range t.attempts {
		if a.finishedBefore(cutoff) {
			delete(t.attempts, id)
		}
	}
}

// Close cancels every open checkout and waits for the attempt goroutines.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()
	t.wg.Wait()
}
