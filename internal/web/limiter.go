package web

// limiter.go restricts how many audits run at once. Parsing and checking
// a large CSV holds the whole file in memory, so parallel uploads are
// capped; requests wait up to maxWait for a slot before being rejected
// with ErrTooManyAudits.

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyAudits is returned when all audit slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyAudits = errors.New("too many concurrent audits, please try again later")

const (
	defaultMaxConcurrent = 5
	defaultMaxWait       = 30 * time.Second
)

// AuditLimiter bounds concurrent audit processing with a weighted
// semaphore.
type AuditLimiter struct {
	sem     *semaphore.Weighted
	max     int64
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewAuditLimiter creates a limiter allowing at most maxConcurrent
// simultaneous audits. Requests that cannot acquire a slot within
// maxWait receive ErrTooManyAudits.
func NewAuditLimiter(maxConcurrent int, maxWait time.Duration) *AuditLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	return &AuditLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire obtains an audit slot. Returns nil on success and
// ErrTooManyAudits when the wait timeout expires. The caller must call
// Release exactly once after a successful Acquire (use defer).
func (l *AuditLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		// Distinguish caller cancellation from slot-wait timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyAudits
	}

	l.mu.Lock()
	l.active++
	l.mu.Unlock()
	return nil
}

// Release returns a previously acquired slot.
func (l *AuditLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	l.sem.Release(1)
}

// Active returns the number of audits currently holding a slot.
func (l *AuditLimiter) Active() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until all active audits complete or ctx is done.
// Used at shutdown so in-flight uploads finish before the store closes.
func (l *AuditLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.max); err != nil {
		return err
	}
	l.sem.Release(l.max)
	return nil
}
