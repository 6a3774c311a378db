package usecase

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyUploads is returned when all cleaning slots stay occupied for
// longer than the limiter's max wait.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	defaultMaxConcurrent = 4
	defaultMaxWait       = 30 * time.Second
)

// UploadLimiter bounds how many files are cleaned at once.
type UploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

// NewUploadLimiter allows at most maxConcurrent simultaneous cleanings.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	return &UploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a free slot. The caller must Release after a nil return.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-timer.C:
		return ErrTooManyUploads
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *UploadLimiter) Release() {
	select {
	case <-l.slots:
		l.mu.Lock()
		l.active--
		l.mu.Unlock()
	default:
	}
}

// Active reports the number of occupied slots.
func (l *UploadLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}
