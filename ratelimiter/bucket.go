package ratelimiter

import (
	"sync"
	"time"
)

// Bucket is a request bucket refilled continuously over an interval.
type Bucket struct {
	mu         sync.Mutex
	capacity   float64
	remaining  float64
	interval   time.Duration
	lastRefill time.Time
	now        func() time.Time
}

// Ensure Bucket implements Limiter.
var _ Limiter = (*Bucket)(nil)

// New creates a bucket allowing requestsPerMinute requests, starting full.
func New(requestsPerMinute int) *Bucket {
	return NewBucket(requestsPerMinute, time.Minute)
}

// NewBucket creates a bucket of the given capacity refilled over interval.
func NewBucket(capacity int, interval time.Duration) *Bucket {
	return &Bucket{
		capacity:   float64(capacity),
		remaining:  float64(capacity),
		interval:   interval,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// TryAcquire takes one slot if available.
func (b *Bucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.remaining < 1 {
		return false
	}
	b.remaining--
	return true
}

// TimeUntilAvailable returns how long until one slot is available.
func (b *Bucket) TimeUntilAvailable() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.remaining >= 1 || b.capacity <= 0 {
		return 0
	}
	perSlot := float64(b.interval) / b.capacity
	return time.Duration((1 - b.remaining) * perSlot)
}

// refill adds slots proportional to elapsed time. Callers hold mu.
func (b *Bucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 || b.interval <= 0 {
		return
	}
	b.remaining = min(b.capacity, b.remaining+b.capacity*float64(elapsed)/float64(b.interval))
	b.lastRefill = now
}
