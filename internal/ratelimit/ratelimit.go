package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Waiter blocks for some policy-defined duration or until ctx is done.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Jitter waits a uniformly random duration in [min, max] on every call.
type Jitter struct {
	minDelay time.Duration
	maxDelay time.Duration
	mu       sync.Mutex
	rnd      *rand.Rand
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewJitter(minDelay, maxDelay time.Duration) *Jitter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Jitter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    Sleep,
	}
}

func (j *Jitter) Wait(ctx context.Context) error {
	return j.sleep(ctx, j.Delay())
}

// Delay draws the next delay without sleeping.
func (j *Jitter) Delay() time.Duration {
	if j.minDelay == j.maxDelay {
		return j.minDelay
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	delta := j.maxDelay - j.minDelay
	return j.minDelay + time.Duration(j.rnd.Int63n(int64(delta)+1))
}

// Pacer caps the request rate with a token bucket. A zero rate means unlimited.
type Pacer struct {
	limiter *rate.Limiter
}

func NewPacer(perSecond float64) *Pacer {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Sleep pauses for d and returns early with ctx.Err() on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
