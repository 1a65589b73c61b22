package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitterDelayWithinBounds(t *testing.T) {
	j := NewJitter(2*time.Second, 5*time.Second)

	for i := 0; i < 1000; i++ {
		d := j.Delay()
		if d < 2*time.Second || d > 5*time.Second {
			t.Fatalf("delay %v outside [2s, 5s]", d)
		}
	}
}

func TestJitterFixedDelay(t *testing.T) {
	j := NewJitter(time.Second, time.Second)
	assert.Equal(t, time.Second, j.Delay())

	inverted := NewJitter(3*time.Second, time.Second)
	assert.Equal(t, 3*time.Second, inverted.Delay())
}

func TestJitterWaitUsesSleep(t *testing.T) {
	j := NewJitter(10*time.Millisecond, 20*time.Millisecond)

	var slept []time.Duration
	j.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	assert.NoError(t, j.Wait(context.Background()))
	assert.Len(t, slept, 1)
	assert.GreaterOrEqual(t, slept[0], 10*time.Millisecond)
}

func TestSleepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepZero(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestPacerUnlimited(t *testing.T) {
	p := NewPacer(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		assert.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacerCancelled(t *testing.T) {
	p := NewPacer(0.001)
	assert.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Wait(ctx))
}
