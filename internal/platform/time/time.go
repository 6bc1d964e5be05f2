// Package time contains clock seams and context-aware sleeping
package time

import (
	"context"
	"sync"
	"time"
)

// Clock is the seam components use instead of calling time directly
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case
	Sleep(ctx context.Context, d time.Duration) error
}

// System is the wall clock
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error { return SleepCtx(ctx, d) }

// SleepCtx sleeps for d unless ctx is canceled first
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fake is a virtual clock: Sleep advances Now instantly. Safe for concurrent use
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	onStep func(d time.Duration)
}

// NewFake returns a Fake positioned at start
func NewFake(start time.Time) *Fake { return &Fake{now: start} }

// Now returns the virtual time
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep records d and advances the clock by it
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.slept = append(f.slept, d)
	hook := f.onStep
	f.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return nil
}

// Advance moves the clock forward without recording a sleep
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Slept returns a copy of every duration passed to Sleep
func (f *Fake) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.slept...)
}

// OnSleep installs a hook called after every Sleep
func (f *Fake) OnSleep(fn func(d time.Duration)) {
	f.mu.Lock()
	f.onStep = fn
	f.mu.Unlock()
}

// Timer adapts a Clock to the Start/Stop/C timer shape retry libraries accept.
// Not safe for concurrent use; each retry loop owns one
type Timer struct {
	clock  Clock
	c      chan time.Time
	cancel context.CancelFunc
}

// NewTimer returns a Timer driven by c
func NewTimer(c Clock) *Timer {
	if c == nil {
		c = System
	}
	return &Timer{clock: c}
}

// Start arms the timer for d, replacing any pending wait
func (t *Timer) Start(d time.Duration) {
	t.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan time.Time, 1)
	t.c, t.cancel = ch, cancel
	go func() {
		if t.clock.Sleep(ctx, d) == nil {
			ch <- t.clock.Now()
		}
	}()
}

// Stop abandons the pending wait, if any
func (t *Timer) Stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// C fires once the armed duration has elapsed
func (t *Timer) C() <-chan time.Time { return t.c }
