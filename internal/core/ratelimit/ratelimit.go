// Package ratelimit enforces a shared requests-per-minute and tokens-per-minute
// budget over a trailing 60 second window
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
	ptime "danmood/internal/platform/time"
)

// Window is the trailing span both caps are measured over
const Window = 60 * time.Second

// DefaultPoll is how often a blocked Acquire re-checks the window
const DefaultPoll = 30 * time.Millisecond

// Options configures a Limiter
type Options struct {
	RPM   int           // max requests admitted per Window, >= 1
	TPM   int           // max estimated tokens admitted per Window, >= 1
	Poll  time.Duration // re-check interval while blocked
	Clock ptime.Clock
}

type sample struct {
	at     time.Time
	tokens int
}

// Limiter is safe for concurrent use. Admission and recording happen under one
// lock so two waiters can never both claim the last unit of capacity
type Limiter struct {
	rpm, tpm int
	poll     time.Duration
	clock    ptime.Clock

	mu      sync.Mutex
	samples []sample // ordered by at
	tokens  int      // sum over samples

	onAdmit func(sample) // test hook, called under mu
}

// New builds a Limiter; non-positive caps are raised to 1
func New(opt Options) *Limiter {
	l := &Limiter{
		rpm:   max(1, opt.RPM),
		tpm:   max(1, opt.TPM),
		poll:  opt.Poll,
		clock: opt.Clock,
	}
	if l.poll <= 0 {
		l.poll = DefaultPoll
	}
	if l.clock == nil {
		l.clock = ptime.System
	}
	return l
}

// EstimateTokens is the rough token count of a batch: ceil(chars * 1.1)
func EstimateTokens(texts []string) int {
	chars := 0
	for _, t := range texts {
		chars += utf8.RuneCountInString(t)
	}
	return int(math.Ceil(float64(chars) * 1.1))
}

// Acquire blocks until one more request carrying tokens fits under both caps,
// then records it in the window. It returns early with ctx's error on
// cancellation. A request larger than the token cap can never fit and fails
// with InvalidArgument
func (l *Limiter) Acquire(ctx context.Context, tokens int) error {
	tokens = max(0, tokens)
	if tokens > l.tpm {
		return perr.InvalidArgf("request of %d tokens exceeds the %d tokens/min cap", tokens, l.tpm)
	}
	waited := false
	for {
		if l.tryAdmit(tokens) {
			if waited {
				logger.NamedC(ctx, "ratelimit").Debug().Int("tokens", tokens).Msg("admitted after wait")
			}
			return nil
		}
		if !waited {
			req, tok := l.Stats()
			logger.NamedC(ctx, "ratelimit").Debug().
				Int("window_requests", req).Int("window_tokens", tok).
				Int("rpm", l.rpm).Int("tpm", l.tpm).Msg("rate window full; waiting")
			waited = true
		}
		if err := l.clock.Sleep(ctx, l.poll); err != nil {
			return perr.Wrap(err, perr.CodeOf(err), "rate limiter wait")
		}
	}
}

func (l *Limiter) tryAdmit(tokens int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	l.pruneLocked(now)
	if len(l.samples)+1 > l.rpm || l.tokens+tokens > l.tpm {
		return false
	}
	s := sample{at: now, tokens: tokens}
	l.samples = append(l.samples, s)
	l.tokens += tokens
	if l.onAdmit != nil {
		l.onAdmit(s)
	}
	return true
}

// pruneLocked drops samples that fell out of the window; samples are
// time-ordered so this only touches the evicted prefix
func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-Window)
	i := 0
	for i < len(l.samples) && l.samples[i].at.Before(cutoff) {
		l.tokens -= l.samples[i].tokens
		i++
	}
	if i > 0 {
		l.samples = append(l.samples[:0], l.samples[i:]...)
	}
}

// Stats reports the requests and tokens currently inside the window
func (l *Limiter) Stats() (requests, tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.clock.Now())
	return len(l.samples), l.tokens
}

// Caps returns the configured limits
func (l *Limiter) Caps() (rpm, tpm int) { return l.rpm, l.tpm }
