package service

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linear waits step*(n+1) before the n-th retry
type linear struct {
	step time.Duration
	n    int
}

var _ backoff.BackOff = (*linear)(nil)

func (l *linear) NextBackOff() time.Duration {
	l.n++
	return l.step * time.Duration(l.n)
}

func (l *linear) Reset() { l.n = 0 }
