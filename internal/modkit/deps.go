// Package modkit provides module wiring and core deps
package modkit

import (
	"danmood/internal/platform/config"
	"danmood/internal/platform/logger"
	"danmood/internal/platform/store"
	ptime "danmood/internal/platform/time"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	Store *store.Store // nil when no cache backend is configured
	Clock ptime.Clock  // nil means wall clock
}

// Now is the configured clock, defaulting to the wall clock
func (d Deps) Now() ptime.Clock {
	if d.Clock == nil {
		return ptime.System
	}
	return d.Clock
}
