package module

import (
	"time"

	"danmood/internal/platform/config"
)

// Backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options holds configuration options for the label cache
type Options struct {
	Backend string        `validate:"oneof=memory sqlite redis postgres"`
	TTL     time.Duration `validate:"gte=0"`
}

// FromConfig reads the cache options from config with DANMOOD_CACHE_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("DANMOOD_CACHE_")
	return Options{
		Backend: c.MayEnum("BACKEND", BackendMemory, BackendMemory, BackendSQLite, BackendRedis, BackendPostgres),
		TTL:     c.MayDuration("TTL", 0),
	}
}
