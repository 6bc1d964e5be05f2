package module

import (
	"time"

	"danmood/internal/platform/config"
)

// Options holds configuration options for the fetch service
type Options struct {
	Parallel  int           `validate:"gte=1"`
	Attempts  int           `validate:"gte=1,lte=10"`
	RetryBase time.Duration `validate:"gt=0"`

	History         bool
	HistoryMonths   int `validate:"gte=1,lte=24"`
	HistoryDates    int `validate:"gte=1"`
	HistoryParallel int `validate:"gte=1,lte=16"`
}

// FromConfig reads the fetch options from config with DANMOOD_FETCH_ prefix
func FromConfig(cfg config.Conf) Options {
	f := cfg.Prefix("DANMOOD_FETCH_")
	return Options{
		Parallel:        f.MayInt("PARALLEL", 8),
		Attempts:        f.MayInt("ATTEMPTS", 3),
		RetryBase:       f.MayDuration("RETRY_BASE", 300*time.Millisecond),
		History:         f.MayBool("HISTORY", false),
		HistoryMonths:   f.MayInt("HISTORY_MONTHS", 1),
		HistoryDates:    f.MayInt("HISTORY_DATES", 30),
		HistoryParallel: f.MayInt("HISTORY_PARALLEL", 3),
	}
}
