package module

import (
	"time"

	"danmood/internal/platform/config"
)

// Options holds configuration options for the embedding service
type Options struct {
	BaseURL    string `validate:"required,url"`
	APIKey     string
	Model      string `validate:"required"`
	Dimensions int    `validate:"gte=0,lte=8192"`

	BatchSize      int           `validate:"gte=1,lte=512"`
	Concurrency    int           `validate:"gte=1,lte=64"`
	Delay          time.Duration `validate:"gte=0"`
	AttemptTimeout time.Duration `validate:"gt=0"`
	Retries        int           `validate:"gte=0,lte=10"`
	RetryStep      time.Duration `validate:"gt=0"`
	MaxDepth       int           `validate:"gte=0,lte=8"`

	RPM int `validate:"gte=1"`
	TPM int `validate:"gte=1"`
}

// FromConfig reads the embedding options from config with DANMOOD_EMBED_
// and DANMOOD_RATE_ prefixes
func FromConfig(cfg config.Conf) Options {
	e := cfg.Prefix("DANMOOD_EMBED_")
	r := cfg.Prefix("DANMOOD_RATE_")
	return Options{
		BaseURL:        e.MayString("BASE_URL", "https://api.siliconflow.cn"),
		APIKey:         e.MayString("API_KEY", ""),
		Model:          e.MayString("MODEL", "Qwen/Qwen3-Embedding-8B"),
		Dimensions:     e.MayInt("DIMENSIONS", 4096),
		BatchSize:      e.MayInt("BATCH", 64),
		Concurrency:    e.MayInt("CONCURRENCY", 12),
		Delay:          e.MayDuration("DELAY", 0),
		AttemptTimeout: e.MayDuration("ATTEMPT_TIMEOUT", 25*time.Second),
		Retries:        e.MayInt("RETRIES", 2),
		RetryStep:      e.MayDuration("RETRY_STEP", 200*time.Millisecond),
		MaxDepth:       e.MayInt("SPLIT_DEPTH", 4),
		RPM:            r.MayInt("RPM", 2000),
		TPM:            r.MayInt("TPM", 1_000_000),
	}
}
