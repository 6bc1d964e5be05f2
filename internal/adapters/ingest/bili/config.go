package bili

import "danmood/internal/platform/config"

// FromConfig reads client options from config with DANMOOD_BILI_ prefix
func FromConfig(cfg config.Conf) Options {
	b := cfg.Prefix("DANMOOD_BILI_")
	return Options{
		BaseURL:    b.MayString("BASE_URL", baseURLDefault),
		SiteURL:    b.MayString("SITE_URL", siteURLDefault),
		UserAgent:  b.MayString("USER_AGENT", defaultUA),
		Timeout:    b.MayDuration("TIMEOUT", defaultTimeout),
		Cookie:     b.MayString("COOKIE", ""),
		RPS:        b.MayFloat64("RPS", 0),
		Burst:      b.MayIntIn("BURST", 1, 1, 64),
		MaxRetries: b.MayIntIn("RETRIES", defaultMaxRetry, 0, 10),
		RetryBase:  b.MayDuration("RETRY_BASE", defaultRetryBase),
	}
}
