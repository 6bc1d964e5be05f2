package module

import (
	"time"

	"danmood/internal/core/aggregate"
	"danmood/internal/core/classify"
	"danmood/internal/core/keywords"
	"danmood/internal/platform/config"
)

// Options holds configuration options for the analyze service
type Options struct {
	SampleLimit int           `validate:"gte=0"`
	Timeout     time.Duration `validate:"gte=0"`
	// LabelFile replaces the embedded pack when set
	LabelFile string
	// Labels restricts the pack to these keys when non-empty
	Labels []string

	Classify  classify.Config  
	Aggregate aggregate.Options

	Whitelist        []string
	Stopwords        []string
	BuiltinStopwords bool

	SummaryPrior   bool
	PriorAlpha     float64 `validate:"gte=0,lte=0.8"`
	Subtitles      bool
	SubtitleBeta   float64 `validate:"gte=0,lte=0.6"`
	SubtitleWindow float64 `validate:"gte=1"`
}

// FromConfig reads the analyze options from the DANMOOD_ANALYZE_,
// DANMOOD_CLASSIFY_, DANMOOD_FUSION_ and DANMOOD_AGG_ namespaces. Numeric
// knobs are clamped to their documented ranges
func FromConfig(cfg config.Conf) Options {
	a := cfg.Prefix("DANMOOD_ANALYZE_")
	c := cfg.Prefix("DANMOOD_CLASSIFY_")
	f := cfg.Prefix("DANMOOD_FUSION_")
	g := cfg.Prefix("DANMOOD_AGG_")
	return Options{
		SampleLimit: a.MayIntIn("SAMPLE", 4000, 100, 5000),
		Timeout:     a.MayDuration("TIMEOUT", 0),
		LabelFile:   a.MayString("LABEL_FILE", ""),
		Labels:      a.MayCSV("LABELS", nil),

		Classify: classify.Config{
			Temperature: c.MayFloat64In("TEMPERATURE", 0.08, 0.01, 1),
			MinBest:     c.MayFloat64In("MIN_BEST", 0.20, 0, 1),
			MinMargin:   c.MayFloat64In("MIN_MARGIN", 0.06, 0, 1),
		},
		Aggregate: aggregate.Options{
			BinSize: g.MayFloat64("BIN", aggregate.DefaultBinSize),
			SmoothK: g.MayIntIn("SMOOTH", aggregate.DefaultSmoothK, 0, 20),
			TopN:    g.MayIntIn("TOP_N", keywords.DefaultTopN, keywords.MinTopN, keywords.MaxTopN),
		},

		Whitelist:        g.MayCSV("WHITELIST", nil),
		Stopwords:        g.MayCSV("STOPWORDS", nil),
		BuiltinStopwords: g.MayBool("BUILTIN_STOPWORDS", true),

		SummaryPrior:   f.MayBool("SUMMARY", true),
		PriorAlpha:     f.MayFloat64In("ALPHA", 0.15, 0, 0.8),
		Subtitles:      f.MayBool("SUBTITLES", false),
		SubtitleBeta:   f.MayFloat64In("BETA", 0.25, 0, 0.6),
		SubtitleWindow: f.MayFloat64("WINDOW", 6),
	}
}
