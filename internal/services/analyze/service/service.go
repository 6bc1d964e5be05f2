// Package service runs one analysis of one video: collect, clean, embed,
// classify with optional summary and subtitle fusion, then aggregate
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"danmood/internal/core/aggregate"
	"danmood/internal/core/classify"
	"danmood/internal/core/labels"
	"danmood/internal/core/langhint"
	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
	ptime "danmood/internal/platform/time"
	"danmood/internal/services/analyze/domain"
	embeddom "danmood/internal/services/embed/domain"
	fetchdom "danmood/internal/services/fetch/domain"
	cachedom "danmood/internal/services/labelcache/domain"
)

// Config holds configuration options for the analyze service
type Config struct {
	Labels      labels.Set // zero value selects labels.Default()
	SampleLimit int        // clamped to [MinSample, MaxSample]

	Classify  classify.Config
	Aggregate aggregate.Options
	Tokenizer aggregate.Tokenizer // nil skips keywords

	SummaryPrior   bool
	PriorAlpha     float64
	Subtitles      bool
	SubtitleBeta   float64
	SubtitleWindow float64 // seconds

	// Timeout bounds the whole run; zero inherits the parent deadline
	Timeout time.Duration

	Clock ptime.Clock
	NewID func() string // run ids; nil -> uuid
}

// Service implements domain.AnalyzerPort
type Service struct {
	Collector fetchdom.CollectorPort
	Embedder  embeddom.EmbedderPort
	Cache     cachedom.CachePort // nil embeds prototypes every run
	Meta      domain.MetaSource  // nil disables summary and subtitle fusion
	Cfg       Config
}

var _ domain.AnalyzerPort = (*Service)(nil)

// New constructs the analyze service
func New(col fetchdom.CollectorPort, emb embeddom.EmbedderPort, cache cachedom.CachePort, meta domain.MetaSource, cfg Config) *Service {
	if col == nil || emb == nil {
		panic("analyze.Service requires a collector and an embedder")
	}
	if cfg.Labels.Len() == 0 {
		cfg.Labels = labels.Default()
	}
	cfg.SampleLimit = ClampSample(cfg.SampleLimit)
	if cfg.Classify == (classify.Config{}) {
		cfg.Classify = classify.DefaultConfig()
	}
	cfg.Classify = cfg.Classify.Clamped()
	if cfg.Aggregate == (aggregate.Options{}) {
		cfg.Aggregate = aggregate.DefaultOptions()
	}
	if cfg.Clock == nil {
		cfg.Clock = ptime.System
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{Collector: col, Embedder: emb, Cache: cache, Meta: meta, Cfg: cfg}
}

// Run analyzes req.BVID. Preconditions (label set, credential, comments,
// prototypes) fail the run; priors, subtitles and single batches degrade
func (s *Service) Run(ctx context.Context, req domain.Request) (domain.Report, error) {
	const op = "analyze.Run"
	start := s.Cfg.Clock.Now()
	rep := domain.Report{RunID: s.Cfg.NewID(), BVID: req.BVID, StartedAt: start}
	if s.Cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Cfg.Timeout)
		defer cancel()
	}
	ctx = logger.WithRun(ctx, rep.RunID, req.BVID)
	log := logger.NamedC(ctx, "analyze")

	set, err := s.Cfg.Labels.Filter(req.Enabled)
	if err != nil {
		return rep, perr.WithOp(err, op)
	}
	if err := s.Embedder.CheckCredential(); err != nil {
		return rep, perr.WithOp(err, op)
	}
	rep.Model, rep.Dimensions = s.Embedder.Model(), s.Embedder.Dimensions()
	rep.Labels, rep.Neutral = set.Keys(), set.NeutralKey()

	col, err := s.Collector.Collect(ctx, req.BVID)
	if err != nil {
		return rep, perr.WithOp(err, op)
	}
	rep.Diagnostics = Summarize(col.Parts)
	if rep.Diagnostics.Throttled {
		log.Warn().
			Int("status_412", rep.Diagnostics.StatusCounts[412]).
			Msg("segment requests were throttled, results may be incomplete")
	}
	rep.Counts.Collected, rep.Counts.Unique, rep.Counts.History = col.Collected, len(col.Comments), col.History

	sample := Clean(col.Comments, s.Cfg.SampleLimit)
	rep.Counts.Sampled = len(sample)
	if len(sample) == 0 {
		return rep, perr.WithOp(perr.Preconditionf("no usable comments among %d collected", len(col.Comments)), op)
	}
	rep.Scripts = map[string]int{}
	for _, c := range sample {
		if p := langhint.Detect(c.Text); p.Script != "" {
			rep.Scripts[p.Script]++
		}
	}

	clf, hit, err := s.classifier(ctx, set)
	if err != nil {
		return rep, perr.WithOp(err, op)
	}
	rep.LabelCacheHit = hit

	priors := s.priors(ctx, clf, req.BVID)
	subs := s.subtitles(ctx, req.BVID)
	rep.PriorAnchors, rep.SubtitleCues = priors.Len(), subs.Len()

	texts := make([]string, len(sample))
	for i, c := range sample {
		texts[i] = c.Text
	}
	emb, err := s.Embedder.Run(ctx, texts)
	if err != nil {
		return rep, perr.WithOp(err, op)
	}
	rep.Counts.Embedded = emb.Embedded
	rep.EmbedFailures = emb.Failed

	results := make([]classify.Result, 0, emb.Embedded)
	for i, c := range sample {
		if i >= len(emb.Vectors) || emb.Vectors[i] == nil {
			continue
		}
		var fuser classify.WeightFuser
		if priors != nil {
			fuser = priors
		}
		r, err := clf.Classify(c.Time, c.Text, subs.Blend(c.Time, emb.Vectors[i]), fuser)
		if err != nil {
			return rep, perr.WithOp(err, op)
		}
		if r.Gated {
			rep.Counts.Gated++
		}
		results = append(results, r)
	}
	rep.Counts.Classified = len(results)
	rep.Results = results
	rep.Summary = aggregate.Aggregate(results, set.Keys(), s.Cfg.Tokenizer, s.Cfg.Aggregate)
	rep.Elapsed = s.Cfg.Clock.Now().Sub(start)

	log.Info().
		Int("sampled", rep.Counts.Sampled).
		Int("classified", rep.Counts.Classified).
		Int("gated", rep.Counts.Gated).
		Int("failed_batches", len(rep.EmbedFailures)).
		Int("off_timeline", rep.Summary.OffTimeline).
		Float64("avg_sentiment", rep.Summary.AvgSentiment).
		Dur("elapsed", rep.Elapsed).
		Msg("analysis complete")
	return rep, nil
}

// classifier embeds or loads the label prototypes of set
func (s *Service) classifier(ctx context.Context, set labels.Set) (*classify.Classifier, bool, error) {
	prompts := set.Prompts()
	var (
		protos [][]float64
		hit    bool
		err    error
	)
	if s.Cache != nil {
		protos, hit, err = s.Cache.Vectors(ctx, s.Embedder.Model(), s.Embedder.Dimensions(), prompts, s.Embedder.Adaptive)
	} else {
		protos, err = s.Embedder.Adaptive(ctx, prompts)
	}
	if err != nil {
		return nil, false, perr.Wrap(err, perr.CodeOf(err), "embed label prototypes")
	}
	clf, err := classify.New(set, protos, s.Cfg.Classify)
	if err != nil {
		return nil, false, err
	}
	return clf, hit, nil
}
