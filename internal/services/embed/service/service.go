// Package service provides the embedding service: per-attempt timeouts,
// linear retry, adaptive batch splitting and a rate-limited batch runner
package service

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"danmood/internal/core/ratelimit"
	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
	ptime "danmood/internal/platform/time"
	"danmood/internal/services/embed/domain"
)

// Config holds configuration options for the embedding service
type Config struct {
	AttemptTimeout time.Duration // per remote call; <=0 -> 25s
	Retries        int           // retries after the first attempt; <0 -> 0
	RetryStep      time.Duration // linear backoff step; <=0 -> 200ms
	MaxDepth       int           // split depth ceiling; <=0 -> 4

	BatchSize   int           // <=0 -> 64
	Concurrency int           // batch workers; <=0 -> 1
	Delay       time.Duration // per-worker pause between batches

	Clock ptime.Clock
}

// Service implements domain.EmbedderPort
type Service struct {
	Remote  domain.Remote
	Limiter domain.Limiter // nil admits everything
	Cfg     Config
}

var _ domain.EmbedderPort = (*Service)(nil)

// New constructs the embedding service
func New(remote domain.Remote, lim domain.Limiter, cfg Config) *Service {
	if remote == nil {
		panic("embed.Service requires a non nil Remote")
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 25 * time.Second
	}
	cfg.Retries = max(cfg.Retries, 0)
	if cfg.RetryStep <= 0 {
		cfg.RetryStep = 200 * time.Millisecond
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	cfg.Concurrency = max(cfg.Concurrency, 1)
	if cfg.Clock == nil {
		cfg.Clock = ptime.System
	}
	return &Service{Remote: remote, Limiter: lim, Cfg: cfg}
}

// Model is the remote model id
func (s *Service) Model() string { return s.Remote.Model() }

// Dimensions is the requested vector size, 0 for the model default
func (s *Service) Dimensions() int { return s.Remote.Dimensions() }

// CheckCredential delegates to the remote
func (s *Service) CheckCredential() error { return s.Remote.CheckCredential() }

// Adaptive embeds texts, retrying transient failures and, once retries are
// spent on a retryable error, embedding each half independently. A single
// item or a non-retryable error is returned to the caller
func (s *Service) Adaptive(ctx context.Context, texts []string) ([][]float64, error) {
	if err := s.Remote.CheckCredential(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}
	return s.adaptive(ctx, texts, 0)
}

func (s *Service) adaptive(ctx context.Context, texts []string, depth int) ([][]float64, error) {
	vecs, err := s.withRetry(ctx, texts)
	if err == nil {
		return vecs, nil
	}
	if !perr.Retryable(err) || len(texts) <= 1 || depth >= s.Cfg.MaxDepth || ctx.Err() != nil {
		return nil, err
	}
	mid := (len(texts) + 1) / 2
	logger.NamedC(ctx, "embed").Warn().
		Err(err).
		Int("size", len(texts)).
		Int("depth", depth).
		Msg("batch failed after retries, splitting")

	left, err := s.adaptive(ctx, texts[:mid], depth+1)
	if err != nil {
		return nil, err
	}
	right, err := s.adaptive(ctx, texts[mid:], depth+1)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

// withRetry makes up to Retries+1 attempts, each bounded by AttemptTimeout
func (s *Service) withRetry(ctx context.Context, texts []string) ([][]float64, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(&linear{step: s.Cfg.RetryStep}, uint64(s.Cfg.Retries)), ctx)

	var out [][]float64
	op := func() error {
		actx, cancel := context.WithTimeout(ctx, s.Cfg.AttemptTimeout)
		defer cancel()
		vecs, err := s.Remote.Embed(actx, texts)
		if err == nil && len(vecs) != len(texts) {
			err = perr.Malformedf("embedded %d of %d inputs", len(vecs), len(texts))
		}
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(perr.Wrap(ctx.Err(), perr.CodeOf(ctx.Err()), "embedding canceled"))
			}
			if actx.Err() != nil && !perr.Retryable(err) {
				err = perr.Wrapf(err, perr.ErrorCodeTimeout, "embedding attempt exceeded %s", s.Cfg.AttemptTimeout)
			}
			if perr.Retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = vecs
		return nil
	}
	notify := func(err error, d time.Duration) {
		logger.NamedC(ctx, "embed").Debug().Err(err).Int("size", len(texts)).Dur("retry_in", d).Msg("embedding retry")
	}
	if err := backoff.RetryNotifyWithTimer(op, policy, notify, ptime.NewTimer(s.Cfg.Clock)); err != nil {
		return nil, err
	}
	return out, nil
}

// Run splits texts into batches and embeds them with Concurrency workers,
// each batch admitted by the rate limiter first. A batch that still fails
// after adaptive splitting is recorded and skipped; the run only fails when
// the credential is missing, ctx ends, or no batch succeeds
func (s *Service) Run(ctx context.Context, texts []string) (domain.Result, error) {
	if err := s.Remote.CheckCredential(); err != nil {
		return domain.Result{}, err
	}
	n := len(texts)
	size := s.Cfg.BatchSize
	batches := (n + size - 1) / size
	res := domain.Result{Vectors: make([][]float64, n), Batches: batches}
	if batches == 0 {
		return res, nil
	}
	log := logger.NamedC(ctx, "embed")

	var (
		next    atomic.Int64
		mu      sync.Mutex
		lastErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	for range min(s.Cfg.Concurrency, batches) {
		g.Go(func() error {
			for first := true; ; first = false {
				b := int(next.Add(1)) - 1
				if b >= batches {
					return nil
				}
				if !first && s.Cfg.Delay > 0 {
					if err := s.Cfg.Clock.Sleep(gctx, s.Cfg.Delay); err != nil {
						return perr.Wrap(err, perr.CodeOf(err), "embedding pacing")
					}
				}
				start := b * size
				end := min(start+size, n)
				batch := texts[start:end]

				if s.Limiter != nil {
					if err := s.Limiter.Acquire(gctx, ratelimit.EstimateTokens(batch)); err != nil {
						if gctx.Err() != nil {
							return err
						}
						s.recordFailure(&mu, &res, &lastErr, b, start, len(batch), err)
						continue
					}
				}
				vecs, err := s.adaptive(gctx, batch, 0)
				if err != nil {
					if gctx.Err() != nil {
						return perr.Wrap(gctx.Err(), perr.CodeOf(gctx.Err()), "embedding run stopped")
					}
					log.Warn().Err(err).Int("batch", b).Int("size", len(batch)).Msg("batch failed, skipping")
					s.recordFailure(&mu, &res, &lastErr, b, start, len(batch), err)
					continue
				}
				mu.Lock()
				copy(res.Vectors[start:end], vecs)
				res.Embedded += len(vecs)
				mu.Unlock()
				log.Debug().Int("batch", b).Int("size", len(batch)).Msg("batch embedded")
			}
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Result{}, err
	}
	slices.SortFunc(res.Failed, func(a, b domain.BatchFailure) int { return a.Batch - b.Batch })
	if res.Embedded == 0 {
		return domain.Result{}, perr.WithOp(perr.Wrap(lastErr, perr.CodeOf(lastErr), "every embedding batch failed"), "embed.Run")
	}
	log.Info().
		Int("texts", n).
		Int("batches", batches).
		Int("embedded", res.Embedded).
		Int("failed_batches", len(res.Failed)).
		Msg("embedding finished")
	return res, nil
}

func (s *Service) recordFailure(mu *sync.Mutex, res *domain.Result, last *error, b, start, size int, err error) {
	mu.Lock()
	defer mu.Unlock()
	res.Failed = append(res.Failed, domain.BatchFailure{Batch: b, Start: start, Size: size, Error: err.Error()})
	*last = err
}
