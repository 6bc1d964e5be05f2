// Package service provides the label-embedding cache. The cache is an
// optimization: backend errors degrade to a miss and never fail a run
package service

import (
	"context"
	"time"

	"danmood/internal/core/labels"
	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
	ptime "danmood/internal/platform/time"
	"danmood/internal/services/labelcache/domain"
)

// Config holds configuration options for the cache service
type Config struct {
	TTL   time.Duration // 0 keeps entries until the prompt set changes
	Clock ptime.Clock
}

// Service implements domain.CachePort
type Service struct {
	Repo domain.Repo
	Cfg  Config
}

var _ domain.CachePort = (*Service)(nil)

// New constructs the cache service
func New(r domain.Repo, cfg Config) *Service {
	if r == nil {
		panic("labelcache.Service requires a non nil Repo")
	}
	if cfg.Clock == nil {
		cfg.Clock = ptime.System
	}
	return &Service{Repo: r, Cfg: cfg}
}

// Vectors implements domain.CachePort. Cached vectors are only used when
// there is one per prompt and all share a length
func (s *Service) Vectors(ctx context.Context, model string, dims int, prompts []string, embed domain.EmbedFunc) ([][]float64, bool, error) {
	if len(prompts) == 0 {
		return nil, false, perr.Preconditionf("no label prompts to embed")
	}
	log := logger.NamedC(ctx, "labelcache")
	key := labels.CacheKey(model, dims, prompts)

	e, ok, err := s.Repo.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("key", key).Msg("label cache read failed")
	case ok && s.usable(e, len(prompts)):
		log.Debug().Str("key", key).Msg("label cache hit")
		return e.Vectors, true, nil
	case ok:
		log.Debug().Str("key", key).Msg("label cache entry stale or mismatched")
	}

	vecs, err := embed(ctx, prompts)
	if err != nil {
		return nil, false, perr.WithOp(err, "labelcache.Vectors")
	}
	if len(vecs) != len(prompts) {
		return nil, false, perr.Malformedf("embedded %d label prompts, want %d", len(vecs), len(prompts))
	}
	if err := s.Repo.Put(ctx, key, domain.Entry{Vectors: vecs, CreatedAt: s.Cfg.Clock.Now()}); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("label cache write failed")
	}
	return vecs, false, nil
}

func (s *Service) usable(e domain.Entry, n int) bool {
	if len(e.Vectors) != n {
		return false
	}
	d := len(e.Vectors[0])
	for _, v := range e.Vectors {
		if len(v) == 0 || len(v) != d {
			return false
		}
	}
	if s.Cfg.TTL > 0 && s.Cfg.Clock.Now().Sub(e.CreatedAt) > s.Cfg.TTL {
		return false
	}
	return true
}
