// Package service provides the comment collection service
package service

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"danmood/internal/core/dmseg"
	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
	ptime "danmood/internal/platform/time"
	"danmood/internal/services/fetch/domain"
)

// MaxParallel caps concurrent segment fetches whatever the configuration says
const MaxParallel = 6

// Config holds configuration options for the fetch service
type Config struct {
	Parallel  int           // segment workers; clamped to [1, MaxParallel]
	Attempts  int           // attempts per segment; <=0 -> 3
	RetryBase time.Duration // backoff base for throttled attempts; <=0 -> 300ms

	// History snapshots (logged-in cookie required upstream)
	History         bool
	HistoryMonths   int // <=0 -> 1
	HistoryDates    int // most recent dates kept; <=0 -> 30
	HistoryParallel int // <=0 -> 3

	Clock ptime.Clock
}

// Service implements domain.CollectorPort
type Service struct {
	Src domain.Source
	Cfg Config
}

var _ domain.CollectorPort = (*Service)(nil)

// New constructs the fetch service
func New(src domain.Source, cfg Config) *Service {
	if src == nil {
		panic("fetch.Service requires a non nil Source")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 300 * time.Millisecond
	}
	if cfg.HistoryMonths <= 0 {
		cfg.HistoryMonths = 1
	}
	if cfg.HistoryDates <= 0 {
		cfg.HistoryDates = 30
	}
	if cfg.HistoryParallel <= 0 {
		cfg.HistoryParallel = 3
	}
	if cfg.Clock == nil {
		cfg.Clock = ptime.System
	}
	return &Service{Src: src, Cfg: cfg}
}

// workers is the pool size for total segments
func (s *Service) workers(total int) int {
	return max(1, min(s.Cfg.Parallel, MaxParallel, total))
}

// FetchSegments retrieves every segment of one part with a bounded pool and
// flattens them in index order. Only the segment count lookup is fatal;
// a segment that keeps failing contributes nothing and is recorded as failed
func (s *Service) FetchSegments(ctx context.Context, cid int64, referrer string) (domain.Result, error) {
	total, err := s.Src.SegmentTotal(ctx, cid)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Result{}, perr.Wrap(ctx.Err(), perr.ErrorCodeCanceled, "segment count lookup canceled")
		}
		return domain.Result{}, perr.WithOp(perr.Wrapf(err, perr.ErrorCodePrecondition, "segment count lookup for cid %d", cid), "fetch.FetchSegments")
	}

	log := logger.NamedC(ctx, "fetch")
	segs := make([][]dmseg.Comment, total)
	diags := make([]domain.SegmentDiag, total)

	var next atomic.Int64
	var wg sync.WaitGroup
	for range s.workers(total) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= total || ctx.Err() != nil {
					return
				}
				cs, d := s.fetchOne(ctx, cid, i+1, referrer)
				segs[i], diags[i] = cs, d
				if !d.OK {
					log.Warn().Int64("cid", cid).Int("seg", d.Seg).Int("status", d.Status).Msg("segment failed")
				}
			}
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return domain.Result{}, perr.Wrap(err, perr.ErrorCodeCanceled, "segment fetch canceled")
	}

	comments, resorted := Flatten(segs)
	log.Debug().
		Int64("cid", cid).
		Int("segments", total).
		Int("comments", len(comments)).
		Bool("resorted", resorted).
		Msg("segments fetched")
	return domain.Result{
		Comments:      comments,
		Diagnostics:   diags,
		TotalSegments: total,
		Resorted:      resorted,
	}, nil
}

// throttled reports the rate-limited/forbidden class that earns a backoff
func throttled(status int) bool {
	return status == http.StatusForbidden || status == http.StatusPreconditionFailed
}

// fetchOne runs up to Attempts tries for one segment, backing off
// base*2^attempt after a throttled response and giving up at once otherwise
func (s *Service) fetchOne(ctx context.Context, cid int64, index int, referrer string) ([]dmseg.Comment, domain.SegmentDiag) {
	d := domain.SegmentDiag{Seg: index, Status: -1}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.Cfg.RetryBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = s.Cfg.RetryBase << s.Cfg.Attempts
	b.MaxElapsedTime = 0
	b.Clock = s.Cfg.Clock
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.Cfg.Attempts-1)), ctx)

	var body []byte
	op := func() error {
		raw, status, err := s.Src.Segment(ctx, cid, index, referrer)
		d.Status = status
		if err != nil {
			if throttled(status) {
				return err
			}
			return backoff.Permanent(err)
		}
		body = raw
		return nil
	}
	if err := backoff.RetryNotifyWithTimer(op, policy, nil, ptime.NewTimer(s.Cfg.Clock)); err != nil {
		return nil, d
	}
	cs := dmseg.Decode(body)
	d.OK = true
	d.Count = len(cs)
	return cs, d
}
