package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"danmood/internal/core/dmseg"
	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
	"danmood/internal/services/fetch/domain"
)

// Collect gathers every part of a video. A part whose segment path fails
// falls back to the XML list; history snapshots are added when enabled.
// The merged list is deduplicated and time sorted; an empty result is fatal
func (s *Service) Collect(ctx context.Context, bvid string) (domain.Collection, error) {
	log := logger.NamedC(ctx, "fetch")
	pages, err := s.Src.PageList(ctx, bvid)
	if err != nil {
		return domain.Collection{}, perr.WithOp(perr.Wrapf(err, perr.ErrorCodePrecondition, "list parts of %s", bvid), "fetch.Collect")
	}

	col := domain.Collection{BVID: bvid}
	var all []dmseg.Comment
	var lastErr error
	for i, p := range pages {
		part := p.Page
		if part <= 0 {
			part = i + 1
		}
		res, err := s.FetchSegments(ctx, p.CID, s.Src.Referrer(bvid, part))
		if err == nil {
			all = append(all, res.Comments...)
			col.Parts = append(col.Parts, domain.PartDiag{
				Part: part, CID: p.CID, Diag: res.Diagnostics, Total: res.TotalSegments,
			})
			continue
		}
		if perr.IsCode(err, perr.ErrorCodeCanceled) {
			return domain.Collection{}, err
		}
		lastErr = err
		log.Warn().Err(err).Int("part", part).Int64("cid", p.CID).Msg("segment path failed, using xml list")

		xml, xerr := s.Src.ListXML(ctx, p.CID)
		if xerr != nil && len(xml) == 0 {
			lastErr = xerr
			log.Warn().Err(xerr).Int("part", part).Msg("xml fallback failed")
		}
		all = append(all, xml...)
		col.Parts = append(col.Parts, domain.PartDiag{
			Part:     part,
			CID:      p.CID,
			Diag:     []domain.SegmentDiag{{Seg: 0, OK: false, Status: perr.StatusOf(err), Count: len(xml)}},
			Total:    0,
			Fallback: true,
		})
	}

	if s.Cfg.History {
		cids := make([]int64, 0, len(pages))
		for _, p := range pages {
			cids = append(cids, p.CID)
		}
		hist := s.history(ctx, cids)
		col.History = len(hist)
		all = append(all, hist...)
	}

	col.Collected = len(all)
	col.Comments = Dedup(all)
	if len(col.Comments) == 0 {
		if lastErr == nil {
			lastErr = perr.NotFoundf("no comments")
		}
		return domain.Collection{}, perr.WithOp(perr.Wrapf(lastErr, perr.ErrorCodePrecondition, "no comments collected for %s", bvid), "fetch.Collect")
	}
	log.Info().
		Str("bvid", bvid).
		Int("parts", len(pages)).
		Int("collected", col.Collected).
		Int("unique", len(col.Comments)).
		Int("history", col.History).
		Msg("comments collected")
	return col, nil
}

// Months lists the last n months, newest first, as YYYY-MM
func Months(now time.Time, n int) []string {
	out := make([]string, 0, max(n, 1))
	y, m, _ := now.Date()
	for i := range max(n, 1) {
		out = append(out, time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"))
	}
	return out
}

// historyDates unions the snapshot dates of every cid over the configured
// months and keeps the most recent HistoryDates of them
func (s *Service) historyDates(ctx context.Context, cids []int64) []string {
	log := logger.NamedC(ctx, "fetch")
	seen := map[string]bool{}
	var dates []string
	for _, month := range Months(s.Cfg.Clock.Now(), s.Cfg.HistoryMonths) {
		for _, cid := range cids {
			ds, err := s.Src.HistoryIndex(ctx, cid, month)
			if err != nil {
				log.Debug().Err(err).Int64("cid", cid).Str("month", month).Msg("history index unavailable")
				continue
			}
			for _, d := range ds {
				if d != "" && !seen[d] {
					seen[d] = true
					dates = append(dates, d)
				}
			}
		}
	}
	slices.Sort(dates)
	slices.Reverse(dates)
	if len(dates) > s.Cfg.HistoryDates {
		dates = dates[:s.Cfg.HistoryDates]
	}
	return dates
}

// history fetches the snapshots of every kept date for every cid. Failures
// are logged and skipped
func (s *Service) history(ctx context.Context, cids []int64) []dmseg.Comment {
	dates := s.historyDates(ctx, cids)
	if len(dates) == 0 {
		return nil
	}
	log := logger.NamedC(ctx, "fetch")

	var mu sync.Mutex
	var out []dmseg.Comment
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Cfg.HistoryParallel)
	for _, date := range dates {
		g.Go(func() error {
			for _, cid := range cids {
				cs, err := s.Src.HistorySegment(gctx, cid, date)
				if err != nil {
					log.Debug().Err(err).Int64("cid", cid).Str("date", date).Msg("history segment failed")
					continue
				}
				mu.Lock()
				out = append(out, cs...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	log.Debug().Int("dates", len(dates)).Int("comments", len(out)).Msg("history collected")
	return out
}
