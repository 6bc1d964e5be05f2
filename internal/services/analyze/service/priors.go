package service

import (
	"context"
	"strings"

	"danmood/internal/adapters/ingest/bili"
	"danmood/internal/core/classify"
	"danmood/internal/core/fusion"
	"danmood/internal/platform/logger"
)

const partsPerSection = 3

type anchorText struct {
	t    float64
	text string
}

// summaryAnchors lists each outline section title at the section time and
// up to three of its parts at their own time, or the section's when unset
func summaryAnchors(m bili.ModelResult) []anchorText {
	var out []anchorText
	for _, sec := range m.Outline {
		at := max(0, sec.Timestamp)
		if title := strings.TrimSpace(sec.Title); title != "" {
			out = append(out, anchorText{t: at, text: title})
		}
		n := 0
		for _, p := range sec.PartOutline {
			if n == partsPerSection {
				break
			}
			text := strings.TrimSpace(p.Text())
			if text == "" {
				continue
			}
			pt := at
			if p.Timestamp > 0 {
				pt = p.Timestamp
			}
			out = append(out, anchorText{t: pt, text: text})
			n++
		}
	}
	return out
}

// priors builds the summary prior. Any failure disables it
func (s *Service) priors(ctx context.Context, clf *classify.Classifier, bvid string) *fusion.Priors {
	if !s.Cfg.SummaryPrior || s.Meta == nil {
		return nil
	}
	log := logger.NamedC(ctx, "analyze")
	m, err := s.Meta.Summary(ctx, bvid)
	if err != nil {
		log.Debug().Err(err).Msg("summary unavailable, prior disabled")
		return nil
	}
	anchors := summaryAnchors(m)
	if len(anchors) == 0 {
		return nil
	}
	texts := make([]string, len(anchors))
	for i, a := range anchors {
		texts[i] = a.text
	}
	vecs, err := s.Embedder.Adaptive(ctx, texts)
	if err != nil {
		log.Warn().Err(err).Int("anchors", len(anchors)).Msg("summary anchors not embedded, prior disabled")
		return nil
	}
	out := make([]fusion.Anchor, 0, len(anchors))
	for i := range min(len(vecs), len(anchors)) {
		w, err := clf.Distribution(vecs[i])
		if err != nil {
			continue
		}
		out = append(out, fusion.Anchor{Time: anchors[i].t, Weights: w})
	}
	if len(out) == 0 {
		return nil
	}
	return fusion.NewPriors(out, s.Cfg.PriorAlpha)
}
