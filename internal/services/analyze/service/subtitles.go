package service

import (
	"context"
	"slices"
	"strings"

	"danmood/internal/adapters/ingest/bili"
	"danmood/internal/core/fusion"
	"danmood/internal/core/langhint"
	"danmood/internal/platform/logger"
	pstrings "danmood/internal/platform/strings"
)

const maxCueRunes = 120

// pickTrack returns the most preferred track with a body URL; ties keep
// the earlier track
func pickTrack(tracks []bili.SubtitleTrack) (bili.SubtitleTrack, bool) {
	best, score := bili.SubtitleTrack{}, -1
	for _, t := range tracks {
		if t.URL == "" {
			continue
		}
		if p := langhint.TrackPreference(t.Lan, t.LanDoc); p > score {
			best, score = t, p
		}
	}
	return best, score >= 0
}

// cueLines keeps timed lines with content, ordered by start and truncated
func cueLines(lines []bili.SubtitleLine) []bili.SubtitleLine {
	out := make([]bili.SubtitleLine, 0, len(lines))
	for _, l := range lines {
		text := strings.TrimSpace(l.Content)
		if l.To <= l.From || text == "" {
			continue
		}
		l.Content = pstrings.Truncate(text, maxCueRunes)
		out = append(out, l)
	}
	slices.SortStableFunc(out, func(a, b bili.SubtitleLine) int {
		switch {
		case a.From < b.From:
			return -1
		case a.From > b.From:
			return 1
		}
		return 0
	})
	return out
}

// subtitles builds the embedding-level context blend. Any failure disables it
func (s *Service) subtitles(ctx context.Context, bvid string) *fusion.Subtitles {
	if !s.Cfg.Subtitles || s.Meta == nil {
		return nil
	}
	log := logger.NamedC(ctx, "analyze")
	tracks, err := s.Meta.SubtitleTracks(ctx, bvid)
	if err != nil {
		log.Debug().Err(err).Msg("subtitle tracks unavailable")
		return nil
	}
	track, ok := pickTrack(tracks)
	if !ok {
		return nil
	}
	raw, err := s.Meta.SubtitleTrack(ctx, track.URL)
	if err != nil {
		log.Debug().Err(err).Str("lan", track.Lan).Msg("subtitle track unavailable")
		return nil
	}
	lines := cueLines(raw)
	if len(lines) == 0 {
		return nil
	}
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Content
	}
	res, err := s.Embedder.Run(ctx, texts)
	if err != nil {
		log.Warn().Err(err).Int("lines", len(lines)).Msg("subtitles not embedded, context disabled")
		return nil
	}
	cues := make([]fusion.Cue, 0, len(lines))
	for i, v := range res.Vectors {
		if v == nil || i >= len(lines) {
			continue
		}
		cues = append(cues, fusion.Cue{From: lines[i].From, To: lines[i].To, Embedding: v})
	}
	if len(cues) == 0 {
		return nil
	}
	log.Debug().Str("lan", track.Lan).Int("cues", len(cues)).Msg("subtitle context ready")
	return fusion.NewSubtitles(cues, s.Cfg.SubtitleWindow, s.Cfg.SubtitleBeta)
}
