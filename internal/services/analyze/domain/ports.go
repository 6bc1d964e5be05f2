// Package domain holds the analysis run types and ports
package domain

import (
	"context"

	"danmood/internal/adapters/ingest/bili"
)

// AnalyzerPort runs one analysis of one video
type AnalyzerPort interface {
	Run(ctx context.Context, req Request) (Report, error)
}

// MetaSource provides the auxiliary documents used for priors
type MetaSource interface {
	Summary(ctx context.Context, bvid string) (bili.ModelResult, error)
	SubtitleTracks(ctx context.Context, bvid string) ([]bili.SubtitleTrack, error)
	SubtitleTrack(ctx context.Context, trackURL string) ([]bili.SubtitleLine, error)
}

var _ MetaSource = (*bili.Client)(nil)
