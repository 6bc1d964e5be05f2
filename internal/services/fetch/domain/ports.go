// Package domain holds the fetch service types and ports
package domain

import (
	"context"

	"danmood/internal/adapters/ingest/bili"
	"danmood/internal/core/dmseg"
)

// CollectorPort is what the analyze run calls
type CollectorPort interface {
	Collect(ctx context.Context, bvid string) (Collection, error)
}

// Source is the video platform transport
type Source interface {
	PageList(ctx context.Context, bvid string) ([]bili.Page, error)
	Referrer(bvid string, p int) string
	SegmentTotal(ctx context.Context, cid int64) (int, error)
	// Segment returns the raw body and HTTP status (-1 without a response)
	Segment(ctx context.Context, cid int64, index int, referrer string) ([]byte, int, error)
	ListXML(ctx context.Context, cid int64) ([]dmseg.Comment, error)
	HistoryIndex(ctx context.Context, cid int64, month string) ([]string, error)
	HistorySegment(ctx context.Context, cid int64, date string) ([]dmseg.Comment, error)
}

var _ Source = (*bili.Client)(nil)
