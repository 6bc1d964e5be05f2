package domain

import "danmood/internal/core/dmseg"

// SegmentDiag records the outcome of one segment fetch. Status is the last
// HTTP status seen, or -1 when no response arrived
type SegmentDiag struct {
	Seg    int  `json:"seg"`
	OK     bool `json:"ok"`
	Status int  `json:"status"`
	Count  int  `json:"count"`
}

// Result is the flattened, time-ordered comment stream of one part
type Result struct {
	Comments      []dmseg.Comment `json:"comments"`
	Diagnostics   []SegmentDiag   `json:"diagnostics"`
	TotalSegments int             `json:"total_segments"`
	Resorted      bool            `json:"resorted"`
}

// PartDiag is the per-part view of a collection run
type PartDiag struct {
	Part     int           `json:"part"`
	CID      int64         `json:"cid"`
	Diag     []SegmentDiag `json:"diag"`
	Total    int           `json:"total"`
	Fallback bool          `json:"fallback"`
}

// Collection is everything gathered for one video, deduplicated and sorted
type Collection struct {
	BVID     string          `json:"bvid"`
	Comments []dmseg.Comment `json:"comments"`
	Parts    []PartDiag      `json:"parts"`
	// Collected counts comments before dedup
	Collected int `json:"collected"`
	// History counts comments contributed by history snapshots
	History int `json:"history"`
}
