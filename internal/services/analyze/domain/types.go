package domain

import (
	"time"

	"danmood/internal/core/aggregate"
	"danmood/internal/core/classify"
	embeddom "danmood/internal/services/embed/domain"
)

// Request names the video and the per-run label switches
type Request struct {
	BVID string
	// Enabled turns individual labels off (false); missing keys stay on
	Enabled map[string]bool
}

// Counts tracks how many comments survived each stage
type Counts struct {
	Collected  int `json:"collected"`
	Unique     int `json:"unique"`
	History    int `json:"history"`
	Sampled    int `json:"sampled"`
	Embedded   int `json:"embedded"`
	Classified int `json:"classified"`
	Gated      int `json:"gated"`
}

// PartSummary is the per-part fetch outcome
type PartSummary struct {
	Part     int   `json:"part"`
	CID      int64 `json:"cid"`
	OK       int   `json:"ok"`
	Total    int   `json:"total"`
	Fallback bool  `json:"fallback,omitempty"`
}

// Diagnostics summarizes segment retrieval across parts. StatusCounts is
// keyed by HTTP status, -1 for transport failures
type Diagnostics struct {
	OKSegments    int           `json:"ok_segments"`
	TotalSegments int           `json:"total_segments"`
	StatusCounts  map[int]int   `json:"status_counts"`
	PerPart       []PartSummary `json:"per_part"`
	Throttled     bool          `json:"throttled"`
}

// Report is the full outcome of a run
type Report struct {
	RunID     string        `json:"run_id"`
	BVID      string        `json:"bvid"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
	Labels     []string `json:"labels"`
	Neutral    string   `json:"neutral"`

	LabelCacheHit bool `json:"label_cache_hit"`
	PriorAnchors  int  `json:"prior_anchors"`
	SubtitleCues  int  `json:"subtitle_cues"`

	Counts Counts `json:"counts"`
	// Scripts counts sampled comments by predominant script
	Scripts       map[string]int          `json:"scripts,omitempty"`
	Diagnostics   Diagnostics             `json:"diagnostics"`
	EmbedFailures []embeddom.BatchFailure `json:"embed_failures,omitempty"`

	Summary aggregate.Summary `json:"summary"`
	Results []classify.Result `json:"results"`
}
