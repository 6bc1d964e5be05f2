// Package fusion blends per-comment signals with time-anchored context from
// the same video: label priors derived from the video outline, and subtitle
// embeddings near the comment's timestamp
package fusion

import (
	"math"
	"slices"

	"danmood/internal/core/classify"
)

const (
	// MaxPriorWeight caps how much an outline prior can move a distribution
	MaxPriorWeight = 0.8
	// MaxSubtitleWeight caps the subtitle contribution to an embedding
	MaxSubtitleWeight = 0.6
)

// BinaryNearest returns the index in ascending arr closest to x, or -1 when
// arr is empty or x is NaN. When x sits exactly between two entries the
// earlier one wins
func BinaryNearest(arr []float64, x float64) int {
	n := len(arr)
	if n == 0 || math.IsNaN(x) {
		return -1
	}
	if x <= arr[0] {
		return 0
	}
	if x >= arr[n-1] {
		return n - 1
	}
	lo, hi := 0, n-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		switch {
		case arr[mid] == x:
			return mid
		case arr[mid] < x:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	// arr[lo-1] < x < arr[lo]
	if math.Abs(arr[lo]-x) < math.Abs(arr[lo-1]-x) {
		return lo
	}
	return lo - 1
}

// Anchor is a label distribution pinned to a time in the video
type Anchor struct {
	Time    float64
	Weights []float64
}

// Priors mixes the nearest anchor's distribution into per-comment weights.
// It satisfies classify.WeightFuser; a nil *Priors leaves weights unchanged
type Priors struct {
	times   []float64
	weights [][]float64
	alpha   float64
}

var _ classify.WeightFuser = (*Priors)(nil)

// NewPriors orders anchors by time and clamps alpha to [0, MaxPriorWeight]
func NewPriors(anchors []Anchor, alpha float64) *Priors {
	sorted := slices.Clone(anchors)
	slices.SortStableFunc(sorted, func(a, b Anchor) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	p := &Priors{alpha: classify.Clamp(alpha, 0, MaxPriorWeight)}
	for _, a := range sorted {
		p.times = append(p.times, math.Max(0, a.Time))
		p.weights = append(p.weights, a.Weights)
	}
	return p
}

// Len is the number of anchors
func (p *Priors) Len() int {
	if p == nil {
		return 0
	}
	return len(p.times)
}

// Alpha is the effective mixing weight
func (p *Priors) Alpha() float64 {
	if p == nil {
		return 0
	}
	return p.alpha
}

// FuseWeights returns w*(1-alpha) + prior*alpha, renormalized when the mix
// has positive mass. The prior is the anchor nearest to t
func (p *Priors) FuseWeights(t float64, w []float64) []float64 {
	if p.Len() == 0 || p.alpha <= 0 {
		return w
	}
	idx := BinaryNearest(p.times, t)
	if idx < 0 {
		return w
	}
	prior := p.weights[idx]
	if len(prior) == 0 {
		return w
	}
	mix := make([]float64, len(w))
	sum := 0.0
	for k := range w {
		pk := 0.0
		if k < len(prior) {
			pk = prior[k]
		}
		mix[k] = w[k]*(1-p.alpha) + pk*p.alpha
		sum += mix[k]
	}
	if sum > 0 {
		for k := range mix {
			mix[k] /= sum
		}
	}
	return mix
}

// Cue is one subtitle line with its embedding
type Cue struct {
	From      float64
	To        float64
	Embedding []float64
}

// Subtitles blends the nearest subtitle embedding into comment embeddings
type Subtitles struct {
	centers []float64
	embeds  [][]float64
	window  float64
	beta    float64
}

// NewSubtitles orders cues by their midpoint. window is floored at one second
// and beta is clamped to [0, MaxSubtitleWeight]
func NewSubtitles(cues []Cue, window, beta float64) *Subtitles {
	type centered struct {
		c float64
		e []float64
	}
	cs := make([]centered, 0, len(cues))
	for _, q := range cues {
		cs = append(cs, centered{c: (q.From + q.To) / 2, e: classify.Norm(q.Embedding)})
	}
	slices.SortStableFunc(cs, func(a, b centered) int {
		switch {
		case a.c < b.c:
			return -1
		case a.c > b.c:
			return 1
		}
		return 0
	})
	s := &Subtitles{window: math.Max(1, window), beta: classify.Clamp(beta, 0, MaxSubtitleWeight)}
	for _, c := range cs {
		s.centers = append(s.centers, c.c)
		s.embeds = append(s.embeds, c.e)
	}
	return s
}

// Len is the number of cues
func (s *Subtitles) Len() int {
	if s == nil {
		return 0
	}
	return len(s.centers)
}

// Blend returns norm(e + beta*s) where s is the cue whose midpoint is nearest
// to t, provided it lies within the window and has e's length. Otherwise e is
// returned as is
func (s *Subtitles) Blend(t float64, e []float64) []float64 {
	if s.Len() == 0 || s.beta <= 0 {
		return e
	}
	idx := BinaryNearest(s.centers, t)
	if idx < 0 || math.Abs(s.centers[idx]-t) > s.window {
		return e
	}
	sub := s.embeds[idx]
	if len(sub) != len(e) {
		return e
	}
	return classify.AddScaled(e, sub, s.beta)
}
