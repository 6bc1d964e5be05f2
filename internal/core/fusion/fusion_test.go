package fusion

import (
	"math"
	"testing"

	"danmood/internal/core/classify"
	kit "danmood/internal/platform/testkit"
)

func TestBinaryNearest(t *testing.T) {
	arr := []float64{1, 3, 5, 9}
	cases := []struct {
		x    float64
		want int
	}{
		{-4, 0},
		{1, 0},
		{2.5, 1},
		{2, 0}, // tie goes to the earlier entry
		{4, 1},
		{5, 2},
		{7.5, 3},
		{100, 3},
	}
	for _, c := range cases {
		if got := BinaryNearest(arr, c.x); got != c.want {
			t.Fatalf("BinaryNearest(%v) = %d, want %d", c.x, got, c.want)
		}
	}
	if BinaryNearest(nil, 1) != -1 {
		t.Fatal("empty should be -1")
	}
	if BinaryNearest([]float64{4}, 0) != 0 {
		t.Fatal("single element")
	}
	if got := BinaryNearest(arr, math.NaN()); got != -1 {
		t.Fatalf("NaN = %d, want -1", got)
	}
	if BinaryNearest(arr, math.Inf(1)) != 3 || BinaryNearest(arr, math.Inf(-1)) != 0 {
		t.Fatal("infinities should clamp to the ends")
	}
}

func TestFusionIgnoresNaNTime(t *testing.T) {
	p := NewPriors([]Anchor{
		{Time: 0, Weights: []float64{1, 0}},
		{Time: 60, Weights: []float64{0, 1}},
	}, 0.5)
	s := NewSubtitles([]Cue{
		{From: 0, To: 4, Embedding: []float64{0, 1}},
		{From: 20, To: 24, Embedding: []float64{0, 1}},
	}, 6, 0.5)

	w := []float64{0.3, 0.7}
	kit.MustNotPanic(t, func() {
		if got := p.FuseWeights(math.NaN(), w); &got[0] != &w[0] {
			t.Fatal("NaN time should leave weights unchanged")
		}
		if got := s.Blend(math.NaN(), w); &got[0] != &w[0] {
			t.Fatal("NaN time should leave the embedding unchanged")
		}
	})
}

func TestPriorsMix(t *testing.T) {
	p := NewPriors([]Anchor{
		{Time: 120, Weights: []float64{0, 1}},
		{Time: 0, Weights: []float64{1, 0}},
	}, 0.5)
	if p.Len() != 2 {
		t.Fatalf("len = %d", p.Len())
	}

	got := p.FuseWeights(10, []float64{0.2, 0.8})
	kit.InDeltaSlice(t, "near first", got, []float64{0.6, 0.4}, 1e-12)

	got = p.FuseWeights(100, []float64{0.2, 0.8})
	kit.InDeltaSlice(t, "near second", got, []float64{0.1, 0.9}, 1e-12)
}

func TestPriorsAlphaClamp(t *testing.T) {
	p := NewPriors([]Anchor{{Time: 0, Weights: []float64{1, 0}}}, 5)
	kit.InDelta(t, "alpha", p.Alpha(), MaxPriorWeight, 0)

	got := p.FuseWeights(0, []float64{0, 1})
	kit.InDeltaSlice(t, "clamped", got, []float64{0.8, 0.2}, 1e-12)
}

func TestPriorsPassThrough(t *testing.T) {
	w := []float64{0.3, 0.7}
	var nilP *Priors
	if got := nilP.FuseWeights(0, w); &got[0] != &w[0] {
		t.Fatal("nil priors should return input")
	}
	zero := NewPriors([]Anchor{{Weights: []float64{1, 0}}}, 0)
	if got := zero.FuseWeights(0, w); &got[0] != &w[0] {
		t.Fatal("zero alpha should return input")
	}
	empty := NewPriors(nil, 0.5)
	if got := empty.FuseWeights(0, w); &got[0] != &w[0] {
		t.Fatal("no anchors should return input")
	}
}

func TestPriorsZeroMassNotRenormalized(t *testing.T) {
	p := NewPriors([]Anchor{{Weights: []float64{0, 0}}}, 0.5)
	got := p.FuseWeights(0, []float64{0, 0})
	kit.InDeltaSlice(t, "zero", got, []float64{0, 0}, 0)
}

func TestSubtitlesBlend(t *testing.T) {
	s := NewSubtitles([]Cue{
		{From: 20, To: 24, Embedding: []float64{0, 2}},
		{From: 0, To: 4, Embedding: []float64{0, 1}},
	}, 6, 1)
	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}

	e := []float64{1, 0}
	got := s.Blend(3, e)
	want := classify.Norm([]float64{1, MaxSubtitleWeight})
	kit.InDeltaSlice(t, "blended", got, want, 1e-12)

	norm := math.Hypot(got[0], got[1])
	kit.InDelta(t, "unit", norm, 1, 1e-12)

	if got := s.Blend(12.5, e); got[1] != 0 {
		t.Fatalf("outside window should be untouched: %v", got)
	}
	if got := s.Blend(22, []float64{1, 0, 0}); len(got) != 3 || got[1] != 0 {
		t.Fatalf("length mismatch should be untouched: %v", got)
	}
}

func TestSubtitlesWindowFloor(t *testing.T) {
	s := NewSubtitles([]Cue{{From: 10, To: 10, Embedding: []float64{0, 1}}}, 0, 0.25)
	if got := s.Blend(11, []float64{1, 0}); got[1] == 0 {
		t.Fatal("window below one second should be raised to one")
	}
	if got := s.Blend(11.5, []float64{1, 0}); got[1] != 0 {
		t.Fatal("1.5s away is outside the floored window")
	}
}
