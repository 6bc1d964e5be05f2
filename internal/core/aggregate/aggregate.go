// Package aggregate folds classified comments into time bins and derives the
// trend, stack, quadrant and keyword views of a run
package aggregate

import (
	"math"

	"danmood/internal/core/classify"
	"danmood/internal/core/keywords"
)

const (
	// DefaultBinSize is the bin width in seconds
	DefaultBinSize = 30.0
	// MinBinSize floors the bin width so a timeline never exceeds MaxTime+1 bins
	MinBinSize = 1.0
	// DefaultSmoothK is the half-width of the trend moving average, in bins
	DefaultSmoothK = 2

	// MaxTime is the last second a bin may cover. Later times come from
	// corrupt progress fields and are left out of the timeline
	MaxTime = 48 * 60 * 60.0

	// PositiveAbove and NegativeBelow split scores for the headline counts
	PositiveAbove = 0.1
	NegativeBelow = -0.1
)

// Options tunes one aggregation pass
type Options struct {
	BinSize float64 `json:"bin_size" validate:"gt=0"`
	SmoothK int     `json:"smooth_k" validate:"gte=0"`
	TopN    int     `json:"top_n" validate:"gte=0"`
}

// DefaultOptions returns the stock aggregation settings
func DefaultOptions() Options {
	return Options{BinSize: DefaultBinSize, SmoothK: DefaultSmoothK, TopN: keywords.DefaultTopN}
}

// Tokenizer yields the keyword tokens of a comment
type Tokenizer interface {
	Tokens(text string) []string
}

// Point is one [x, y] sample; x is a bin center in seconds
type Point [2]float64

// QuadPoint is [meanValence, meanArousal, count, binCenter]
type QuadPoint [4]float64

// Bin accumulates the results whose time falls in [Index*size, (Index+1)*size)
type Bin struct {
	Index       int     `json:"index"`
	Count       int     `json:"count"`
	SumScore    float64 `json:"sum_score"`
	SumValence  float64 `json:"sum_valence"`
	SumArousal  float64 `json:"sum_arousal"`
	LabelCounts []int   `json:"label_counts"`
}

func (b Bin) mean(sum float64) float64 {
	if b.Count == 0 {
		return 0
	}
	return sum / float64(b.Count)
}

// MeanScore is the average score in the bin, 0 when empty
func (b Bin) MeanScore() float64 { return b.mean(b.SumScore) }

// MeanValence is the average valence in the bin, 0 when empty
func (b Bin) MeanValence() float64 { return b.mean(b.SumValence) }

// MeanArousal is the average arousal in the bin, 0 when empty
func (b Bin) MeanArousal() float64 { return b.mean(b.SumArousal) }

// LabelSeries is a per-bin count series for one label
type LabelSeries struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Slice is one label's share of the whole run
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Summary is every derived view of one run
type Summary struct {
	BinSize      float64              `json:"bin_size"`
	Bins         []Bin                `json:"bins"`
	Trend        []Point              `json:"trend"`
	RawTrend     []Point              `json:"raw_trend"`
	Arousal      []Point              `json:"arousal"`
	Count        []Point              `json:"count"`
	Stack        []LabelSeries        `json:"stack"`
	Pie          []Slice              `json:"pie"`
	Quadrant     []QuadPoint          `json:"quadrant"`
	Words        []keywords.WordCount `json:"words"`
	Total        int                  `json:"total"`
	OffTimeline  int                  `json:"off_timeline"`
	AvgSentiment float64              `json:"avg_sentiment"`
	Positive     int                  `json:"positive"`
	Negative     int                  `json:"negative"`
}

// OnTimeline reports whether t can be placed in a bin: finite and within
// [0, MaxTime]
func OnTimeline(t float64) bool {
	return !math.IsNaN(t) && t >= 0 && t <= MaxTime
}

// Binned groups results by floor(t/size). The bin count is
// ceil((maxT+1)/size) over the results on the timeline, with maxT floored at
// 0. Results off the timeline are skipped, and label indexes outside
// [0, nLabels) are counted in the bin but not in LabelCounts
func Binned(results []classify.Result, nLabels int, size float64) []Bin {
	size = binSize(size)
	maxT := 0.0
	for _, r := range results {
		if OnTimeline(r.Time) {
			maxT = math.Max(maxT, r.Time)
		}
	}
	n := int(math.Ceil((maxT + 1) / size))
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Index: i, LabelCounts: make([]int, nLabels)}
	}
	for _, r := range results {
		if !OnTimeline(r.Time) {
			continue
		}
		i := int(math.Floor(r.Time / size))
		if i >= n {
			continue
		}
		b := &bins[i]
		b.Count++
		b.SumScore += r.Score
		b.SumValence += r.Valence
		b.SumArousal += r.Arousal
		if r.LabelIndex >= 0 && r.LabelIndex < nLabels {
			b.LabelCounts[r.LabelIndex]++
		}
	}
	return bins
}

// binSize selects DefaultBinSize for unset or NaN widths and floors the rest
// at MinBinSize
func binSize(size float64) float64 {
	if size <= 0 || math.IsNaN(size) {
		return DefaultBinSize
	}
	return math.Max(size, MinBinSize)
}

// Center is the x coordinate of bin i
func Center(i int, size float64) float64 { return (float64(i) + 0.5) * size }

// Smooth applies a centered moving average of half-width k, shrinking the
// window at the edges. x values are kept
func Smooth(series []Point, k int) []Point {
	out := make([]Point, len(series))
	for i := range series {
		lo, hi := max(0, i-k), min(len(series)-1, i+k)
		s := 0.0
		for j := lo; j <= hi; j++ {
			s += series[j][1]
		}
		out[i] = Point{series[i][0], s / float64(hi-lo+1)}
	}
	return out
}

// Aggregate builds the full Summary. labelKeys names the active labels in
// index order; tok may be nil to skip keywords
func Aggregate(results []classify.Result, labelKeys []string, tok Tokenizer, opts Options) Summary {
	size := binSize(opts.BinSize)
	k := max(0, opts.SmoothK)

	sum := Summary{BinSize: size, Total: len(results)}
	sum.Bins = Binned(results, len(labelKeys), size)

	for i, b := range sum.Bins {
		x := Center(i, size)
		sum.RawTrend = append(sum.RawTrend, Point{x, b.MeanScore()})
		sum.Arousal = append(sum.Arousal, Point{x, b.MeanArousal()})
		sum.Count = append(sum.Count, Point{x, float64(b.Count)})
		sum.Quadrant = append(sum.Quadrant, QuadPoint{b.MeanValence(), b.MeanArousal(), float64(b.Count), x})
	}
	sum.Trend = Smooth(sum.RawTrend, k)

	for li, key := range labelKeys {
		ls := LabelSeries{Label: key, Points: make([]Point, len(sum.Bins))}
		for i, b := range sum.Bins {
			ls.Points[i] = Point{Center(i, size), float64(b.LabelCounts[li])}
		}
		sum.Stack = append(sum.Stack, ls)
	}

	counts := make([]int, len(labelKeys))
	total := 0.0
	for _, r := range results {
		if !OnTimeline(r.Time) {
			sum.OffTimeline++
		}
		if r.LabelIndex >= 0 && r.LabelIndex < len(counts) {
			counts[r.LabelIndex]++
		}
		total += r.Score
		switch {
		case r.Score > PositiveAbove:
			sum.Positive++
		case r.Score < NegativeBelow:
			sum.Negative++
		}
	}
	for i, key := range labelKeys {
		if counts[i] > 0 {
			sum.Pie = append(sum.Pie, Slice{Name: key, Value: counts[i]})
		}
	}
	if len(results) > 0 {
		sum.AvgSentiment = total / float64(len(results))
	}

	if tok != nil {
		c := keywords.NewCounter()
		for _, r := range results {
			c.Add(tok.Tokens(r.Text)...)
		}
		sum.Words = c.Top(keywords.ClampTopN(opts.TopN))
	}
	return sum
}
