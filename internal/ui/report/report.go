// Package report renders a finished analysis for the terminal
package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"danmood/internal/core/aggregate"
	pstrings "danmood/internal/platform/strings"
	"danmood/internal/services/analyze/domain"
)

// Options tunes the rendering
type Options struct {
	BarWidth int // label distribution bar width; <=0 -> 30
	Words    int // keywords shown; <=0 -> 15
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// Render writes rep to w. Color is used only when w is a terminal
func Render(w io.Writer, rep domain.Report, opts Options) error {
	if opts.BarWidth <= 0 {
		opts.BarWidth = 30
	}
	if opts.Words <= 0 {
		opts.Words = 15
	}
	st := newStyles(lipgloss.NewRenderer(w))
	blocks := []string{
		header(st, rep),
		collection(st, rep),
		distribution(st, rep, opts.BarWidth),
		sentiment(st, rep),
	}
	if len(rep.Summary.Words) > 0 {
		blocks = append(blocks, words(st, rep, opts.Words))
	}
	if len(rep.EmbedFailures) > 0 {
		blocks = append(blocks, failures(st, rep))
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, blocks...))
	return err
}

func header(st styles, rep domain.Report) string {
	lines := []string{
		st.title.Render("danmood · " + rep.BVID),
		st.dim.Render(fmt.Sprintf("run %s · %s (%d dims) · %s",
			rep.RunID, rep.Model, rep.Dimensions, rep.Elapsed.Round(time.Millisecond))),
	}
	var fused []string
	if rep.LabelCacheHit {
		fused = append(fused, "cached labels")
	}
	if rep.PriorAnchors > 0 {
		fused = append(fused, fmt.Sprintf("summary prior (%d anchors)", rep.PriorAnchors))
	}
	if rep.SubtitleCues > 0 {
		fused = append(fused, fmt.Sprintf("subtitles (%d cues)", rep.SubtitleCues))
	}
	if len(fused) > 0 {
		lines = append(lines, st.dim.Render(strings.Join(fused, " · ")))
	}
	return strings.Join(lines, "\n")
}

func collection(st styles, rep domain.Report) string {
	c, d := rep.Counts, rep.Diagnostics
	lines := []string{
		st.header.Render("Comments"),
		fmt.Sprintf("collected %s · unique %s · sampled %s · classified %s · gated %s",
			humanize.Comma(int64(c.Collected)), humanize.Comma(int64(c.Unique)),
			humanize.Comma(int64(c.Sampled)), humanize.Comma(int64(c.Classified)),
			humanize.Comma(int64(c.Gated))),
		fmt.Sprintf("segments %d/%d ok · status %s", d.OKSegments, d.TotalSegments, statuses(d.StatusCounts)),
	}
	if len(rep.Scripts) > 0 {
		lines = append(lines, st.dim.Render("scripts "+scripts(rep.Scripts, c.Sampled)))
	}
	if c.History > 0 {
		lines = append(lines, st.dim.Render("history snapshots added "+humanize.Comma(int64(c.History))))
	}
	for _, p := range d.PerPart {
		if p.Fallback {
			lines = append(lines, st.warn.Render(fmt.Sprintf("part %d used the xml fallback", p.Part)))
		}
	}
	if d.Throttled {
		lines = append(lines, st.warn.Render(fmt.Sprintf("throttled: %d segment requests returned 412", d.StatusCounts[412])))
	}
	return st.section.Render(strings.Join(lines, "\n"))
}

func statuses(counts map[int]int) string {
	if len(counts) == 0 {
		return "-"
	}
	keys := slices.Sorted(maps.Keys(counts))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name := fmt.Sprint(k)
		if k < 0 {
			name = "net"
		}
		parts = append(parts, fmt.Sprintf("%s×%d", name, counts[k]))
	}
	return strings.Join(parts, " ")
}

// scripts lists script shares, largest first
func scripts(counts map[string]int, total int) string {
	names := slices.Collect(maps.Keys(counts))
	slices.SortFunc(names, func(a, b string) int {
		if d := counts[b] - counts[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s %.0f%%", n, 100*float64(counts[n])/float64(max(total, 1))))
	}
	return strings.Join(parts, " · ")
}

func distribution(st styles, rep domain.Report, width int) string {
	counts := map[string]int{}
	var seen []string
	for _, s := range rep.Summary.Pie {
		counts[s.Name] = s.Value
		seen = append(seen, s.Name)
	}
	keys := pstrings.IfEmpty(rep.Labels, seen)
	total := max(rep.Summary.Total, 1)
	keyWidth := 0
	for _, k := range keys {
		keyWidth = max(keyWidth, lipgloss.Width(k))
	}
	lines := []string{st.header.Render("Labels")}
	for _, k := range keys {
		n := counts[k]
		share := float64(n) / float64(total)
		bar := strings.Repeat("█", int(share*float64(width)+0.5))
		pad := strings.Repeat(" ", keyWidth-lipgloss.Width(k))
		lines = append(lines, fmt.Sprintf("%s%s %s %s", k, pad,
			st.bar.Render(bar+strings.Repeat(" ", width-lipgloss.Width(bar))),
			st.dim.Render(fmt.Sprintf("%5.1f%% %s", share*100, humanize.Comma(int64(n))))))
	}
	return st.section.Render(strings.Join(lines, "\n"))
}

func sentiment(st styles, rep domain.Report) string {
	s := rep.Summary
	avg := fmt.Sprintf("%+.3f", s.AvgSentiment)
	switch {
	case s.AvgSentiment > aggregate.PositiveAbove:
		avg = st.pos.Render(avg)
	case s.AvgSentiment < aggregate.NegativeBelow:
		avg = st.neg.Render(avg)
	}
	lines := []string{
		st.header.Render("Sentiment"),
		fmt.Sprintf("average %s · %s %s · %s %s", avg,
			st.pos.Render("positive"), humanize.Comma(int64(s.Positive)),
			st.neg.Render("negative"), humanize.Comma(int64(s.Negative))),
	}
	if len(s.Trend) > 0 {
		lines = append(lines,
			"trend "+Sparkline(s.Trend),
			st.dim.Render(fmt.Sprintf("      %d bins of %s", len(s.Trend), time.Duration(s.BinSize*float64(time.Second)))))
	}
	return st.section.Render(strings.Join(lines, "\n"))
}

// Sparkline maps y values in [-1, 1] onto block glyphs
func Sparkline(pts []aggregate.Point) string {
	var b strings.Builder
	top := float64(len(sparks) - 1)
	for _, p := range pts {
		y := min(max(p[1], -1), 1)
		b.WriteRune(sparks[int((y+1)/2*top+0.5)])
	}
	return b.String()
}

func words(st styles, rep domain.Report, n int) string {
	ws := rep.Summary.Words[:min(n, len(rep.Summary.Words))]
	parts := make([]string, 0, len(ws))
	for _, w := range ws {
		parts = append(parts, fmt.Sprintf("%s %s", w.Name, st.dim.Render(humanize.Comma(int64(w.Value)))))
	}
	return st.section.Render(st.header.Render("Keywords") + "\n" + strings.Join(parts, " · "))
}

func failures(st styles, rep domain.Report) string {
	lines := []string{st.warn.Render(fmt.Sprintf("%d embedding batches failed", len(rep.EmbedFailures)))}
	for _, f := range rep.EmbedFailures {
		lines = append(lines, st.dim.Render(fmt.Sprintf("batch %d [%d,+%d): %s", f.Batch, f.Start, f.Size, f.Error)))
	}
	return st.section.Render(strings.Join(lines, "\n"))
}
