package service

import (
	"math"
	"slices"
	"strconv"

	"danmood/internal/core/dmseg"
)

// Flatten concatenates segments in index order. Segments are normally
// ordered already, so the list is only stably sorted when a timestamp goes
// backwards; resorted reports whether that happened
func Flatten(segs [][]dmseg.Comment) (out []dmseg.Comment, resorted bool) {
	n := 0
	for _, s := range segs {
		n += len(s)
	}
	out = make([]dmseg.Comment, 0, n)
	for _, s := range segs {
		out = append(out, s...)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Time < out[i-1].Time {
			SortByTime(out)
			return out, true
		}
	}
	return out, false
}

// SortByTime stably sorts comments by timestamp
func SortByTime(cs []dmseg.Comment) {
	slices.SortStableFunc(cs, func(a, b dmseg.Comment) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
}

// dedupKey identifies a comment by millisecond and text
func dedupKey(c dmseg.Comment) string {
	return strconv.FormatInt(int64(math.Round(c.Time*1000)), 10) + "|" + c.Text
}

// Dedup drops repeated comments; a later duplicate replaces the earlier one
// in the earlier one's position. The result is stably sorted by time
func Dedup(cs []dmseg.Comment) []dmseg.Comment {
	pos := make(map[string]int, len(cs))
	out := make([]dmseg.Comment, 0, len(cs))
	for _, c := range cs {
		k := dedupKey(c)
		if i, ok := pos[k]; ok {
			out[i] = c
			continue
		}
		pos[k] = len(out)
		out = append(out, c)
	}
	SortByTime(out)
	return out
}
