package service

import (
	"danmood/internal/core/dmseg"
	pstrings "danmood/internal/platform/strings"
)

// sample bounds
const (
	MinSample     = 100
	MaxSample     = 5000
	DefaultSample = 4000
)

const (
	minCommentRunes = 2
	maxCommentRunes = 80
)

// ClampSample bounds a sample limit; zero or less selects DefaultSample
func ClampSample(n int) int {
	if n <= 0 {
		return DefaultSample
	}
	return min(max(n, MinSample), MaxSample)
}

// Clean keeps comments of 2 to 80 runes that are not bare links and returns
// the first limit of them in input order
func Clean(cs []dmseg.Comment, limit int) []dmseg.Comment {
	limit = ClampSample(limit)
	out := make([]dmseg.Comment, 0, min(len(cs), limit))
	for _, c := range cs {
		if len(out) == limit {
			break
		}
		n := pstrings.RuneLen(c.Text)
		if n < minCommentRunes || n > maxCommentRunes || pstrings.HasURLPrefix(c.Text) {
			continue
		}
		out = append(out, c)
	}
	return out
}
