// Package normalize folds comment text into a canonical form before keyword
// extraction
// Pipeline order
// 1 Sanitize controls and repair UTF-8
// 2 NFKC, drop format characters, width fold
// 3 Strip links and video ids, unwrap bracket emotes
// 4 Fold laughter, crying and slang variants
// 5 Squash repeated punctuation
// 6 Collapse whitespace to single spaces and trim
package normalize

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer is safe for concurrent use
type Normalizer struct{}

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)), // ZWJ ZWNJ FEFF etc
			width.Fold,
		)
	},
}

type rule struct {
	re   *regexp.Regexp
	repl string
}

// applied in order
var rules = []rule{
	{regexp.MustCompile(`(?:https?|ftp)://\S+`), ""},
	{regexp.MustCompile(`[bB][vV]1[0-9A-Za-z]{9}`), ""},
	{regexp.MustCompile(`[aA][vV]\d+`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]`), "$1"},
	{regexp.MustCompile(`哈{3,}`), "哈哈"},
	{regexp.MustCompile(`2{3,}`), "233"},
	{regexp.MustCompile(`(?i)xswl|笑死|笑疯|笑翻|笑到|乐死|笑不活|xddl`), "哈哈"},
	{regexp.MustCompile(`5{3,}|呜{2,}`), "哭"},
	{regexp.MustCompile(`(?i)a\W*w\W*s\W*l`), "爱了"},
	{regexp.MustCompile(`(?i)otz|orz`), "orz"},
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

// Normalize returns the canonical form of s
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = s
	}

	for _, r := range rules {
		ns = r.re.ReplaceAllString(ns, r.repl)
	}
	ns = squashPunct(ns)
	return collapseSpaces(ns)
}

func isRepeatPunct(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', ',', '，', '~', '、':
		return true
	}
	return false
}

// squashPunct keeps one rune of each run of identical punctuation
func squashPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev && isRepeatPunct(r) {
			continue
		}
		prev = r
		b.WriteRune(r)
	}
	return b.String()
}

// collapseSpaces converts whitespace runs to a single ASCII space and trims the edges
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
