// Package keywords extracts ranked words from comment text. Han runs are
// kept whole up to four ideographs and split into bigrams beyond that; other
// scripts go through Unicode word segmentation
package keywords

import (
	"bufio"
	_ "embed"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"danmood/internal/core/langhint"
	"danmood/internal/core/normalize"
)

const (
	// MinTopN and MaxTopN bound the size of a ranked word list
	MinTopN = 10
	MaxTopN = 300
	// DefaultTopN is the ranked list size when none is configured
	DefaultTopN = 30

	maxWholeHanRun = 4
)

//go:embed stopwords.txt
var builtinStopwords string

// IgnoreWords are platform boilerplate words that carry no sentiment
var IgnoreWords = []string{"视频", "关注", "点赞", "投币", "收藏", "三连", "转发"}

// Options configures a Tokenizer
type Options struct {
	// Whitelist terms are emitted verbatim whenever they occur in a comment
	Whitelist []string
	// Stopwords are dropped in addition to the builtin list when enabled
	Stopwords []string
	// BuiltinStopwords enables the embedded stopword list
	BuiltinStopwords bool
}

// Tokenizer splits comments into keyword tokens. It is safe for concurrent use
type Tokenizer struct {
	norm   *normalize.Normalizer
	terms  []string
	ac     *automaton
	stop   map[string]struct{}
	ignore map[string]struct{}
}

// New builds a Tokenizer. Blank and duplicate whitelist terms are dropped
func New(opts Options) *Tokenizer {
	t := &Tokenizer{
		norm:   normalize.New(),
		stop:   map[string]struct{}{},
		ignore: map[string]struct{}{},
	}
	seen := map[string]bool{}
	for _, w := range opts.Whitelist {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		t.terms = append(t.terms, w)
	}
	t.ac = newAutomaton(t.terms)

	if opts.BuiltinStopwords {
		sc := bufio.NewScanner(strings.NewReader(builtinStopwords))
		for sc.Scan() {
			if w := strings.TrimSpace(sc.Text()); w != "" && !strings.HasPrefix(w, "#") {
				t.stop[w] = struct{}{}
			}
		}
	}
	for _, w := range opts.Stopwords {
		if w = strings.TrimSpace(w); w != "" {
			t.stop[strings.ToLower(w)] = struct{}{}
		}
	}
	for _, w := range IgnoreWords {
		t.ignore[w] = struct{}{}
	}
	return t
}

// Whitelist returns the effective whitelist terms in insertion order
func (t *Tokenizer) Whitelist() []string { return slices.Clone(t.terms) }

func (t *Tokenizer) stopped(w string) bool {
	if _, ok := t.ignore[w]; ok {
		return true
	}
	_, ok := t.stop[strings.ToLower(w)]
	return ok
}

// Tokens returns the keyword tokens of one comment: whitelist terms present in
// the normalized text first, then segmented words in text order
func (t *Tokenizer) Tokens(text string) []string {
	s := t.norm.Normalize(text)
	if s == "" {
		return nil
	}
	var out []string
	present := map[string]bool{}
	for _, id := range t.ac.present(s) {
		out = append(out, t.terms[id])
		present[t.terms[id]] = true
	}

	if !langhint.HasHan(s) {
		return t.words(s, present, out)
	}
	for len(s) > 0 {
		i := strings.IndexFunc(s, langhint.IsHan)
		if i < 0 {
			out = t.words(s, present, out)
			break
		}
		out = t.words(s[:i], present, out)
		s = s[i:]
		j := strings.IndexFunc(s, func(r rune) bool { return !langhint.IsHan(r) })
		if j < 0 {
			j = len(s)
		}
		out = t.han(s[:j], present, out)
		s = s[j:]
	}
	return out
}

// words appends segmented non-Han words of s
func (t *Tokenizer) words(s string, present map[string]bool, out []string) []string {
	if strings.TrimSpace(s) == "" {
		return out
	}
	state := -1
	var w string
	for len(s) > 0 {
		w, s, state = uniseg.FirstWordInString(s, state)
		w = strings.TrimSpace(w)
		if utf8.RuneCountInString(w) <= 1 || !wordLike(w) {
			continue
		}
		if t.stopped(w) || present[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// han appends the tokens of one run of Han ideographs
func (t *Tokenizer) han(run string, present map[string]bool, out []string) []string {
	rs := []rune(run)
	switch {
	case len(rs) <= 1:
		return out
	case len(rs) <= maxWholeHanRun:
		if !t.stopped(run) && !present[run] {
			out = append(out, run)
		}
		return out
	}
	for i := 0; i+1 < len(rs); i++ {
		bg := string(rs[i : i+2])
		if t.covered(bg, present) || t.stopped(bg) {
			continue
		}
		out = append(out, bg)
	}
	return out
}

func (t *Tokenizer) covered(bg string, present map[string]bool) bool {
	for term := range present {
		if strings.Contains(term, bg) {
			return true
		}
	}
	return false
}

func wordLike(w string) bool {
	return strings.IndexFunc(w, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}) >= 0
}

// ClampTopN bounds n to [MinTopN, MaxTopN]; zero or negative picks DefaultTopN
func ClampTopN(n int) int {
	if n <= 0 {
		n = DefaultTopN
	}
	return max(MinTopN, min(MaxTopN, n))
}

// WordCount is one ranked keyword
type WordCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Counter tallies tokens, remembering the order words were first seen
type Counter struct {
	index map[string]int
	words []WordCount
}

// NewCounter returns an empty Counter
func NewCounter() *Counter { return &Counter{index: map[string]int{}} }

// Add counts each token once per occurrence
func (c *Counter) Add(tokens ...string) {
	for _, w := range tokens {
		if i, ok := c.index[w]; ok {
			c.words[i].Value++
			continue
		}
		c.index[w] = len(c.words)
		c.words = append(c.words, WordCount{Name: w, Value: 1})
	}
}

// Len is the number of distinct words
func (c *Counter) Len() int { return len(c.words) }

// Top returns the n most frequent words. Equal counts keep first-seen order
func (c *Counter) Top(n int) []WordCount {
	ranked := slices.Clone(c.words)
	slices.SortStableFunc(ranked, func(a, b WordCount) int { return b.Value - a.Value })
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
