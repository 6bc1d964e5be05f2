// Package langhint provides coarse script detection for short comment text
// and subtitle track ranking.
package langhint

import (
	"strings"
	"unicode"
)

// Profile counts letters by script over a piece of text
type Profile struct {
	Script  string // predominant script, "" when there are no letters
	Lang    string // best-effort BCP-47 code, "" when ambiguous
	Letters int
	Han     int
	Kana    int
	Hangul  int
	Latin   int
	Other   int
}

// IsHan reports whether r is in the basic CJK unified ideographs range
// U+4E00..U+9FA5 that the Han tokenizer path splits on
func IsHan(r rune) bool { return r >= 0x4e00 && r <= 0x9fa5 }

// HasHan reports whether s contains at least one basic Han ideograph
func HasHan(s string) bool { return strings.IndexFunc(s, IsHan) >= 0 }

// Detect profiles s. Lang is only set once minLetters letters were seen and
// the script mapping is decisive
func Detect(s string) Profile {
	const minLetters = 4

	var p Profile
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		p.Letters++
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			p.Kana++
		case unicode.In(r, unicode.Hangul):
			p.Hangul++
		case unicode.In(r, unicode.Han):
			p.Han++
		case unicode.In(r, unicode.Latin):
			p.Latin++
		default:
			p.Other++
		}
	}

	// ties prefer the more specific script
	best, cnt := "", 0
	for _, c := range []struct {
		name string
		n    int
	}{
		{"Kana", p.Kana},
		{"Hangul", p.Hangul},
		{"Han", p.Han},
		{"Other", p.Other},
		{"Latin", p.Latin},
	} {
		if c.n > cnt {
			best, cnt = c.name, c.n
		}
	}
	p.Script = best

	if p.Letters >= minLetters {
		switch {
		case p.Kana > 0:
			p.Lang = "ja"
		case p.Hangul > 0:
			p.Lang = "ko"
		case p.Han > 0:
			p.Lang = "zh"
		}
	}
	return p
}

// TrackPreference ranks a subtitle track by its language code and display
// name: Chinese 2, English 1, anything else 0
func TrackPreference(lan, doc string) int {
	l := strings.ToLower(lan)
	d := strings.ToLower(doc)
	switch {
	case strings.Contains(l, "zh") || strings.Contains(d, "中文") || strings.Contains(d, "chinese"):
		return 2
	case strings.Contains(l, "en") || strings.Contains(d, "english"):
		return 1
	}
	return 0
}
