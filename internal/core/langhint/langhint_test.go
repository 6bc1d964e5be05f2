package langhint

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		in     string
		script string
		lang   string
	}{
		{"前方高能预警", "Han", "zh"},
		{"好", "Han", ""},
		{"すごいですね", "Kana", "ja"},
		{"대박이다진짜", "Hangul", "ko"},
		{"nice video", "Latin", ""},
		{"2333!!", "", ""},
		{"yyds太强了", "Latin", "zh"},
	}
	for _, tc := range tests {
		p := Detect(tc.in)
		if p.Script != tc.script || p.Lang != tc.lang {
			t.Fatalf("Detect(%q) = %q/%q, want %q/%q", tc.in, p.Script, p.Lang, tc.script, tc.lang)
		}
	}
}

func TestHasHan(t *testing.T) {
	if !HasHan("abc哈") || HasHan("abc 233") {
		t.Fatal("HasHan misclassified")
	}
	if IsHan('〇') || !IsHan('一') || !IsHan('龥') {
		t.Fatal("IsHan range")
	}
}

func TestTrackPreference(t *testing.T) {
	tests := []struct {
		lan, doc string
		want     int
	}{
		{"zh-CN", "中文（中国）", 2},
		{"ai-zh", "中文（自动生成）", 2},
		{"", "Chinese", 2},
		{"en-US", "English", 1},
		{"ja", "日本語", 0},
	}
	for _, tc := range tests {
		if got := TrackPreference(tc.lan, tc.doc); got != tc.want {
			t.Fatalf("TrackPreference(%q,%q) = %d, want %d", tc.lan, tc.doc, got, tc.want)
		}
	}
}
