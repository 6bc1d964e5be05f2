package strings

import "testing"

func TestIfEmpty(t *testing.T) {
	t.Parallel()
	if got := IfEmpty([]int{1, 2}, []int{9}); len(got) != 2 {
		t.Fatalf("IfEmpty non-empty = %v", got)
	}
	if got := IfEmpty(nil, []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("IfEmpty empty = %v", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()
	if got := FirstNonEmpty("", "  ", "zh-CN", "en"); got != "zh-CN" {
		t.Fatalf("FirstNonEmpty = %q", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q", got)
	}
}

func TestTruncateAndRuneLen(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"哈哈哈哈", 2, "哈哈"},
		{"abc", 5, "abc"},
		{"abc", 3, "abc"},
		{"abc", 0, ""},
		{"前方高能", 3, "前方高"},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.n); got != c.want {
			t.Fatalf("Truncate(%q,%d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
	if RuneLen("弹幕ok") != 4 {
		t.Fatalf("RuneLen mismatch")
	}
}

func TestHasURLPrefix(t *testing.T) {
	t.Parallel()
	cases := map[string]bool{
		"http://b23.tv/x":    true,
		"HTTPS://example.cn": true,
		"httpx":              false,
		"看 https://x":        false,
		"":                   false,
	}
	for in, want := range cases {
		if got := HasURLPrefix(in); got != want {
			t.Fatalf("HasURLPrefix(%q) = %v, want %v", in, got, want)
		}
	}
}
