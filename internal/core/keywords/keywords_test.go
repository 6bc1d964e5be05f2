package keywords

import (
	"slices"
	"testing"
)

func TestAutomatonPresent(t *testing.T) {
	a := newAutomaton([]string{"he", "she", "his", "hers"})
	if got := a.present("ushers"); !slices.Equal(got, []int{0, 1, 3}) {
		t.Fatalf("present(ushers) = %v", got)
	}
	if got := a.present("nothing"); len(got) != 0 {
		t.Fatalf("present(nothing) = %v", got)
	}

	cn := newAutomaton([]string{"高能", "前方高能", "能"})
	if got := cn.present("前方高能预警"); !slices.Equal(got, []int{0, 1, 2}) {
		t.Fatalf("present(cn) = %v", got)
	}
	if got := newAutomaton(nil).present("abc"); got != nil {
		t.Fatalf("empty automaton = %v", got)
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		in   string
		want []string
	}{
		{
			name: "short han run kept whole",
			in:   "泪目",
			want: []string{"泪目"},
		},
		{
			name: "single ideograph dropped",
			in:   "好",
			want: nil,
		},
		{
			name: "ignore list",
			in:   "视频",
			want: nil,
		},
		{
			name: "long run bigrams",
			in:   "前方高能预警",
			want: []string{"前方", "方高", "高能", "能预", "预警"},
		},
		{
			name: "whitelist first and covers bigrams",
			opts: Options{Whitelist: []string{"前方高能", " ", "前方高能"}},
			in:   "前方高能预警啊啊",
			want: []string{"前方高能", "能预", "预警", "警啊", "啊啊"},
		},
		{
			name: "whitelist suppresses duplicate",
			opts: Options{Whitelist: []string{"泪目"}},
			in:   "泪目",
			want: []string{"泪目"},
		},
		{
			name: "mixed scripts in text order",
			in:   "yyds 泪目 awsl",
			want: []string{"yyds", "泪目", "爱了"},
		},
		{
			name: "builtin stopwords",
			opts: Options{BuiltinStopwords: true},
			in:   "The video is great",
			want: []string{"video", "great"},
		},
		{
			name: "custom stopwords",
			opts: Options{Stopwords: []string{"泪目", "GREAT"}},
			in:   "泪目 great",
			want: nil,
		},
		{
			name: "laughter folded",
			in:   "2333333",
			want: []string{"233"},
		},
		{
			name: "punctuation only",
			in:   "!!??",
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := New(tc.opts).Tokens(tc.in)
			if !slices.Equal(got, tc.want) {
				t.Fatalf("Tokens(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWhitelistDedup(t *testing.T) {
	tk := New(Options{Whitelist: []string{"a", "", "a", "b"}})
	if got := tk.Whitelist(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("whitelist = %v", got)
	}
}

func TestCounterTop(t *testing.T) {
	c := NewCounter()
	c.Add("a", "b", "b", "c")
	c.Add("c")
	if c.Len() != 3 {
		t.Fatalf("len = %d", c.Len())
	}
	got := c.Top(2)
	want := []WordCount{{"b", 2}, {"c", 2}}
	if !slices.Equal(got, want) {
		t.Fatalf("top = %v", got)
	}
	if all := c.Top(100); len(all) != 3 || all[2].Name != "a" {
		t.Fatalf("top all = %v", all)
	}
}

func TestClampTopN(t *testing.T) {
	for in, want := range map[int]int{0: DefaultTopN, -3: DefaultTopN, 5: MinTopN, 50: 50, 1000: MaxTopN} {
		if got := ClampTopN(in); got != want {
			t.Fatalf("ClampTopN(%d) = %d, want %d", in, got, want)
		}
	}
}
