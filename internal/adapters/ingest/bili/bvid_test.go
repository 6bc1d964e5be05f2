package bili

import (
	"testing"

	"danmood/internal/platform/config"
	perr "danmood/internal/platform/errors"
)

func TestParseBVID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BV1xx411c7mD", "BV1xx411c7mD"},
		{"  BV1xx411c7mD\n", "BV1xx411c7mD"},
		{"https://www.bilibili.com/video/BV1GJ411x7h7/?p=2&spm_id_from=333", "BV1GJ411x7h7"},
		{"b23 share: 【标题】 https://www.bilibili.com/video/BV1GJ411x7h7", "BV1GJ411x7h7"},
	}
	for _, tc := range tests {
		got, err := ParseBVID(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("ParseBVID(%q) = %q, %v", tc.in, got, err)
		}
	}
	for _, bad := range []string{"", "av170001", "BV123"} {
		if _, err := ParseBVID(bad); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("ParseBVID(%q) err = %v", bad, err)
		}
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("DANMOOD_BILI_COOKIE", "SESSDATA=abc")
	t.Setenv("DANMOOD_BILI_RPS", "2.5")
	o := FromConfig(config.New())
	if o.Cookie != "SESSDATA=abc" || o.RPS != 2.5 || o.BaseURL != baseURLDefault || o.MaxRetries != defaultMaxRetry {
		t.Fatalf("options = %+v", o)
	}
}

func TestOutlinePartText(t *testing.T) {
	if got := (OutlinePart{Title: "标题", Content: "内容"}).Text(); got != "标题" {
		t.Fatalf("text = %q", got)
	}
	if got := (OutlinePart{Title: "  ", Content: "内容"}).Text(); got != "内容" {
		t.Fatalf("blank title text = %q", got)
	}
}
