package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kit "danmood/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"  nonsense ", zerolog.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestInit_NamedAndRunFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:        "debug",
		Format:       "console",
		Service:      "danmood-test",
		Writer:       &buf,
		SampleEvery:  2,
		StaticFields: map[string]string{"build": "test"},
	})

	rv := Get().Sample(&zerolog.BasicSampler{N: 1})
	rv.Info().Msg("root-msg")

	nv := Named("fetch").Sample(&zerolog.BasicSampler{N: 1})
	nv.Info().Msg("named-msg")

	ctx := WithRun(context.Background(), "run-42", "BV1xx411c7mD")
	cv := NamedC(ctx, "embed").Sample(&zerolog.BasicSampler{N: 1})
	cv.Info().Msg("run-msg")

	out := buf.String()
	kit.MustContain(t, out, "root-msg")
	kit.MustContain(t, out, "named-msg")
	kit.MustContain(t, out, "fetch")
	kit.MustContain(t, out, "run_id=")
	kit.MustContain(t, out, "run-42")
	kit.MustContain(t, out, "BV1xx411c7mD")
	kit.MustContain(t, out, "embed")
	kit.MustContain(t, out, "danmood-test")
}

func TestWithRun_EmptyValuesAreSkipped(t *testing.T) {
	ctx := WithRun(context.Background(), "", "")
	if got := RunID(ctx); got != "" {
		t.Fatalf("RunID = %q, want empty", got)
	}
	ctx = WithRun(ctx, "abc", "")
	if got := RunID(ctx); got != "abc" {
		t.Fatalf("RunID = %q, want abc", got)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" {
		t.Fatalf("level/format mismatch: %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("caller/sample mismatch: %+v", opt)
	}
	if !strings.EqualFold(opt.Service, "danmood") {
		t.Fatalf("default service = %q", opt.Service)
	}
}
