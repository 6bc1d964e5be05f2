package module

import (
	"os"
	"path/filepath"
	"testing"

	"danmood/internal/adapters/ingest/bili"
	"danmood/internal/modkit"
	"danmood/internal/platform/config"
	perr "danmood/internal/platform/errors"
	embedmod "danmood/internal/services/embed/module"
	fetchmod "danmood/internal/services/fetch/module"
)

func collaborators(t *testing.T) Collaborators {
	t.Helper()
	deps := modkit.Deps{Cfg: config.New()}
	src := bili.NewClient(bili.Options{})
	fm, err := fetchmod.New(deps, src)
	if err != nil {
		t.Fatal(err)
	}
	em, err := embedmod.New(deps)
	if err != nil {
		t.Fatal(err)
	}
	return Collaborators{
		Collector: fm.Ports().(fetchmod.Ports).Collector,
		Embedder:  em.Ports().(embedmod.Ports).Embedder,
		Meta:      src,
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("DANMOOD_ANALYZE_SAMPLE", "99999")
	t.Setenv("DANMOOD_CLASSIFY_TEMPERATURE", "0.001")
	t.Setenv("DANMOOD_FUSION_SUBTITLES", "true")
	t.Setenv("DANMOOD_FUSION_ALPHA", "2")
	t.Setenv("DANMOOD_AGG_TOP_N", "3")
	t.Setenv("DANMOOD_ANALYZE_LABELS", "开心,中性")
	o := FromConfig(config.New())
	switch {
	case o.SampleLimit != 5000:
		t.Fatalf("sample = %d", o.SampleLimit)
	case o.Classify.Temperature != 0.01:
		t.Fatalf("temperature = %v", o.Classify.Temperature)
	case !o.Subtitles || o.SubtitleBeta != 0.25 || o.SubtitleWindow != 6:
		t.Fatalf("subtitles = %v %v %v", o.Subtitles, o.SubtitleBeta, o.SubtitleWindow)
	case !o.SummaryPrior || o.PriorAlpha != 0.8:
		t.Fatalf("prior = %v %v", o.SummaryPrior, o.PriorAlpha)
	case o.Aggregate.TopN != 10 || o.Aggregate.BinSize != 30 || o.Aggregate.SmoothK != 2:
		t.Fatalf("aggregate = %+v", o.Aggregate)
	case len(o.Labels) != 2:
		t.Fatalf("labels = %v", o.Labels)
	}
}

func TestNewWith(t *testing.T) {
	o := FromConfig(config.New())
	m, err := NewWith(modkit.Deps{}, collaborators(t), o)
	if err != nil {
		t.Fatal(err)
	}
	p := m.Ports().(Ports)
	if m.Name() != "analyze" || p.Analyzer == nil || p.Labels.Len() != 8 {
		t.Fatalf("module not wired: %+v", p)
	}

	o.SubtitleWindow = 0.5
	if _, err := NewWith(modkit.Deps{}, collaborators(t), o); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadLabels(t *testing.T) {
	set, err := LoadLabels(Options{Labels: []string{"中性", "开心"}})
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 2 || set.At(0).Key != "开心" {
		t.Fatalf("set = %v", set.Keys())
	}

	if _, err := LoadLabels(Options{Labels: []string{"无聊"}}); !perr.IsCode(err, perr.ErrorCodePrecondition) {
		t.Fatalf("unknown label err = %v", err)
	}

	path := filepath.Join(t.TempDir(), "pack.yaml")
	pack := "version: 1\nneutral: calm\nlabels:\n  - key: calm\n    prompt: a calm comment\n  - key: hype\n    prompt: an excited comment\n    polarity: 1\n    arousal: 1\n"
	if err := os.WriteFile(path, []byte(pack), 0o600); err != nil {
		t.Fatal(err)
	}
	set, err = LoadLabels(Options{LabelFile: path})
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 2 || set.NeutralKey() != "calm" {
		t.Fatalf("file set = %v", set.Keys())
	}
}
