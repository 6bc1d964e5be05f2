// Package labels loads the emotion label prototypes used for zero-shot
// classification. The default pack is embedded; alternates can be read from
// YAML files with the same shape
package labels

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf16"

	perr "danmood/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var embedded []byte

// Label is one prototype: a key, the sentence that gets embedded, and the
// affect coordinates a match contributes
type Label struct {
	Key      string  `yaml:"key" json:"key"`
	Prompt   string  `yaml:"prompt" json:"prompt"`
	Polarity float64 `yaml:"polarity" json:"polarity"`
	Valence  float64 `yaml:"valence" json:"valence"`
	Arousal  float64 `yaml:"arousal" json:"arousal"`
}

type rawPack struct {
	Version int     `yaml:"version"`
	Neutral string  `yaml:"neutral"`
	Labels  []Label `yaml:"labels"`
}

// Set is an ordered, immutable list of active labels. Index positions line up
// with similarity and weight vectors everywhere downstream
type Set struct {
	labels  []Label
	neutral string
	index   map[string]int
}

// Default returns the embedded eight-label pack
func Default() Set {
	s, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("labels: embedded pack is invalid: %v", err))
	}
	return s
}

// LoadFile reads a pack from a YAML file
func LoadFile(path string) (Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Set{}, perr.Wrapf(err, perr.ErrorCodePrecondition, "read label pack %s", path)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML pack
func Parse(b []byte) (Set, error) {
	var rp rawPack
	if err := yaml.Unmarshal(b, &rp); err != nil {
		return Set{}, perr.Wrap(err, perr.ErrorCodePrecondition, "parse label pack")
	}
	return NewSet(rp.Labels, rp.Neutral)
}

// NewSet validates labels and builds a Set. Keys must be unique, prompts
// non-empty and every affect coordinate inside [-1, 1]
func NewSet(ls []Label, neutral string) (Set, error) {
	if len(ls) == 0 {
		return Set{}, perr.Preconditionf("label set is empty")
	}
	s := Set{labels: make([]Label, len(ls)), neutral: neutral, index: make(map[string]int, len(ls))}
	for i, l := range ls {
		l.Key = strings.TrimSpace(l.Key)
		l.Prompt = strings.TrimSpace(l.Prompt)
		switch {
		case l.Key == "":
			return Set{}, perr.WithField(perr.Preconditionf("label %d has no key", i), "key")
		case l.Prompt == "":
			return Set{}, perr.WithField(perr.Preconditionf("label %q has no prompt", l.Key), "prompt")
		case !unit(l.Polarity) || !unit(l.Valence) || !unit(l.Arousal):
			return Set{}, perr.Preconditionf("label %q has affect values outside [-1,1]", l.Key)
		}
		if _, dup := s.index[l.Key]; dup {
			return Set{}, perr.Preconditionf("duplicate label key %q", l.Key)
		}
		s.index[l.Key] = i
		s.labels[i] = l
	}
	return s, nil
}

func unit(v float64) bool { return v >= -1 && v <= 1 }

// Filter keeps labels not explicitly disabled in enabled (missing keys stay on).
// Disabling everything is a precondition failure
func (s Set) Filter(enabled map[string]bool) (Set, error) {
	kept := make([]Label, 0, len(s.labels))
	for _, l := range s.labels {
		if on, ok := enabled[l.Key]; ok && !on {
			continue
		}
		kept = append(kept, l)
	}
	return NewSet(kept, s.neutral)
}

// Only keeps the listed keys in pack order; unknown keys are an error
func (s Set) Only(keys ...string) (Set, error) {
	if len(keys) == 0 {
		return s, nil
	}
	enabled := make(map[string]bool, len(s.labels))
	for _, l := range s.labels {
		enabled[l.Key] = false
	}
	for _, k := range keys {
		if _, ok := s.index[k]; !ok {
			return Set{}, perr.WithField(perr.Preconditionf("unknown label %q", k), "labels")
		}
		enabled[k] = true
	}
	return s.Filter(enabled)
}

// Len is the number of active labels
func (s Set) Len() int { return len(s.labels) }

// At returns the label at i
func (s Set) At(i int) Label { return s.labels[i] }

// All returns a copy of the labels in order
func (s Set) All() []Label { return append([]Label(nil), s.labels...) }

// Keys returns label keys in order
func (s Set) Keys() []string {
	out := make([]string, len(s.labels))
	for i, l := range s.labels {
		out[i] = l.Key
	}
	return out
}

// Prompts returns the prompt sentences in order
func (s Set) Prompts() []string {
	out := make([]string, len(s.labels))
	for i, l := range s.labels {
		out[i] = l.Prompt
	}
	return out
}

// Index returns the position of key, or -1
func (s Set) Index(key string) int {
	if i, ok := s.index[key]; ok {
		return i
	}
	return -1
}

// NeutralKey is the key gated comments fall back to
func (s Set) NeutralKey() string { return s.neutral }

// NeutralIndex is the position of the neutral key, or -1 when it was filtered out
func (s Set) NeutralIndex() int { return s.Index(s.neutral) }

// PromptSetHash is a 32-bit FNV-1a over the UTF-16 code units of the prompts
// joined by "|", rendered as unpadded lowercase hex
func PromptSetHash(prompts []string) string {
	h := uint32(0x811c9dc5)
	for _, u := range utf16.Encode([]rune(strings.Join(prompts, "|"))) {
		h ^= uint32(u)
		h *= 0x01000193
	}
	return strconv.FormatUint(uint64(h), 16)
}

// CacheKey names the cached prototype embeddings for one model configuration
func CacheKey(model string, dims int, prompts []string) string {
	return fmt.Sprintf("wis_label_embeds:%s:%d:%s", model, dims, PromptSetHash(prompts))
}
