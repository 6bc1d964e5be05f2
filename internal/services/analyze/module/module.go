// Package module provides the analyze module implementation
package module

import (
	"danmood/internal/core/keywords"
	"danmood/internal/core/labels"
	"danmood/internal/modkit"
	"danmood/internal/platform/config"
	"danmood/internal/services/analyze/domain"
	"danmood/internal/services/analyze/service"
	embeddom "danmood/internal/services/embed/domain"
	fetchdom "danmood/internal/services/fetch/domain"
	cachedom "danmood/internal/services/labelcache/domain"
)

// Ports defines the analyze module ports
type Ports struct {
	Analyzer domain.AnalyzerPort
	// Labels is the configured pack before per-run filtering
	Labels labels.Set
}

// Module implements the analyze module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// Collaborators are the ports the run is composed of. Cache and Meta may be nil
type Collaborators struct {
	Collector fetchdom.CollectorPort
	Embedder  embeddom.EmbedderPort
	Cache     cachedom.CachePort
	Meta      domain.MetaSource
}

// New constructs the analyze module with options from deps.Cfg
func New(deps modkit.Deps, c Collaborators) (*Module, error) {
	return NewWith(deps, c, FromConfig(deps.Cfg))
}

// NewWith constructs the analyze module with explicit options
func NewWith(deps modkit.Deps, c Collaborators, opts Options) (*Module, error) {
	if err := config.Validate(opts); err != nil {
		return nil, err
	}
	set, err := LoadLabels(opts)
	if err != nil {
		return nil, err
	}
	tok := keywords.New(keywords.Options{
		Whitelist:        opts.Whitelist,
		Stopwords:        opts.Stopwords,
		BuiltinStopwords: opts.BuiltinStopwords,
	})
	svc := service.New(c.Collector, c.Embedder, c.Cache, c.Meta, service.Config{
		Labels:         set,
		SampleLimit:    opts.SampleLimit,
		Classify:       opts.Classify,
		Aggregate:      opts.Aggregate,
		Tokenizer:      tok,
		SummaryPrior:   opts.SummaryPrior,
		PriorAlpha:     opts.PriorAlpha,
		Subtitles:      opts.Subtitles,
		SubtitleBeta:   opts.SubtitleBeta,
		SubtitleWindow: opts.SubtitleWindow,
		Timeout:        opts.Timeout,
		Clock:          deps.Now(),
	})
	deps.Log.Debug().Strs("labels", set.Keys()).Bool("summary_prior", opts.SummaryPrior).Bool("subtitles", opts.Subtitles).Msg("analyze module ready")
	return &Module{deps: deps, ports: Ports{Analyzer: svc, Labels: set}}, nil
}

// LoadLabels resolves the label pack named by opts
func LoadLabels(opts Options) (labels.Set, error) {
	set := labels.Default()
	if opts.LabelFile != "" {
		var err error
		if set, err = labels.LoadFile(opts.LabelFile); err != nil {
			return labels.Set{}, err
		}
	}
	return set.Only(opts.Labels...)
}

// Name returns the module name
func (m *Module) Name() string { return "analyze" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

var _ modkit.Module = (*Module)(nil)
