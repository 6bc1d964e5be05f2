// Package module provides the embedding module implementation
package module

import (
	"danmood/internal/adapters/embed/siliconflow"
	"danmood/internal/core/ratelimit"
	"danmood/internal/modkit"
	"danmood/internal/platform/config"
	"danmood/internal/services/embed/domain"
	"danmood/internal/services/embed/service"
)

// Ports defines the embedding module ports
type Ports struct {
	Embedder domain.EmbedderPort
}

// Module implements the embedding module
type Module struct {
	deps    modkit.Deps
	ports   Ports
	limiter *ratelimit.Limiter
}

// New constructs the embedding module with options from deps.Cfg
func New(deps modkit.Deps) (*Module, error) {
	return NewWith(deps, FromConfig(deps.Cfg))
}

// NewWith wires the remote client, the shared rate limiter and the service
func NewWith(deps modkit.Deps, opts Options) (*Module, error) {
	if err := config.Validate(opts); err != nil {
		return nil, err
	}
	remote := siliconflow.NewClient(siliconflow.Options{
		BaseURL:    opts.BaseURL,
		APIKey:     opts.APIKey,
		Model:      opts.Model,
		Dimensions: opts.Dimensions,
	})
	lim := ratelimit.New(ratelimit.Options{RPM: opts.RPM, TPM: opts.TPM, Clock: deps.Now()})
	svc := service.New(remote, lim, service.Config{
		AttemptTimeout: opts.AttemptTimeout,
		Retries:        opts.Retries,
		RetryStep:      opts.RetryStep,
		MaxDepth:       opts.MaxDepth,
		BatchSize:      opts.BatchSize,
		Concurrency:    opts.Concurrency,
		Delay:          opts.Delay,
		Clock:          deps.Now(),
	})
	deps.Log.Debug().Str("model", opts.Model).Int("dims", opts.Dimensions).Int("concurrency", opts.Concurrency).Msg("embed module ready")
	return &Module{deps: deps, ports: Ports{Embedder: svc}, limiter: lim}, nil
}

// Limiter exposes the shared rate window, mostly for run summaries
func (m *Module) Limiter() *ratelimit.Limiter { return m.limiter }

// Name returns the module name
func (m *Module) Name() string { return "embed" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

var _ modkit.Module = (*Module)(nil)
