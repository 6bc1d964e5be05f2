// Package module provides the fetch module implementation
package module

import (
	"danmood/internal/modkit"
	"danmood/internal/platform/config"
	"danmood/internal/services/fetch/domain"
	"danmood/internal/services/fetch/service"
)

// Ports defines the fetch module ports
type Ports struct {
	Collector domain.CollectorPort
}

// Module implements the fetch module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the fetch module over src with options from deps.Cfg
func New(deps modkit.Deps, src domain.Source) (*Module, error) {
	return NewWith(deps, src, FromConfig(deps.Cfg))
}

// NewWith constructs the fetch module with explicit options
func NewWith(deps modkit.Deps, src domain.Source, opts Options) (*Module, error) {
	if err := config.Validate(opts); err != nil {
		return nil, err
	}
	svc := service.New(src, service.Config{
		Parallel:        opts.Parallel,
		Attempts:        opts.Attempts,
		RetryBase:       opts.RetryBase,
		History:         opts.History,
		HistoryMonths:   opts.HistoryMonths,
		HistoryDates:    opts.HistoryDates,
		HistoryParallel: opts.HistoryParallel,
		Clock:           deps.Now(),
	})
	deps.Log.Debug().Int("parallel", svc.Cfg.Parallel).Bool("history", opts.History).Msg("fetch module ready")
	return &Module{deps: deps, ports: Ports{Collector: svc}}, nil
}

// Name returns the module name
func (m *Module) Name() string { return "fetch" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

var _ modkit.Module = (*Module)(nil)
