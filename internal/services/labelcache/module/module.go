// Package module provides the label cache module implementation
package module

import (
	"context"

	"danmood/internal/modkit"
	"danmood/internal/modkit/repokit"
	"danmood/internal/platform/config"
	perr "danmood/internal/platform/errors"
	"danmood/internal/services/labelcache/domain"
	"danmood/internal/services/labelcache/repo"
	"danmood/internal/services/labelcache/service"
)

// Ports defines the label cache module ports
type Ports struct {
	Cache domain.CachePort
}

// Module implements the label cache module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the cache module with options from deps.Cfg
func New(ctx context.Context, deps modkit.Deps) (*Module, error) {
	return NewWith(ctx, deps, FromConfig(deps.Cfg))
}

// NewWith picks the repo for opts.Backend from deps.Store, migrating SQL
// backends. The memory repo needs no store
func NewWith(ctx context.Context, deps modkit.Deps, opts Options) (*Module, error) {
	if err := config.Validate(opts); err != nil {
		return nil, err
	}
	r, err := pickRepo(ctx, deps, opts)
	if err != nil {
		return nil, err
	}
	svc := service.New(r, service.Config{TTL: opts.TTL, Clock: deps.Now()})
	deps.Log.Debug().Str("backend", opts.Backend).Dur("ttl", opts.TTL).Msg("labelcache module ready")
	return &Module{deps: deps, ports: Ports{Cache: svc}}, nil
}

func pickRepo(ctx context.Context, deps modkit.Deps, opts Options) (domain.Repo, error) {
	st := deps.Store
	switch opts.Backend {
	case BackendSQLite:
		if st == nil || st.Lite == nil {
			return nil, perr.Preconditionf("sqlite cache backend selected but not opened")
		}
		if err := repo.Migrate(ctx, st.Lite, repo.SQLite); err != nil {
			return nil, err
		}
		return repokit.MustBind(repo.NewSQL(repo.SQLite), st.Lite), nil
	case BackendPostgres:
		if st == nil || st.PG == nil {
			return nil, perr.Preconditionf("postgres cache backend selected but not opened")
		}
		if err := repo.Migrate(ctx, st.PG, repo.Postgres); err != nil {
			return nil, err
		}
		return repokit.MustBind(repo.NewSQL(repo.Postgres), st.PG), nil
	case BackendRedis:
		if st == nil || st.Redis == nil {
			return nil, perr.Preconditionf("redis cache backend selected but not opened")
		}
		return repo.NewKV(st.Redis, opts.TTL), nil
	default:
		return repo.NewMemory(), nil
	}
}

// Name returns the module name
func (m *Module) Name() string { return "labelcache" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

var _ modkit.Module = (*Module)(nil)
