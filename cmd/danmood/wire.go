package main

import (
	"context"

	"danmood/internal/adapters/ingest/bili"
	"danmood/internal/modkit"
	"danmood/internal/modkit/module"
	"danmood/internal/modkit/repokit"
	"danmood/internal/platform/config"
	"danmood/internal/platform/logger"
	"danmood/internal/platform/store"
	ptime "danmood/internal/platform/time"
	analyzedom "danmood/internal/services/analyze/domain"
	analyzemod "danmood/internal/services/analyze/module"
	embedmod "danmood/internal/services/embed/module"
	fetchmod "danmood/internal/services/fetch/module"
	cachemod "danmood/internal/services/labelcache/module"
)

// app is the wired pipeline of one process
type app struct {
	store    *store.Store
	mods     []modkit.Module
	analyzer analyzedom.AnalyzerPort
	embed    *embedmod.Module
}

// build opens the cache backend and composes fetch, embed, labelcache and
// analyze over one bili client
func build(ctx context.Context, root config.Conf) (*app, error) {
	l := logger.Get()
	cacheOpts := cachemod.FromConfig(root)
	st, err := store.Open(ctx, store.FromConfig(root.Prefix("DANMOOD_STORE_"), cacheOpts.Backend), store.WithLogger(*l))
	if err != nil {
		return nil, err
	}
	a := &app{store: st}
	if err := repokit.Guard(ctx, st); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if err := a.wire(ctx, root, cacheOpts); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, root config.Conf, cacheOpts cachemod.Options) error {
	deps := modkit.Deps{
		Log:   *logger.Named("danmood"),
		Cfg:   root,
		Store: a.store,
		Clock: ptime.System,
	}
	src := bili.NewClient(bili.FromConfig(root))

	fm, err := fetchmod.New(deps, src)
	if err != nil {
		return err
	}
	em, err := embedmod.New(deps)
	if err != nil {
		return err
	}
	cm, err := cachemod.NewWith(ctx, deps, cacheOpts)
	if err != nil {
		return err
	}
	am, err := analyzemod.New(deps, analyzemod.Collaborators{
		Collector: module.MustPortsOf[fetchmod.Ports](fm).Collector,
		Embedder:  module.MustPortsOf[embedmod.Ports](em).Embedder,
		Cache:     module.MustPortsOf[cachemod.Ports](cm).Cache,
		Meta:      src,
	})
	if err != nil {
		return err
	}
	a.mods = []modkit.Module{fm, em, cm, am}
	a.analyzer = module.MustPortsOf[analyzemod.Ports](am).Analyzer
	a.embed = em

	names := make([]string, 0, len(a.mods))
	for _, m := range a.mods {
		names = append(names, m.Name())
	}
	deps.Log.Debug().Strs("modules", names).Str("cache", cacheOpts.Backend).Msg("pipeline wired")
	return nil
}

// Close releases the cache backend
func (a *app) Close(ctx context.Context) error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}
