// Package repo provides the label cache repositories
package repo

import (
	"context"
	"slices"
	"sync"

	"danmood/internal/services/labelcache/domain"
)

// Memory is a process-local Repo
type Memory struct {
	mu sync.RWMutex
	m  map[string]domain.Entry
}

// NewMemory returns an empty Memory repo
func NewMemory() *Memory { return &Memory{m: map[string]domain.Entry{}} }

var _ domain.Repo = (*Memory)(nil)

// Get implements domain.Repo
func (r *Memory) Get(_ context.Context, key string) (domain.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.m[key]
	return e, ok, nil
}

// Put implements domain.Repo; vectors are copied
func (r *Memory) Put(_ context.Context, key string, e domain.Entry) error {
	vs := make([][]float64, len(e.Vectors))
	for i, v := range e.Vectors {
		vs[i] = slices.Clone(v)
	}
	r.mu.Lock()
	r.m[key] = domain.Entry{Vectors: vs, CreatedAt: e.CreatedAt}
	r.mu.Unlock()
	return nil
}
