// Package domain holds the label-embedding cache types and ports
package domain

import (
	"context"
	"time"
)

// Entry is one cached prototype set
type Entry struct {
	Vectors   [][]float64 `json:"vectors"`
	CreatedAt time.Time   `json:"created_at"`
}

// Repo stores entries by cache key. Get reports found=false for a miss
type Repo interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
}

// EmbedFunc computes prototype vectors on a miss
type EmbedFunc func(ctx context.Context, prompts []string) ([][]float64, error)

// CachePort is what the analyze run calls
type CachePort interface {
	// Vectors returns one vector per prompt, from the cache when possible
	Vectors(ctx context.Context, model string, dims int, prompts []string, embed EmbedFunc) (vecs [][]float64, hit bool, err error)
}
