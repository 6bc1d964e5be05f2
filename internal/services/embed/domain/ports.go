// Package domain holds the embedding service types and ports
package domain

import "context"

// Remote performs one embedding request
type Remote interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
	CheckCredential() error
	Model() string
	Dimensions() int
}

// Limiter admits one request of the given estimated size
type Limiter interface {
	Acquire(ctx context.Context, tokens int) error
}

// EmbedderPort is what the analyze run calls
type EmbedderPort interface {
	// Adaptive embeds one batch with retry and adaptive splitting
	Adaptive(ctx context.Context, texts []string) ([][]float64, error)
	// Run embeds texts in rate-limited batches; failed batches are contained
	Run(ctx context.Context, texts []string) (Result, error)
	// CheckCredential fails with a precondition error when no key is configured
	CheckCredential() error
	Model() string
	Dimensions() int
}

// BatchFailure is a batch whose adaptive embedding gave up
type BatchFailure struct {
	Batch int    `json:"batch"`
	Start int    `json:"start"`
	Size  int    `json:"size"`
	Error string `json:"error"`
}

// Result is the outcome of Run. Vectors is aligned with the input; entries
// of failed batches are nil
type Result struct {
	Vectors  [][]float64    `json:"-"`
	Batches  int            `json:"batches"`
	Embedded int            `json:"embedded"`
	Failed   []BatchFailure `json:"failed,omitempty"`
}
