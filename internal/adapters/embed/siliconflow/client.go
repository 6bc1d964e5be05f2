// Package siliconflow is the transport for an OpenAI-compatible
// /v1/embeddings endpoint
package siliconflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
	pstrings "danmood/internal/platform/strings"
)

const (
	baseURLDefault = "https://api.siliconflow.cn"
	defaultModel   = "Qwen/Qwen3-Embedding-8B"
	defaultTimeout = 60 * time.Second

	maxBody = 64 << 20
)

// Options configures the Client
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	// Dimensions is sent when > 0; models that support it truncate their output
	Dimensions int
	// Timeout bounds the whole HTTP exchange; callers add tighter per-attempt deadlines
	Timeout time.Duration
}

// Client posts embedding requests
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// NewClient creates a Client with defaults filled in
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Model == "" {
		o.Model = defaultModel
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	o.APIKey = strings.TrimSpace(o.APIKey)
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("siliconflow"),
	}
}

// Model is the configured model id
func (c *Client) Model() string { return c.opts.Model }

// Dimensions is the requested output size, 0 for the model default
func (c *Client) Dimensions() int { return c.opts.Dimensions }

// CheckCredential fails with a precondition error when no API key is set
func (c *Client) CheckCredential() error {
	if c.opts.APIKey == "" {
		return perr.WithField(perr.Preconditionf("missing embeddings API key"), "api_key")
	}
	return nil
}

type request struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

type datum struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type response struct {
	Data []datum `json:"data"`
}

// Embed performs one request and returns a vector per input, in input order
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if err := c.CheckCredential(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(request{
		Model:          c.opts.Model,
		Input:          inputs,
		EncodingFormat: "float",
		Dimensions:     c.opts.Dimensions,
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "siliconflow encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/v1/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "siliconflow new request")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.WrapStatus(err, perr.CodeOf(err), -1, "siliconflow request failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("siliconflow close body failed")
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, perr.WrapStatus(err, perr.CodeOf(err), resp.StatusCode, "siliconflow read body")
	}
	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("inputs", len(inputs)).
		Dur("latency", time.Since(start)).
		Msg("siliconflow http response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeMalformed, "siliconflow decode body: %s", snippet(body))
	}
	if out.Data == nil {
		return nil, perr.Malformedf("siliconflow response has no data array")
	}
	if len(out.Data) != len(inputs) {
		return nil, perr.Malformedf("siliconflow returned %d embeddings for %d inputs", len(out.Data), len(inputs))
	}
	slices.SortStableFunc(out.Data, func(a, b datum) int { return a.Index - b.Index })
	vecs := make([][]float64, len(out.Data))
	for i, d := range out.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

// statusError classifies a failed response. Busy-model bodies (code 50500)
// are transient whatever the status says
func statusError(status int, body []byte) error {
	msg := fmt.Sprintf("siliconflow %d: %s", status, snippet(body))
	var env struct {
		Code int `json:"code"`
	}
	if json.Unmarshal(body, &env) == nil && env.Code == 50500 {
		return perr.WrapStatus(perr.FromHTTPStatus(status, msg), perr.ErrorCodeUnavailable, status, "siliconflow model busy")
	}
	return perr.FromHTTPStatus(status, msg)
}

func snippet(b []byte) string {
	return pstrings.Truncate(strings.TrimSpace(string(b)), 256)
}
