// Package bili is the HTTP transport for the video platform: part lists,
// comment segments, the XML fallback list, history, subtitles and AI summaries
package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
)

const (
	baseURLDefault   = "https://api.bilibili.com"
	siteURLDefault   = "https://www.bilibili.com"
	defaultTimeout   = 20 * time.Second
	defaultUA        = "Mozilla/5.0 (X11; Linux x86_64) danmood"
	defaultMaxRetry  = 2
	defaultRetryBase = 300 * time.Millisecond

	maxJSONBody = 8 << 20
	maxSegBody  = 32 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	SiteURL   string
	UserAgent string
	Timeout   time.Duration

	// Cookie is sent verbatim; a logged-in SESSDATA unlocks history and summaries
	Cookie string

	// RPS paces every request when > 0
	RPS   float64
	Burst int

	// Retry config for metadata lookups; segment fetches are retried by the caller
	MaxRetries int
	RetryBase  time.Duration
}

// Client talks to the platform API
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	log     logger.Logger
	now     func() time.Time

	mixMu sync.Mutex
	mix   string
	mixAt time.Time
}

// NewClient creates a Client with defaults filled in
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.SiteURL == "" {
		o.SiteURL = siteURLDefault
	}
	o.SiteURL = strings.TrimRight(o.SiteURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	c := &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("bili"),
		now:  time.Now,
	}
	if o.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.RPS), max(1, o.Burst))
	}
	return c
}

// Referrer is the page URL of part p (1-based) of a video
func (c *Client) Referrer(bvid string, p int) string {
	return fmt.Sprintf("%s/video/%s/?p=%d", c.opts.SiteURL, bvid, p)
}

func (c *Client) home() string { return c.opts.SiteURL + "/" }

// do issues one GET. Non-2xx responses are closed and returned as errors
// carrying the status; transport failures carry status -1
func (c *Client) do(ctx context.Context, url, referrer string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, perr.Classify(err, "bili pacing wait")
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "bili new request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "*/*")
	if referrer == "" {
		referrer = c.home()
	}
	req.Header.Set("Referer", referrer)
	if c.opts.Cookie != "" {
		req.Header.Set("Cookie", c.opts.Cookie)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		c.log.Debug().Err(err).Str("url", url).Dur("latency", lat).Msg("bili transport error")
		return nil, perr.WrapStatus(err, perr.CodeOf(err), -1, "bili request failed")
	}
	c.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("bili http response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = drainAndClose(resp.Body)
		return nil, perr.FromHTTPStatus(resp.StatusCode, fmt.Sprintf("bili status %d", resp.StatusCode))
	}
	return resp, nil
}

func (c *Client) readAll(resp *http.Response, limit int64) ([]byte, error) {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("bili close body failed")
		}
	}()
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, perr.Classify(err, "bili read body")
	}
	return b, nil
}

// getBytes fetches a raw body once
func (c *Client) getBytes(ctx context.Context, url, referrer string, limit int64) ([]byte, error) {
	resp, err := c.do(ctx, url, referrer)
	if err != nil {
		return nil, err
	}
	return c.readAll(resp, limit)
}

// envelope is the platform's {code, message, data} wrapper
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// apiError maps a non-zero envelope code. Negative HTTP-like codes keep their class
func apiError(code int, msg string) error {
	st := code
	if st < 0 {
		st = -st
	}
	ec := perr.ErrorCodeUnknown
	if st >= 400 && st <= 599 {
		ec = perr.CodeForStatus(st)
	}
	return perr.Newf(ec, "bili api code %d: %s", code, msg)
}

// getEnvelope fetches an enveloped JSON document and returns its data,
// retrying transient failures with exponential backoff. A non-zero code is
// returned as an error without retrying
func (c *Client) getEnvelope(ctx context.Context, url string) (json.RawMessage, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryBase
	b.MaxInterval = 10 * c.opts.RetryBase
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.MaxRetries)), ctx)

	var data json.RawMessage
	op := func() error {
		body, err := c.getBytes(ctx, url, "", maxJSONBody)
		if err != nil {
			if perr.Retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return backoff.Permanent(perr.Wrapf(err, perr.ErrorCodeMalformed, "bili decode envelope"))
		}
		if env.Code != 0 {
			return backoff.Permanent(apiError(env.Code, env.Message))
		}
		data = env.Data
		return nil
	}
	notify := func(err error, d time.Duration) {
		c.log.Warn().Err(err).Dur("retry_in", d).Str("url", url).Msg("bili transient error retrying")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return data, nil
}

// getJSON is getEnvelope followed by decoding a required data payload into out
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	data, err := c.getEnvelope(ctx, url)
	if err != nil {
		return err
	}
	if isNull(data) {
		return perr.Malformedf("bili response has no data")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeMalformed, "bili decode data")
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
