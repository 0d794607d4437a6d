// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the request policy shared by every scraper: a
// minimum-interval rate gate and exponential backoff on HTTP 429.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second
	maxErrorBody          = 512
)

// ErrRateLimited is returned when a source keeps answering 429 after all
// retries.
var ErrRateLimited = errors.New("rate limited")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Policy gates and retries requests for one source. A Policy is safe for
// concurrent use; its gate is shared by all callers.
type Policy struct {
	name           string
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	logger         *zap.Logger
}

// NewPolicy builds the policy for the named source. A zero interval
// disables the rate gate. Non-positive retry settings use the defaults
// (3 retries, 2 s initial backoff).
func NewPolicy(name string, cfg types.RateConfig, logger *zap.Logger) *Policy {
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.InitialBackoff
	if backoff <= 0 {
		backoff = defaultInitialBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		name:           name,
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     maxRetries,
		initialBackoff: backoff,
		logger:         logger,
	}
}

// Do waits on the rate gate and executes req. On HTTP 429 the body is
// drained and the request retried after initialBackoff × 2^attempt. After
// maxRetries retries Do returns ErrRateLimited. Other statuses are returned
// to the caller unchanged. If ctx is cancelled while waiting, Do returns
// ctx.Err().
func (p *Policy) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if attempt >= p.maxRetries {
			return nil, fmt.Errorf("%s: %w after %d retries", p.name, ErrRateLimited, p.maxRetries)
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * p.initialBackoff
		p.logger.Info("rate limited, backing off",
			zap.String("source", p.name),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", p.maxRetries),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Fetch runs req under the policy and returns the body and headers of a 2xx
// response. Other statuses become a *StatusError.
func (p *Policy) Fetch(ctx context.Context, client *http.Client, req *http.Request) ([]byte, http.Header, error) {
	resp, err := p.Do(ctx, client, req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, resp.Header, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.Header, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.Header, nil
}
