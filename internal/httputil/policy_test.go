// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/research-radar/pkg/types"
)

// scriptedServer answers with the given status codes in order, repeating
// the last one, and records when each request arrived.
type scriptedServer struct {
	*httptest.Server

	mu       sync.Mutex
	statuses []int
	arrivals []time.Time
}

func newScriptedServer(t *testing.T, statuses ...int) *scriptedServer {
	t.Helper()
	s := &scriptedServer{statuses: statuses}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		s.arrivals = append(s.arrivals, time.Now())
		code := s.statuses[min(len(s.arrivals), len(s.statuses))-1]
		s.mu.Unlock()
		w.WriteHeader(code)
		_, _ = w.Write([]byte(http.StatusText(code)))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *scriptedServer) calls() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.arrivals...)
}

func (s *scriptedServer) get(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.URL, nil)
	require.NoError(t, err)
	return req
}

func TestPolicyDo(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		cfg       types.RateConfig
		wantCode  int
		wantErr   error
		wantCalls int
	}{
		{"first try", []int{http.StatusOK}, types.RateConfig{InitialBackoff: time.Millisecond}, http.StatusOK, nil, 1},
		{"two 429s then ok", []int{429, 429, http.StatusOK}, types.RateConfig{MaxRetries: 5, InitialBackoff: time.Millisecond}, http.StatusOK, nil, 3},
		{"retries exhausted", []int{429}, types.RateConfig{MaxRetries: 2, InitialBackoff: time.Millisecond}, 0, ErrRateLimited, 3},
		{"default retry count", []int{429}, types.RateConfig{InitialBackoff: time.Millisecond}, 0, ErrRateLimited, 1 + defaultMaxRetries},
		{"server error is not retried", []int{http.StatusBadGateway, http.StatusOK}, types.RateConfig{InitialBackoff: time.Millisecond}, http.StatusBadGateway, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newScriptedServer(t, tt.statuses...)
			resp, err := NewPolicy("arxiv", tt.cfg, nil).Do(context.Background(), srv.Client(), srv.get(t))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				defer resp.Body.Close()
				assert.Equal(t, tt.wantCode, resp.StatusCode)
			}
			assert.Len(t, srv.calls(), tt.wantCalls)
		})
	}
}

func TestPolicyDoLogsBackoff(t *testing.T) {
	srv := newScriptedServer(t, 429, http.StatusOK)
	core, logs := observer.New(zap.InfoLevel)

	resp, err := NewPolicy("openalex", types.RateConfig{InitialBackoff: time.Millisecond}, zap.New(core)).
		Do(context.Background(), srv.Client(), srv.get(t))
	require.NoError(t, err)
	resp.Body.Close()

	require.GreaterOrEqual(t, logs.Len(), 1)
	assert.Equal(t, "openalex", logs.All()[0].ContextMap()["source"])
}

func TestPolicyDoStopsBackoffOnCancel(t *testing.T) {
	srv := newScriptedServer(t, 429)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewPolicy("dblp", types.RateConfig{MaxRetries: 5, InitialBackoff: time.Second}, nil).
		Do(ctx, srv.Client(), srv.get(t))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "backoff sleep must honour the context")
	assert.Len(t, srv.calls(), 1)
}

func TestPolicyGateSpacesRequests(t *testing.T) {
	srv := newScriptedServer(t, http.StatusOK)
	p := NewPolicy("semantic_scholar", types.RateConfig{Interval: 40 * time.Millisecond}, nil)

	for range 3 {
		resp, err := p.Do(context.Background(), srv.Client(), srv.get(t))
		require.NoError(t, err)
		resp.Body.Close()
	}

	calls := srv.calls()
	require.Len(t, calls, 3)
	assert.GreaterOrEqual(t, calls[2].Sub(calls[0]), 70*time.Millisecond)
}

func TestPolicyFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/works/W404" {
			http.Error(w, "work not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"W1"}`))
	}))
	defer srv.Close()
	p := NewPolicy("openalex", types.RateConfig{InitialBackoff: time.Millisecond}, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/works/W1", nil)
	require.NoError(t, err)
	body, header, err := p.Fetch(context.Background(), srv.Client(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"W1"}`, string(body))
	assert.Equal(t, "application/json", header.Get("Content-Type"))

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/works/W404", nil)
	require.NoError(t, err)
	_, _, err = p.Fetch(context.Background(), srv.Client(), req)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Body, "work not found")
}
