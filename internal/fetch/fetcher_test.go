package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

func testClient(t *testing.T, maxRetries int) *Client {
	t.Helper()
	return New(Config{
		UserAgent:   "yrfi-test",
		Timeout:     5 * time.Second,
		Concurrency: 2,
		PerHostRPS:  0, // no politeness delay in tests
		MaxRetries:  maxRetries,
		BackoffBase: time.Millisecond,
		BackoffMax:  5 * time.Millisecond,
	}, zap.NewNop())
}

func TestFetchReturnsRawPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "R", r.URL.Query().Get("gameType"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"dates":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := testClient(t, 0)
	resp, err := c.Fetch(context.Background(), pipeline.FetchRequest{
		Source: "statsapi",
		URL:    srv.URL + "/schedule",
		Params: map[string]string{"gameType": "R"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"dates":[]}`, string(resp.Body))
	require.Zero(t, resp.Retries)
}

func TestFetchRetriesOn429ThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("payload")) //nolint:errcheck
	}))
	defer srv.Close()

	c := testClient(t, 3)
	resp, err := c.Fetch(context.Background(), pipeline.FetchRequest{Source: "odds", URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, "payload", string(resp.Body))
	// Two 429s before the 200: exactly two backoff retries recorded.
	require.Equal(t, 2, resp.Retries)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchSurfacesNetworkErrorAfterCap(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, 2)
	_, err := c.Fetch(context.Background(), pipeline.FetchRequest{Source: "savant", URL: srv.URL})

	var netErr *pipeline.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
	require.Equal(t, 3, netErr.Attempts)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, 3)
	_, err := c.Fetch(context.Background(), pipeline.FetchRequest{Source: "statsapi", URL: srv.URL})

	var netErr *pipeline.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.StatusNotFound, netErr.StatusCode)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := testClient(t, 0)
	_, err := c.Fetch(ctx, pipeline.FetchRequest{Source: "statsapi", URL: srv.URL})
	require.Error(t, err)
}

func TestHostLimiterEnforcesPolitenessInterval(t *testing.T) {
	t.Parallel()

	// 10 rps = one token every 100ms.
	l := NewHostLimiter(10, 1)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://statsapi.mlb.com/api/v1/schedule"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://statsapi.mlb.com/api/v1/teams"))
	if waited := time.Since(start); waited < 80*time.Millisecond {
		t.Errorf("second call waited %v, want ~100ms", waited)
	}
}

func TestHostLimiterIsPerHost(t *testing.T) {
	t.Parallel()

	l := NewHostLimiter(1, 1)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.example.com/x"))

	// A different host must not inherit host A's spent token.
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.example.com/y"))
	if waited := time.Since(start); waited > 100*time.Millisecond {
		t.Errorf("different host waited %v, want immediate", waited)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	b := NewBreakerSet(time.Minute, zap.NewNop())
	boom := errors.New("boom")
	for i := 0; i < 6; i++ {
		b.Execute("flaky.example.com", func() (interface{}, error) { //nolint:errcheck
			return nil, boom
		})
	}
	_, err := b.Execute("flaky.example.com", func() (interface{}, error) {
		return "ok", nil
	})
	require.Error(t, err)

	// Other hosts are unaffected.
	out, err := b.Execute("healthy.example.com", func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", out)
}
