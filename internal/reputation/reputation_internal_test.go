package reputation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/webclient"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClockedClient(t *testing.T, status *atomic.Int32) (*Client, *fakeClock, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			_, _ = w.Write([]byte(`{"data":{"attributes":{"last_analysis_stats":{"harmless":1}}}}`))
		}
	}))
	t.Cleanup(ts.Close)

	web, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.NewNopLogger(), ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}

	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewMemoryCache()
	cache.now = clock.Now

	cfg := DefaultConfig()
	cfg.BaseURL = ts.URL
	cfg.MinRequestInterval = -1
	c := NewClient(cfg, web, cache, logging.NewNopLogger())
	c.now = clock.Now
	return c, clock, &requests
}

func TestLookup_CheckedCachedForSixHours(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	c, clock, requests := newClockedClient(t, &status)
	ctx := context.Background()

	if res := c.Lookup(ctx, "example.com", "key"); res.Status != model.ReputationChecked {
		t.Fatalf("status = %q", res.Status)
	}

	clock.Advance(6*time.Hour - time.Minute)
	c.Lookup(ctx, "example.com", "key")
	if n := requests.Load(); n != 1 {
		t.Fatalf("entry should still be fresh, got %d requests", n)
	}

	clock.Advance(2 * time.Minute)
	c.Lookup(ctx, "example.com", "key")
	if n := requests.Load(); n != 2 {
		t.Fatalf("entry should have expired, got %d requests", n)
	}
}

func TestLookup_ErrorCachedForFiveMinutes(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	c, clock, requests := newClockedClient(t, &status)
	ctx := context.Background()

	if res := c.Lookup(ctx, "example.com", "key"); res.Status != model.ReputationError {
		t.Fatalf("status = %q, want error", res.Status)
	}

	clock.Advance(4 * time.Minute)
	if res := c.Lookup(ctx, "example.com", "key"); res.Status != model.ReputationError {
		t.Fatalf("cached error expected, got %q", res.Status)
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("expected cached error, got %d requests", n)
	}

	status.Store(http.StatusOK)
	clock.Advance(2 * time.Minute)
	if res := c.Lookup(ctx, "example.com", "key"); res.Status != model.ReputationChecked {
		t.Fatalf("expected fresh lookup after error TTL, got %q", res.Status)
	}
	if n := requests.Load(); n != 2 {
		t.Fatalf("expected 2 requests, got %d", n)
	}
}

func TestParseReport(t *testing.T) {
	t.Parallel()

	sum, err := parseReport([]byte(`{"data":{"attributes":{"last_analysis_stats":{"malicious":"7","suspicious":2.0}}}}`))
	if err != nil {
		t.Fatalf("parseReport: %v", err)
	}
	if sum.Malicious != 0 || sum.Suspicious != 2 {
		t.Fatalf("non-numeric counts should be zero: %+v", sum)
	}

	if _, err := parseReport([]byte(`{}`)); err != errNoData {
		t.Fatalf("expected errNoData, got %v", err)
	}
	if _, err := parseReport([]byte(`nope`)); err == nil || err == errNoData {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNewClient_MinRequestInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		interval time.Duration
		want     rate.Limit
	}{
		{"zero uses default", 0, rate.Every(DefaultConfig().MinRequestInterval)},
		{"explicit", 5 * time.Second, rate.Every(5 * time.Second)},
		{"negative disables", -1, rate.Inf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(Config{MinRequestInterval: tt.interval}, nil, nil, logging.NewNopLogger())
			if got := c.limiter.Limit(); got != tt.want {
				t.Fatalf("limit = %v, want %v", got, tt.want)
			}
		})
	}
}
