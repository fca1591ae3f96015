// Package reputation looks up third-party threat-intelligence verdicts for
// a domain. Lookups never fail: every outcome, including network and
// parsing failures, is reported as a Result status and cached.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/webclient"
)

// Result is the outcome of one lookup. Summary is set only when Status is
// checked.
type Result struct {
	Status  model.ReputationStatus   `json:"status"`
	Summary *model.ReputationSummary `json:"summary,omitempty"`
}

var errNoData = errors.New("no data")

// Client performs cached, coalesced and rate-limited lookups.
type Client struct {
	cfg     Config
	web     webclient.WebClient
	cache   Cache
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	flight  singleflight.Group
	logger  logging.Logger
	now     func() time.Time
}

// NewClient builds a Client. A nil cache gets an in-memory one.
func NewClient(cfg Config, web webclient.WebClient, cache Cache, logger logging.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.ErrorCacheTTL <= 0 {
		cfg.ErrorCacheTTL = def.ErrorCacheTTL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if cache == nil {
		cache = NewMemoryCache()
	}

	if cfg.MinRequestInterval == 0 {
		cfg.MinRequestInterval = def.MinRequestInterval
	}
	limit := rate.Inf
	if cfg.MinRequestInterval > 0 {
		limit = rate.Every(cfg.MinRequestInterval)
	}

	componentLogger := logger.With(logging.Component("reputation"))
	failures := cfg.BreakerFailures

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "reputation-api",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			componentLogger.Warn("circuit breaker state changed",
				logging.Field{Key: "breaker", Value: name},
				logging.Field{Key: "from", Value: from.String()},
				logging.Field{Key: "to", Value: to.String()})
		},
	})

	return &Client{
		cfg:     cfg,
		web:     web,
		cache:   cache,
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
		logger:  componentLogger,
		now:     time.Now,
	}
}

// Lookup returns the reputation of domain. An empty domain or API key
// yields no_data without touching the network. Concurrent lookups for the
// same domain share one request. If ctx ends before the shared request
// completes the caller gets an error result; the request still finishes
// and populates the cache.
func (c *Client) Lookup(ctx context.Context, domain, apiKey string) Result {
	domain = strings.ToLower(strings.TrimSpace(domain))
	apiKey = strings.TrimSpace(apiKey)
	if domain == "" || apiKey == "" {
		return Result{Status: model.ReputationNoData}
	}

	if e, ok := c.cache.Get(ctx, domain); ok {
		return e.Result()
	}

	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(domain, func() (any, error) {
		if e, ok := c.cache.Get(detached, domain); ok {
			return e.Result(), nil
		}

		res := c.fetch(detached, domain, apiKey)
		c.cache.Set(detached, domain, Entry{
			Status:   res.Status,
			Summary:  res.Summary,
			CachedAt: c.now(),
		}, c.ttlFor(res.Status))
		return res, nil
	})

	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		return Result{Status: model.ReputationError}
	}
}

func (c *Client) ttlFor(status model.ReputationStatus) time.Duration {
	if status == model.ReputationError {
		return c.cfg.ErrorCacheTTL
	}
	return c.cfg.CacheTTL
}

// fetch performs one request through the breaker and the global limiter.
func (c *Client) fetch(ctx context.Context, domain, apiKey string) Result {
	out, err := c.breaker.Execute(func() (any, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		headers := http.Header{}
		headers.Set("x-apikey", apiKey)
		headers.Set("Accept", "application/json")

		resp, err := c.web.Do(reqCtx, &webclient.Request{
			Method:  http.MethodGet,
			URL:     strings.TrimRight(c.cfg.BaseURL, "/") + "/" + url.PathEscape(domain),
			Headers: headers,
		})
		if err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return Result{Status: model.ReputationNoData}, nil
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		summary, err := parseReport(resp.Body)
		if errors.Is(err, errNoData) {
			return Result{Status: model.ReputationNoData}, nil
		}
		if err != nil {
			return nil, err
		}
		return Result{Status: model.ReputationChecked, Summary: summary}, nil
	})
	if err != nil {
		c.logger.Warn("reputation lookup failed",
			logging.Field{Key: "domain", Value: domain},
			logging.Err(err))
		return Result{Status: model.ReputationError}
	}

	res := out.(Result)
	c.logger.Debug("reputation lookup done",
		logging.Field{Key: "domain", Value: domain},
		logging.Field{Key: "status", Value: string(res.Status)})
	return res
}

type domainReport struct {
	Data *struct {
		Attributes *struct {
			LastAnalysisStats map[string]any `json:"last_analysis_stats"`
			Reputation        any            `json:"reputation"`
			LastAnalysisDate  any            `json:"last_analysis_date"`
		} `json:"attributes"`
	} `json:"data"`
}

// parseReport extracts the verdict counts from a domain report. A report
// without analysis stats yields errNoData; missing numbers count as zero.
func parseReport(body []byte) (*model.ReputationSummary, error) {
	var report domainReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if report.Data == nil || report.Data.Attributes == nil || report.Data.Attributes.LastAnalysisStats == nil {
		return nil, errNoData
	}

	attrs := report.Data.Attributes
	stats := attrs.LastAnalysisStats
	return &model.ReputationSummary{
		Malicious:        int(number(stats["malicious"])),
		Suspicious:       int(number(stats["suspicious"])),
		Harmless:         int(number(stats["harmless"])),
		Undetected:       int(number(stats["undetected"])),
		Reputation:       int(number(attrs.Reputation)),
		LastAnalysisDate: int64(number(attrs.LastAnalysisDate)),
	}, nil
}

func number(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
