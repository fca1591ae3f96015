// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/monitor"
	"github.com/raysh454/nyxguard/internal/reputation"
	"github.com/raysh454/nyxguard/internal/settings"
	"github.com/raysh454/nyxguard/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns the number of warnings logged so far.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyPage is a canned response served by DummyWebClient.
type DummyPage struct {
	Status      int
	Body        string
	Subrequests []string
}

// DummyWebClient implements webclient.WebClient.
// URLs present in Pages get their canned page; any other URL gets
// status 200 with body "ok:<url>". Set FailURLs[url] = true to force an
// error for a specific URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	Pages         map[string]DummyPage
	FailURLs      map[string]bool
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, errors.New("dummy fetch fail for " + req.URL)
	}

	resp := &webclient.Response{
		Request:    req,
		Headers:    map[string][]string{"Content-Type": {"text/html"}},
		Body:       []byte("ok:" + req.URL),
		StatusCode: 200,
		FetchedAt:  time.Now(),
	}
	if page, ok := d.Pages[req.URL]; ok {
		resp.Body = []byte(page.Body)
		resp.Subrequests = append([]string(nil), page.Subrequests...)
		if page.Status != 0 {
			resp.StatusCode = page.Status
		}
	}
	return resp, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns the number of requests served.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// ─── Settings ──────────────────────────────────────────────────────────

// StaticSettings implements monitor.SettingsLoader with a fixed value.
type StaticSettings struct {
	mu       sync.Mutex
	Settings settings.Settings
	Err      error
}

func NewStaticSettings(s settings.Settings) *StaticSettings {
	return &StaticSettings{Settings: settings.Normalize(s)}
}

func (s *StaticSettings) Load(context.Context) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Settings, s.Err
}

// Set replaces the served settings.
func (s *StaticSettings) Set(st settings.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Settings = settings.Normalize(st)
}

// ─── Reputation ────────────────────────────────────────────────────────

// DummyReputation implements monitor.ReputationLookup with a fixed outcome
// and records the looked-up domains.
type DummyReputation struct {
	mu      sync.Mutex
	Result  reputation.Result
	Domains []string
}

func (d *DummyReputation) Lookup(_ context.Context, domain, _ string) reputation.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Domains = append(d.Domains, domain)
	if d.Result.Status == "" {
		return reputation.Result{Status: model.ReputationNoData}
	}
	return d.Result
}

// Calls returns the number of lookups served.
func (d *DummyReputation) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Domains)
}

// ─── Notifier ──────────────────────────────────────────────────────────

// DummyNotifier implements monitor.Notifier with in-memory recording.
// Alerts are only recorded when Err is nil.
type DummyNotifier struct {
	mu     sync.Mutex
	Err    error
	Alerts []monitor.Alert
}

func (n *DummyNotifier) Notify(_ context.Context, a monitor.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Alerts = append(n.Alerts, a)
	return nil
}

// SetErr changes the error returned by later notifications.
func (n *DummyNotifier) SetErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Err = err
}

// Sent returns a copy of the delivered alerts.
func (n *DummyNotifier) Sent() []monitor.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]monitor.Alert(nil), n.Alerts...)
}
