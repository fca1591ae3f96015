// Package scanner evaluates pages on demand: it fetches a URL through the
// configured web client, extracts its content features and tracker hits,
// and hands the observation to the session monitor.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/raysh454/nyxguard/internal/collector"
	"github.com/raysh454/nyxguard/internal/domains"
	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/monitor"
	"github.com/raysh454/nyxguard/internal/trackers"
	"github.com/raysh454/nyxguard/internal/webclient"
)

var ErrBadStatus = errors.New("page returned an error status")

// PageSubmitter receives complete page observations.
type PageSubmitter interface {
	SubmitPage(ctx context.Context, id string, cf model.ContentFeatures, trackerHits int) (model.DetectionResult, error)
}

// Outcome is the result of scanning one URL in a batch.
type Outcome struct {
	URL       string                 `json:"url"`
	SessionID string                 `json:"session_id"`
	Result    *model.DetectionResult `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type Scanner struct {
	cfg        Config
	wc         webclient.WebClient
	submitter  PageSubmitter
	settings   monitor.SettingsLoader
	reputation monitor.ReputationLookup
	trackers   *trackers.Matcher
	logger     logging.Logger
}

// New creates a scanner. rep may be nil.
func New(cfg Config, wc webclient.WebClient, submitter PageSubmitter, st monitor.SettingsLoader, rep monitor.ReputationLookup, matcher *trackers.Matcher, logger logging.Logger) *Scanner {
	def := DefaultConfig()
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if matcher == nil {
		matcher = trackers.NewDefaultMatcher()
	}
	return &Scanner{
		cfg:        cfg,
		wc:         wc,
		submitter:  submitter,
		settings:   st,
		reputation: rep,
		trackers:   matcher,
		logger:     logger.With(logging.Component("scanner")),
	}
}

// Scan fetches pageURL and evaluates it as the current page of session.
// The reputation lookup for the page's domain runs while the page loads,
// so the evaluation finds it cached.
func (s *Scanner) Scan(ctx context.Context, session, pageURL string) (model.DetectionResult, error) {
	if !domains.IsHTTPURL(pageURL) {
		return model.DetectionResult{}, monitor.ErrNotHTTP
	}
	if s.wc == nil {
		return model.DetectionResult{}, fmt.Errorf("scanner: webclient is nil")
	}

	st, err := s.settings.Load(ctx)
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("load settings: %w", err)
	}

	var resp *webclient.Response
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(gctx, s.cfg.FetchTimeout)
		defer cancel()
		r, err := s.wc.Get(fetchCtx, pageURL)
		if err != nil {
			return fmt.Errorf("error GETting %s: %w", pageURL, err)
		}
		resp = r
		return nil
	})
	if domain, ok := domains.NormalizeDomain(pageURL); ok && s.reputation != nil &&
		st.ReputationEnabled() && !st.InAllowlist(domain) {
		g.Go(func() error {
			s.reputation.Lookup(gctx, domain, st.ReputationAPIKey)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.DetectionResult{}, err
	}

	if resp.StatusCode >= 400 {
		return model.DetectionResult{}, fmt.Errorf("%w: %s returned %d", ErrBadStatus, pageURL, resp.StatusCode)
	}

	opts := collector.DefaultOptions()
	opts.TextSample = st.EnableTextSample
	cf, err := collector.Extract(pageURL, resp.Body, opts)
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("extract features: %w", err)
	}
	hits := s.trackers.Count(resp.Subrequests)

	s.logger.Debug("page scanned",
		logging.Field{Key: "session", Value: session},
		logging.Field{Key: "url", Value: domains.TruncateMiddle(pageURL, 120)},
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "trackers", Value: hits})

	return s.submitter.SubmitPage(ctx, session, cf, hits)
}

// ScanAll scans every URL in its own fresh session, at most
// MaxConcurrency at a time. Outcomes are returned in input order; a failed
// URL does not stop the others.
func (s *Scanner) ScanAll(ctx context.Context, pageURLs []string) []Outcome {
	outcomes := make([]Outcome, len(pageURLs))
	sem := make(chan struct{}, s.cfg.MaxConcurrency)
	var wg sync.WaitGroup

	for i, pageURL := range pageURLs {
		outcomes[i] = Outcome{URL: pageURL, SessionID: "scan-" + uuid.NewString()}
		if ctx.Err() != nil {
			outcomes[i].Error = ctx.Err().Error()
			continue
		}

		wg.Add(1)
		go func(o *Outcome) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				o.Error = ctx.Err().Error()
				return
			}
			defer func() { <-sem }()

			res, err := s.Scan(ctx, o.SessionID, o.URL)
			if err != nil {
				s.logger.Warn("scan failed",
					logging.Field{Key: "url", Value: o.URL},
					logging.Err(err))
				o.Error = err.Error()
				return
			}
			o.Result = &res
		}(&outcomes[i])
	}

	wg.Wait()
	return outcomes
}
