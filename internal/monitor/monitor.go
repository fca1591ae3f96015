// Package monitor keeps per-session page state and turns it into detection
// results. A session is one browsing context (a tab): content features and
// tracker hits arrive for it independently, and each arrival supersedes the
// session's previous result instead of merging with it.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/raysh454/nyxguard/internal/domains"
	"github.com/raysh454/nyxguard/internal/engine"
	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/reputation"
	"github.com/raysh454/nyxguard/internal/settings"
	"github.com/raysh454/nyxguard/internal/store"
)

var (
	ErrNotHTTP        = errors.New("page is not http(s)")
	ErrNoResult       = errors.New("no result for session")
	ErrInvalidSession = errors.New("invalid session id")
	// ErrSuperseded is returned when the session navigated away while the
	// evaluation was running; the result is discarded.
	ErrSuperseded = errors.New("session navigated during evaluation")
)

// SettingsLoader supplies the current normalized settings.
type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// ReputationLookup resolves a domain's reputation. It never fails; errors
// are reported through the result status.
type ReputationLookup interface {
	Lookup(ctx context.Context, domain, apiKey string) reputation.Result
}

type session struct {
	id string

	// evalMu serializes evaluations so an older run cannot overwrite a
	// newer one.
	evalMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	trackers   int
	content    *model.ContentFeatures
	timer      *time.Timer
	timerToken uint64
	alert      *alertState
	result     *model.DetectionResult
}

// Monitor owns every live session.
type Monitor struct {
	cfg        Config
	settings   SettingsLoader
	reputation ReputationLookup
	notifier   Notifier
	kv         store.KV
	logger     logging.Logger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	subsMu  sync.RWMutex
	subs    map[uint64]subscriber
	nextSub uint64

	wg     sync.WaitGroup
	closed bool
}

// New creates a monitor. rep and notifier may be nil, which disables
// reputation enrichment and alerts respectively.
func New(cfg Config, st SettingsLoader, rep ReputationLookup, notifier Notifier, kv store.KV, logger logging.Logger) *Monitor {
	def := DefaultConfig()
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = def.ResultTTL
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.AlertCooldown < 0 {
		cfg.AlertCooldown = 0
	}
	if cfg.AlertMargin < 0 {
		cfg.AlertMargin = 0
	}
	return &Monitor{
		cfg:        cfg,
		settings:   st,
		reputation: rep,
		notifier:   notifier,
		kv:         kv,
		logger:     logger.With(logging.Component("monitor")),
		now:        time.Now,
		sessions:   make(map[string]*session),
		subs:       make(map[uint64]subscriber),
	}
}

func resultKey(id string) string { return "result:" + id }

func (m *Monitor) session(id string, create bool) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok && create && !m.closed {
		s = &session{id: id}
		m.sessions[id] = s
	}
	return s
}

// SubmitFeatures stores the content features observed for the session's
// current page and evaluates immediately.
func (m *Monitor) SubmitFeatures(ctx context.Context, id string, cf model.ContentFeatures) (model.DetectionResult, error) {
	if strings.TrimSpace(id) == "" {
		return model.DetectionResult{}, ErrInvalidSession
	}
	if !domains.IsHTTPURL(cf.URL) {
		return model.DetectionResult{}, ErrNotHTTP
	}
	cf.Domain = pageDomain(cf)

	s := m.session(id, true)
	if s == nil {
		return model.DetectionResult{}, ErrInvalidSession
	}
	s.mu.Lock()
	c := cf
	s.content = &c
	s.mu.Unlock()

	return m.evaluate(ctx, s)
}

// SubmitPage replaces the session's page with a complete observation:
// content features plus the tracker hits seen while loading it. Earlier
// state is discarded as on navigation.
func (m *Monitor) SubmitPage(ctx context.Context, id string, cf model.ContentFeatures, trackerHits int) (model.DetectionResult, error) {
	if strings.TrimSpace(id) == "" {
		return model.DetectionResult{}, ErrInvalidSession
	}
	if !domains.IsHTTPURL(cf.URL) {
		return model.DetectionResult{}, ErrNotHTTP
	}
	cf.Domain = pageDomain(cf)

	s := m.session(id, true)
	if s == nil {
		return model.DetectionResult{}, ErrInvalidSession
	}
	m.reset(s)
	s.mu.Lock()
	s.trackers = max(trackerHits, 0)
	c := cf
	s.content = &c
	s.mu.Unlock()

	return m.evaluate(ctx, s)
}

// RecordTrackerHits adds n tracker hits to the session and schedules a
// debounced recomputation. Scheduling while a recomputation is pending
// does nothing beyond counting.
func (m *Monitor) RecordTrackerHits(id string, n int) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidSession
	}
	if n <= 0 {
		return nil
	}
	s := m.session(id, true)
	if s == nil {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackers += n
	if s.timer != nil {
		return nil
	}
	s.timerToken++
	token := s.timerToken
	m.wg.Add(1)
	s.timer = time.AfterFunc(m.cfg.Debounce, func() {
		defer m.wg.Done()
		m.fire(s, token)
	})
	return nil
}

func (m *Monitor) fire(s *session, token uint64) {
	s.mu.Lock()
	if s.timerToken != token || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	hasContent := s.content != nil
	s.mu.Unlock()

	if !hasContent {
		return
	}
	if _, err := m.evaluate(context.Background(), s); err != nil && !errors.Is(err, ErrSuperseded) {
		m.logger.Warn("debounced evaluation failed",
			logging.Field{Key: "session", Value: s.id},
			logging.Err(err))
	}
}

// Evaluate recomputes the session's result from its current state.
func (m *Monitor) Evaluate(ctx context.Context, id string) (model.DetectionResult, error) {
	s := m.session(id, false)
	if s == nil {
		return model.DetectionResult{}, ErrNoResult
	}
	s.mu.Lock()
	hasContent := s.content != nil
	s.mu.Unlock()
	if !hasContent {
		return model.DetectionResult{}, ErrNoResult
	}
	return m.evaluate(ctx, s)
}

func (m *Monitor) evaluate(ctx context.Context, s *session) (model.DetectionResult, error) {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	s.mu.Lock()
	if s.content == nil {
		s.mu.Unlock()
		return model.DetectionResult{}, ErrNoResult
	}
	gen := s.generation
	cf := *s.content
	trackers := s.trackers
	var prev *model.DetectionResult
	if s.result != nil {
		p := *s.result
		prev = &p
	}
	s.mu.Unlock()

	st, err := m.settings.Load(ctx)
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("load settings: %w", err)
	}
	if !st.EnableTextSample {
		cf.PageTextSample = ""
	}

	features := model.Features{ContentFeatures: cf, CountTrackers: trackers}.
		WithReputation(model.ReputationNoData, nil)
	if st.ReputationEnabled() && m.reputation != nil && !st.InAllowlist(cf.Domain) {
		rep := m.reputation.Lookup(ctx, cf.Domain, st.ReputationAPIKey)
		features = features.WithReputation(rep.Status, rep.Summary)
	}

	result := engine.EvaluateAt(features, st, m.now())

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return result, ErrSuperseded
	}
	stored := result
	s.result = &stored
	s.mu.Unlock()

	if err := m.persist(ctx, s.id, result); err != nil {
		m.logger.Warn("persist result failed",
			logging.Field{Key: "session", Value: s.id},
			logging.Err(err))
	}

	ev := Event{Type: EventResult, SessionID: s.id, Result: &result}
	if prev != nil && prev.URL == result.URL {
		d := engine.Diff(*prev, result)
		ev.Diff = &d
	}
	m.emit(ev)

	m.logger.Debug("page evaluated",
		logging.Field{Key: "session", Value: s.id},
		logging.Field{Key: "domain", Value: result.Domain},
		logging.Field{Key: "score", Value: result.Score},
		logging.Field{Key: "level", Value: string(result.Level)})

	m.maybeAlert(ctx, s, result, st)
	return result, nil
}

func (m *Monitor) persist(ctx context.Context, id string, r model.DetectionResult) error {
	if m.kv == nil {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return m.kv.Set(ctx, resultKey(id), data)
}

// Result returns the session's latest result if it is younger than the
// result TTL. Results are read from memory first and from the store after a
// restart.
func (m *Monitor) Result(ctx context.Context, id string) (model.DetectionResult, error) {
	if strings.TrimSpace(id) == "" {
		return model.DetectionResult{}, ErrInvalidSession
	}

	var result *model.DetectionResult
	if s := m.session(id, false); s != nil {
		s.mu.Lock()
		if s.result != nil {
			r := *s.result
			result = &r
		}
		s.mu.Unlock()
	}
	if result == nil && m.kv != nil {
		data, err := m.kv.Get(ctx, resultKey(id))
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return model.DetectionResult{}, fmt.Errorf("load result: %w", err)
		default:
			var r model.DetectionResult
			if err := json.Unmarshal(data, &r); err != nil {
				m.logger.Warn("discarding unreadable result",
					logging.Field{Key: "session", Value: id},
					logging.Err(err))
			} else {
				result = &r
			}
		}
	}
	if result == nil {
		return model.DetectionResult{}, ErrNoResult
	}

	if m.now().Sub(result.Timestamp) > m.cfg.ResultTTL {
		m.clearResult(ctx, id)
		return model.DetectionResult{}, ErrNoResult
	}
	return *result, nil
}

func (m *Monitor) clearResult(ctx context.Context, id string) {
	if s := m.session(id, false); s != nil {
		s.mu.Lock()
		s.result = nil
		s.mu.Unlock()
	}
	if m.kv != nil {
		if err := m.kv.Delete(ctx, resultKey(id)); err != nil {
			m.logger.Warn("delete result failed",
				logging.Field{Key: "session", Value: id},
				logging.Err(err))
		}
	}
}

// Navigate starts a new page in the session: tracker count, content,
// alert state and any pending recomputation are discarded along with the
// cached result.
func (m *Monitor) Navigate(ctx context.Context, id, rawURL string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidSession
	}
	s := m.session(id, true)
	if s == nil {
		return ErrInvalidSession
	}
	m.reset(s)
	m.clearResult(ctx, id)

	m.logger.Debug("session navigated",
		logging.Field{Key: "session", Value: id},
		logging.Field{Key: "url", Value: domains.TruncateMiddle(rawURL, 120)})
	m.emit(Event{Type: EventCleared, SessionID: id})
	return nil
}

// CloseSession drops all state of the session.
func (m *Monitor) CloseSession(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.reset(s)
	}
	if m.kv != nil {
		if err := m.kv.Delete(ctx, resultKey(id)); err != nil {
			return fmt.Errorf("delete result: %w", err)
		}
	}
	m.emit(Event{Type: EventCleared, SessionID: id})
	return nil
}

// Sessions returns the ids of live sessions.
func (m *Monitor) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (m *Monitor) reset(s *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.trackers = 0
	s.content = nil
	s.alert = nil
	s.result = nil
	m.stopTimerLocked(s)
}

func (m *Monitor) stopTimerLocked(s *session) {
	if s.timer == nil {
		return
	}
	if s.timer.Stop() {
		m.wg.Done()
	}
	s.timer = nil
	s.timerToken++
}

// Close cancels pending recomputations and waits for running ones.
func (m *Monitor) Close() error {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.mu.Lock()
		m.stopTimerLocked(s)
		s.mu.Unlock()
	}
	m.wg.Wait()
	return nil
}

func pageDomain(cf model.ContentFeatures) string {
	if d, ok := domains.NormalizeDomain(cf.Domain); ok {
		return d
	}
	d, _ := domains.NormalizeDomain(cf.URL)
	return d
}
