package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/raysh454/nyxguard/internal/domains"
	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/store"
)

// StoreKey is the KV key the settings record lives under.
const StoreKey = "settings"

var (
	ErrInvalidDomain = errors.New("invalid domain")
	ErrInvalidList   = errors.New("invalid list, expected allow or deny")
)

// List names one of the two domain lists.
type List string

const (
	ListAllow List = "allow"
	ListDeny  List = "deny"
)

// ParseList accepts "allow"/"allowlist" and "deny"/"denylist".
func ParseList(name string) (List, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "allow", "allowlist":
		return ListAllow, nil
	case "deny", "denylist":
		return ListDeny, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidList, name)
	}
}

// DomainListsUpdate is a partial list update; a nil field leaves that list
// unchanged.
type DomainListsUpdate struct {
	Allowlist *[]string `json:"allowlist,omitempty"`
	Denylist  *[]string `json:"denylist,omitempty"`
}

// ImportSummary reports the outcome of a textarea-style list import.
type ImportSummary struct {
	List     List     `json:"list"`
	Imported []string `json:"imported"`
	Invalid  []string `json:"invalid"`
	Settings Settings `json:"settings"`
}

// Message renders the informational notice shown after an import.
func (s ImportSummary) Message() string {
	if len(s.Invalid) == 0 {
		return fmt.Sprintf("Saved %d domains to the %slist.", len(s.Imported), s.List)
	}
	return fmt.Sprintf("Saved %d domains to the %slist. Ignored invalid entries: %s",
		len(s.Imported), s.List, strings.Join(s.Invalid, ", "))
}

// Service persists Settings in a KV store. Read-modify-write operations are
// serialized so concurrent list edits do not lose updates.
type Service struct {
	kv     store.KV
	logger logging.Logger
	mu     sync.Mutex
}

func NewService(kv store.KV, logger logging.Logger) *Service {
	return &Service{
		kv:     kv,
		logger: logger.With(logging.Component("settings")),
	}
}

// Load returns the stored settings, normalized. A missing record yields the
// defaults; an unreadable one yields the defaults and a warning.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	return s.load(ctx)
}

// Save normalizes and persists settings, returning the stored value.
func (s *Service) Save(ctx context.Context, in Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, in)
}

// Reset persists the defaults.
func (s *Service) Reset(ctx context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("resetting settings to defaults")
	return s.save(ctx, Defaults())
}

// UpdateDomainLists merges a partial list update into the stored settings,
// re-applies list normalization and persists the result.
func (s *Service) UpdateDomainLists(ctx context.Context, upd DomainListsUpdate) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}
	if upd.Allowlist != nil {
		cur.Allowlist = append([]string{}, (*upd.Allowlist)...)
	}
	if upd.Denylist != nil {
		cur.Denylist = append([]string{}, (*upd.Denylist)...)
	}
	return s.save(ctx, cur)
}

// AddDomain normalizes domain, appends it to list and removes it from the
// other list.
func (s *Service) AddDomain(ctx context.Context, list List, domain string) (Settings, error) {
	if list != ListAllow && list != ListDeny {
		return Settings{}, fmt.Errorf("%w: %q", ErrInvalidList, list)
	}
	normalized, ok := domains.NormalizeDomain(domain)
	if !ok {
		return Settings{}, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}

	if list == ListAllow {
		cur.Allowlist = appendUnique(cur.Allowlist, normalized)
		cur.Denylist = withoutDomains(cur.Denylist, []string{normalized})
	} else {
		cur.Denylist = appendUnique(cur.Denylist, normalized)
		cur.Allowlist = withoutDomains(cur.Allowlist, []string{normalized})
	}

	s.logger.Info("added domain to list",
		logging.Field{Key: "list", Value: string(list)},
		logging.Field{Key: "domain", Value: normalized})

	return s.save(ctx, cur)
}

// ImportDomainLines replaces list with the domains parsed from text, one per
// line. Invalid lines are skipped and reported in the summary.
func (s *Service) ImportDomainLines(ctx context.Context, list List, text string) (ImportSummary, error) {
	if list != ListAllow && list != ListDeny {
		return ImportSummary{}, fmt.Errorf("%w: %q", ErrInvalidList, list)
	}
	parsed := ParseDomainLines(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(ctx)
	if err != nil {
		return ImportSummary{}, err
	}
	if list == ListAllow {
		cur.Allowlist = parsed.Domains
	} else {
		cur.Denylist = parsed.Domains
	}

	saved, err := s.save(ctx, cur)
	if err != nil {
		return ImportSummary{}, err
	}

	if len(parsed.Invalid) > 0 {
		s.logger.Info("ignored invalid list entries",
			logging.Field{Key: "list", Value: string(list)},
			logging.Field{Key: "invalid", Value: parsed.Invalid})
	}

	return ImportSummary{
		List:     list,
		Imported: parsed.Domains,
		Invalid:  parsed.Invalid,
		Settings: saved,
	}, nil
}

func (s *Service) load(ctx context.Context) (Settings, error) {
	data, err := s.kv.Get(ctx, StoreKey)
	if errors.Is(err, store.ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	out, ok := ParseJSON(data)
	if !ok {
		s.logger.Warn("stored settings unreadable, using defaults")
	}
	return out, nil
}

func (s *Service) save(ctx context.Context, in Settings) (Settings, error) {
	out := Normalize(in)
	data, err := json.Marshal(ToRaw(out))
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.kv.Set(ctx, StoreKey, data); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return out, nil
}

func appendUnique(list []string, domain string) []string {
	if contains(list, domain) {
		return list
	}
	return append(append([]string{}, list...), domain)
}
