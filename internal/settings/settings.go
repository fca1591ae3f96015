// Package settings owns the user configuration consumed by the scoring
// engine: feature toggles, sensitivity, classification thresholds, the
// reputation API key and the allow/deny domain lists. Every load and every
// save goes through Normalize, so a Settings value handed to callers always
// satisfies its invariants.
package settings

import (
	"math"
	"regexp"
	"strings"

	"github.com/raysh454/nyxguard/internal/domains"
)

const (
	MinSensitivity     = 0.5
	MaxSensitivity     = 1.5
	DefaultSensitivity = 1.0

	DefaultLowMax    = 24
	DefaultMediumMax = 59

	maxLowMax    = 98
	maxMediumMax = 99
)

// Settings is the process-wide configuration. Invariants after Normalize:
// Sensitivity in [0.5, 1.5]; 0 <= LowMax < MediumMax <= 99; both lists are
// normalized ordered sets and disjoint, with the allowlist winning.
type Settings struct {
	EnableMaliciousChecks  bool `json:"enable_malicious_checks" yaml:"enable_malicious_checks"`
	EnableAdsChecks        bool `json:"enable_ads_checks" yaml:"enable_ads_checks"`
	EnableContentChecks    bool `json:"enable_content_checks" yaml:"enable_content_checks"`
	EnableTextSample       bool `json:"enable_text_sample" yaml:"enable_text_sample"`
	EnableReputationChecks bool `json:"enable_reputation_checks" yaml:"enable_reputation_checks"`
	EnableDangerAlerts     bool `json:"enable_danger_alerts" yaml:"enable_danger_alerts"`

	Sensitivity float64 `json:"sensitivity" yaml:"sensitivity"`
	LowMax      int     `json:"low_max" yaml:"low_max"`
	MediumMax   int     `json:"medium_max" yaml:"medium_max"`

	ReputationAPIKey string `json:"reputation_api_key" yaml:"reputation_api_key"`

	Allowlist []string `json:"allowlist" yaml:"allowlist"`
	Denylist  []string `json:"denylist" yaml:"denylist"`
}

// Defaults returns the settings used when nothing has been stored yet.
func Defaults() Settings {
	return Settings{
		EnableMaliciousChecks:  true,
		EnableAdsChecks:        true,
		EnableContentChecks:    true,
		EnableTextSample:       false,
		EnableReputationChecks: false,
		EnableDangerAlerts:     true,
		Sensitivity:            DefaultSensitivity,
		LowMax:                 DefaultLowMax,
		MediumMax:              DefaultMediumMax,
		ReputationAPIKey:       "",
		Allowlist:              []string{},
		Denylist:               []string{},
	}
}

// InAllowlist reports whether domain is allowlisted.
func (s Settings) InAllowlist(domain string) bool {
	return contains(s.Allowlist, domain)
}

// InDenylist reports whether domain is denylisted.
func (s Settings) InDenylist(domain string) bool {
	return contains(s.Denylist, domain)
}

// ReputationEnabled reports whether a lookup should be attempted.
func (s Settings) ReputationEnabled() bool {
	return s.EnableReputationChecks && s.ReputationAPIKey != ""
}

// Normalize returns s with every invariant restored: sensitivity clamped,
// thresholds ordered, the API key trimmed, lists cleaned and made disjoint.
func Normalize(s Settings) Settings {
	return normalize(s, float64(s.LowMax), float64(s.MediumMax))
}

func normalize(s Settings, lowRaw, mediumRaw float64) Settings {
	out := s

	out.Sensitivity = clampSensitivity(s.Sensitivity)
	out.LowMax, out.MediumMax = NormalizeThresholds(lowRaw, mediumRaw)
	out.ReputationAPIKey = strings.TrimSpace(s.ReputationAPIKey)

	out.Allowlist = NormalizeDomainList(s.Allowlist)
	out.Denylist = withoutDomains(NormalizeDomainList(s.Denylist), out.Allowlist)

	return out
}

// NormalizeThresholds rounds both bounds to the nearest integer, clamps
// lowMax to [0, 98] and mediumMax to [lowMax+1, 99], which leaves three
// non-empty bands over scores 0..100. Non-finite inputs use the defaults.
func NormalizeThresholds(lowMax, mediumMax float64) (int, int) {
	if !isFinite(lowMax) {
		lowMax = DefaultLowMax
	}
	if !isFinite(mediumMax) {
		mediumMax = DefaultMediumMax
	}

	// Clamp before converting: int() of an out-of-range float is undefined.
	low := clampFloat(math.Round(lowMax), 0, maxLowMax)
	medium := clampFloat(math.Round(mediumMax), low+1, maxMediumMax)
	return int(low), int(medium)
}

// DomainParseResult is the outcome of parsing user-entered domain lines.
type DomainParseResult struct {
	Domains []string `json:"domains"`
	Invalid []string `json:"invalid"`
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// ParseDomainLines parses one domain per line. Blank lines are skipped;
// entries that look like URLs (contain "://" or "/") or fail normalization
// are reported as invalid; duplicates keep their first position.
func ParseDomainLines(text string) DomainParseResult {
	res := DomainParseResult{Domains: []string{}, Invalid: []string{}}
	seen := make(map[string]struct{})

	for _, line := range lineBreak.Split(text, -1) {
		entry := strings.TrimSpace(line)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "://") || strings.Contains(entry, "/") {
			res.Invalid = append(res.Invalid, entry)
			continue
		}

		domain, ok := domains.NormalizeDomain(entry)
		if !ok {
			res.Invalid = append(res.Invalid, entry)
			continue
		}

		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		res.Domains = append(res.Domains, domain)
	}

	return res
}

// NormalizeDomainList keeps only the valid, deduplicated domains of values.
func NormalizeDomainList(values []string) []string {
	return ParseDomainLines(strings.Join(values, "\n")).Domains
}

func withoutDomains(list, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, d := range remove {
		drop[d] = struct{}{}
	}
	out := make([]string, 0, len(list))
	for _, d := range list {
		if _, ok := drop[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}

func contains(list []string, domain string) bool {
	if domain == "" {
		return false
	}
	for _, d := range list {
		if d == domain {
			return true
		}
	}
	return false
}

func clampSensitivity(v float64) float64 {
	if !isFinite(v) {
		return DefaultSensitivity
	}
	return math.Min(MaxSensitivity, math.Max(MinSensitivity, v))
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
