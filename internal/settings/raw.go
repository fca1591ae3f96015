package settings

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Keys of the persisted settings record.
const (
	keyEnableMaliciousChecks  = "enable_malicious_checks"
	keyEnableAdsChecks        = "enable_ads_checks"
	keyEnableContentChecks    = "enable_content_checks"
	keyEnableTextSample       = "enable_text_sample"
	keyEnableReputationChecks = "enable_reputation_checks"
	keyEnableDangerAlerts     = "enable_danger_alerts"
	keySensitivity            = "sensitivity"
	keyLowMax                 = "low_max"
	keyMediumMax              = "medium_max"
	keyReputationAPIKey       = "reputation_api_key"
	keyAllowlist              = "allowlist"
	keyDenylist               = "denylist"
)

// FromRaw builds Settings from an untyped record, such as decoded JSON from
// the settings store or an API request. Each field falls back to its default
// when it is missing or has the wrong type; the result is normalized.
func FromRaw(raw map[string]any) Settings {
	d := Defaults()

	s := Settings{
		EnableMaliciousChecks:  boolField(raw, keyEnableMaliciousChecks, d.EnableMaliciousChecks),
		EnableAdsChecks:        boolField(raw, keyEnableAdsChecks, d.EnableAdsChecks),
		EnableContentChecks:    boolField(raw, keyEnableContentChecks, d.EnableContentChecks),
		EnableTextSample:       boolField(raw, keyEnableTextSample, d.EnableTextSample),
		EnableReputationChecks: boolField(raw, keyEnableReputationChecks, d.EnableReputationChecks),
		EnableDangerAlerts:     boolField(raw, keyEnableDangerAlerts, d.EnableDangerAlerts),
		Sensitivity:            numberField(raw, keySensitivity, d.Sensitivity),
		ReputationAPIKey:       stringField(raw, keyReputationAPIKey, d.ReputationAPIKey),
		Allowlist:              stringListField(raw, keyAllowlist),
		Denylist:               stringListField(raw, keyDenylist),
	}

	low := numberField(raw, keyLowMax, float64(d.LowMax))
	medium := numberField(raw, keyMediumMax, float64(d.MediumMax))

	return normalize(s, low, medium)
}

// ParseJSON decodes a persisted settings record. Undecodable input yields
// the defaults and ok=false so callers can report it.
func ParseJSON(data []byte) (s Settings, ok bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Defaults(), false
	}
	return FromRaw(raw), true
}

// ToRaw renders s as the untyped record FromRaw accepts.
func ToRaw(s Settings) map[string]any {
	return map[string]any{
		keyEnableMaliciousChecks:  s.EnableMaliciousChecks,
		keyEnableAdsChecks:        s.EnableAdsChecks,
		keyEnableContentChecks:    s.EnableContentChecks,
		keyEnableTextSample:       s.EnableTextSample,
		keyEnableReputationChecks: s.EnableReputationChecks,
		keyEnableDangerAlerts:     s.EnableDangerAlerts,
		keySensitivity:            s.Sensitivity,
		keyLowMax:                 s.LowMax,
		keyMediumMax:              s.MediumMax,
		keyReputationAPIKey:       s.ReputationAPIKey,
		keyAllowlist:              append([]string{}, s.Allowlist...),
		keyDenylist:               append([]string{}, s.Denylist...),
	}
}

func boolField(raw map[string]any, key string, fallback bool) bool {
	if v, ok := raw[key].(bool); ok {
		return v
	}
	return fallback
}

// numberField accepts JSON numbers, Go numeric types and numeric strings.
func numberField(raw map[string]any, key string, fallback float64) float64 {
	var (
		v   float64
		err error
	)
	switch n := raw[key].(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		v, err = n.Float64()
	case string:
		v, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return fallback
	}
	if err != nil || !isFinite(v) {
		return fallback
	}
	return v
}

func stringField(raw map[string]any, key string, fallback string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return fallback
}

// stringListField keeps the string elements of a list and ignores the rest.
func stringListField(raw map[string]any, key string) []string {
	switch v := raw[key].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
