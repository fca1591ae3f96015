package settings_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/raysh454/nyxguard/internal/settings"
)

func TestNormalizeThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		low, med   float64
		wantLow    int
		wantMedium int
	}{
		{"defaults", 24, 59, 24, 59},
		{"out of range and inverted", 120, 5, 98, 99},
		{"negative", -3, -3, 0, 1},
		{"medium below low", 50, 40, 50, 51},
		{"rounding", 24.4, 59.5, 24, 60},
		{"non-finite", math.NaN(), math.Inf(1), 24, 59},
		{"medium above max", 10, 150, 10, 99},
		{"beyond int range", 1e20, 1e20, 98, 99},
		{"beyond int range negative", -1e20, -1e20, 0, 1},
		{"huge medium over negative low", -1e20, 1e20, 0, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, med := settings.NormalizeThresholds(tt.low, tt.med)
			if low != tt.wantLow || med != tt.wantMedium {
				t.Fatalf("NormalizeThresholds(%v, %v) = (%d, %d), want (%d, %d)",
					tt.low, tt.med, low, med, tt.wantLow, tt.wantMedium)
			}
		})
	}
}

func TestParseDomainLines(t *testing.T) {
	t.Parallel()

	text := "example.com\r\n\n  WWW.Example.com \nhttps://x.com\nfoo/bar\nnot valid\nb.org\n"
	got := settings.ParseDomainLines(text)

	wantDomains := []string{"example.com", "b.org"}
	wantInvalid := []string{"https://x.com", "foo/bar", "not valid"}

	if !reflect.DeepEqual(got.Domains, wantDomains) {
		t.Errorf("Domains = %v, want %v", got.Domains, wantDomains)
	}
	if !reflect.DeepEqual(got.Invalid, wantInvalid) {
		t.Errorf("Invalid = %v, want %v", got.Invalid, wantInvalid)
	}
}

func TestParseDomainLines_Empty(t *testing.T) {
	t.Parallel()
	got := settings.ParseDomainLines("\n \r\n")
	if len(got.Domains) != 0 || len(got.Invalid) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if got.Domains == nil || got.Invalid == nil {
		t.Fatalf("expected non-nil slices for JSON output")
	}
}

func TestNormalize_AllowWinsOverDeny(t *testing.T) {
	t.Parallel()

	in := settings.Defaults()
	in.Allowlist = []string{"Example.com"}
	in.Denylist = []string{"www.example.com", "evil.test"}

	out := settings.Normalize(in)

	if !reflect.DeepEqual(out.Allowlist, []string{"example.com"}) {
		t.Errorf("Allowlist = %v", out.Allowlist)
	}
	if !reflect.DeepEqual(out.Denylist, []string{"evil.test"}) {
		t.Errorf("Denylist = %v", out.Denylist)
	}
	if !out.InAllowlist("example.com") || out.InDenylist("example.com") {
		t.Errorf("example.com should only be allowlisted")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	in := settings.Settings{
		Sensitivity:      7,
		LowMax:           120,
		MediumMax:        5,
		ReputationAPIKey: "  key ",
		Allowlist:        []string{"A.com", "a.com", "bad/entry"},
		Denylist:         []string{"b.com", "a.com"},
	}

	once := settings.Normalize(in)
	twice := settings.Normalize(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Normalize not idempotent:\nonce  %+v\ntwice %+v", once, twice)
	}
	if once.Sensitivity != settings.MaxSensitivity {
		t.Errorf("Sensitivity = %v, want %v", once.Sensitivity, settings.MaxSensitivity)
	}
	if once.LowMax != 98 || once.MediumMax != 99 {
		t.Errorf("thresholds = (%d, %d), want (98, 99)", once.LowMax, once.MediumMax)
	}
	if once.ReputationAPIKey != "key" {
		t.Errorf("ReputationAPIKey = %q, want trimmed", once.ReputationAPIKey)
	}
}

func TestFromRaw(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"enable_ads_checks":        "yes",
		"enable_text_sample":       true,
		"enable_reputation_checks": true,
		"sensitivity":              "1.2",
		"low_max":                  "30",
		"medium_max":               float64(70),
		"reputation_api_key":       "  secret  ",
		"allowlist":                []any{"Example.com", 5, "https://bad/x", "www.example.com"},
		"denylist":                 []any{"example.com", "evil.test"},
	}

	got := settings.FromRaw(raw)

	if !got.EnableAdsChecks {
		t.Errorf("wrong-typed toggle should fall back to default true")
	}
	if !got.EnableTextSample || !got.EnableReputationChecks {
		t.Errorf("boolean toggles not read")
	}
	if got.Sensitivity != 1.2 {
		t.Errorf("Sensitivity = %v, want 1.2", got.Sensitivity)
	}
	if got.LowMax != 30 || got.MediumMax != 70 {
		t.Errorf("thresholds = (%d, %d), want (30, 70)", got.LowMax, got.MediumMax)
	}
	if got.ReputationAPIKey != "secret" {
		t.Errorf("ReputationAPIKey = %q", got.ReputationAPIKey)
	}
	if !reflect.DeepEqual(got.Allowlist, []string{"example.com"}) {
		t.Errorf("Allowlist = %v", got.Allowlist)
	}
	if !reflect.DeepEqual(got.Denylist, []string{"evil.test"}) {
		t.Errorf("Denylist = %v", got.Denylist)
	}
	if !got.ReputationEnabled() {
		t.Errorf("ReputationEnabled should be true with toggle and key")
	}
}

func TestFromRaw_EmptyIsDefaults(t *testing.T) {
	t.Parallel()
	if got := settings.FromRaw(nil); !reflect.DeepEqual(got, settings.Defaults()) {
		t.Fatalf("FromRaw(nil) = %+v, want defaults", got)
	}
}

func TestFromRaw_HugeThresholdsClampHigh(t *testing.T) {
	t.Parallel()
	got := settings.FromRaw(map[string]any{"low_max": 1e20, "medium_max": 1e20})
	if got.LowMax != 98 || got.MediumMax != 99 {
		t.Fatalf("thresholds = (%d, %d), want (98, 99)", got.LowMax, got.MediumMax)
	}
}

func TestFromRaw_SensitivityClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want float64
	}{
		{float64(9), 1.5},
		{float64(0.1), 0.5},
		{"abc", 1.0},
		{true, 1.0},
		{float64(0.75), 0.75},
	}
	for _, tt := range tests {
		got := settings.FromRaw(map[string]any{"sensitivity": tt.in})
		if got.Sensitivity != tt.want {
			t.Errorf("sensitivity %v: got %v, want %v", tt.in, got.Sensitivity, tt.want)
		}
	}
}

func TestToRaw_RoundTrip(t *testing.T) {
	t.Parallel()

	in := settings.Defaults()
	in.Sensitivity = 0.8
	in.LowMax = 10
	in.MediumMax = 40
	in.Allowlist = []string{"a.com"}
	in.Denylist = []string{"b.com"}

	if got := settings.FromRaw(settings.ToRaw(in)); !reflect.DeepEqual(got, in) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, in)
	}
}
