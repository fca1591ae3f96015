package model_test

import (
	"encoding/json"
	"testing"

	"github.com/raysh454/nyxguard/internal/model"
)

func TestFeatures_WithReputation_KeepsInvariant(t *testing.T) {
	t.Parallel()
	summary := &model.ReputationSummary{Malicious: 1}

	cases := []struct {
		name        string
		status      model.ReputationStatus
		summary     *model.ReputationSummary
		wantStatus  model.ReputationStatus
		wantSummary bool
	}{
		{"checked with summary", model.ReputationChecked, summary, model.ReputationChecked, true},
		{"checked without summary", model.ReputationChecked, nil, model.ReputationNoData, false},
		{"error drops summary", model.ReputationError, summary, model.ReputationError, false},
		{"no data", model.ReputationNoData, nil, model.ReputationNoData, false},
		{"empty status", "", nil, model.ReputationNoData, false},
	}

	for _, tc := range cases {
		got := model.Features{}.WithReputation(tc.status, tc.summary)
		if got.ReputationStatus != tc.wantStatus {
			t.Errorf("%s: status = %q, want %q", tc.name, got.ReputationStatus, tc.wantStatus)
		}
		if (got.Reputation != nil) != tc.wantSummary {
			t.Errorf("%s: summary present = %v, want %v", tc.name, got.Reputation != nil, tc.wantSummary)
		}
	}
}

func TestFeatures_JSONIsFlat(t *testing.T) {
	t.Parallel()
	f := model.Features{
		ContentFeatures: model.ContentFeatures{URL: "https://example.com", Domain: "example.com"},
		CountTrackers:   3,
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["domain"] != "example.com" || m["count_trackers"] != float64(3) {
		t.Errorf("unexpected JSON shape: %s", data)
	}
}

func TestDetectionResult_Reason(t *testing.T) {
	t.Parallel()
	r := &model.DetectionResult{Reasons: []model.Reason{{ID: "denylist", Weight: 30}}}

	if !r.HasReason("denylist") {
		t.Error("expected denylist reason")
	}
	if r.HasReason("allowlist") {
		t.Error("did not expect allowlist reason")
	}
	var nilResult *model.DetectionResult
	if nilResult.HasReason("denylist") {
		t.Error("nil result has no reasons")
	}
}
