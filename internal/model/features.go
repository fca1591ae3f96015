package model

// ReputationStatus is the outcome of a third-party reputation lookup.
type ReputationStatus string

const (
	ReputationChecked ReputationStatus = "checked"
	ReputationNoData  ReputationStatus = "no_data"
	ReputationError   ReputationStatus = "error"
)

// ReputationSummary holds verdict counts and the reputation score reported
// for a domain by the threat-intelligence service.
type ReputationSummary struct {
	Malicious        int   `json:"malicious"`
	Suspicious       int   `json:"suspicious"`
	Harmless         int   `json:"harmless"`
	Undetected       int   `json:"undetected"`
	Reputation       int   `json:"reputation"`
	LastAnalysisDate int64 `json:"last_analysis_date"`
}

// ContentFeatures is what the page inspection produces for one document.
// Keyword slices are ordered sets: no duplicates, first-seen order.
type ContentFeatures struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`

	HasPasswordForm              bool     `json:"has_password_form"`
	SuspiciousLoginKeywordsFound []string `json:"suspicious_login_keywords_found"`

	OverlayCount       int  `json:"overlay_count"`
	HasBlockingOverlay bool `json:"has_blocking_overlay"`

	NotificationDarkPatternKeywords []string `json:"notification_dark_pattern_keywords"`

	AdLikeElementsCount int `json:"ad_like_elements_count"`
	IframeHiddenCount   int `json:"iframe_hidden_count"`

	// PageTextSample is only collected when text sampling is enabled.
	PageTextSample string `json:"page_text_sample,omitempty"`
}

// Features is the immutable input of one evaluation: page content plus the
// network-side signals gathered for the same page load.
//
// Reputation is non-nil if and only if ReputationStatus is ReputationChecked.
type Features struct {
	ContentFeatures

	CountTrackers int `json:"count_trackers"`

	ReputationStatus ReputationStatus   `json:"reputation_status"`
	Reputation       *ReputationSummary `json:"reputation,omitempty"`
}

// WithReputation returns a copy of f carrying the given lookup outcome while
// keeping the status/summary invariant: a summary is dropped unless the
// status is checked, and a checked status without a summary becomes no_data.
func (f Features) WithReputation(status ReputationStatus, summary *ReputationSummary) Features {
	switch {
	case status == ReputationChecked && summary == nil:
		status = ReputationNoData
	case status != ReputationChecked:
		summary = nil
	}
	if status == "" {
		status = ReputationNoData
	}
	f.ReputationStatus = status
	f.Reputation = summary
	return f
}
