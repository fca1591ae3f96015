package model

import "time"

// RiskLevel is the coarse classification of a score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ReasonCategory groups reasons by the family of checks that produced them.
type ReasonCategory string

const (
	CategoryMalicious ReasonCategory = "malicious"
	CategoryAds       ReasonCategory = "ads"
	CategoryContent   ReasonCategory = "content"
	CategorySystem    ReasonCategory = "system"
)

// Reason is one weighted contribution to a score.
type Reason struct {
	// ID is a stable key such as "suspicious-login".
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Detail   string         `json:"detail"`
	Weight   int            `json:"weight"`
	Category ReasonCategory `json:"category"`
}

// DetectionResult is the output of one evaluation. Reasons are in
// evaluation order, not sorted by weight.
type DetectionResult struct {
	Score         int       `json:"score"`
	Level         RiskLevel `json:"level"`
	Reasons       []Reason  `json:"reasons"`
	Features      Features  `json:"features"`
	Domain        string    `json:"domain"`
	URL           string    `json:"url"`
	Timestamp     time.Time `json:"timestamp"`
	EngineVersion string    `json:"engine_version"`
}

// HasReason reports whether a reason with the given id is present.
func (r *DetectionResult) HasReason(id string) bool {
	_, ok := r.Reason(id)
	return ok
}

// Reason returns the reason with the given id.
func (r *DetectionResult) Reason(id string) (Reason, bool) {
	if r == nil {
		return Reason{}, false
	}
	for _, reason := range r.Reasons {
		if reason.ID == id {
			return reason, true
		}
	}
	return Reason{}, false
}
