// Package engine turns a feature bundle and the user settings into a risk
// score, a risk level and the ordered reasons behind the score. Evaluation
// is pure: the same inputs always give the same result.
package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/raysh454/nyxguard/internal/domains"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/settings"
)

const Version = "0.1.0"

// Base weights. System weights are never scaled by sensitivity.
const (
	WeightAllowlist = -100
	WeightDenylist  = 30

	WeightPunycodeDomain  = 25
	WeightSuspiciousLogin = 20
	WeightHiddenIframes   = 12

	WeightInvasiveOverlay = 15
	WeightPopupAbuse      = 10

	WeightTrackerHigh   = 15
	WeightTrackerMedium = 10
	WeightTrackerLow    = 5
	WeightAdLikeHigh    = 10
	WeightAdLikeLow     = 5

	WeightReputationMaliciousHigh = 55
	WeightReputationMaliciousLow  = 35
	WeightReputationSuspicious    = 18
	WeightReputationPoor          = 8
)

// Reason IDs.
const (
	ReasonAllowlist            = "allowlist"
	ReasonDenylist             = "denylist"
	ReasonPunycodeDomain       = "punycode-domain"
	ReasonSuspiciousLogin      = "suspicious-login"
	ReasonHiddenIframes        = "hidden-iframes"
	ReasonInvasiveOverlay      = "invasive-overlay"
	ReasonPopupAbuse           = "popup-abuse"
	ReasonTrackerDensity       = "tracker-density"
	ReasonAdHeavyDOM           = "ad-heavy-dom"
	ReasonReputationMalicious  = "reputation-malicious"
	ReasonReputationSuspicious = "reputation-suspicious"
	ReasonReputationPoor       = "reputation-poor"
)

const (
	minHiddenIframes   = 2
	minOverlays        = 2
	trackerHighCount   = 10
	trackerMediumCount = 5
	minAdLikeElements  = 5
	adLikeHighCount    = 12
	maliciousHighVotes = 3

	minScore = 0
	maxScore = 100
)

// Evaluate scores f under s, stamped with the current time.
func Evaluate(f model.Features, s settings.Settings) model.DetectionResult {
	return EvaluateAt(f, s, time.Now())
}

// EvaluateAt scores f under s with a caller-supplied timestamp.
func EvaluateAt(f model.Features, s settings.Settings, ts time.Time) model.DetectionResult {
	domain := f.Domain
	result := model.DetectionResult{
		Features:      f,
		Domain:        domain,
		URL:           f.URL,
		Timestamp:     ts,
		EngineVersion: Version,
	}

	if s.InAllowlist(domain) {
		result.Score = 0
		result.Level = model.RiskLow
		result.Reasons = []model.Reason{{
			ID:       ReasonAllowlist,
			Title:    "Trusted domain",
			Detail:   fmt.Sprintf("%s is in your allowlist.", domain),
			Weight:   WeightAllowlist,
			Category: model.CategorySystem,
		}}
		return result
	}

	e := evaluation{sensitivity: s.Sensitivity, reasons: []model.Reason{}}

	if s.InDenylist(domain) {
		e.addFixed(ReasonDenylist, "Blocked domain",
			fmt.Sprintf("%s is in your denylist.", domain), WeightDenylist)
	}

	if s.EnableMaliciousChecks {
		if domains.IsPunycodeDomain(domain) {
			e.add(ReasonPunycodeDomain, "Punycode domain",
				"Domain contains punycode (xn--) labels.",
				WeightPunycodeDomain, model.CategoryMalicious)
		}
		if f.HasPasswordForm && len(f.SuspiciousLoginKeywordsFound) > 0 {
			e.add(ReasonSuspiciousLogin, "Suspicious login pattern",
				fmt.Sprintf("Password form with keywords: %s.", strings.Join(f.SuspiciousLoginKeywordsFound, ", ")),
				WeightSuspiciousLogin, model.CategoryMalicious)
		}
		if f.IframeHiddenCount >= minHiddenIframes {
			e.add(ReasonHiddenIframes, "Hidden iframes",
				fmt.Sprintf("Detected %d hidden iframe(s).", f.IframeHiddenCount),
				WeightHiddenIframes, model.CategoryMalicious)
		}
	}

	if s.EnableContentChecks {
		if f.HasBlockingOverlay || f.OverlayCount >= minOverlays {
			e.add(ReasonInvasiveOverlay, "Invasive overlay",
				fmt.Sprintf("Detected %d full-screen overlay(s).", f.OverlayCount),
				WeightInvasiveOverlay, model.CategoryContent)
		}
		if len(f.NotificationDarkPatternKeywords) > 0 {
			e.add(ReasonPopupAbuse, "Notification pressure",
				fmt.Sprintf("Keywords found: %s.", strings.Join(f.NotificationDarkPatternKeywords, ", ")),
				WeightPopupAbuse, model.CategoryContent)
		}
	}

	if s.EnableAdsChecks {
		if weight, label := trackerTier(f.CountTrackers); weight > 0 {
			e.add(ReasonTrackerDensity, "Tracker density",
				fmt.Sprintf("Matched %d tracker request(s) (%s).", f.CountTrackers, label),
				weight, model.CategoryAds)
		}
		if f.AdLikeElementsCount >= minAdLikeElements {
			weight := WeightAdLikeLow
			if f.AdLikeElementsCount >= adLikeHighCount {
				weight = WeightAdLikeHigh
			}
			e.add(ReasonAdHeavyDOM, "Ad-heavy layout",
				fmt.Sprintf("Detected %d ad-like element(s).", f.AdLikeElementsCount),
				weight, model.CategoryAds)
		}
	}

	if s.EnableReputationChecks && f.Reputation != nil {
		rep := f.Reputation
		if rep.Malicious > 0 {
			weight := WeightReputationMaliciousLow
			if rep.Malicious >= maliciousHighVotes {
				weight = WeightReputationMaliciousHigh
			}
			e.add(ReasonReputationMalicious, "Malicious reputation verdicts",
				fmt.Sprintf("%d engine(s) flagged this domain as malicious.", rep.Malicious),
				weight, model.CategoryMalicious)
		}
		if rep.Suspicious > 0 {
			e.add(ReasonReputationSuspicious, "Suspicious reputation verdicts",
				fmt.Sprintf("%d engine(s) flagged this domain as suspicious.", rep.Suspicious),
				WeightReputationSuspicious, model.CategoryMalicious)
		}
		if rep.Reputation < 0 {
			e.add(ReasonReputationPoor, "Negative reputation",
				fmt.Sprintf("Reputation score: %d.", rep.Reputation),
				WeightReputationPoor, model.CategoryMalicious)
		}
	}

	result.Score = clamp(e.score, minScore, maxScore)
	result.Level = Classify(result.Score, s.LowMax, s.MediumMax)
	result.Reasons = e.reasons
	return result
}

// Classify maps a score to a level: <= lowMax is low, <= mediumMax is
// medium, anything above is high.
func Classify(score, lowMax, mediumMax int) model.RiskLevel {
	switch {
	case score <= lowMax:
		return model.RiskLow
	case score <= mediumMax:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// Scale applies sensitivity to a base weight, rounding half away from zero.
func Scale(base int, sensitivity float64) int {
	return int(math.Round(float64(base) * sensitivity))
}

// ReliabilityScore is the inverse of the risk score, as shown on badges.
func ReliabilityScore(score int) int {
	return max(0, 100-score)
}

func trackerTier(count int) (int, string) {
	switch {
	case count >= trackerHighCount:
		return WeightTrackerHigh, "10+"
	case count >= trackerMediumCount:
		return WeightTrackerMedium, "5-9"
	case count >= 1:
		return WeightTrackerLow, "1-4"
	default:
		return 0, ""
	}
}

type evaluation struct {
	sensitivity float64
	score       int
	reasons     []model.Reason
}

// add records a scaled contribution.
func (e *evaluation) add(id, title, detail string, base int, category model.ReasonCategory) {
	e.record(model.Reason{
		ID:       id,
		Title:    title,
		Detail:   detail,
		Weight:   Scale(base, e.sensitivity),
		Category: category,
	})
}

// addFixed records an unscaled system contribution.
func (e *evaluation) addFixed(id, title, detail string, weight int) {
	e.record(model.Reason{
		ID:       id,
		Title:    title,
		Detail:   detail,
		Weight:   weight,
		Category: model.CategorySystem,
	})
}

func (e *evaluation) record(r model.Reason) {
	e.score += r.Weight
	e.reasons = append(e.reasons, r)
}

func clamp(v, lo, hi int) int {
	return min(hi, max(lo, v))
}
