package engine

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/nyxguard/internal/model"
)

// ResultDiff describes how a newer result for the same session differs
// from the one it supersedes.
type ResultDiff struct {
	ScoreDelta     int             `json:"score_delta"`
	PreviousLevel  model.RiskLevel `json:"previous_level"`
	Level          model.RiskLevel `json:"level"`
	LevelChanged   bool            `json:"level_changed"`
	AddedReasons   []string        `json:"added_reasons"`
	RemovedReasons []string        `json:"removed_reasons"`
	// Text is a line diff of the two rendered reports; changed lines are
	// prefixed "+ " or "- ", unchanged ones "  ".
	Text string `json:"text"`
}

// Changed reports whether anything visible to the user differs.
func (d ResultDiff) Changed() bool {
	return d.ScoreDelta != 0 || d.LevelChanged || len(d.AddedReasons) > 0 || len(d.RemovedReasons) > 0
}

// Render formats r as a plain-text report, one line per reason. The
// timestamp is left out so two evaluations of equal inputs render equally.
func Render(r model.DetectionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "score %d (%s) reliability %d\n", r.Score, r.Level, ReliabilityScore(r.Score))
	fmt.Fprintf(&b, "domain %s\n", r.Domain)
	for _, reason := range r.Reasons {
		fmt.Fprintf(&b, "%+d %s [%s] %s: %s\n", reason.Weight, reason.ID, reason.Category, reason.Title, reason.Detail)
	}
	return b.String()
}

// Diff compares prev with next.
func Diff(prev, next model.DetectionResult) ResultDiff {
	d := ResultDiff{
		ScoreDelta:     next.Score - prev.Score,
		PreviousLevel:  prev.Level,
		Level:          next.Level,
		LevelChanged:   prev.Level != next.Level,
		AddedReasons:   reasonIDsMissing(next.Reasons, prev.Reasons),
		RemovedReasons: reasonIDsMissing(prev.Reasons, next.Reasons),
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(Render(prev), Render(next))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var text strings.Builder
	for _, diff := range diffs {
		prefix := "  "
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			text.WriteString(prefix)
			text.WriteString(line)
		}
	}
	d.Text = text.String()
	return d
}

// reasonIDsMissing returns the ids in from that are absent from other.
func reasonIDsMissing(from, other []model.Reason) []string {
	present := make(map[string]struct{}, len(other))
	for _, r := range other {
		present[r.ID] = struct{}{}
	}
	out := []string{}
	for _, r := range from {
		if _, ok := present[r.ID]; !ok {
			out = append(out, r.ID)
		}
	}
	return out
}
