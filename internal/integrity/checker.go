// Package integrity validates record collections and repairs the violations
// the repair policy allows. Diagnostics are returned, never raised: a broken
// record stays in the collection and the consuming layer decides how to
// surface it.
package integrity

import (
	"fmt"
	"time"

	"github.com/trackline/trackline/internal/model"
)

// DurationTolerance is the allowed gap between the stored duration and the
// one recomputed from the timestamps. Violations inside the tolerance are
// ignored; beyond it the duration is overwritten with the recomputed value.
const DurationTolerance = 1000 * time.Millisecond

// Rule identifies a violated integrity rule.
type Rule string

const (
	RuleMissingField     Rule = "missing_field"
	RuleTimeOrder        Rule = "time_order"
	RuleDurationMismatch Rule = "duration_mismatch"
)

// Violation describes one failed check on one record.
type Violation struct {
	Index    int    `json:"index"`
	Rule     Rule   `json:"rule"`
	Detail   string `json:"detail"`
	Repaired bool   `json:"repaired"`
}

func (v Violation) String() string {
	return fmt.Sprintf("record %d: %s (%s)", v.Index, v.Rule, v.Detail)
}

// CheckRecord validates a single record in place and returns its violations.
// Only the duration-mismatch rule is auto-repaired; everything else is
// reported and left alone.
func CheckRecord(idx int, r *model.Record) []Violation {
	var out []Violation

	if r.Activity == "" {
		out = append(out, Violation{Index: idx, Rule: RuleMissingField, Detail: "activity"})
	}
	if r.StartTime.IsZero() {
		out = append(out, Violation{Index: idx, Rule: RuleMissingField, Detail: "startTime"})
	}
	if r.EndTime.IsZero() {
		out = append(out, Violation{Index: idx, Rule: RuleMissingField, Detail: "endTime"})
	}
	if r.Duration == 0 {
		out = append(out, Violation{Index: idx, Rule: RuleMissingField, Detail: "duration"})
	}

	if !r.StartTime.IsZero() && !r.EndTime.IsZero() {
		if !r.EndTime.After(r.StartTime) {
			out = append(out, Violation{
				Index:  idx,
				Rule:   RuleTimeOrder,
				Detail: fmt.Sprintf("endTime %s not after startTime %s", r.EndTime.Format(time.RFC3339), r.StartTime.Format(time.RFC3339)),
			})
			return out
		}

		computed := r.EndTime.Sub(r.StartTime).Milliseconds()
		diff := computed - r.Duration
		if diff < 0 {
			diff = -diff
		}
		if diff > DurationTolerance.Milliseconds() {
			out = append(out, Violation{
				Index:    idx,
				Rule:     RuleDurationMismatch,
				Detail:   fmt.Sprintf("stored %dms, computed %dms", r.Duration, computed),
				Repaired: true,
			})
			r.Duration = computed
		}
	}
	return out
}

// Check validates every record in the slice, repairing where allowed, and
// returns the full diagnostic list. It never fails and never drops a record.
func Check(records []model.Record) []Violation {
	var out []Violation
	for i := range records {
		out = append(out, CheckRecord(i, &records[i])...)
	}
	return out
}
