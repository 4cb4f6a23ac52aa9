package audit

import "sort"

// Suggestion is one ranked candidate for inclusion in the primary document.
// The rank feeds the numbered list in `report`; `select` maps chosen numbers
// to evolve_slot ordering.
type Suggestion struct {
	Record
	Score   float64
	Reasons []string
}

// recommendationScore weighs a record's signal for document inclusion.
// Errors dominate, then violations, then low compliance and danger; rules
// already flagged for review get a nudge so they surface for a decision.
func recommendationScore(r Record) float64 {
	score := float64(r.Err)*8.0 + float64(r.Vio)*3.0
	if cr, ok := Compliance(r); ok {
		score += (1.0 - cr) * 4.0
	}
	if dr, ok := Danger(r); ok {
		score += dr * 3.0
	}
	if r.Status == StatusReview {
		score += 2.0
	}
	activity := float64(Activity(r))
	if activity > 10.0 {
		activity = 10.0
	}
	return score + activity*0.2
}

func suggestionReasons(r Record) []string {
	var reasons []string
	if dr, ok := Danger(r); ok && r.Err >= highRiskMinErr && dr >= highRiskMinDanger {
		reasons = append(reasons, "high-risk")
	}
	if cr, ok := Compliance(r); ok && r.Vio >= highViolationMinVio && cr < highViolationMaxCR {
		reasons = append(reasons, "frequent-violation")
	}
	if r.Status == StatusReview {
		reasons = append(reasons, "pending-review")
	}
	if r.Hit >= needsRewriteMinHit && r.Vio == 0 && r.Err == 0 {
		reasons = append(reasons, "stable-good-practice")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "general-signal")
	}
	return reasons
}

// Suggestions ranks non-archived records for document inclusion, best
// first, capped at limit. The ordering is deterministic: score, then err,
// vio, hit, and finally rule id break ties.
func Suggestions(recs []Record, limit int) []Suggestion {
	var out []Suggestion
	for _, r := range recs {
		if r.Status == StatusArchived {
			continue
		}
		out = append(out, Suggestion{
			Record:  r,
			Score:   recommendationScore(r),
			Reasons: suggestionReasons(r),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Err != b.Err {
			return a.Err > b.Err
		}
		if a.Vio != b.Vio {
			return a.Vio > b.Vio
		}
		if a.Hit != b.Hit {
			return a.Hit > b.Hit
		}
		return a.RuleID < b.RuleID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ApplySelection maps suggestion ranks (1-based positions in the given
// suggestion list) to evolve_slot values on a copy of the records. Slot
// order follows the order of the chosen numbers; every unselected record is
// reset to slot 0.
func ApplySelection(recs []Record, suggestions []Suggestion, numbers []int) ([]Record, error) {
	for _, n := range numbers {
		if n < 1 || n > len(suggestions) {
			return nil, NewUsageError("suggestion number %d out of range 1..%d", n, len(suggestions))
		}
	}

	slots := make(map[string]int, len(numbers))
	for order, n := range numbers {
		slots[suggestions[n-1].RuleID] = order + 1
	}

	updated := make([]Record, len(recs))
	copy(updated, recs)
	for i := range updated {
		updated[i].EvolveSlot = slots[updated[i].RuleID]
	}
	return updated, nil
}
