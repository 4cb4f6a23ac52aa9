package audit

// Derived metrics are computed on demand and never stored. A metric with a
// zero denominator is undefined and excluded from threshold checks.

// Compliance returns hit / (hit + vio). ok is false when hit+vio is zero.
func Compliance(r Record) (rate float64, ok bool) {
	total := r.Hit + r.Vio
	if total == 0 {
		return 0, false
	}
	return float64(r.Hit) / float64(total), true
}

// Danger returns err / vio. ok is false when vio is zero.
func Danger(r Record) (rate float64, ok bool) {
	if r.Vio == 0 {
		return 0, false
	}
	return float64(r.Err) / float64(r.Vio), true
}

// Activity returns hit + vio, the total number of scoring touches.
func Activity(r Record) int {
	return r.Hit + r.Vio
}

// Tag is an escalation label used in document projections. Tags are derived
// on every render and never stored.
type Tag string

const (
	// TagHighViolation marks rules violated often relative to compliance.
	TagHighViolation Tag = "high-violation"

	// TagHighRisk marks rules whose violations frequently cause errors.
	TagHighRisk Tag = "high-risk"

	// TagNeedsRewrite marks important but hard-to-follow rules.
	TagNeedsRewrite Tag = "needs-rewrite"
)

// Escalation thresholds.
const (
	highViolationMinVio = 3
	highViolationMaxCR  = 0.5
	highRiskMinErr      = 2
	highRiskMinDanger   = 0.5
	needsRewriteMinHit  = 3
	needsRewriteMinVio  = 3
	lowValueMinHit      = 8
)

// Tags returns the escalation tags that apply to a record, in a fixed order.
func Tags(r Record) []Tag {
	var tags []Tag
	if cr, ok := Compliance(r); ok && r.Vio >= highViolationMinVio && cr < highViolationMaxCR {
		tags = append(tags, TagHighViolation)
	}
	if dr, ok := Danger(r); ok && r.Err >= highRiskMinErr && dr >= highRiskMinDanger {
		tags = append(tags, TagHighRisk)
	}
	if r.Hit >= needsRewriteMinHit && r.Vio >= needsRewriteMinVio {
		tags = append(tags, TagNeedsRewrite)
	}
	return tags
}

// LowValueSuspect reports whether a record looks like a "correct but
// useless" rule: heavily hit, never violated, and not born from an actual
// error. Report-only; never auto-applied as a status change.
func LowValueSuspect(r Record) bool {
	return r.Hit >= lowValueMinHit && r.Vio == 0 && r.Err == 0 && r.Origin != OriginError
}
