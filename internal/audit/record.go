package audit

import (
	"strings"
)

// Status is the lifecycle state of a rule record.
type Status string

const (
	StatusActive    Status = "active"
	StatusProtected Status = "protected"
	StatusReview    Status = "review"
	StatusArchived  Status = "archived"
)

// ValidStatus reports whether s is a recognized lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusProtected, StatusReview, StatusArchived:
		return true
	}
	return false
}

// Origin is the provenance of a rule record.
type Origin string

const (
	OriginError      Origin = "error"
	OriginPreventive Origin = "preventive"
	OriginImported   Origin = "imported"
)

// ValidOrigin reports whether o is a recognized provenance value.
func ValidOrigin(o Origin) bool {
	switch o {
	case OriginError, OriginPreventive, OriginImported:
		return true
	}
	return false
}

// Rule id prefixes. R- rules are generic (platform=all); S- rules are
// platform-specific lessons.
const (
	GenericPrefix  = "R-"
	PlatformPrefix = "S-"
)

// Record is one tracked lesson: identity, scope, provenance, and lifetime
// counters. The record store is the sole owner of record state; documents
// hold only projections of it.
type Record struct {
	RuleID       string
	Platform     string
	Scope        string
	Title        string
	Origin       Origin
	Hit          int
	Vio          int
	Err          int
	Skip         int
	AutoSkip     int
	LastReviewed string
	Status       Status
	EvolveSlot   int
}

// IsPlatformRule reports whether the record is a platform-specific lesson.
func (r Record) IsPlatformRule() bool {
	return strings.HasPrefix(r.RuleID, PlatformPrefix)
}

// Validate checks a single record's field-level invariants.
//
// Enforced hard: recognized prefix, valid status/origin, non-negative
// counters, err <= vio, and platform=all for R- rules. An S- rule with
// platform=all is deliberately NOT a hard failure; the health evaluator
// reports it as an advisory finding instead.
func (r Record) Validate() error {
	if r.RuleID == "" {
		return NewValidationError(r.RuleID, "rule_id", "rule_id is empty")
	}
	if !strings.HasPrefix(r.RuleID, GenericPrefix) && !strings.HasPrefix(r.RuleID, PlatformPrefix) {
		return NewValidationError(r.RuleID, "rule_id", "rule_id must start with %s or %s", GenericPrefix, PlatformPrefix)
	}
	if !ValidStatus(r.Status) {
		return NewValidationError(r.RuleID, "status", "unrecognized status %q", r.Status)
	}
	if !ValidOrigin(r.Origin) {
		return NewValidationError(r.RuleID, "origin", "unrecognized origin %q", r.Origin)
	}
	for _, c := range []struct {
		name  string
		value int
	}{
		{"hit", r.Hit},
		{"vio", r.Vio},
		{"err", r.Err},
		{"skip", r.Skip},
		{"auto_skip", r.AutoSkip},
		{"evolve_slot", r.EvolveSlot},
	} {
		if c.value < 0 {
			return NewValidationError(r.RuleID, c.name, "counter %s is negative (%d)", c.name, c.value)
		}
	}
	if r.Err > r.Vio {
		return NewValidationError(r.RuleID, "err", "err (%d) exceeds vio (%d); err is a subset of violations", r.Err, r.Vio)
	}
	if !r.IsPlatformRule() && CanonicalPlatform(r.Platform) != PlatformAll {
		return NewValidationError(r.RuleID, "platform", "generic rules must use platform=%s, got %q", PlatformAll, r.Platform)
	}
	return nil
}
