package audit

import "fmt"

// Skip thresholds that demote an active rule to review.
const (
	ManualSkipThreshold = 5
	AutoSkipThreshold   = 8
)

// Transition records one lifecycle status change.
type Transition struct {
	RuleID string
	From   Status
	To     Status
	Reason string
}

// EvaluateLifecycle applies the deterministic status transitions to a copy
// of the records and returns the copy plus the transitions taken.
//
// Only active rules are considered: protected and archived states are never
// downgraded without an explicit user action, and review rules stay put
// until a user decides. Priority order, first match wins:
//
//  1. skip >= ManualSkipThreshold  -> review
//  2. auto_skip >= AutoSkipThreshold -> review
func EvaluateLifecycle(recs []Record) ([]Record, []Transition) {
	updated := make([]Record, len(recs))
	copy(updated, recs)

	var transitions []Transition
	for i, r := range updated {
		if r.Status != StatusActive {
			continue
		}
		var reason string
		switch {
		case r.Skip >= ManualSkipThreshold:
			reason = fmt.Sprintf("skip %d >= %d", r.Skip, ManualSkipThreshold)
		case r.AutoSkip >= AutoSkipThreshold:
			reason = fmt.Sprintf("auto_skip %d >= %d", r.AutoSkip, AutoSkipThreshold)
		default:
			continue
		}
		transitions = append(transitions, Transition{
			RuleID: r.RuleID,
			From:   r.Status,
			To:     StatusReview,
			Reason: reason,
		})
		updated[i].Status = StatusReview
	}
	return updated, transitions
}

// StatusAction is an explicit, user-initiated status change.
type StatusAction string

const (
	ActionProtect    StatusAction = "protect"
	ActionArchive    StatusAction = "archive"
	ActionReactivate StatusAction = "reactivate"
)

// ApplyStatusAction sets a record's status directly on a copy of the
// records. Reactivation resets skip and auto_skip so a revived rule starts
// with a clean slate.
func ApplyStatusAction(recs []Record, ruleID string, action StatusAction) ([]Record, Transition, error) {
	idx := -1
	for i, r := range recs {
		if r.RuleID == ruleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, Transition{}, NewNotFoundError([]string{ruleID})
	}

	var to Status
	switch action {
	case ActionProtect:
		to = StatusProtected
	case ActionArchive:
		to = StatusArchived
	case ActionReactivate:
		to = StatusActive
	default:
		return nil, Transition{}, NewUsageError("unknown status action %q (want protect, archive, or reactivate)", action)
	}

	updated := make([]Record, len(recs))
	copy(updated, recs)

	tr := Transition{RuleID: ruleID, From: updated[idx].Status, To: to, Reason: string(action)}
	updated[idx].Status = to
	if action == ActionReactivate {
		updated[idx].Skip = 0
		updated[idx].AutoSkip = 0
	}
	return updated, tr, nil
}
