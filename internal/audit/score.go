package audit

import (
	"regexp"
	"strings"
)

// Op is a single counter increment in a score expression.
type Op string

const (
	OpHit  Op = "hit"
	OpVio  Op = "vio"
	OpErr  Op = "err"
	OpSkip Op = "skip"
)

// ScoreEntry is one rule's share of a score expression.
type ScoreEntry struct {
	RuleID string
	Ops    []Op
}

var opPattern = regexp.MustCompile(`\+([a-z_]+)`)

// ParseScoreExpression parses a one-line scoring expression of the form
//
//	R-001:+hit R-003:+vio+err S-002:+skip
//
// Every token must be <rule_id>:<+op>... with op in {hit, vio, err, skip}.
// Malformed tokens and unknown ops are usage errors: scoring is the one
// place a typo could silently skew months of data.
func ParseScoreExpression(expr string) ([]ScoreEntry, error) {
	tokens := strings.Fields(strings.TrimSpace(expr))
	if len(tokens) == 0 {
		return nil, NewUsageError("empty score expression")
	}

	var entries []ScoreEntry
	index := make(map[string]int)
	for _, token := range tokens {
		id, opsPart, found := strings.Cut(token, ":")
		if !found || id == "" {
			return nil, NewUsageError("malformed score token %q: expected <rule_id>:<+op>...", token)
		}
		matches := opPattern.FindAllStringSubmatch(opsPart, -1)
		if len(matches) == 0 {
			return nil, NewUsageError("score token %q has no ops: expected +hit, +vio, +err, or +skip", token)
		}
		var ops []Op
		for _, m := range matches {
			op := Op(m[1])
			switch op {
			case OpHit, OpVio, OpErr, OpSkip:
				ops = append(ops, op)
			default:
				return nil, NewUsageError("unknown op %q in score token %q", "+"+m[1], token)
			}
		}
		if i, seen := index[id]; seen {
			entries[i].Ops = append(entries[i].Ops, ops...)
			continue
		}
		index[id] = len(entries)
		entries = append(entries, ScoreEntry{RuleID: id, Ops: ops})
	}
	return entries, nil
}

// ScoreResult summarizes a successful scoring pass.
type ScoreResult struct {
	Scored      []string // rule ids that received increments
	AutoSkipped []string // filtered-but-unscored rule ids
}

// ApplyScores applies a parsed score expression to a copy of the records and
// returns the mutated copy. The operation is all-or-nothing:
//
//   - every referenced rule id must exist, otherwise nothing changes and a
//     RULE_NOT_FOUND error is returned naming every unknown id;
//   - each scored record must still satisfy err <= vio after the increments,
//     otherwise nothing changes and a VALIDATION_FAILED error is returned.
//
// Scored records get last_reviewed=today and auto_skip reset to 0. When
// scope keywords or a platform restriction were supplied, every active
// record selected by that filter but absent from the expression has
// auto_skip incremented by one. Without a filter, no auto-skip accounting
// occurs. last_reviewed is only stamped on scored records.
func ApplyScores(recs []Record, entries []ScoreEntry, keywords []string, platform, today string) ([]Record, *ScoreResult, error) {
	byID := make(map[string]int, len(recs))
	for i, r := range recs {
		byID[r.RuleID] = i
	}

	var unknown []string
	for _, e := range entries {
		if _, ok := byID[e.RuleID]; !ok {
			unknown = append(unknown, e.RuleID)
		}
	}
	if len(unknown) > 0 {
		return nil, nil, NewNotFoundError(unknown)
	}

	updated := make([]Record, len(recs))
	copy(updated, recs)

	result := &ScoreResult{}
	scored := make(map[string]bool, len(entries))
	for _, e := range entries {
		i := byID[e.RuleID]
		r := updated[i]
		for _, op := range e.Ops {
			switch op {
			case OpHit:
				r.Hit++
			case OpVio:
				r.Vio++
			case OpErr:
				r.Err++
			case OpSkip:
				r.Skip++
			}
		}
		if r.Err > r.Vio {
			return nil, nil, NewValidationError(r.RuleID, "err",
				"scoring would leave err (%d) above vio (%d); score +vio alongside +err", r.Err, r.Vio)
		}
		r.LastReviewed = today
		r.AutoSkip = 0
		updated[i] = r
		scored[e.RuleID] = true
		result.Scored = append(result.Scored, e.RuleID)
	}

	if len(keywords) > 0 || platform != "" {
		for _, r := range Filter(recs, keywords, platform) {
			if scored[r.RuleID] {
				continue
			}
			i := byID[r.RuleID]
			updated[i].AutoSkip++
			result.AutoSkipped = append(result.AutoSkipped, r.RuleID)
		}
	}

	return updated, result, nil
}
