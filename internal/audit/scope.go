package audit

import (
	"sort"
	"strings"
)

// PlatformAll is the platform label of generic rules.
const PlatformAll = "all"

// platformAliases maps historical and shorthand labels to canonical ones.
// Unknown labels pass through unchanged: platforms are an open string set,
// new ones can appear purely from an S- row's platform field.
var platformAliases = map[string]string{
	"all":       PlatformAll,
	"*":         PlatformAll,
	"global":    PlatformAll,
	"universal": PlatformAll,
	"shared":    PlatformAll,
	"agents":    "codex",
	"agent":     "codex",
}

// CanonicalPlatform normalizes a platform label. Empty falls back to all.
func CanonicalPlatform(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return PlatformAll
	}
	if canonical, ok := platformAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// MatchScope reports whether a scope label matches any keyword.
// Matching is a case-insensitive substring test.
func MatchScope(scope string, keywords []string) bool {
	lower := strings.ToLower(scope)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// MatchPlatform reports whether a record is relevant to the given platform.
// An empty platform matches everything. Platform lessons match strictly on
// their platform label; generic rules are relevant to every platform.
func MatchPlatform(r Record, platform string) bool {
	if platform == "" {
		return true
	}
	if r.IsPlatformRule() {
		return CanonicalPlatform(r.Platform) == CanonicalPlatform(platform)
	}
	return true
}

// Filter selects active records whose scope contains any of the keywords
// and whose platform is relevant to the requested one. With no keywords,
// every scope matches. The result is ordered by rule id.
func Filter(recs []Record, keywords []string, platform string) []Record {
	var matched []Record
	for _, r := range recs {
		if r.Status != StatusActive {
			continue
		}
		if !MatchPlatform(r, platform) {
			continue
		}
		if len(keywords) > 0 && !MatchScope(r.Scope, keywords) {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].RuleID < matched[j].RuleID })
	return matched
}

// ScopeCount pairs a distinct scope value with the rules carrying it.
type ScopeCount struct {
	Scope   string
	Count   int
	RuleIDs []string
}

// Scopes returns the distinct scope values across non-archived records
// relevant to the platform, ordered by scope label.
func Scopes(recs []Record, platform string) []ScopeCount {
	byScope := make(map[string]*ScopeCount)
	for _, r := range recs {
		if r.Status == StatusArchived {
			continue
		}
		if !MatchPlatform(r, platform) {
			continue
		}
		sc, ok := byScope[r.Scope]
		if !ok {
			sc = &ScopeCount{Scope: r.Scope}
			byScope[r.Scope] = sc
		}
		sc.Count++
		sc.RuleIDs = append(sc.RuleIDs, r.RuleID)
	}

	out := make([]ScopeCount, 0, len(byScope))
	for _, sc := range byScope {
		sort.Strings(sc.RuleIDs)
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope < out[j].Scope })
	return out
}

// KeywordCount pairs a scope path segment with the number of rules under it.
type KeywordCount struct {
	Keyword string
	Count   int
}

// Keywords splits scope labels on "/" and aggregates rule counts per
// segment, ordered by descending count then keyword.
func Keywords(scopes []ScopeCount) []KeywordCount {
	counts := make(map[string]int)
	for _, sc := range scopes {
		for _, part := range strings.Split(sc.Scope, "/") {
			part = strings.TrimSpace(part)
			if part != "" {
				counts[part] += sc.Count
			}
		}
	}
	out := make([]KeywordCount, 0, len(counts))
	for kw, n := range counts {
		out = append(out, KeywordCount{Keyword: kw, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}
