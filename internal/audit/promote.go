package audit

import "sort"

// Candidate is a platform lesson proposed for generalization into a
// user-level rule. Candidates are presented for external confirmation only;
// promotion itself never happens here.
type Candidate struct {
	Record
	ComplianceRate float64
	DangerRate     float64
	DangerDefined  bool
}

// Promotion thresholds.
const (
	promoteMinVio = 3
	promoteMaxCR  = 0.5
)

// PromotionCandidates selects the platform lessons eligible for promotion:
// S- prefixed, active, vio >= 3, compliance < 0.5. Ordered by danger
// descending, then vio descending, then rule id. Read-only.
func PromotionCandidates(recs []Record, platform string) []Candidate {
	var out []Candidate
	for _, r := range recs {
		if !r.IsPlatformRule() || r.Status != StatusActive {
			continue
		}
		if platform != "" && CanonicalPlatform(r.Platform) != CanonicalPlatform(platform) {
			continue
		}
		cr, ok := Compliance(r)
		if !ok || r.Vio < promoteMinVio || cr >= promoteMaxCR {
			continue
		}
		dr, defined := Danger(r)
		out = append(out, Candidate{
			Record:         r,
			ComplianceRate: cr,
			DangerRate:     dr,
			DangerDefined:  defined,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DangerRate != out[j].DangerRate {
			return out[i].DangerRate > out[j].DangerRate
		}
		if out[i].Vio != out[j].Vio {
			return out[i].Vio > out[j].Vio
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}
