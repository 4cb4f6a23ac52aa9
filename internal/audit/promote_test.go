package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromotionCandidates(t *testing.T) {
	recs := []Record{
		// Eligible: vio >= 3, compliance 0.2, danger 0.5.
		{RuleID: "S-001", Platform: "claude", Status: StatusActive, Hit: 1, Vio: 4, Err: 2},
		// Eligible, higher danger.
		{RuleID: "S-002", Platform: "claude", Status: StatusActive, Hit: 1, Vio: 3, Err: 3},
		// R- rules are never candidates regardless of counters.
		{RuleID: "R-001", Platform: "all", Status: StatusActive, Hit: 1, Vio: 9, Err: 4},
		// Compliance too high.
		{RuleID: "S-003", Platform: "claude", Status: StatusActive, Hit: 6, Vio: 3},
		// Not active.
		{RuleID: "S-004", Platform: "claude", Status: StatusReview, Hit: 1, Vio: 4, Err: 2},
		// vio below threshold.
		{RuleID: "S-005", Platform: "claude", Status: StatusActive, Vio: 2, Err: 1},
	}

	got := PromotionCandidates(recs, "")
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.RuleID
	}
	assert.Equal(t, []string{"S-002", "S-001"}, ids)
	assert.InDelta(t, 1.0, got[0].DangerRate, 1e-9)
	assert.InDelta(t, 0.2, got[1].ComplianceRate, 1e-9)

	// Input untouched: the advisor is read-only.
	assert.Equal(t, StatusActive, recs[0].Status)
	assert.Equal(t, 4, recs[0].Vio)
}

func TestPromotionCandidates_PlatformRestriction(t *testing.T) {
	recs := []Record{
		{RuleID: "S-001", Platform: "claude", Status: StatusActive, Hit: 1, Vio: 4, Err: 2},
		{RuleID: "S-002", Platform: "gemini", Status: StatusActive, Hit: 1, Vio: 4, Err: 2},
	}
	got := PromotionCandidates(recs, "gemini")
	assert.Len(t, got, 1)
	assert.Equal(t, "S-002", got[0].RuleID)
}
