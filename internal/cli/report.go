package cli

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/docsync"
	"github.com/roach88/evolve/internal/journal"
)

// recentJournalLimit caps the journal tail shown by report.
const recentJournalLimit = 15

// SuggestionView is one numbered suggestion as the report presents it.
type SuggestionView struct {
	Number  int      `json:"number"`
	RuleID  string   `json:"rule_id"`
	Title   string   `json:"title"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// ReportResult is the full audit report.
type ReportResult struct {
	Total       int                 `json:"total"`
	ByStatus    map[string]int      `json:"by_status"`
	Anomalies   map[string][]string `json:"anomalies,omitempty"`
	TopActivity []string            `json:"top_activity,omitempty"`
	Suggestions []SuggestionView    `json:"suggestions,omitempty"`
	Recent      []journal.Entry     `json:"recent,omitempty"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "report",
		Short:         "Summarize metrics, anomalies, and suggestions",
		Long:          "Shows status distribution, anomaly buckets, the five most active rules, numbered document-inclusion suggestions, and recent journal activity.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := newRunContext(rootOpts, cmd)
			if err != nil {
				return err
			}
			recs, err := rc.load()
			if err != nil {
				return err
			}

			result := buildReport(recs)
			if recent, err := recentJournal(rc); err != nil {
				return err
			} else {
				result.Recent = recent
			}

			if rc.out.Format == "json" {
				return rc.out.JSON(result)
			}
			renderReport(rc.out, recs, result)
			return nil
		},
	}
}

func buildReport(recs []audit.Record) ReportResult {
	result := ReportResult{
		Total:     len(recs),
		ByStatus:  make(map[string]int),
		Anomalies: make(map[string][]string),
	}

	for _, r := range recs {
		result.ByStatus[string(r.Status)]++
		if r.Status == audit.StatusArchived {
			continue
		}
		for _, tag := range audit.Tags(r) {
			result.Anomalies[string(tag)] = append(result.Anomalies[string(tag)], r.RuleID)
		}
		if audit.LowValueSuspect(r) {
			result.Anomalies["low-value-suspicion"] = append(result.Anomalies["low-value-suspicion"], r.RuleID)
		}
		if r.Status == audit.StatusReview {
			result.Anomalies["review-backlog"] = append(result.Anomalies["review-backlog"], r.RuleID)
		}
		if cr, ok := audit.Compliance(r); ok && cr >= 0.9 && audit.Activity(r) >= 3 {
			result.Anomalies["good"] = append(result.Anomalies["good"], r.RuleID)
		}
	}
	for bucket := range result.Anomalies {
		sort.Strings(result.Anomalies[bucket])
	}

	active := make([]audit.Record, 0, len(recs))
	for _, r := range recs {
		if r.Status != audit.StatusArchived && audit.Activity(r) > 0 {
			active = append(active, r)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if ai, aj := audit.Activity(active[i]), audit.Activity(active[j]); ai != aj {
			return ai > aj
		}
		return active[i].RuleID < active[j].RuleID
	})
	for i := 0; i < len(active) && i < 5; i++ {
		result.TopActivity = append(result.TopActivity, active[i].RuleID)
	}

	for i, s := range audit.Suggestions(recs, suggestionLimit) {
		result.Suggestions = append(result.Suggestions, SuggestionView{
			Number:  i + 1,
			RuleID:  s.RuleID,
			Title:   s.Title,
			Score:   s.Score,
			Reasons: s.Reasons,
		})
	}
	return result
}

// recentJournal reads the journal tail without creating the database on
// a read-only command.
func recentJournal(rc *runContext) ([]journal.Entry, error) {
	if _, err := os.Stat(rc.st.JournalPath()); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	j, err := journal.Open(rc.st.JournalPath())
	if err != nil {
		return nil, fail(rc.out, err)
	}
	defer j.Close()
	entries, err := j.Recent(context.Background(), recentJournalLimit)
	if err != nil {
		return nil, fail(rc.out, err)
	}
	return entries, nil
}

func renderReport(out *OutputFormatter, recs []audit.Record, result ReportResult) {
	out.Textf("Rules: %d\n", result.Total)
	for _, status := range []string{"active", "protected", "review", "archived"} {
		if n := result.ByStatus[status]; n > 0 {
			out.Textf("  %-10s %d\n", status, n)
		}
	}

	if len(result.Anomalies) > 0 {
		out.Textf("\nAnomalies:\n")
		buckets := make([]string, 0, len(result.Anomalies))
		for b := range result.Anomalies {
			buckets = append(buckets, b)
		}
		sort.Strings(buckets)
		for _, b := range buckets {
			out.Textf("  %-20s %s\n", b, strings.Join(result.Anomalies[b], ", "))
		}
	}

	if len(result.TopActivity) > 0 {
		out.Textf("\nMost active: %s\n", strings.Join(result.TopActivity, ", "))
	}

	if len(result.Suggestions) > 0 {
		out.Textf("\nSuggestions (select by number):\n")
		byID := make(map[string]audit.Record, len(recs))
		for _, r := range recs {
			byID[r.RuleID] = r
		}
		for _, s := range result.Suggestions {
			out.Textf("  %2d. %-8s %-40s %5.1f [%s] %s\n",
				s.Number, s.RuleID, s.Title, s.Score,
				strings.Join(s.Reasons, ", "), docsync.MetricsTag(byID[s.RuleID]))
		}
	}

	if len(result.Recent) > 0 {
		out.Textf("\nRecent activity:\n")
		for _, e := range result.Recent {
			out.Textf("  %s %-10s %-8s %s %s\n", e.OccurredAt, e.Kind, e.RuleID, e.Op, e.Detail)
		}
	}
}
