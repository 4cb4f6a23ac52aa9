package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/journal"
)

// ScoreCmdResult reports a completed scoring pass.
type ScoreCmdResult struct {
	Scored      []string           `json:"scored"`
	AutoSkipped []string           `json:"auto_skipped,omitempty"`
	Transitions []audit.Transition `json:"transitions,omitempty"`
}

// NewScoreCommand creates the score command.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	var scopeFilter string

	cmd := &cobra.Command{
		Use:   "score \"<rule_id>:<+op>... ...\"",
		Short: "Apply counter increments from a score expression",
		Long: `Applies a scoring expression such as "R-001:+hit S-002:+vio+err".

The operation is all-or-nothing: unknown rule ids or an err increment
without a matching vio abort with no change. When --scope or --platform
is given, matched-but-unscored active rules get auto_skip incremented.`,
		Args:          cobra.ExactArgs(1),
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

			entries, err := audit.ParseScoreExpression(args[0])
			if err != nil {
				return fail(rc.out, err)
			}
			keywords := splitKeywords(scopeFilter)

			updated, result, err := audit.ApplyScores(recs, entries, keywords, rootOpts.Platform, rootOpts.Today())
			if err != nil {
				return fail(rc.out, err)
			}

			// Lifecycle transitions ride the same save: skip thresholds
			// crossed by this scoring pass demote to review immediately.
			updated, transitions := audit.EvaluateLifecycle(updated)

			if err := rc.st.Save(updated); err != nil {
				return fail(rc.out, err)
			}
			if err := rc.journalAppend(scoreJournalEntries(entries, result, transitions)); err != nil {
				return err
			}

			out := ScoreCmdResult{Scored: result.Scored, AutoSkipped: result.AutoSkipped, Transitions: transitions}
			if rc.out.Format == "json" {
				return rc.out.JSON(out)
			}
			rc.out.Textf("Scored %d rule(s): %s\n", len(out.Scored), strings.Join(out.Scored, ", "))
			if len(out.AutoSkipped) > 0 {
				rc.out.Textf("Auto-skipped %d rule(s): %s\n", len(out.AutoSkipped), strings.Join(out.AutoSkipped, ", "))
			}
			for _, tr := range out.Transitions {
				rc.out.Textf("Transition %s: %s -> %s (%s)\n", tr.RuleID, tr.From, tr.To, tr.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeFilter, "scope", "", "scope keywords for auto-skip accounting")
	return cmd
}

func scoreJournalEntries(entries []audit.ScoreEntry, result *audit.ScoreResult, transitions []audit.Transition) []journal.Entry {
	var out []journal.Entry
	for _, e := range entries {
		ops := make([]string, len(e.Ops))
		for i, op := range e.Ops {
			ops[i] = "+" + string(op)
		}
		out = append(out, journal.Entry{
			Kind:   journal.KindScore,
			RuleID: e.RuleID,
			Op:     strings.Join(ops, ""),
		})
	}
	for _, id := range result.AutoSkipped {
		out = append(out, journal.Entry{Kind: journal.KindAutoSkip, RuleID: id, Op: "+auto_skip"})
	}
	for _, tr := range transitions {
		out = append(out, journal.Entry{
			Kind:   journal.KindTransition,
			RuleID: tr.RuleID,
			Op:     fmt.Sprintf("%s->%s", tr.From, tr.To),
			Detail: tr.Reason,
		})
	}
	return out
}
