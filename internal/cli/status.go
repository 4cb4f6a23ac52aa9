package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/journal"
)

// StatusResult reports an explicit status change.
type StatusResult struct {
	Transition audit.Transition `json:"transition"`
	Archived   bool             `json:"archived,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <rule-id> <protect|archive|reactivate>",
		Short: "Apply an explicit status action to one rule",
		Long: `Sets a rule's lifecycle status directly. Archiving moves the row out
of the active table into evolve/archived.csv; reactivation resets skip
and auto_skip.`,
		Args:          cobra.ExactArgs(2),
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

			action := audit.StatusAction(args[1])
			updated, transition, err := audit.ApplyStatusAction(recs, args[0], action)
			if err != nil {
				return fail(rc.out, err)
			}

			result := StatusResult{Transition: transition}
			if action == audit.ActionArchive {
				// Archived rows leave the active table but keep their
				// identity in the archive artifact.
				var remaining, archived []audit.Record
				for _, r := range updated {
					if r.RuleID == transition.RuleID {
						archived = append(archived, r)
					} else {
						remaining = append(remaining, r)
					}
				}
				if err := rc.st.AppendArchive(archived); err != nil {
					return fail(rc.out, err)
				}
				updated = remaining
				result.Archived = true
			}

			if err := rc.st.Save(updated); err != nil {
				return fail(rc.out, err)
			}
			if err := rc.journalAppend([]journal.Entry{{
				Kind:   journal.KindStatus,
				RuleID: transition.RuleID,
				Op:     fmt.Sprintf("%s->%s", transition.From, transition.To),
				Detail: string(action),
			}}); err != nil {
				return err
			}

			if rc.out.Format == "json" {
				return rc.out.JSON(result)
			}
			rc.out.Textf("%s: %s -> %s\n", transition.RuleID, transition.From, transition.To)
			if result.Archived {
				rc.out.Textf("Moved to %s\n", rc.st.ArchivePath())
			}
			return nil
		},
	}
}
