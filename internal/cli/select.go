package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/journal"
)

// suggestionLimit caps the numbered suggestion list shown by report and
// consumed by select.
const suggestionLimit = 10

// SelectResult reports the new document selection.
type SelectResult struct {
	Selected []string `json:"selected"`
	Cleared  bool     `json:"cleared,omitempty"`
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "select \"1,3,...\"",
		Short: "Pick report suggestions for document inclusion",
		Long: `Maps suggestion numbers from the report to evolve_slot ordering.
The chosen rules appear in the primary document's selection block on the
next sync. --clear resets every slot.`,
		Args:          cobra.MaximumNArgs(1),
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

			var numbers []int
			if !clear {
				if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
					return fail(rc.out, audit.NewUsageError("give suggestion numbers or --clear"))
				}
				numbers, err = parseSelectionNumbers(args[0])
				if err != nil {
					return fail(rc.out, err)
				}
			}

			suggestions := audit.Suggestions(recs, suggestionLimit)
			updated, err := audit.ApplySelection(recs, suggestions, numbers)
			if err != nil {
				return fail(rc.out, err)
			}
			if err := rc.st.Save(updated); err != nil {
				return fail(rc.out, err)
			}

			result := SelectResult{Cleared: clear}
			var entries []journal.Entry
			for _, n := range numbers {
				id := suggestions[n-1].RuleID
				result.Selected = append(result.Selected, id)
				entries = append(entries, journal.Entry{
					Kind:   journal.KindSelect,
					RuleID: id,
					Detail: fmt.Sprintf("slot %d", len(result.Selected)),
				})
			}
			if clear {
				entries = append(entries, journal.Entry{Kind: journal.KindSelect, Detail: "cleared"})
			}
			if err := rc.journalAppend(entries); err != nil {
				return err
			}

			if rc.out.Format == "json" {
				return rc.out.JSON(result)
			}
			if clear {
				rc.out.Textf("Selection cleared.\n")
				return nil
			}
			rc.out.Textf("Selected: %s\n", strings.Join(result.Selected, ", "))
			rc.out.Textf("Run sync to project the selection into %s.\n", "EVOLVE.md")
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "clear the current selection")
	return cmd
}

func parseSelectionNumbers(raw string) ([]int, error) {
	var numbers []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, audit.NewUsageError("bad suggestion number %q", part)
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return nil, audit.NewUsageError("no suggestion numbers in %q", raw)
	}
	return numbers, nil
}
