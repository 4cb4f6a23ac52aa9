package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/docsync"
)

// FilterResult holds the rules selected by a scope/platform filter.
type FilterResult struct {
	Rules []audit.Record `json:"rules"`
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "filter <keyword>[,keyword...]",
		Short:         "Select active rules by scope keywords",
		Long:          "Selects active rules whose scope contains any keyword (case-insensitive) and whose platform matches, sorted by rule id.",
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

			keywords := splitKeywords(args[0])
			if len(keywords) == 0 {
				return fail(rc.out, audit.NewUsageError("no scope keywords given"))
			}
			matched := audit.Filter(recs, keywords, rootOpts.Platform)

			if rc.out.Format == "json" {
				return rc.out.JSON(FilterResult{Rules: matched})
			}
			if len(matched) == 0 {
				rc.out.Textf("No matching rules.\n")
				return nil
			}
			for _, r := range matched {
				rc.out.Textf("%-8s %-12s %-24s %s %s\n",
					r.RuleID, r.Platform, r.Scope, r.Title, docsync.MetricsTag(r))
			}
			return nil
		},
	}
}

// splitKeywords splits a comma- or space-separated keyword list.
func splitKeywords(raw string) []string {
	var keywords []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}
