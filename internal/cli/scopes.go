package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
)

// ScopesResult lists distinct scopes and aggregated keywords.
type ScopesResult struct {
	Scopes   []audit.ScopeCount   `json:"scopes"`
	Keywords []audit.KeywordCount `json:"keywords"`
}

// NewScopesCommand creates the scopes command.
func NewScopesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "scopes",
		Short:         "List distinct scope values",
		Long:          "Lists the distinct scope values across non-archived rules, with per-scope rule counts and aggregated path keywords.",
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

			scopes := audit.Scopes(recs, rootOpts.Platform)
			result := ScopesResult{Scopes: scopes, Keywords: audit.Keywords(scopes)}
			if rc.out.Format == "json" {
				return rc.out.JSON(result)
			}

			if len(result.Scopes) == 0 {
				rc.out.Textf("No scopes.\n")
				return nil
			}
			for _, sc := range result.Scopes {
				rc.out.Textf("%-30s %d\n", sc.Scope, sc.Count)
			}
			rc.out.Textf("\nKeywords:\n")
			for _, kw := range result.Keywords {
				rc.out.Textf("  %-20s %d\n", kw.Keyword, kw.Count)
			}
			return nil
		},
	}
}
