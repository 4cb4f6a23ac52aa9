package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
)

// PromoteView is one promotion candidate as presented to the caller.
type PromoteView struct {
	RuleID     string  `json:"rule_id"`
	Platform   string  `json:"platform"`
	Title      string  `json:"title"`
	Vio        int     `json:"vio"`
	Compliance float64 `json:"compliance"`
	Danger     float64 `json:"danger,omitempty"`
}

// NewPromoteCommand creates the promote command.
func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "promote",
		Short:         "List platform lessons eligible for generalization",
		Long:          "Read-only. Lists active S- rules with vio >= 3 and compliance < 0.5, ordered by danger then vio. Promotion itself needs external confirmation.",
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

			candidates := audit.PromotionCandidates(recs, rootOpts.Platform)
			views := make([]PromoteView, 0, len(candidates))
			for _, c := range candidates {
				v := PromoteView{
					RuleID:     c.RuleID,
					Platform:   c.Platform,
					Title:      c.Title,
					Vio:        c.Vio,
					Compliance: c.ComplianceRate,
				}
				if c.DangerDefined {
					v.Danger = c.DangerRate
				}
				views = append(views, v)
			}

			if rc.out.Format == "json" {
				return rc.out.JSON(views)
			}
			if len(views) == 0 {
				rc.out.Textf("No promotion candidates.\n")
				return nil
			}
			for _, v := range views {
				rc.out.Textf("%-8s %-10s vio=%d cr=%.2f dr=%.2f %s\n",
					v.RuleID, v.Platform, v.Vio, v.Compliance, v.Danger, v.Title)
			}
			return nil
		},
	}
}
