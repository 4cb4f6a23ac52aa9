package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/health"
	"github.com/roach88/evolve/internal/store"
)

// NewHealthCommand creates the health command.
func NewHealthCommand(rootOpts *RootOptions) *cobra.Command {
	var failUnder float64

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Audit the system across six dimensions",
		Long: `Evaluates integrity, document consistency, structure, activity,
quality, and anti-corruption, and aggregates the checks into a score and
letter grade. Exit status is 0 when the report is produced; --fail-under
(or health.fail_under in config) turns a score below the threshold into
exit status 1.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := newRunContext(rootOpts, cmd)
			if err != nil {
				return err
			}

			// A store that fails to load is itself a health finding,
			// not a command abort.
			recs, loadErr := rc.st.Load()
			var archive []audit.Record
			if loadErr == nil {
				arch, err := rc.st.LoadArchive()
				if err != nil {
					return fail(rc.out, err)
				}
				archive = arch
			}

			report, err := health.Evaluate(health.Params{
				Records:    recs,
				Archive:    archive,
				LoadErr:    loadErr,
				Config:     rc.cfg,
				Syncer:     rc.syncer(),
				PrimaryRel: store.PrimaryDocument,
				Today:      rootOpts.Today(),
			})
			if err != nil {
				return fail(rc.out, err)
			}

			if rc.out.Format == "json" {
				if err := rc.out.JSON(report); err != nil {
					return err
				}
			} else {
				renderHealth(rc.out, report)
			}

			threshold := failUnder
			if threshold == 0 {
				threshold = rc.cfg.Health.FailUnder
			}
			if threshold > 0 && report.Score < threshold {
				return NewExitError(ExitFailure,
					fmt.Sprintf("health score %.1f below threshold %.1f", report.Score, threshold))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&failUnder, "fail-under", 0, "exit non-zero when the score is below this value")
	return cmd
}

func renderHealth(out *OutputFormatter, report *health.Report) {
	for _, dim := range report.Dimensions {
		out.Textf("%s (%.0f)\n", dim.Name, dim.Score)
		for _, c := range dim.Checks {
			if c.Detail != "" {
				out.Textf("  %-5s %-22s %s\n", c.Status, c.Name, c.Detail)
			} else {
				out.Textf("  %-5s %s\n", c.Status, c.Name)
			}
		}
	}
	out.Textf("\nScore: %.1f  Grade: %s  (%d checks)\n", report.Score, report.Grade, report.Checks)
}
