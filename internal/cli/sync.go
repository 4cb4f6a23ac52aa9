package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/docsync"
	"github.com/roach88/evolve/internal/journal"
	"github.com/roach88/evolve/internal/store"
)

// SyncResult reports the outcome of a sync pass.
type SyncResult struct {
	Transitions []audit.Transition `json:"transitions,omitempty"`
	Primary     *docsync.Change    `json:"primary,omitempty"`
	Platforms   []docsync.Change   `json:"platforms,omitempty"`
	DryRun      bool               `json:"dry_run,omitempty"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun, noPlatformSync bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Evaluate lifecycle and project state into documents",
		Long: `Runs the lifecycle evaluation pass, saves the store, then updates the
primary document (inline metric tags, selection block) and every
platform's managed block. The store is always durably saved before any
document is touched. --dry-run shows unified diffs without writing.`,
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

			updated, transitions := audit.EvaluateLifecycle(recs)
			if !dryRun {
				if err := rc.st.Save(updated); err != nil {
					return fail(rc.out, err)
				}
				var entries []journal.Entry
				for _, tr := range transitions {
					entries = append(entries, journal.Entry{
						Kind:   journal.KindTransition,
						RuleID: tr.RuleID,
						Op:     fmt.Sprintf("%s->%s", tr.From, tr.To),
						Detail: tr.Reason,
					})
				}
				if err := rc.journalAppend(entries); err != nil {
					return err
				}
			}

			syncer := rc.syncer()
			result := SyncResult{Transitions: transitions, DryRun: dryRun}

			primary, err := syncer.SyncPrimary(updated, store.PrimaryDocument, dryRun)
			if err != nil {
				return fail(rc.out, err)
			}
			result.Primary = &primary

			if !noPlatformSync {
				result.Platforms, err = syncer.SyncPlatforms(updated, rootOpts.Platform, dryRun)
				if err != nil {
					return fail(rc.out, err)
				}
			}

			return renderSync(rc.out, result)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show diffs without writing")
	cmd.Flags().BoolVar(&noPlatformSync, "no-platform-sync", false, "update only the primary document")
	return cmd
}

// NewSyncPlatformCommand creates the sync-platform command, which
// updates managed blocks only and leaves the primary document alone.
func NewSyncPlatformCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:           "sync-platform",
		Short:         "Update platform managed blocks only",
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

			changes, err := rc.syncer().SyncPlatforms(recs, rootOpts.Platform, dryRun)
			if err != nil {
				return fail(rc.out, err)
			}
			return renderSync(rc.out, SyncResult{Platforms: changes, DryRun: dryRun})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show diffs without writing")
	return cmd
}

func renderSync(out *OutputFormatter, result SyncResult) error {
	if out.Format == "json" {
		return out.JSON(result)
	}

	for _, tr := range result.Transitions {
		out.Textf("Transition %s: %s -> %s (%s)\n", tr.RuleID, tr.From, tr.To, tr.Reason)
	}

	changes := result.Platforms
	if result.Primary != nil {
		changes = append([]docsync.Change{*result.Primary}, changes...)
	}
	updated := 0
	for _, ch := range changes {
		switch {
		case ch.Updated && result.DryRun:
			out.Textf("Would update %s\n", ch.Path)
			if ch.Diff != "" {
				out.Textf("%s", ch.Diff)
			}
			updated++
		case ch.Updated:
			out.Textf("Updated %s\n", ch.Path)
			updated++
		default:
			out.Textf("Unchanged %s\n", ch.Path)
		}
	}
	if updated == 0 {
		out.Textf("All documents up to date.\n")
	}
	return nil
}
