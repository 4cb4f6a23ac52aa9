package cli

import (
	"github.com/spf13/cobra"
)

// InitResult reports what init created.
type InitResult struct {
	AuditPath string `json:"audit_path"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "init",
		Short:         "Create an empty audit table",
		Long:          "Creates evolve/audit.csv with the canonical header and zero rows. Refuses to overwrite an existing table.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := newRunContext(rootOpts, cmd)
			if err != nil {
				return err
			}
			if err := rc.st.Init(); err != nil {
				return fail(rc.out, err)
			}
			result := InitResult{AuditPath: rc.st.AuditPath()}
			if rc.out.Format == "json" {
				return rc.out.JSON(result)
			}
			rc.out.Textf("Initialized audit table at %s\n", result.AuditPath)
			return nil
		},
	}
}
