package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/config"
	"github.com/roach88/evolve/internal/docsync"
	"github.com/roach88/evolve/internal/journal"
	"github.com/roach88/evolve/internal/store"
)

// runContext bundles what every command needs: the formatter, the
// record store, and the loaded configuration.
type runContext struct {
	opts *RootOptions
	out  *OutputFormatter
	st   *store.Store
	cfg  config.Config
}

func newRunContext(opts *RootOptions, cmd *cobra.Command) (*runContext, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	st := store.New(opts.ProjectRoot)
	cfg, err := config.Load(st.ConfigPath())
	if err != nil {
		return nil, fail(out, err)
	}
	return &runContext{opts: opts, out: out, st: st, cfg: cfg}, nil
}

// load reads the record store, mapping failures to exit codes.
func (rc *runContext) load() ([]audit.Record, error) {
	recs, err := rc.st.Load()
	if err != nil {
		return nil, fail(rc.out, err)
	}
	rc.out.VerboseLog("loaded %d records from %s", len(recs), rc.st.AuditPath())
	return recs, nil
}

// syncer creates a document syncer for the project.
func (rc *runContext) syncer() *docsync.Syncer {
	return docsync.New(rc.opts.ProjectRoot, rc.cfg, rc.opts.Today())
}

// journalAppend opens the journal, appends the entries, and closes it.
// The store has already been saved by the time this runs; a journal
// failure is surfaced, not swallowed, but cannot undo the save.
func (rc *runContext) journalAppend(entries []journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	j, err := journal.Open(rc.st.JournalPath())
	if err != nil {
		return fail(rc.out, err)
	}
	defer j.Close()
	if err := j.Append(context.Background(), rc.opts.Today(), entries); err != nil {
		return fail(rc.out, err)
	}
	return nil
}

// fail renders an error through the formatter and converts it to an
// ExitError. Usage and IO problems are command errors (exit 2); data
// problems, unknown rules, and an already-initialized store are
// failures (exit 1).
func fail(out *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	code := ExitFailure
	errCode := audit.CodeOf(err)
	switch errCode {
	case audit.ErrCodeUsage, audit.ErrCodeIO:
		code = ExitCommandError
	case "":
		errCode = "INTERNAL_ERROR"
		code = ExitCommandError
	}
	out.Error(string(errCode), err.Error(), nil)
	return NewExitError(code, err.Error())
}
