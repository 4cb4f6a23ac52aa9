package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/store"
	"github.com/roach88/evolve/internal/testutil"
)

// runCLI executes one command against a project root with a pinned clock
// and returns captured stdout.
func runCLI(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{Now: testutil.FixedNow})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--project-root", root}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func seedStore(t *testing.T, recs []audit.Record) string {
	t.Helper()
	root := t.TempDir()
	st := store.New(root)
	require.NoError(t, st.Init())
	require.NoError(t, st.Save(recs))
	return root
}

func loadStore(t *testing.T, root string) []audit.Record {
	t.Helper()
	recs, err := store.New(root).Load()
	require.NoError(t, err)
	return recs
}

func byID(recs []audit.Record) map[string]audit.Record {
	m := make(map[string]audit.Record, len(recs))
	for _, r := range recs {
		m[r.RuleID] = r
	}
	return m
}

func cliRecords() []audit.Record {
	return []audit.Record{
		{RuleID: "R-001", Platform: "all", Scope: "Deploy/Docker", Title: "Pin image tags", Origin: audit.OriginError, Hit: 5, Vio: 1, LastReviewed: testutil.DaysBefore(10), Status: audit.StatusActive},
		{RuleID: "R-002", Platform: "all", Scope: "Deploy", Title: "Verify rollout", Origin: audit.OriginPreventive, Hit: 2, AutoSkip: 7, LastReviewed: testutil.DaysBefore(5), Status: audit.StatusActive},
		{RuleID: "S-001", Platform: "claude", Scope: "Testing", Title: "Check build output", Origin: audit.OriginPreventive, Hit: 1, Vio: 4, Err: 2, LastReviewed: testutil.DaysBefore(3), Status: audit.StatusActive},
	}
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()

	out, err := runCLI(t, root, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized audit table")
	assert.FileExists(t, filepath.Join(root, "evolve", "audit.csv"))

	_, err = runCLI(t, root, "init")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestScoreCommand(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "score", "R-001:+hit S-001:+vio+err")
	require.NoError(t, err)
	assert.Contains(t, out, "Scored 2 rule(s): R-001, S-001")

	recs := byID(loadStore(t, root))
	assert.Equal(t, 6, recs["R-001"].Hit)
	assert.Equal(t, testutil.FixedDate, recs["R-001"].LastReviewed)
	assert.Equal(t, 5, recs["S-001"].Vio)
	assert.Equal(t, 3, recs["S-001"].Err)
	// No filter given, so no auto-skip accounting.
	assert.Equal(t, 7, recs["R-002"].AutoSkip)

	assert.FileExists(t, filepath.Join(root, "evolve", "journal.db"))
}

func TestScoreCommand_AutoSkipAndTransition(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "score", "R-001:+hit", "--scope", "deploy")
	require.NoError(t, err)
	assert.Contains(t, out, "Auto-skipped 1 rule(s): R-002")
	assert.Contains(t, out, "Transition R-002: active -> review")

	recs := byID(loadStore(t, root))
	assert.Equal(t, 8, recs["R-002"].AutoSkip)
	assert.Equal(t, audit.StatusReview, recs["R-002"].Status)
}

func TestScoreCommand_UnknownRuleLeavesStoreUntouched(t *testing.T) {
	root := seedStore(t, cliRecords())

	_, err := runCLI(t, root, "score", "R-001:+hit R-404:+vio")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, cliRecords(), loadStore(t, root))
}

func TestScoreCommand_MalformedExpressionIsUsageError(t *testing.T) {
	root := seedStore(t, cliRecords())

	_, err := runCLI(t, root, "score", "R-001")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScoreCommand_JSONEnvelope(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "score", "R-001:+hit", "--format", "json")
	require.NoError(t, err)

	var envelope struct {
		Status string         `json:"status"`
		Data   ScoreCmdResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &envelope))
	assert.Equal(t, "ok", envelope.Status)
	assert.Equal(t, []string{"R-001"}, envelope.Data.Scored)
}

func TestScoreCommand_JSONErrorEnvelope(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "score", "R-404:+hit", "--format", "json")
	require.Error(t, err)

	var envelope struct {
		Status string    `json:"status"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &envelope))
	assert.Equal(t, "error", envelope.Status)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, string(audit.ErrCodeNotFound), envelope.Error.Code)
}

func TestSyncCommand(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated EVOLVE.md")
	assert.Contains(t, out, "Updated CLAUDE.md")
	assert.FileExists(t, filepath.Join(root, "EVOLVE.md"))
	assert.FileExists(t, filepath.Join(root, "CLAUDE.md"))

	before, err := os.ReadFile(filepath.Join(root, "CLAUDE.md"))
	require.NoError(t, err)

	out, err = runCLI(t, root, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "All documents up to date.")

	after, err := os.ReadFile(filepath.Join(root, "CLAUDE.md"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSyncCommand_DryRunWritesNothing(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "sync", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would update EVOLVE.md")

	assert.NoFileExists(t, filepath.Join(root, "EVOLVE.md"))
	assert.NoFileExists(t, filepath.Join(root, "CLAUDE.md"))
	// Lifecycle results are not persisted on a dry run.
	assert.Equal(t, cliRecords(), loadStore(t, root))
}

func TestSyncPlatformCommand(t *testing.T) {
	root := seedStore(t, cliRecords())

	_, err := runCLI(t, root, "sync-platform", "--platform", "claude")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "CLAUDE.md"))
	assert.NoFileExists(t, filepath.Join(root, "EVOLVE.md"))
}

func TestStatusCommand_Archive(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "status", "R-001", "archive")
	require.NoError(t, err)
	assert.Contains(t, out, "R-001: active -> archived")

	recs := loadStore(t, root)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.NotEqual(t, "R-001", r.RuleID)
	}

	archived, err := store.New(root).LoadArchive()
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "R-001", archived[0].RuleID)
	assert.Equal(t, audit.StatusArchived, archived[0].Status)
}

func TestStatusCommand_UnknownRule(t *testing.T) {
	root := seedStore(t, cliRecords())

	_, err := runCLI(t, root, "status", "R-404", "protect")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSelectCommand(t *testing.T) {
	root := seedStore(t, cliRecords())

	// Suggestion order: S-001 far ahead on err weight, then R-001.
	out, err := runCLI(t, root, "select", "2,1")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected: R-001, S-001")

	recs := byID(loadStore(t, root))
	assert.Equal(t, 1, recs["R-001"].EvolveSlot)
	assert.Equal(t, 2, recs["S-001"].EvolveSlot)
	assert.Zero(t, recs["R-002"].EvolveSlot)

	_, err = runCLI(t, root, "select", "--clear")
	require.NoError(t, err)
	for _, r := range loadStore(t, root) {
		assert.Zero(t, r.EvolveSlot)
	}
}

func TestSelectCommand_OutOfRange(t *testing.T) {
	root := seedStore(t, cliRecords())

	_, err := runCLI(t, root, "select", "42")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReportCommand_JSON(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "report", "--format", "json")
	require.NoError(t, err)

	var envelope struct {
		Status string       `json:"status"`
		Data   ReportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &envelope))
	assert.Equal(t, "ok", envelope.Status)

	result := envelope.Data
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.ByStatus["active"])
	assert.Contains(t, result.Anomalies["high-violation"], "S-001")
	assert.Equal(t, []string{"R-001", "S-001", "R-002"}, result.TopActivity)
	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, "S-001", result.Suggestions[0].RuleID)
	assert.Equal(t, 1, result.Suggestions[0].Number)
}

func TestPromoteCommand(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "promote")
	require.NoError(t, err)
	assert.Contains(t, out, "S-001")
	assert.Contains(t, out, "vio=4")

	// Read-only: the table is untouched.
	assert.Equal(t, cliRecords(), loadStore(t, root))
}

func TestScopesAndFilterCommands(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "scopes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deploy/Docker")
	assert.Contains(t, out, "Testing")

	out, err = runCLI(t, root, "filter", "deploy")
	require.NoError(t, err)
	assert.Contains(t, out, "R-001")
	assert.Contains(t, out, "R-002")
	assert.NotContains(t, out, "S-001")
}

func TestHealthCommand(t *testing.T) {
	root := seedStore(t, cliRecords())

	out, err := runCLI(t, root, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Grade:")

	// The small unsynced fixture scores well below a strict threshold.
	_, err = runCLI(t, root, "health", "--fail-under", "99")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestHealthCommand_BrokenStoreStillReports(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "evolve"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "evolve", "audit.csv"),
		[]byte("not,a,real,header\n"), 0o644))

	out, err := runCLI(t, root, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "Grade: F")
}

func TestInvalidFormatRejected(t *testing.T) {
	root := seedStore(t, cliRecords())
	_, err := runCLI(t, root, "report", "--format", "xml")
	require.Error(t, err)
}
