package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evolve/internal/audit"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir())
}

func testRecords() []audit.Record {
	return []audit.Record{
		{RuleID: "R-001", Platform: "all", Scope: "Deploy/Docker", Title: "Pin image tags", Origin: audit.OriginError, Hit: 5, Vio: 1, LastReviewed: "2026-07-01", Status: audit.StatusActive},
		{RuleID: "S-001", Platform: "claude", Scope: "Deploy", Title: "Check build output", Origin: audit.OriginPreventive, Hit: 1, Vio: 4, Err: 2, Status: audit.StatusActive, EvolveSlot: 1},
	}
}

func TestInit(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Init())
	assert.True(t, s.Exists())

	recs, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, recs)

	err = s.Init()
	require.Error(t, err)
	assert.True(t, audit.IsAlreadyExists(err))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	want := testRecords()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Unchanged data round-trips byte-for-byte.
	before, err := os.ReadFile(s.AuditPath())
	require.NoError(t, err)
	require.NoError(t, s.Save(got))
	after, err := os.ReadFile(s.AuditPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLoadRejectsMalformedTables(t *testing.T) {
	header := "rule_id,platform,scope,title,origin,hit,vio,err,skip,auto_skip,last_reviewed,status,evolve_slot\n"

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"wrong header", "rule_id,platform\nR-001,all\n"},
		{"non-integer counter", header + "R-001,all,Deploy,t,error,x,0,0,0,0,,active,0\n"},
		{"negative counter", header + "R-001,all,Deploy,t,error,-1,0,0,0,0,,active,0\n"},
		{"err above vio", header + "R-001,all,Deploy,t,error,1,0,2,0,0,,active,0\n"},
		{"bad status", header + "R-001,all,Deploy,t,error,1,0,0,0,0,,paused,0\n"},
		{"bad origin", header + "R-001,all,Deploy,t,wild,1,0,0,0,0,,active,0\n"},
		{"duplicate id", header + "R-001,all,Deploy,t,error,1,0,0,0,0,,active,0\nR-001,all,Deploy,t,error,1,0,0,0,0,,active,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
			require.NoError(t, os.WriteFile(s.AuditPath(), []byte(tt.content), 0o644))

			_, err := s.Load()
			require.Error(t, err)
			assert.True(t, audit.IsValidation(err), "got %v", err)
		})
	}
}

func TestSaveIsAtomic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.Save(testRecords()))

	// An invalid table never reaches disk.
	bad := testRecords()
	bad[0].Err = 99
	require.Error(t, s.Save(bad))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, testRecords(), got)

	// No temp leftovers.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestAppendArchive(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	archived, err := s.LoadArchive()
	require.NoError(t, err)
	assert.Empty(t, archived)

	first := testRecords()[0]
	first.Status = audit.StatusArchived
	require.NoError(t, s.AppendArchive([]audit.Record{first}))

	second := testRecords()[1]
	second.Status = audit.StatusArchived
	require.NoError(t, s.AppendArchive([]audit.Record{second}))

	archived, err = s.LoadArchive()
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, "R-001", archived[0].RuleID)
	assert.Equal(t, "S-001", archived[1].RuleID)
}

func TestPaths(t *testing.T) {
	s := New("/proj")
	assert.Equal(t, filepath.Join("/proj", "evolve", "audit.csv"), s.AuditPath())
	assert.Equal(t, filepath.Join("/proj", "evolve", "archived.csv"), s.ArchivePath())
	assert.Equal(t, filepath.Join("/proj", "evolve", "config.yaml"), s.ConfigPath())
	assert.Equal(t, filepath.Join("/proj", "evolve", "journal.db"), s.JournalPath())
	assert.Equal(t, filepath.Join("/proj", "EVOLVE.md"), s.PrimaryDocumentPath())
}
