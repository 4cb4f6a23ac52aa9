package docsync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evolve/internal/config"
)

const testToday = "2026-08-01"

func newTestSyncer(t *testing.T) (*Syncer, string) {
	t.Helper()
	root := t.TempDir()
	return New(root, config.Default(), testToday), root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSyncPlatforms_CreatesDocuments(t *testing.T) {
	s, root := newTestSyncer(t)

	changes, err := s.SyncPlatforms(syncRecords(), "", false)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	byPlatform := map[string]Change{}
	for _, c := range changes {
		byPlatform[c.Platform] = c
	}
	assert.True(t, byPlatform["claude"].Created)
	assert.True(t, byPlatform["claude"].Updated)
	assert.Equal(t, "CLAUDE.md", byPlatform["claude"].Path)
	assert.Equal(t, "GEMINI.md", byPlatform["gemini"].Path)

	text := readFile(t, filepath.Join(root, "CLAUDE.md"))
	assert.Contains(t, text, "evolve:block:begin platform=claude")
	assert.Contains(t, text, "updated="+testToday)
	assert.Contains(t, text, "- S-001 (Deploy) Check build output")
	assert.Contains(t, text, blockEnd)
}

func TestSyncPlatforms_Idempotent(t *testing.T) {
	s, root := newTestSyncer(t)

	_, err := s.SyncPlatforms(syncRecords(), "", false)
	require.NoError(t, err)
	before := readFile(t, filepath.Join(root, "CLAUDE.md"))

	// A later day changes nothing when the body is unchanged; the
	// updated stamp stays put because the digest matches.
	later := New(root, config.Default(), "2026-08-15")
	changes, err := later.SyncPlatforms(syncRecords(), "", false)
	require.NoError(t, err)
	for _, c := range changes {
		assert.False(t, c.Updated, "platform %s", c.Platform)
	}
	assert.Equal(t, before, readFile(t, filepath.Join(root, "CLAUDE.md")))
}

func TestSyncPlatforms_PreservesSurroundingText(t *testing.T) {
	s, root := newTestSyncer(t)
	path := filepath.Join(root, "CLAUDE.md")

	original := strings.Join([]string{
		"# Project notes",
		"",
		"Hand-written guidance stays put.",
		"",
		"<!-- evolve:block:begin platform=claude digest=stale0stale0 updated=2026-01-01 -->",
		"- R-999 (Old) outdated body",
		"<!-- evolve:block:end -->",
		"",
		"Trailing prose also stays.",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	changes, err := s.SyncPlatforms(syncRecords(), "claude", false)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Updated)
	assert.False(t, changes[0].Created)

	text := readFile(t, path)
	assert.True(t, strings.HasPrefix(text, "# Project notes\n\nHand-written guidance stays put.\n"))
	assert.Contains(t, text, "Trailing prose also stays.")
	assert.NotContains(t, text, "R-999")
	assert.Contains(t, text, "- R-001 (Deploy/Docker) Pin image tags")

	// One block, rewritten in place.
	assert.Equal(t, 1, strings.Count(text, "evolve:block:begin"))
}

func TestSyncPlatforms_DryRun(t *testing.T) {
	s, root := newTestSyncer(t)

	changes, err := s.SyncPlatforms(syncRecords(), "claude", true)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Updated)
	assert.NotEmpty(t, changes[0].Diff)
	assert.Contains(t, changes[0].Diff, "+<!-- evolve:block:begin platform=claude")

	_, err = os.Stat(filepath.Join(root, "CLAUDE.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestSyncPrimary_CreatesDocument(t *testing.T) {
	s, root := newTestSyncer(t)

	change, err := s.SyncPrimary(syncRecords(), "EVOLVE.md", false)
	require.NoError(t, err)
	assert.True(t, change.Created)
	assert.True(t, change.Updated)

	text := readFile(t, filepath.Join(root, "EVOLVE.md"))
	assert.True(t, strings.HasPrefix(text, "# Evolve Rules\n"))
	assert.Contains(t, text, "evolve:selection:begin")
	assert.Contains(t, text, "1. S-001 (Deploy) Check build output")
	assert.Contains(t, text, "2. R-002 (Testing) Run tests before commit")
	assert.Contains(t, text, selectionEnd)
}

func TestSyncPrimary_Idempotent(t *testing.T) {
	s, root := newTestSyncer(t)

	_, err := s.SyncPrimary(syncRecords(), "EVOLVE.md", false)
	require.NoError(t, err)
	before := readFile(t, filepath.Join(root, "EVOLVE.md"))

	later := New(root, config.Default(), "2026-08-15")
	change, err := later.SyncPrimary(syncRecords(), "EVOLVE.md", false)
	require.NoError(t, err)
	assert.False(t, change.Updated)
	assert.Equal(t, before, readFile(t, filepath.Join(root, "EVOLVE.md")))
}

func TestSyncPrimary_UpsertsInlineTags(t *testing.T) {
	s, root := newTestSyncer(t)
	path := filepath.Join(root, "EVOLVE.md")

	original := strings.Join([]string{
		"# Evolve Rules",
		"",
		"- R-001 (Deploy/Docker) Pin image tags {hit 0 vio 0 err 0}",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	change, err := s.SyncPrimary(syncRecords(), "EVOLVE.md", false)
	require.NoError(t, err)
	assert.True(t, change.Updated)
	assert.False(t, change.Created)

	text := readFile(t, path)
	assert.Contains(t, text, "- R-001 (Deploy/Docker) Pin image tags {hit 5 vio 1 err 0}")
	assert.NotContains(t, text, "{hit 0 vio 0 err 0}")
}

func TestSyncPrimary_SelectionChangeRewritesBlock(t *testing.T) {
	s, root := newTestSyncer(t)

	recs := syncRecords()
	_, err := s.SyncPrimary(recs, "EVOLVE.md", false)
	require.NoError(t, err)

	// Swap the selection order and sync again.
	for i := range recs {
		switch recs[i].RuleID {
		case "S-001":
			recs[i].EvolveSlot = 2
		case "R-002":
			recs[i].EvolveSlot = 1
		}
	}
	change, err := s.SyncPrimary(recs, "EVOLVE.md", false)
	require.NoError(t, err)
	assert.True(t, change.Updated)

	text := readFile(t, filepath.Join(root, "EVOLVE.md"))
	assert.Contains(t, text, "1. R-002 (Testing) Run tests before commit")
	assert.Contains(t, text, "2. S-001 (Deploy) Check build output")
	assert.Equal(t, 1, strings.Count(text, "evolve:selection:begin"))
}
