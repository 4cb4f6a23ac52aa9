package docsync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectBlocks(t *testing.T) {
	s, _ := newTestSyncer(t)
	recs := syncRecords()

	// Before any sync: documents missing, blocks absent.
	statuses, err := s.InspectBlocks(recs)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.False(t, st.DocExists)
		assert.False(t, st.HasBlock)
		assert.False(t, st.Fresh)
	}

	_, err = s.SyncPlatforms(recs, "", false)
	require.NoError(t, err)

	statuses, err = s.InspectBlocks(recs)
	require.NoError(t, err)
	for _, st := range statuses {
		assert.True(t, st.DocExists, "platform %s", st.Platform)
		assert.True(t, st.HasBlock, "platform %s", st.Platform)
		assert.True(t, st.Fresh, "platform %s", st.Platform)
	}

	// Counter drift makes the claude block stale without touching disk.
	recs[1].Hit++
	statuses, err = s.InspectBlocks(recs)
	require.NoError(t, err)
	byPlatform := map[string]BlockStatus{}
	for _, st := range statuses {
		byPlatform[st.Platform] = st
	}
	assert.False(t, byPlatform["claude"].Fresh)
	assert.True(t, byPlatform["gemini"].Fresh)
}

func TestInlineTagsStale(t *testing.T) {
	s, root := newTestSyncer(t)
	recs := syncRecords()

	// Missing document is not stale.
	stale, err := s.InlineTagsStale(recs, "EVOLVE.md")
	require.NoError(t, err)
	assert.False(t, stale)

	path := filepath.Join(root, "EVOLVE.md")
	require.NoError(t, os.WriteFile(path, []byte("- R-001 note {hit 0 vio 0 err 0}\n"), 0o644))

	stale, err = s.InlineTagsStale(recs, "EVOLVE.md")
	require.NoError(t, err)
	assert.True(t, stale)

	_, err = s.SyncPrimary(recs, "EVOLVE.md", false)
	require.NoError(t, err)

	stale, err = s.InlineTagsStale(recs, "EVOLVE.md")
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestScanRuleIDRefs(t *testing.T) {
	s, root := newTestSyncer(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "EVOLVE.md"),
		[]byte("- R-001 mentioned here\n- R-404 dangling mention\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "CLAUDE.md"),
		[]byte("see R-001 and S-001\n"), 0o644))

	refs, err := s.ScanRuleIDRefs()
	require.NoError(t, err)
	assert.Equal(t, []string{"CLAUDE.md", "EVOLVE.md"}, refs["R-001"])
	assert.Equal(t, []string{"EVOLVE.md"}, refs["R-404"])
	assert.Equal(t, []string{"CLAUDE.md"}, refs["S-001"])
}
