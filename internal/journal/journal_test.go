package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(context.Background(), "2026-08-01", []Entry{
		{Kind: KindScore, RuleID: "R-001", Op: "hit"},
	}))
	require.NoError(t, j.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	entries, err := j2.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "R-001", entries[0].RuleID)
}

func TestAppendAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "2026-08-01", []Entry{
		{Kind: KindScore, RuleID: "R-001", Op: "hit"},
		{Kind: KindScore, RuleID: "R-002", Op: "vio"},
	}))
	require.NoError(t, j.Append(ctx, "2026-08-02", []Entry{
		{Kind: KindTransition, RuleID: "R-002", Op: "active->review", Detail: "skip threshold"},
	}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "2026-08-02", entries[0].OccurredAt)
	assert.Equal(t, KindTransition, entries[0].Kind)
	assert.Equal(t, "skip threshold", entries[0].Detail)

	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		occurred := fmt.Sprintf("2026-08-%02d", day)
		require.NoError(t, j.Append(ctx, occurred, []Entry{
			{Kind: KindScore, RuleID: "R-001", Op: "hit"},
		}))
	}

	entries, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-08-05", entries[0].OccurredAt)
	assert.Equal(t, "2026-08-04", entries[1].OccurredAt)
}

func TestAppendEmptyIsNoop(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.Append(context.Background(), "2026-08-01", nil))

	entries, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
