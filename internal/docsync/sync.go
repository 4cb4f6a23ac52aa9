package docsync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/config"
)

// Syncer merges record projections into the project's documents.
// Callers must have durably saved the record store before syncing; a
// document is never updated from state that failed to persist.
type Syncer struct {
	root  string
	cfg   config.Config
	today string
}

// New creates a Syncer for the project root. today stamps rewritten
// marker lines.
func New(root string, cfg config.Config, today string) *Syncer {
	return &Syncer{root: root, cfg: cfg, today: today}
}

// Change describes the outcome for one document.
type Change struct {
	Path     string `json:"path"`
	Platform string `json:"platform,omitempty"`
	Created  bool   `json:"created,omitempty"`
	Updated  bool   `json:"updated"`
	Diff     string `json:"diff,omitempty"`
}

// SyncPlatforms upserts the managed block of every discovered platform,
// or of only one when restricted. With dryRun no file is written; each
// would-be change carries a unified diff instead.
func (s *Syncer) SyncPlatforms(recs []audit.Record, only string, dryRun bool) ([]Change, error) {
	platforms, markerHomes, err := s.Discover(recs)
	if err != nil {
		return nil, err
	}
	if only != "" {
		only = audit.CanonicalPlatform(only)
	}

	var changes []Change
	for _, platform := range platforms {
		if only != "" && platform != only {
			continue
		}

		rel := s.TargetPath(platform, markerHomes)
		path := filepath.Join(s.root, rel)
		before, exists, err := readDocument(path)
		if err != nil {
			return nil, err
		}

		body := RenderBlockBody(recs, platform)
		digest, err := BlockDigest(platform, body)
		if err != nil {
			return nil, fmt.Errorf("digest for %s: %w", platform, err)
		}

		after := upsertBlock(before, platform, body, digest, s.today)
		change := Change{Path: rel, Platform: platform, Created: !exists, Updated: after != before}
		if change.Updated {
			if dryRun {
				change.Diff = unifiedDiff(rel, before, after)
			} else if err := os.WriteFile(path, []byte(after), 0o644); err != nil {
				return nil, audit.WrapIOError(err, "write %s", rel)
			}
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// SyncPrimary projects record state into the primary aggregation
// document: the targeted inline tag upsert on existing rule lines plus
// the selection block. Hand-written prose outside tags and markers is
// preserved byte-for-byte.
func (s *Syncer) SyncPrimary(recs []audit.Record, primaryRel string, dryRun bool) (Change, error) {
	path := filepath.Join(s.root, primaryRel)
	before, exists, err := readDocument(path)
	if err != nil {
		return Change{}, err
	}

	after := before
	if !exists {
		after = "# Evolve Rules\n"
	}

	after, _ = UpsertInlineTags(after, recs)

	body := RenderSelectionBody(recs)
	digest, err := SelectionDigest(body)
	if err != nil {
		return Change{}, fmt.Errorf("selection digest: %w", err)
	}
	found, ok := findSelection(splitLines(after))
	if !ok || found.Digest != digest {
		after = upsertRegion(after, found, ok,
			formatSelectionBegin(digest, s.today), body, selectionEnd)
	}

	change := Change{Path: primaryRel, Created: !exists, Updated: after != before}
	if change.Updated {
		if dryRun {
			change.Diff = unifiedDiff(primaryRel, before, after)
		} else if err := os.WriteFile(path, []byte(after), 0o644); err != nil {
			return Change{}, audit.WrapIOError(err, "write %s", primaryRel)
		}
	}
	return change, nil
}

// upsertBlock rewrites a platform's managed block only when the digest
// changed. An up-to-date block leaves the document byte-identical, date
// stamp included.
func upsertBlock(text, platform, body, digest, today string) string {
	found, ok := findBlock(splitLines(text), platform)
	if ok && found.Digest == digest {
		return text
	}
	return upsertRegion(text, found, ok,
		formatBlockBegin(platform, digest, today), body, blockEnd)
}

func readDocument(path string) (text string, exists bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, audit.WrapIOError(err, "read %s", path)
	}
	return string(data), true, nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := make([]string, 0, 64)
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	lines = append(lines, text[start:])
	return lines
}

func unifiedDiff(path, before, after string) string {
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(path+" (current)", path+" (synced)", before, edits))
}
