package docsync

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/evolve/internal/audit"
)

// BlockStatus is the read-only state of one platform's managed block,
// used by the health evaluator.
type BlockStatus struct {
	Platform  string
	Path      string
	DocExists bool
	HasBlock  bool

	// Fresh reports whether the stored digest matches a render from
	// current record state.
	Fresh bool
}

// InspectBlocks reports, without writing anything, whether each target
// platform's managed block exists and is digest-fresh.
func (s *Syncer) InspectBlocks(recs []audit.Record) ([]BlockStatus, error) {
	platforms, markerHomes, err := s.Discover(recs)
	if err != nil {
		return nil, err
	}

	var statuses []BlockStatus
	for _, platform := range platforms {
		rel := s.TargetPath(platform, markerHomes)
		text, exists, err := readDocument(filepath.Join(s.root, rel))
		if err != nil {
			return nil, err
		}
		st := BlockStatus{Platform: platform, Path: rel, DocExists: exists}
		if exists {
			if found, ok := findBlock(splitLines(text), platform); ok {
				st.HasBlock = true
				body := RenderBlockBody(recs, platform)
				digest, err := BlockDigest(platform, body)
				if err != nil {
					return nil, err
				}
				st.Fresh = found.Digest == digest
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// InlineTagsStale reports whether the primary document carries any rule
// line whose inline tag no longer matches current record state.
func (s *Syncer) InlineTagsStale(recs []audit.Record, primaryRel string) (bool, error) {
	text, exists, err := readDocument(filepath.Join(s.root, primaryRel))
	if err != nil || !exists {
		return false, err
	}
	_, touched := UpsertInlineTags(text, recs)
	return touched > 0, nil
}

var ruleIDPattern = regexp.MustCompile(`\b[RS]-[0-9]+\b`)

// ScanRuleIDRefs collects every rule-id token mentioned across the
// configured documents, mapped to the files mentioning it. Used to
// detect dangling references to rules that no longer exist.
func (s *Syncer) ScanRuleIDRefs() (map[string][]string, error) {
	fsys := os.DirFS(s.root)

	refs := make(map[string][]string)
	seen := make(map[string]bool)
	for _, pattern := range s.cfg.DocumentGlobs {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, audit.NewUsageError("bad document glob %q: %v", pattern, err)
		}
		for _, rel := range matches {
			if seen[rel] {
				continue
			}
			seen[rel] = true
			data, err := fs.ReadFile(fsys, rel)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, audit.WrapIOError(err, "scan %s", rel)
			}
			for _, id := range ruleIDPattern.FindAllString(string(data), -1) {
				files := refs[id]
				if len(files) == 0 || files[len(files)-1] != rel {
					refs[id] = append(files, rel)
				}
			}
		}
	}
	for id := range refs {
		sort.Strings(refs[id])
	}
	return refs, nil
}
