package docsync

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/evolve/internal/audit"
)

// KnownPlatformFiles maps well-known platforms to their conventional
// document at the project root. The set is advisory, not closed: any
// platform appearing in an S- row or an existing marker is a target too.
var KnownPlatformFiles = map[string]string{
	"claude": "CLAUDE.md",
	"codex":  "AGENTS.md",
	"gemini": "GEMINI.md",
	"cursor": "CURSOR.md",
}

// Discover computes the full target platform set: the union of known
// platforms whose document exists, platforms observed in S- rows,
// platforms with an existing managed block in any scanned document, and
// platforms named in the configuration map. The generic "all" label is
// never a target. Returns the sorted platform list plus the document
// each marker-discovered platform was found in.
func (s *Syncer) Discover(recs []audit.Record) ([]string, map[string]string, error) {
	platforms := make(map[string]bool)

	for platform, file := range KnownPlatformFiles {
		if _, err := os.Stat(filepath.Join(s.root, file)); err == nil {
			platforms[platform] = true
		}
	}

	for _, r := range recs {
		if !r.IsPlatformRule() {
			continue
		}
		if p := audit.CanonicalPlatform(r.Platform); p != audit.PlatformAll {
			platforms[p] = true
		}
	}

	for platform := range s.cfg.PlatformFiles {
		if p := audit.CanonicalPlatform(platform); p != audit.PlatformAll {
			platforms[p] = true
		}
	}

	markerHomes, err := s.scanMarkers()
	if err != nil {
		return nil, nil, err
	}
	for platform := range markerHomes {
		platforms[platform] = true
	}

	out := make([]string, 0, len(platforms))
	for p := range platforms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, markerHomes, nil
}

// scanMarkers globs the configured document patterns and returns, per
// platform, the first document (in path order) already carrying its
// managed block.
func (s *Syncer) scanMarkers() (map[string]string, error) {
	fsys := os.DirFS(s.root)

	var paths []string
	seen := make(map[string]bool)
	for _, pattern := range s.cfg.DocumentGlobs {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, audit.NewUsageError("bad document glob %q: %v", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	homes := make(map[string]string)
	for _, rel := range paths {
		data, err := fs.ReadFile(fsys, rel)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, audit.WrapIOError(err, "scan %s", rel)
		}
		for _, platform := range markerPlatforms(string(data)) {
			if _, ok := homes[platform]; !ok {
				homes[platform] = rel
			}
		}
	}
	return homes, nil
}

// TargetPath resolves the destination document for a platform, relative
// to the project root. Precedence: configured mapping, then the document
// already carrying the platform's block, then the known-platform map,
// then the uppercased platform name with the standard extension.
func (s *Syncer) TargetPath(platform string, markerHomes map[string]string) string {
	if file, ok := s.cfg.PlatformFiles[platform]; ok {
		return file
	}
	if file, ok := markerHomes[platform]; ok {
		return file
	}
	if file, ok := KnownPlatformFiles[platform]; ok {
		return file
	}
	return strings.ToUpper(platform) + ".md"
}
