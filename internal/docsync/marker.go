// Package docsync projects record state into external documents through
// marker-delimited managed blocks. Everything outside the markers stays
// byte-identical; block bodies are fully regenerated, never hand-patched.
// A block is rewritten only when its content digest changes, which makes
// repeated syncs over unchanged state exact no-ops.
package docsync

import (
	"fmt"
	"regexp"
	"strings"
)

// Marker lines. The begin marker carries the platform, the body digest,
// and the last-updated date; the digest deliberately excludes the date
// so an unchanged body never forces a rewrite.
const (
	blockEnd     = "<!-- evolve:block:end -->"
	selectionEnd = "<!-- evolve:selection:end -->"
)

var (
	blockBeginPattern     = regexp.MustCompile(`^<!-- evolve:block:begin platform=(\S+) digest=(\S+) updated=(\S+) -->$`)
	selectionBeginPattern = regexp.MustCompile(`^<!-- evolve:selection:begin digest=(\S+) updated=(\S+) -->$`)
)

func formatBlockBegin(platform, digest, updated string) string {
	return fmt.Sprintf("<!-- evolve:block:begin platform=%s digest=%s updated=%s -->", platform, digest, updated)
}

func formatSelectionBegin(digest, updated string) string {
	return fmt.Sprintf("<!-- evolve:selection:begin digest=%s updated=%s -->", digest, updated)
}

// block is one managed region located in a document.
type block struct {
	Platform string
	Digest   string
	Updated  string

	// Begin and End are line indexes of the marker lines.
	Begin, End int
}

// findBlock locates the managed block for a platform. Returns false when
// the document has no block for it. A begin marker without a matching
// end marker is treated as absent; the upsert appends a fresh block
// rather than guessing at the intended region.
func findBlock(lines []string, platform string) (block, bool) {
	for i, line := range lines {
		m := blockBeginPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil || m[1] != platform {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimRight(lines[j], "\r") == blockEnd {
				return block{Platform: m[1], Digest: m[2], Updated: m[3], Begin: i, End: j}, true
			}
		}
		return block{}, false
	}
	return block{}, false
}

// findSelection locates the selection block in the primary document.
func findSelection(lines []string) (block, bool) {
	for i, line := range lines {
		m := selectionBeginPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimRight(lines[j], "\r") == selectionEnd {
				return block{Digest: m[1], Updated: m[2], Begin: i, End: j}, true
			}
		}
		return block{}, false
	}
	return block{}, false
}

// markerPlatforms returns every platform that has a managed block begin
// marker anywhere in the document.
func markerPlatforms(text string) []string {
	var platforms []string
	for _, line := range strings.Split(text, "\n") {
		if m := blockBeginPattern.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			platforms = append(platforms, m[1])
		}
	}
	return platforms
}

// upsertRegion replaces the lines of an existing block (markers
// included) or appends a new block at the end of the document. The
// returned text differs from the input only inside the block.
func upsertRegion(text string, found block, ok bool, beginLine, body string, endLine string) string {
	blockLines := []string{beginLine}
	if body != "" {
		blockLines = append(blockLines, strings.Split(strings.TrimRight(body, "\n"), "\n")...)
	}
	blockLines = append(blockLines, endLine)

	if !ok {
		out := text
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		if out != "" {
			out += "\n"
		}
		return out + strings.Join(blockLines, "\n") + "\n"
	}

	lines := strings.Split(text, "\n")
	var out []string
	out = append(out, lines[:found.Begin]...)
	out = append(out, blockLines...)
	out = append(out, lines[found.End+1:]...)
	return strings.Join(out, "\n")
}
