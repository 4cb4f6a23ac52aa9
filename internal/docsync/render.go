package docsync

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/canonical"
)

// MetricsTag renders the inline counter tag appended to rule lines, with
// escalation tags when thresholds are met.
func MetricsTag(r audit.Record) string {
	tag := fmt.Sprintf("{hit %d vio %d err %d}", r.Hit, r.Vio, r.Err)
	for _, t := range audit.Tags(r) {
		tag += fmt.Sprintf(" [%s]", t)
	}
	return tag
}

// ruleLine renders one rule entry of a managed block body.
func ruleLine(r audit.Record) string {
	return fmt.Sprintf("- %s (%s) %s %s", r.RuleID, r.Scope, r.Title, MetricsTag(r))
}

// RenderBlockBody renders the managed block body for a platform: every
// active or protected rule relevant to it, sorted by rule id. The body
// is a pure function of record state, which is what makes the digest
// comparison meaningful.
func RenderBlockBody(recs []audit.Record, platform string) string {
	var relevant []audit.Record
	for _, r := range recs {
		if r.Status != audit.StatusActive && r.Status != audit.StatusProtected {
			continue
		}
		if !audit.MatchPlatform(r, platform) {
			continue
		}
		relevant = append(relevant, r)
	}
	sort.Slice(relevant, func(i, j int) bool { return relevant[i].RuleID < relevant[j].RuleID })

	var b strings.Builder
	fmt.Fprintf(&b, "Rules projected for %s. Edit the audit table, not this block.\n", platform)
	if len(relevant) == 0 {
		b.WriteString("\n(no applicable rules)\n")
		return b.String()
	}
	b.WriteString("\n")
	for _, r := range relevant {
		b.WriteString(ruleLine(r))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSelectionBody renders the audit-selected rules body for the
// primary document: rules with a non-zero evolve_slot, in slot order.
func RenderSelectionBody(recs []audit.Record) string {
	var selected []audit.Record
	for _, r := range recs {
		if r.EvolveSlot > 0 && r.Status != audit.StatusArchived {
			selected = append(selected, r)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].EvolveSlot != selected[j].EvolveSlot {
			return selected[i].EvolveSlot < selected[j].EvolveSlot
		}
		return selected[i].RuleID < selected[j].RuleID
	})

	if len(selected) == 0 {
		return "No rules selected. Run the report and select suggestion numbers.\n"
	}

	var b strings.Builder
	for i, r := range selected {
		fmt.Fprintf(&b, "%d. %s (%s) %s\n", i+1, r.RuleID, r.Scope, r.Title)
	}
	return b.String()
}

// BlockDigest computes the content digest carried in a block's begin
// marker. The payload binds the platform so identical bodies for
// different platforms never share a digest.
func BlockDigest(platform, body string) (string, error) {
	return canonical.Digest(canonical.DomainBlock, map[string]any{
		"platform": platform,
		"body":     body,
	})
}

// SelectionDigest computes the digest of the selection block body.
func SelectionDigest(body string) (string, error) {
	return canonical.Digest(canonical.DomainSelection, map[string]any{
		"body": body,
	})
}

// inlineTagPattern matches a previously upserted metrics tag at the end
// of a line, escalation tags included.
var inlineTagPattern = regexp.MustCompile(`\s*\{hit \d+ vio \d+ err \d+\}(\s*\[[a-z-]+\])*\s*$`)

// UpsertInlineTags performs the targeted line upsert on the primary
// document: for every line carrying a rule id token, the trailing
// metrics tag is replaced (or appended) while the rest of the line and
// all other content stay untouched. Lines inside managed blocks are
// skipped; those bodies are regenerated wholesale. Returns the new text
// and the number of lines touched.
func UpsertInlineTags(text string, recs []audit.Record) (string, int) {
	byID := make(map[string]audit.Record, len(recs))
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.Status == audit.StatusArchived {
			continue
		}
		byID[r.RuleID] = r
		ids = append(ids, r.RuleID)
	}
	// Longest first so S-10 never matches a line carrying S-101.
	sort.Slice(ids, func(i, j int) bool { return len(ids[i]) > len(ids[j]) })

	lines := strings.Split(text, "\n")
	touched := 0
	inBlock := false
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if blockBeginPattern.MatchString(trimmed) || selectionBeginPattern.MatchString(trimmed) {
			inBlock = true
			continue
		}
		if trimmed == blockEnd || trimmed == selectionEnd {
			inBlock = false
			continue
		}
		if inBlock {
			continue
		}

		for _, id := range ids {
			if !containsToken(trimmed, id) {
				continue
			}
			base := inlineTagPattern.ReplaceAllString(trimmed, "")
			updated := base + " " + MetricsTag(byID[id])
			if updated != trimmed {
				lines[i] = updated
				touched++
			}
			break
		}
	}
	return strings.Join(lines, "\n"), touched
}

// containsToken reports whether a line carries id as a standalone token,
// not as a prefix of a longer rule id.
func containsToken(line, id string) bool {
	for start := 0; ; {
		idx := strings.Index(line[start:], id)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(id)
		beforeOK := idx == 0 || !isIDChar(line[idx-1])
		afterOK := end == len(line) || !isIDChar(line[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isIDChar(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
