package store

import (
	"strconv"

	"github.com/roach88/evolve/internal/audit"
)

// header is the canonical column order. Every table written by this
// package uses exactly this header, and unchanged data round-trips
// byte-for-byte.
var header = []string{
	"rule_id", "platform", "scope", "title", "origin",
	"hit", "vio", "err", "skip", "auto_skip",
	"last_reviewed", "status", "evolve_slot",
}

// marshalRecord converts a record to one CSV row in header order.
func marshalRecord(r audit.Record) []string {
	return []string{
		r.RuleID,
		r.Platform,
		r.Scope,
		r.Title,
		string(r.Origin),
		strconv.Itoa(r.Hit),
		strconv.Itoa(r.Vio),
		strconv.Itoa(r.Err),
		strconv.Itoa(r.Skip),
		strconv.Itoa(r.AutoSkip),
		r.LastReviewed,
		string(r.Status),
		strconv.Itoa(r.EvolveSlot),
	}
}

// unmarshalRecord converts one CSV row back into a record. rowNum is the
// 1-based data row number, used only for error messages. Counter parsing
// rejects anything that is not a plain non-negative decimal; record-level
// invariants are checked afterwards by audit.Record.Validate.
func unmarshalRecord(row []string, rowNum int) (audit.Record, error) {
	if len(row) != len(header) {
		return audit.Record{}, audit.NewValidationError("", "",
			"row %d has %d columns, want %d", rowNum, len(row), len(header))
	}

	r := audit.Record{
		RuleID:       row[0],
		Platform:     row[1],
		Scope:        row[2],
		Title:        row[3],
		Origin:       audit.Origin(row[4]),
		LastReviewed: row[10],
		Status:       audit.Status(row[11]),
	}

	for _, c := range []struct {
		name string
		raw  string
		dst  *int
	}{
		{"hit", row[5], &r.Hit},
		{"vio", row[6], &r.Vio},
		{"err", row[7], &r.Err},
		{"skip", row[8], &r.Skip},
		{"auto_skip", row[9], &r.AutoSkip},
		{"evolve_slot", row[12], &r.EvolveSlot},
	} {
		n, err := strconv.Atoi(c.raw)
		if err != nil {
			return audit.Record{}, audit.NewValidationError(r.RuleID, c.name,
				"row %d: %s is not an integer: %q", rowNum, c.name, c.raw)
		}
		*c.dst = n
	}

	return r, nil
}
