package store

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/roach88/evolve/internal/audit"
)

// Load reads and validates the full audit table. Loading either fully
// succeeds or fully fails: any missing column, malformed counter,
// duplicate rule id, or record-level invariant violation aborts with a
// VALIDATION_FAILED error naming the offending row and field, and no
// partial table is ever returned.
func (s *Store) Load() ([]audit.Record, error) {
	return readTable(s.AuditPath())
}

// LoadArchive reads the archive artifact. A missing archive is an empty
// one: archiving is lazy, the file appears with the first archived row.
func (s *Store) LoadArchive() ([]audit.Record, error) {
	if _, err := os.Stat(s.ArchivePath()); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return readTable(s.ArchivePath())
}

func readTable(path string) ([]audit.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, audit.WrapIOError(err, "open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, audit.NewValidationError("", "", "%s is empty, header missing", path)
	}
	if err != nil {
		return nil, audit.WrapIOError(err, "read header of %s", path)
	}
	if err := checkHeader(head); err != nil {
		return nil, err
	}

	var recs []audit.Record
	seen := make(map[string]bool)
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, audit.WrapIOError(err, "read row %d of %s", rowNum, path)
		}
		rec, err := unmarshalRecord(row, rowNum)
		if err != nil {
			return nil, err
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if seen[rec.RuleID] {
			return nil, audit.NewValidationError(rec.RuleID, "rule_id",
				"row %d: duplicate rule_id %s", rowNum, rec.RuleID)
		}
		seen[rec.RuleID] = true
		recs = append(recs, rec)
	}
	return recs, nil
}

func checkHeader(head []string) error {
	if len(head) != len(header) {
		return audit.NewValidationError("", "",
			"header has %d columns, want %d", len(head), len(header))
	}
	for i, col := range header {
		if head[i] != col {
			return audit.NewValidationError("", col,
				"header column %d is %q, want %q", i+1, head[i], col)
		}
	}
	return nil
}
