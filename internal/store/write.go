package store

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"

	"github.com/roach88/evolve/internal/audit"
)

// Save validates and writes the full table. The write is atomic: the
// table is rendered to a temporary file in the same directory and
// renamed over the destination, so a crash mid-write never corrupts the
// existing store.
func (s *Store) Save(recs []audit.Record) error {
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.RuleID] {
			return audit.NewValidationError(r.RuleID, "rule_id", "duplicate rule_id %s", r.RuleID)
		}
		seen[r.RuleID] = true
	}
	return writeTable(s.AuditPath(), recs)
}

// AppendArchive appends records to the archive artifact, creating it
// with the canonical header on first use. Archived rows keep their
// identity for historical lookup; the archive is append-only.
func (s *Store) AppendArchive(recs []audit.Record) error {
	if len(recs) == 0 {
		return nil
	}
	path := s.ArchivePath()
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return audit.WrapIOError(err, "open %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return audit.WrapIOError(err, "write header of %s", path)
		}
	}
	for _, r := range recs {
		if err := w.Write(marshalRecord(r)); err != nil {
			return audit.WrapIOError(err, "append to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return audit.WrapIOError(err, "flush %s", path)
	}
	return f.Close()
}

func writeTable(path string, recs []audit.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return audit.WrapIOError(err, "create temp file for %s", path)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return audit.WrapIOError(err, "write header of %s", path)
	}
	for _, r := range recs {
		if err := w.Write(marshalRecord(r)); err != nil {
			tmp.Close()
			return audit.WrapIOError(err, "write row %s", r.RuleID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return audit.WrapIOError(err, "flush %s", path)
	}
	if err := tmp.Close(); err != nil {
		return audit.WrapIOError(err, "close temp file for %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return audit.WrapIOError(err, "replace %s", path)
	}
	return nil
}
