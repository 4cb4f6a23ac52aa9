// Package store persists rule records as a flat CSV table under the
// project's evolve/ directory. The table is the canonical interchange
// format: stable column order, strict load-or-fail validation, atomic
// replace on save. Documents only ever hold projections of it.
package store

import (
	"os"
	"path/filepath"

	"github.com/roach88/evolve/internal/audit"
)

// Project layout under the root.
const (
	DirName     = "evolve"
	AuditFile   = "audit.csv"
	ArchiveFile = "archived.csv"
	ConfigFile  = "config.yaml"
	JournalFile = "journal.db"

	// PrimaryDocument is the aggregation document at the project root.
	PrimaryDocument = "EVOLVE.md"
)

// Store locates the audit table and its sibling artifacts for one project.
type Store struct {
	root string
}

// New creates a Store rooted at the given project directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the project root directory.
func (s *Store) Root() string { return s.root }

// Dir returns the evolve/ directory path.
func (s *Store) Dir() string { return filepath.Join(s.root, DirName) }

// AuditPath returns the path of the active record table.
func (s *Store) AuditPath() string { return filepath.Join(s.Dir(), AuditFile) }

// ArchivePath returns the path of the archive artifact.
func (s *Store) ArchivePath() string { return filepath.Join(s.Dir(), ArchiveFile) }

// ConfigPath returns the path of the project configuration file.
func (s *Store) ConfigPath() string { return filepath.Join(s.Dir(), ConfigFile) }

// JournalPath returns the path of the mutation journal database.
func (s *Store) JournalPath() string { return filepath.Join(s.Dir(), JournalFile) }

// PrimaryDocumentPath returns the path of the primary aggregation document.
func (s *Store) PrimaryDocumentPath() string {
	return filepath.Join(s.root, PrimaryDocument)
}

// Exists reports whether an audit table is already present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.AuditPath())
	return err == nil
}

// Init creates the evolve/ directory and an audit table holding the
// canonical header and zero data rows. Fails with ALREADY_EXISTS if a
// table is present; an existing store is never silently overwritten.
func (s *Store) Init() error {
	if s.Exists() {
		return audit.NewAlreadyExistsError(s.AuditPath())
	}
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return audit.WrapIOError(err, "create %s", s.Dir())
	}
	return s.Save(nil)
}
