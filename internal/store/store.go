// Package store locates the .planning directory and names the documents
// inside it.
package store

import (
	"os"
	"path/filepath"

	"github.com/jorge-barreto/pstate/internal/planerr"
)

const DirName = ".planning"

// Store is a project's planning directory.
type Store struct {
	Root string // project directory containing .planning/
	Dir  string // the .planning directory itself
}

// Find walks up from start looking for a .planning directory.
func Find(start string) (*Store, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return &Store{Root: dir, Dir: candidate}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, planerr.NotFound(".planning directory")
		}
		dir = parent
	}
}

func (s *Store) RoadmapPath() string      { return filepath.Join(s.Dir, "ROADMAP.md") }
func (s *Store) StatePath() string        { return filepath.Join(s.Dir, "STATE.md") }
func (s *Store) RequirementsPath() string { return filepath.Join(s.Dir, "REQUIREMENTS.md") }
func (s *Store) PhasesDir() string        { return filepath.Join(s.Dir, "phases") }
func (s *Store) LogsDir() string          { return filepath.Join(s.Dir, "logs") }

// Rel returns path relative to the project root, for messages.
func (s *Store) Rel(path string) string {
	if rel, err := filepath.Rel(s.Root, path); err == nil {
		return rel
	}
	return path
}
