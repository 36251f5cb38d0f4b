// Package state reads and edits STATE.md, the single mutable record of
// where the project is: current phase and plan, status, decisions,
// blockers, and session continuity notes.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/lock"
	"github.com/jorge-barreto/pstate/internal/planerr"
)

const FileName = "STATE.md"

// Document is a loaded STATE.md. Edits are made in memory and written back
// with Save, which refuses to overwrite a file that changed on disk since
// Load.
type Document struct {
	path    string
	text    string
	version [32]byte
	existed bool
}

// Path returns the STATE.md path inside a planning directory.
func Path(planningDir string) string {
	return filepath.Join(planningDir, FileName)
}

// Load reads STATE.md. A missing file is a NotFoundError.
func Load(planningDir string) (*Document, error) {
	path := Path(planningDir)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, planerr.NotFound("STATE.md")
	}
	if err != nil {
		return nil, err
	}
	return &Document{path: path, text: string(data), version: blake3.Sum256(data), existed: true}, nil
}

// Parse wraps text that was not read from disk.
func Parse(text string) *Document {
	return &Document{text: text, version: blake3.Sum256([]byte(text))}
}

func (d *Document) Text() string { return d.text }

// Changed reports whether the document was edited since it was loaded.
func (d *Document) Changed() bool {
	return blake3.Sum256([]byte(d.text)) != d.version
}

// Save writes the document back atomically. It fails with a BusyError if
// the file on disk no longer matches what was loaded.
func (d *Document) Save() error {
	if d.path == "" {
		return fmt.Errorf("state: document has no path")
	}
	data, err := os.ReadFile(d.path)
	switch {
	case err == nil:
		if !d.existed || blake3.Sum256(data) != d.version {
			return planerr.Busy(FileName, "modified by another writer since it was read")
		}
	case errors.Is(err, fs.ErrNotExist):
		if d.existed {
			return planerr.Busy(FileName, "removed by another writer since it was read")
		}
	default:
		return err
	}
	if err := atomicfile.Write(d.path, []byte(d.text)); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	d.version = blake3.Sum256([]byte(d.text))
	d.existed = true
	return nil
}

// Update loads STATE.md under its lock, applies fn, and saves the result if
// fn changed anything.
func Update(locks *lock.Manager, planningDir string, fn func(d *Document) error) error {
	return locks.WithLock(Path(planningDir), func() error {
		d, err := Load(planningDir)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		if !d.Changed() {
			return nil
		}
		return d.Save()
	})
}
