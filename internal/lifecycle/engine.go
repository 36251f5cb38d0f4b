// Package lifecycle adds, inserts, removes and completes phases. Each
// operation keeps ROADMAP.md, STATE.md, REQUIREMENTS.md and the phases
// directory in step, holding the locks on all three documents (always in
// that order) for the whole update.
package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/lock"
	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/requirements"
	"github.com/jorge-barreto/pstate/internal/roadmap"
	"github.com/jorge-barreto/pstate/internal/state"
	"github.com/jorge-barreto/pstate/internal/store"
)

// Engine runs phase operations against one planning store.
type Engine struct {
	Store *store.Store
	Locks *lock.Manager
	Log   *slog.Logger
	Now   func() time.Time
}

func New(s *store.Store, locks *lock.Manager, log *slog.Logger) *Engine {
	return &Engine{Store: s, Locks: locks, Log: log, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Engine) today() string {
	return e.now().Format("2006-01-02")
}

func (e *Engine) log() *slog.Logger {
	if e.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Log
}

// docs is the working set of one locked operation. State and Reqs are nil
// when the store has no such file.
type docs struct {
	Roadmap *roadmap.Roadmap
	State   *state.Document
	Reqs    *requirements.Doc
	Dirs    []phase.Dir

	roadmapText string
	reqsText    string
}

// locked runs fn with ROADMAP.md, STATE.md and REQUIREMENTS.md locked and
// loaded. ROADMAP.md must exist.
func (e *Engine) locked(fn func(d *docs) error) error {
	return e.Locks.WithLock(e.Store.RoadmapPath(), func() error {
		return e.Locks.WithLock(e.Store.StatePath(), func() error {
			return e.Locks.WithLock(e.Store.RequirementsPath(), func() error {
				d, err := e.load()
				if err != nil {
					return err
				}
				return fn(d)
			})
		})
	})
}

func (e *Engine) load() (*docs, error) {
	d := &docs{}
	data, err := os.ReadFile(e.Store.RoadmapPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, planerr.NotFound("ROADMAP.md")
	}
	if err != nil {
		return nil, err
	}
	d.roadmapText = string(data)
	d.Roadmap = roadmap.Parse(d.roadmapText)

	d.State, err = state.Load(e.Store.Dir)
	if err != nil && !planerr.IsNotFound(err) {
		return nil, err
	}

	data, err = os.ReadFile(e.Store.RequirementsPath())
	switch {
	case err == nil:
		d.reqsText = string(data)
		d.Reqs = requirements.Parse(d.reqsText)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	d.Dirs, err = phase.ScanDirs(e.Store.PhasesDir())
	if err != nil {
		return nil, fmt.Errorf("scanning phases: %w", err)
	}
	return d, nil
}

// save writes back whichever documents changed. It reports which ones.
func (e *Engine) save(d *docs) (roadmapSaved, stateSaved, reqsSaved bool, err error) {
	if text := d.Roadmap.String(); text != d.roadmapText {
		if err := atomicfile.Write(e.Store.RoadmapPath(), []byte(text)); err != nil {
			return false, false, false, fmt.Errorf("writing ROADMAP.md: %w", err)
		}
		roadmapSaved = true
	}
	if d.State != nil && d.State.Changed() {
		if err := d.State.Save(); err != nil {
			return roadmapSaved, false, false, err
		}
		stateSaved = true
	}
	if d.Reqs != nil {
		if text := d.Reqs.String(); text != d.reqsText {
			if err := atomicfile.Write(e.Store.RequirementsPath(), []byte(text)); err != nil {
				return roadmapSaved, stateSaved, false, fmt.Errorf("writing REQUIREMENTS.md: %w", err)
			}
			reqsSaved = true
		}
	}
	return roadmapSaved, stateSaved, reqsSaved, nil
}

// adjustTotal adds delta to STATE.md's "Total Phases" counter, if present.
func adjustTotal(st *state.Document, delta int) {
	if st == nil {
		return
	}
	if n, ok := st.IntField("Total Phases"); ok {
		st.SetField("Total Phases", fmt.Sprint(max(n+delta, 0)))
	}
}

func (e *Engine) phaseDir(name string) string {
	return filepath.Join(e.Store.PhasesDir(), name)
}
