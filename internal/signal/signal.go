// Package signal manages the small flag files that coordinate agent
// invocations: ".planning/.active-agent", ".planning/.auto-next" and so on.
// Each signal holds a single line. Signals are written by one invocation
// at a time and need no lock; deleting a missing signal succeeds.
package signal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/planerr"
)

// Names are the signals an agent may set.
var Names = []string{"active-agent", "active-skill", "active-operation", "active-plan", "auto-next"}

// Trackers are counters maintained by hooks. They are only removed by Cleanup.
var Trackers = []string{"context-tracker", "compact-counter"}

// Value is the result of reading one signal.
type Value struct {
	Signal string `json:"signal"`
	Value  string `json:"value"`
	Exists bool   `json:"exists"`
}

// Entry is one present signal.
type Entry struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	AgeMinutes int    `json:"age_minutes"`
}

// Stale is a signal older than the staleness threshold.
type Stale struct {
	Name       string `json:"name"`
	AgeMinutes int    `json:"age_minutes"`
}

// Store reads and writes signals in one planning directory.
type Store struct {
	Dir string
	Now func() time.Time
}

func New(planningDir string) *Store {
	return &Store{Dir: planningDir, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Validate rejects names outside the allow-list.
func Validate(name string) error {
	for _, n := range Names {
		if n == name {
			return nil
		}
	}
	return planerr.Usage("Invalid signal name %q (valid: %s)", name, strings.Join(Names, ", "))
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, "."+name)
}

// Write sets a signal. Newlines in value are folded to spaces.
func (s *Store) Write(name, value string) error {
	if err := Validate(name); err != nil {
		return err
	}
	value = strings.Join(strings.Fields(strings.ReplaceAll(value, "\n", " ")), " ")
	if err := atomicfile.WriteNoBackup(s.path(name), []byte(value+"\n")); err != nil {
		return fmt.Errorf("writing signal %s: %w", name, err)
	}
	return nil
}

// Read returns a signal's value. A missing signal is not an error.
func (s *Store) Read(name string) (Value, error) {
	if err := Validate(name); err != nil {
		return Value{}, err
	}
	v := Value{Signal: name}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("reading signal %s: %w", name, err)
	}
	v.Value = strings.TrimSpace(string(data))
	v.Exists = true
	return v, nil
}

// Delete removes a signal.
func (s *Store) Delete(name string) error {
	if err := Validate(name); err != nil {
		return err
	}
	return remove(s.path(name))
}

// List returns every signal that is currently set, in allow-list order.
func (s *Store) List() ([]Entry, error) {
	out := []Entry{}
	for _, name := range Names {
		info, err := os.Stat(s.path(name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(s.path(name))
		if err != nil {
			// removed between stat and read
			continue
		}
		out = append(out, Entry{
			Name:       name,
			Value:      strings.TrimSpace(string(data)),
			AgeMinutes: minutes(s.now().Sub(info.ModTime())),
		})
	}
	return out, nil
}

// Cleanup removes all signals and trackers and reports how many files
// were removed.
func (s *Store) Cleanup() (int, error) {
	removed := 0
	var errs []error
	for _, name := range append(append([]string(nil), Names...), Trackers...) {
		err := os.Remove(s.path(name))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

// CheckStale lists signals whose file is at least threshold old.
func (s *Store) CheckStale(threshold time.Duration) ([]Stale, error) {
	entries, err := s.ages()
	if err != nil {
		return nil, err
	}
	out := []Stale{}
	for _, e := range entries {
		if e.age >= threshold {
			out = append(out, Stale{Name: e.name, AgeMinutes: minutes(e.age)})
		}
	}
	return out, nil
}

type aged struct {
	name string
	age  time.Duration
}

func (s *Store) ages() ([]aged, error) {
	var out []aged
	for _, name := range Names {
		info, err := os.Stat(s.path(name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, aged{name: name, age: s.now().Sub(info.ModTime())})
	}
	return out, nil
}

func remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func minutes(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
