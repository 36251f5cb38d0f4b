// Package progress records task-level progress through a plan so that an
// interrupted execution can be resumed. A snapshot lives in
// ".planning/.PROGRESS-<plan id>" while the plan runs and is deleted when
// it finishes; one left behind by a crashed run is orphaned and gets folded
// into STATE.md by Recover.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/lock"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/state"
)

const filePrefix = ".PROGRESS-"

var planIDRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?-[0-9]+$`)

// Snapshot is the content of one progress file.
type Snapshot struct {
	PlanID            string `json:"plan_id"`
	LastCompletedTask int    `json:"last_completed_task"`
	TotalTasks        int    `json:"total_tasks"`
	LastCommit        string `json:"last_commit"`
	Timestamp         string `json:"timestamp"`
}

// Line renders the snapshot for humans: "Progress: 01-03 task 1/2".
func (s Snapshot) Line() string {
	line := fmt.Sprintf("Progress: %s task %d/%d", s.PlanID, s.LastCompletedTask, s.TotalTasks)
	if s.LastCommit != "" {
		line += " (last commit: " + s.LastCommit + ")"
	}
	return line
}

// Orphan is a snapshot older than the orphan threshold.
type Orphan struct {
	PlanID     string `json:"plan_id"`
	AgeMinutes int    `json:"age_minutes"`
}

// Store reads and writes snapshots in one planning directory.
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

// ValidatePlanID accepts ids of the form "<phase>-<seq>", e.g. "01-02" or "06.1-03".
func ValidatePlanID(id string) error {
	if !planIDRe.MatchString(id) {
		return planerr.Usage("Invalid plan id %q (expected <phase>-<plan>, e.g. 01-02)", id)
	}
	return nil
}

func (s *Store) path(planID string) string {
	return filepath.Join(s.Dir, filePrefix+planID)
}

// Write records that task of total is done for planID.
func (s *Store) Write(planID string, task, total int, commit string) (Snapshot, error) {
	if err := ValidatePlanID(planID); err != nil {
		return Snapshot{}, err
	}
	if task < 0 || total <= 0 || task > total {
		return Snapshot{}, planerr.Usage("task must be between 0 and total (got %d/%d)", task, total)
	}
	snap := Snapshot{
		PlanID:            planID,
		LastCompletedTask: task,
		TotalTasks:        total,
		LastCommit:        commit,
		Timestamp:         s.now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Snapshot{}, err
	}
	if err := atomicfile.WriteNoBackup(s.path(planID), append(data, '\n')); err != nil {
		return Snapshot{}, fmt.Errorf("writing progress for %s: %w", planID, err)
	}
	return snap, nil
}

// Read returns the snapshot for planID and whether one exists.
func (s *Store) Read(planID string) (Snapshot, bool, error) {
	if err := ValidatePlanID(planID); err != nil {
		return Snapshot{}, false, err
	}
	snap, err := readFile(s.path(planID))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{PlanID: planID}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	if snap.PlanID == "" {
		snap.PlanID = planID
	}
	return snap, true, nil
}

// Delete removes the snapshot for planID and reports whether it existed.
func (s *Store) Delete(planID string) (bool, error) {
	if err := ValidatePlanID(planID); err != nil {
		return false, err
	}
	err := os.Remove(s.path(planID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, err
}

type file struct {
	planID string
	path   string
	age    time.Duration
}

func (s *Store) files() ([]file, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var out []file
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, file{
			planID: strings.TrimPrefix(e.Name(), filePrefix),
			path:   filepath.Join(s.Dir, e.Name()),
			age:    s.now().Sub(info.ModTime()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].planID < out[j].planID })
	return out, nil
}

// List returns every readable snapshot, ordered by plan id.
func (s *Store) List() ([]Snapshot, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	out := []Snapshot{}
	for _, f := range files {
		snap, err := readFile(f.path)
		if err != nil {
			continue
		}
		if snap.PlanID == "" {
			snap.PlanID = f.planID
		}
		out = append(out, snap)
	}
	return out, nil
}

// CheckOrphaned lists snapshots whose file is at least threshold old.
func (s *Store) CheckOrphaned(threshold time.Duration) ([]Orphan, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	out := []Orphan{}
	for _, f := range files {
		if f.age >= threshold {
			out = append(out, Orphan{PlanID: f.planID, AgeMinutes: int(f.age / time.Minute)})
		}
	}
	return out, nil
}

// Recovery reports what Recover did.
type Recovery struct {
	Recovered    []string `json:"recovered"`
	StateUpdated bool     `json:"state_updated"`
}

// Recover folds every snapshot at least threshold old into STATE.md as a
// "Recovery Info" note and then deletes those snapshots. A zero threshold
// takes them all. Unparseable snapshots are noted as unreadable and removed
// too. Without a STATE.md the snapshots are still removed.
func (s *Store) Recover(locks *lock.Manager, threshold time.Duration) (Recovery, error) {
	rec := Recovery{Recovered: []string{}}
	files, err := s.files()
	if err != nil {
		return rec, err
	}
	var orphaned []file
	for _, f := range files {
		if f.age >= threshold {
			orphaned = append(orphaned, f)
		}
	}
	if len(orphaned) == 0 {
		return rec, nil
	}

	for _, f := range orphaned {
		snap, err := readFile(f.path)
		if err != nil {
			rec.Recovered = append(rec.Recovered, filePrefix+f.planID+": unreadable")
			continue
		}
		rec.Recovered = append(rec.Recovered, recoveryLine(f.planID, snap))
	}

	note := []string{fmt.Sprintf("Orphaned progress detected (%s):", s.now().UTC().Format("2006-01-02 15:04:05"))}
	for _, r := range rec.Recovered {
		note = append(note, "- "+r)
	}
	note = append(note, "Resume the listed plans to continue.")

	err = state.Update(locks, s.Dir, func(d *state.Document) error {
		d.AppendRecovery(note...)
		return nil
	})
	switch {
	case err == nil:
		rec.StateUpdated = true
	case planerr.IsNotFound(err):
	default:
		// Keep the snapshots; nothing was recorded.
		return rec, err
	}

	var errs []error
	for _, f := range orphaned {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return rec, errors.Join(errs...)
}

func recoveryLine(planID string, snap Snapshot) string {
	line := fmt.Sprintf("%s: task %d/%d", planID, snap.LastCompletedTask, snap.TotalTasks)
	if snap.LastCommit != "" {
		line += " (last commit: " + snap.LastCommit + ")"
	}
	return line
}

func readFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return snap, nil
}
